// Package preflight provides readiness checks for the external toolchain a
// build pipeline depends on (JS runtime and package managers, mobile-app
// shell and wrapper CLIs, Java, Android SDK, Gradle) and for the filesystem
// roots the daemon writes to.
//
// The CLI status subcommand calls RunAll to render a health table. The
// serve, worker and all subcommands do not run these checks at startup; a
// missing tool surfaces as an EnvironmentError once a task needs it.
package preflight

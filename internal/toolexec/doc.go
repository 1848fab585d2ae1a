// Package toolexec runs external build tools (npm/yarn/pnpm, bundlers, the
// Android SDK, Gradle) as OS subprocesses behind a small value-object
// interface, and decorates long-running invocations with a synthetic
// progress heartbeat while they run. Grounded on the teacher's
// internal/services/makemkv.Client Executor abstraction over
// exec.CommandContext.
package toolexec

// Package repair implements spec.md §4.5.8's auto-repair pass over a
// bundler-based front-end project: patching the bundler config for older
// Android webviews, filling in a missing entry stylesheet, scaffolding
// Tailwind when it's used but unconfigured, and adding implicit peer
// dependencies known to be needed by packages the project already has
// installed. Every change is idempotent and reported through a Log so a
// pipeline stage can surface exactly what it did.
package repair

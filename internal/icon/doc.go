// Package icon resizes a source icon (custom upload or bundled default) to
// the fixed Android density tables used by the shell-style and
// wrapper-style build pipelines, using a "contain" fit with transparent
// padding, and injects the results into the appropriate project layout.
package icon

// Package pipeline implements the two stage.Handler build pipelines
// (spec.md §4.5.2 HTML, §4.5.3 zip), sharing the common preconditions from
// §4.5.1: Android SDK resolution, workspace preparation, and process
// environment setup, so each pipeline's Execute only has to describe its
// own stage sequence.
package pipeline

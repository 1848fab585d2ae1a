// Package projecttype implements the zip pipeline's heuristics (spec.md
// §4.5.7) for classifying an extracted front-end project: which config
// files it carries determine its build output directory and whether
// auto-repair applies, and which lockfile it carries (plus which package
// managers are actually installed) determines the install/build command.
package projecttype

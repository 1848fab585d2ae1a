// Package appid derives Android application identifiers and sanitized
// workspace directory names from arbitrary user-supplied strings, per the
// "App Identifier Derivation" rules: lowercase, ASCII-fold, and reshape into
// dot-separated Java package segments prefixed with com.vibecoding.
package appid

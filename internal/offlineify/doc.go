// Package offlineify implements spec.md §4.5.4's HTML offlineify
// sub-pipeline: detecting a page's reliance on CDN-hosted scripts,
// in-browser Babel compilation, or Google Fonts, and rewriting it into a
// self-contained bundle with every network dependency vendored locally so
// the packaged app runs with no network access.
package offlineify

// Package htmlpatch applies the idempotent transformations the HTML
// pipeline needs before an index.html can run inside the mobile-app shell's
// webview: a viewport meta tag, a permissive Content-Security-Policy meta
// tag, and a cordova.js script tag. Every patch checks for the node it
// would insert before inserting it, so patching an already-patched document
// is a no-op.
package htmlpatch

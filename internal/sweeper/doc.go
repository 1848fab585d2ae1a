// Package sweeper implements the periodic retention sweep: at worker
// startup and on a fixed interval thereafter, it scans the builds root and
// removes any entry older than the configured retention window. Grounded on
// the glob-and-mtime-cutoff pattern in the example pack's
// internal/archive.CleanOldArchives, generalized from a fixed *.zip glob to
// a full directory scan (files or directories) since build workspaces and
// finished APKs share the builds root.
package sweeper

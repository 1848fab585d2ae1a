// Package storage manages vibe2apk's two file roots: the per-task uploads
// directory (source artifacts and icons awaiting a build) and the builds
// directory (finished APKs). It owns naming and path derivation only; the
// periodic reclaim pass lives in internal/sweeper.
package storage

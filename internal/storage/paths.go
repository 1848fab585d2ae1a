package storage

import (
	"path/filepath"
	"strings"
)

// artifactSeparator joins an app's display name to its owning task id in
// every artifact filename, per SPEC_FULL's resolution of the reference
// spec's open question: both the HTML and zip pipelines use the same
// "<appName>--<taskId>.apk" naming, since the taskId suffix is what
// prevents same-name collisions across concurrent builds and there's no
// reason for the two pipelines to disagree about it.
const artifactSeparator = "--"

// UploadDir returns the per-task directory holding the original upload and
// optional icon, under uploadsRoot.
func UploadDir(uploadsRoot, taskID string) string {
	return filepath.Join(uploadsRoot, taskID)
}

// WorkspaceDir returns the per-task build workspace, under buildsRoot.
func WorkspaceDir(buildsRoot, taskID string) string {
	return filepath.Join(buildsRoot, taskID)
}

// ArtifactFileName returns the on-disk file name for a finished APK.
func ArtifactFileName(appName, taskID string) string {
	return appName + artifactSeparator + taskID + ".apk"
}

// ArtifactPath returns the full path for a finished APK.
func ArtifactPath(buildsRoot, appName, taskID string) string {
	return filepath.Join(buildsRoot, ArtifactFileName(appName, taskID))
}

// DownloadFileName strips the internal "--<taskId>" suffix from an artifact
// path's base name, returning the name a client should see in the
// Content-Disposition header.
func DownloadFileName(artifactPath string) string {
	base := filepath.Base(artifactPath)
	if idx := strings.LastIndex(base, artifactSeparator); idx >= 0 {
		ext := filepath.Ext(base)
		suffix := base[idx+len(artifactSeparator):]
		if strings.HasSuffix(suffix, ext) {
			return base[:idx] + ext
		}
	}
	return base
}

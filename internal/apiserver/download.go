package apiserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"vibe2apk/internal/queue"
	"vibe2apk/internal/storage"
)

// handleDownload implements GET /api/build/{taskId}/download.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("taskId")
	task, err := s.store.Get(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, queue.ErrNotFound) {
			writeError(w, http.StatusNotFound, "build not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if task.Status != queue.StatusCompleted || task.Result == nil || !task.Result.Success {
		writeError(w, http.StatusBadRequest, "build is not complete")
		return
	}

	artifactPath := task.Result.ArtifactPath
	if _, statErr := os.Stat(artifactPath); statErr != nil {
		writeError(w, http.StatusNotFound, "artifact no longer available")
		return
	}

	fileName := storage.DownloadFileName(artifactPath)
	w.Header().Set("Content-Type", "application/vnd.android.package-archive")
	w.Header().Set("Content-Disposition", contentDisposition(fileName))
	http.ServeFile(w, r, artifactPath)
}

// contentDisposition builds the RFC 5987 dual-form header spec.md §4.1
// requires: an ASCII-safe fallback filename (non-ASCII codepoints replaced
// by '_') alongside the exact UTF-8 name, percent-encoded.
func contentDisposition(name string) string {
	ascii := strings.ReplaceAll(asciiFallback(name), `"`, `_`)
	encoded := url.PathEscape(name)
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, ascii, encoded)
}

func asciiFallback(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r > 0 && r < 128 {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

package apiserver

import (
	"errors"
	"net/http"
	"os"

	"vibe2apk/internal/queue"
	"vibe2apk/internal/storage"
)

// handleCancel implements DELETE /api/build/{taskId}: spec.md §4.1's
// cancel/cleanup contract. An active job is rejected with 400 (no
// preemption); any other state is removed from the queue and its uploads
// subdirectory and artifact are deleted.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
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

	if err := s.store.Cancel(r.Context(), taskID); err != nil {
		switch {
		case errors.Is(err, queue.ErrNotFound):
			writeError(w, http.StatusNotFound, "build not found")
		case errors.Is(err, queue.ErrActiveConflict):
			writeError(w, http.StatusBadRequest, "build is active and cannot be cancelled")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	_ = os.RemoveAll(storage.UploadDir(s.cfg.UploadsDir, taskID))
	if task.Result != nil && task.Result.ArtifactPath != "" {
		_ = os.Remove(task.Result.ArtifactPath)
	}

	writeJSON(w, http.StatusOK, map[string]string{"taskId": taskID, "status": "cancelled"})
}

package apiserver

import (
	"errors"
	"net/http"
	"os"
	"time"

	"vibe2apk/internal/queue"
	"vibe2apk/internal/storage"
)

type statusResponse struct {
	TaskID         string          `json:"taskId"`
	Status         string          `json:"status"`
	FileName       string          `json:"fileName,omitempty"`
	Progress       *queue.Progress `json:"progress,omitempty"`
	QueuePosition  int             `json:"queuePosition,omitempty"`
	QueueTotal     int             `json:"queueTotal,omitempty"`
	Result         *resultView     `json:"result,omitempty"`
	DownloadURL    string          `json:"downloadUrl,omitempty"`
	APKSize        int64           `json:"apkSize,omitempty"`
	Error          string          `json:"error,omitempty"`
	ExpiresAt      *time.Time      `json:"expiresAt,omitempty"`
	RetentionHours int             `json:"retentionHours"`
}

type resultView struct {
	Success    bool  `json:"success"`
	DurationMS int64 `json:"durationMs"`
}

// wireStatus collapses the internal queue.Status vocabulary {waiting,
// active, completed, failed} onto the wire vocabulary spec.md §4.1 names
// {pending, active, completed, failed}, applying the "a completed job whose
// result has success=false is reported as failed" collapse rule.
func wireStatus(status queue.Status, result *queue.Result) string {
	switch status {
	case queue.StatusWaiting:
		return "pending"
	case queue.StatusCompleted:
		if result != nil && !result.Success {
			return "failed"
		}
		return "completed"
	default:
		return string(status)
	}
}

// handleStatus implements GET /api/build/{taskId}/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
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

	resp := statusResponse{
		TaskID:         task.ID,
		Status:         wireStatus(task.Status, task.Result),
		RetentionHours: task.RetentionHours,
	}

	switch task.Status {
	case queue.StatusWaiting, queue.StatusActive:
		progress := task.Progress
		resp.Progress = &progress
		if task.Status == queue.StatusWaiting {
			if position, total, posErr := s.store.QueuePosition(r.Context(), taskID); posErr == nil {
				resp.QueuePosition = position
				resp.QueueTotal = total
			}
		}
	case queue.StatusCompleted, queue.StatusFailed:
		s.fillTerminalStatus(&resp, task)
	}

	writeJSON(w, http.StatusOK, resp)
}

// fillTerminalStatus populates the result/download/error fields for a job
// that has reached completed or failed.
func (s *Server) fillTerminalStatus(resp *statusResponse, task *queue.Task) {
	if task.Result == nil {
		resp.Error = "build failed"
		return
	}
	resp.Result = &resultView{Success: task.Result.Success, DurationMS: task.Result.DurationMS}
	if !task.Result.Success {
		resp.Error = task.Result.Error
		return
	}
	resp.FileName = storage.DownloadFileName(task.Result.ArtifactPath)
	resp.DownloadURL = "/api/build/" + task.ID + "/download"
	info, err := os.Stat(task.Result.ArtifactPath)
	if err != nil {
		return
	}
	resp.APKSize = info.Size()
	expiresAt := info.ModTime().Add(s.cfg.FileRetention())
	resp.ExpiresAt = &expiresAt
}

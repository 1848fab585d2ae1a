package apiserver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vibe2apk/internal/appid"
	"vibe2apk/internal/apperrors"
	"vibe2apk/internal/logging"
	"vibe2apk/internal/metrics"
	"vibe2apk/internal/queue"
	"vibe2apk/internal/storage"
)

var (
	htmlExtensions = []string{".html", ".htm"}
	zipExtensions  = []string{".zip"}
	iconExtensions = []string{".png", ".jpg", ".jpeg"}
)

// errIconTooLarge marks an oversize icon so handleBuild can surface it as
// 413, matching the "413 via the framework's body-size guard on oversize"
// rule spec.md §4.1 states for the upload contract as a whole, not just the
// primary file.
var errIconTooLarge = errors.New("icon exceeds the configured size limit")

// handleBuildHTML implements POST /api/build/html.
func (s *Server) handleBuildHTML(w http.ResponseWriter, r *http.Request) {
	s.handleBuild(w, r, queue.KindHTML, htmlExtensions, "MyVibeApp")
}

// handleBuildZip implements POST /api/build/zip.
func (s *Server) handleBuildZip(w http.ResponseWriter, r *http.Request) {
	s.handleBuild(w, r, queue.KindZip, zipExtensions, "MyReactApp")
}

// handleBuild implements spec.md §4.1's shared upload contract for both
// build kinds: validate the multipart form, persist the upload (and
// optional icon) under <uploads>/<taskId>/, admit a new task, and respond
// with the pending job's identity and follow-up URLs.
func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request, kind queue.Kind, allowedExt []string, defaultAppName string) {
	trace := newTraceID()
	ctx := logging.WithTrace(r.Context(), trace)

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxFileSize+s.cfg.MaxIconSize+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var mbErr *http.MaxBytesError
		if errors.As(err, &mbErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds the configured size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, `missing required "file" field`)
		return
	}
	defer file.Close()

	if !hasAnyExt(header.Filename, allowedExt) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("file must have one of these extensions: %s", strings.Join(allowedExt, ", ")))
		return
	}
	if header.Size > s.cfg.MaxFileSize {
		writeError(w, http.StatusRequestEntityTooLarge, "file exceeds the configured size limit")
		return
	}

	appName := resolveAppName(r.FormValue("appName"), header.Filename, defaultAppName)
	appID := strings.TrimSpace(r.FormValue("appId"))
	if appID == "" {
		appID = appid.Derive(appName)
	}
	safeAppName := appid.SanitizeDirName(appName)

	taskID := newTaskID()
	ctx = logging.WithTaskID(ctx, taskID)

	uploadDir := storage.UploadDir(s.cfg.UploadsDir, taskID)
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		writeAppError(w, apperrors.Wrap(apperrors.ErrInternal, "api", "prepare upload dir", "", err))
		return
	}

	uploadPath := filepath.Join(uploadDir, filepath.Base(header.Filename))
	if err := saveUpload(file, uploadPath); err != nil {
		s.abandonUpload(uploadDir)
		writeAppError(w, apperrors.Wrap(apperrors.ErrInternal, "api", "save upload", "", err))
		return
	}

	iconPath, err := s.saveOptionalIcon(r, uploadDir)
	if err != nil {
		s.abandonUpload(uploadDir)
		if errors.Is(err, errIconTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		writeAppError(w, err)
		return
	}

	task := &queue.Task{
		ID:             taskID,
		Kind:           kind,
		AppName:        safeAppName,
		AppID:          appID,
		UploadPath:     uploadPath,
		IconPath:       iconPath,
		OutputDir:      s.cfg.BuildsDir,
		CreatedAt:      time.Now(),
		Status:         queue.StatusWaiting,
		RetentionHours: s.cfg.FileRetentionHours,
	}

	if _, err := s.store.Enqueue(ctx, task); err != nil {
		s.abandonUpload(uploadDir)
		writeAppError(w, apperrors.Wrap(apperrors.ErrInternal, "api", "enqueue", "", err))
		return
	}

	metrics.BuildsSubmittedTotal.WithLabelValues(string(kind)).Inc()

	logging.WithContext(ctx, s.logger).Info("build admitted",
		slog.String(logging.FieldApp, safeAppName),
		slog.String(logging.FieldType, string(kind)),
		slog.Int64(logging.FieldSize, header.Size),
	)

	writeJSON(w, http.StatusOK, map[string]string{
		"taskId":      taskID,
		"status":      wireStatus(queue.StatusWaiting, nil),
		"statusUrl":   fmt.Sprintf("/api/build/%s/status", taskID),
		"downloadUrl": fmt.Sprintf("/api/build/%s/download", taskID),
	})
}

// saveOptionalIcon persists the "icon" multipart field, if present, applying
// the extension and size limits from the upload contract. A missing icon
// field is not an error.
func (s *Server) saveOptionalIcon(r *http.Request, uploadDir string) (string, error) {
	file, header, err := r.FormFile("icon")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", apperrors.Wrap(apperrors.ErrValidation, "api", "read icon", err.Error(), nil)
	}
	defer file.Close()

	if !hasAnyExt(header.Filename, iconExtensions) {
		return "", apperrors.Wrap(apperrors.ErrValidation, "api", "validate icon", "icon must be .png, .jpg, or .jpeg", nil)
	}
	if header.Size > s.cfg.MaxIconSize {
		return "", errIconTooLarge
	}

	iconPath := filepath.Join(uploadDir, "icon-"+filepath.Base(header.Filename))
	if err := saveUpload(file, iconPath); err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternal, "api", "save icon", "", err)
	}
	return iconPath, nil
}

func (s *Server) abandonUpload(uploadDir string) {
	if err := os.RemoveAll(uploadDir); err != nil {
		s.logger.Warn("failed to clean up rejected upload", slog.String("dir", uploadDir), logging.Error(err))
	}
}

func saveUpload(src multipart.File, dst string) error {
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, src)
	return err
}

func hasAnyExt(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// resolveAppName implements the upload contract's appName fallback chain:
// trimmed form value, else the upload's basename without extension, else
// the build kind's default.
func resolveAppName(provided, uploadFilename, fallback string) string {
	if trimmed := strings.TrimSpace(provided); trimmed != "" {
		return trimmed
	}
	base := strings.TrimSuffix(filepath.Base(uploadFilename), filepath.Ext(uploadFilename))
	if base = strings.TrimSpace(base); base != "" {
		return base
	}
	return fallback
}

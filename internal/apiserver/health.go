package apiserver

import "net/http"

// handleHealth is a pure liveness probe: if the process can answer HTTP at
// all, it reports healthy. It deliberately does not touch the queue backend
// so it never reflects Redis being down as the API process being down.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMeta reports service metadata: the two build kinds it accepts and
// the upload limits a client should respect before submitting.
func (s *Server) handleMeta(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":     "vibe2apk",
		"buildKinds":  []string{"html", "zip"},
		"maxFileSize": s.cfg.MaxFileSize,
		"maxIconSize": s.cfg.MaxIconSize,
	})
}

package apiserver

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vibe2apk/internal/logging"
	"vibe2apk/internal/metrics"
)

type ctxKey int

const ctxKeyAuthenticated ctxKey = iota

// authenticate is a soft gate, per spec.md §1's Non-goal "authentication
// beyond an optional bearer token that unlocks higher quotas": a missing
// Authorization header is fine (anonymous, the default rate-limit tier); a
// well-formed bearer token matching cfg.APIToken marks the request
// authenticated so rateLimited picks the higher tier; a malformed or wrong
// token is rejected with 401, matching the "Unauthorized" entry in §6's
// known error-value table. When no token is configured, auth is disabled
// outright and any Authorization header is ignored.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := strings.TrimSpace(r.Header.Get("Authorization"))
		if auth == "" || s.cfg.APIToken == "" {
			next.ServeHTTP(w, r)
			return
		}
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token != s.cfg.APIToken {
			writeError(w, http.StatusUnauthorized, "invalid or missing bearer token")
			return
		}
		authed := r.WithContext(context.WithValue(r.Context(), ctxKeyAuthenticated, true))
		next.ServeHTTP(w, authed)
		// The mux records the matched pattern on the copy it received; carry
		// it back so observeMetrics labels authenticated requests by route.
		r.Pattern = authed.Pattern
	})
}

// metricsStatusWriter captures the response status for metrics without
// duplicating logging.RequestLogger's own recorder, since the two
// middlewares wrap the handler chain at different layers.
type metricsStatusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *metricsStatusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *metricsStatusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.status = http.StatusOK
		w.wroteHeader = true
	}
	return w.ResponseWriter.Write(b)
}

// observeMetrics records HTTPRequestsTotal/HTTPRequestDurationSeconds for
// every request. routeLabel uses r.Pattern, the pattern the ServeMux
// actually matched (e.g. "GET /api/build/{taskId}/status"), so a build
// task's id never becomes its own metric label value.
func observeMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &metricsStatusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = r.URL.Path
		}
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDurationSeconds.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func isAuthenticated(r *http.Request) bool {
	v, _ := r.Context().Value(ctxKeyAuthenticated).(bool)
	return v
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

// rateLimited scopes admission quota to POST /api/build/*, per spec.md
// §3/§4.1: keyed by the first X-Forwarded-For hop if present else the peer
// address, capacity 5 anonymous / 20 authenticated by default, backed by
// queue.Store.Allow's fixed-window counter shared across API instances.
func (s *Server) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.cfg.RateLimit.Enabled {
			next(w, r)
			return
		}
		max := s.cfg.RateLimit.Max
		if isAuthenticated(r) {
			max = s.cfg.RateLimit.AuthenticatedMax
		}
		bucket := clientID(r)
		allowed, retryAfter, err := s.store.Allow(r.Context(), bucket, max, s.cfg.RateLimit.Window)
		if err != nil {
			s.logger.Error("rate limit check failed", logging.Error(err))
			writeError(w, http.StatusInternalServerError, "rate limit check failed")
			return
		}
		if !allowed {
			metrics.RateLimitRejectionsTotal.WithLabelValues(boolLabel(isAuthenticated(r))).Inc()
			writeRateLimited(w, int(retryAfter.Seconds()))
			return
		}
		next(w, r)
	}
}

// clientID extracts the rate-limit bucket key: the first hop of
// X-Forwarded-For if present, else the request's peer address with its port
// stripped.
func clientID(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0])
		if first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

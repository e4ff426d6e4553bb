package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/version"
)

// handler assembles the route table. Everything shares one port: the rendered
// site at /, live reload under /livereload, introspection under /api.
func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()

	if s.hub != nil {
		mux.Handle("/livereload", s.hub)
		mux.HandleFunc("/livereload.js", handleReloadScript)
	}
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/builds", s.handleBuilds)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", metrics.HTTPHandler(s.registry))

	site := s.siteHandler()
	if s.hub != nil {
		site = injectReloadScript(site)
	}
	mux.Handle("/", site)

	return Chain(slog.Default())(mux)
}

// siteHandler serves the output tree. Until the first successful build it
// answers every request with a self-refreshing rebuild page instead, so a
// browser opened too early lands on the site as soon as it exists.
func (s *Server) siteHandler() http.Handler {
	fileServer := http.FileServer(http.Dir(s.dirs.Output))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, lastErr := s.status.canServe()
		if !ok {
			s.writeRebuildPage(w, lastErr)
			return
		}
		// Browsers must never cache dev output, or edits look like no-ops.
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		fileServer.ServeHTTP(w, r)
	})
}

// writeRebuildPage renders the 503 placeholder shown before the first good
// build. The Refresh header plus the inline script keep the page retrying
// until the build lands, with or without JavaScript.
func (s *Server) writeRebuildPage(w http.ResponseWriter, lastErr error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Refresh", "2")
	w.WriteHeader(http.StatusServiceUnavailable)

	detail := "<p>The site is being generated. This page reloads automatically.</p>"
	if lastErr != nil {
		detail = fmt.Sprintf(
			"<p>The last build failed. Fix the error below and save to rebuild automatically.</p><h2>Error</h2><pre>%s</pre>",
			html.EscapeString(lastErr.Error()))
	}

	_, _ = fmt.Fprintf(w, `<!doctype html><html><head><meta charset="utf-8"><title>Site Rebuilding</title><style>body{font-family:sans-serif;max-width:800px;margin:50px auto;padding:20px}h1{color:#555}pre{background:#f5f5f5;padding:15px;border-radius:4px;overflow-x:auto}</style></head><body><h1>Site Rebuilding</h1>%s<script>setTimeout(function(){location.reload()},2000)</script></body></html>`, detail)
}

func handleReloadScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write([]byte(LiveReloadScript))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := writeJSON(w, http.StatusOK, s.status.snapshot()); err != nil {
		http.Error(w, "encoding status failed", http.StatusInternalServerError)
	}
}

func (s *Server) handleBuilds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	rows, err := s.hist.Recent(r.Context(), limit)
	if err != nil {
		slog.Error("listing build history failed", logfields.Error(err))
		http.Error(w, "listing build history failed", http.StatusInternalServerError)
		return
	}
	if err := writeJSON(w, http.StatusOK, map[string]any{"builds": rows}); err != nil {
		http.Error(w, "encoding build history failed", http.StatusInternalServerError)
	}
}

// healthResponse is the JSON shape of /healthz.
type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    float64   `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	health := healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   version.Version,
		Uptime:    time.Since(s.startTime).Seconds(),
	}
	if err := writeJSON(w, http.StatusOK, health); err != nil {
		http.Error(w, "encoding health failed", http.StatusInternalServerError)
	}
}

// writeJSON encodes into an intermediate buffer so a marshal failure never
// sends a partial response.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(v); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("failed writing JSON response body", logfields.Error(err))
		return err
	}
	return nil
}

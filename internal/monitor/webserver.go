// Package monitor serves the HTTP status and debug interface for the
// overlay daemon: a health check, a status page, JSON session endpoints,
// and chart handlers for inspecting recorded sessions.
package monitor

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/felo/sportai-web-sub011/internal/httputil"
	"github.com/felo/sportai-web-sub011/internal/session"
	"github.com/felo/sportai-web-sub011/internal/version"
)

//go:embed status.html
var statusHTML embed.FS

// WebServer handles the HTTP interface for monitoring the overlay engine
type WebServer struct {
	address string
	stats   *RenderStats
	store   *session.Store
	preview *Preview
	server  *http.Server
	model   string
	source  string
}

// WebServerConfig contains configuration options for the web server
type WebServerConfig struct {
	Address string
	Stats   *RenderStats
	Store   *session.Store
	Preview *Preview
	Model   string
	Source  string
}

// NewWebServer creates a new web server with the provided configuration
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address: config.Address,
		stats:   config.Stats,
		store:   config.Store,
		preview: config.Preview,
		model:   config.Model,
		source:  config.Source,
	}

	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.setupRoutes(),
	}

	return ws
}

// Start begins the HTTP server in a goroutine and handles graceful shutdown
func (ws *WebServer) Start(ctx context.Context) error {
	// Start server in a goroutine so it doesn't block
	go func() {
		log.Printf("Starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for context cancellation to shut down server
	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	// Create a shutdown context with a shorter timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		// Force close the server if graceful shutdown fails
		if err := ws.server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}

	log.Printf("HTTP server routine stopped")
	return nil
}

// setupRoutes configures the HTTP routes and handlers
func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/", ws.handleStatus)
	mux.HandleFunc("/api/version", ws.handleVersion)
	mux.HandleFunc("/api/snapshot", ws.handleSnapshot)
	mux.HandleFunc("/preview.png", ws.handlePreviewPNG)
	mux.HandleFunc("/api/sessions", ws.handleSessions)
	mux.HandleFunc("/api/session", ws.handleSession)
	mux.HandleFunc("/api/session/samples", ws.handleSessionSamples)
	mux.HandleFunc("/api/session/summary", ws.handleSessionSummary)
	mux.HandleFunc("/api/session/label", ws.handleSessionLabel)
	mux.HandleFunc("/api/session/delete", ws.handleSessionDelete)
	mux.HandleFunc("/debug/charts/activity", ws.handleActivityChart)
	mux.HandleFunc("/debug/charts/orientation", ws.handleOrientationChart)
	mux.HandleFunc("/debug/charts/anchors", ws.handleAnchorChart)

	if ws.store != nil {
		ws.store.AttachAdminRoutes(mux)
	}

	return mux
}

// handleHealth handles the health check endpoint
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "ok", "service": "overlay", "timestamp": "%s"}`, time.Now().UTC().Format(time.RFC3339))
}

// handleVersion reports build identification for deploy checks.
func (ws *WebServer) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{
		"version":    version.Version,
		"git_sha":    version.GitSHA,
		"build_time": version.BuildTime,
	})
}

// handleSnapshot returns the latest rendered frame's overlay state.
func (ws *WebServer) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.preview == nil {
		httputil.NotFound(w, "no live render loop attached")
		return
	}
	snap := ws.preview.Snapshot()
	if snap == nil {
		httputil.NotFound(w, "no frame rendered yet")
		return
	}
	httputil.WriteJSONOK(w, snap)
}

// handlePreviewPNG serves the latest rendered frame as a PNG.
func (ws *WebServer) handlePreviewPNG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.preview == nil {
		httputil.NotFound(w, "no live render loop attached")
		return
	}
	png := ws.preview.PNG()
	if png == nil {
		httputil.NotFound(w, "no frame rendered yet")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}

// handleStatus handles the main status page endpoint
func (ws *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")

	// Load and parse the HTML template from embedded filesystem
	tmpl, err := template.ParseFS(statusHTML, "status.html")
	if err != nil {
		http.Error(w, "Error loading template: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Recent sessions are optional; the page still renders without a store
	var recent []*session.Session
	if ws.store != nil {
		sessions, err := ws.store.ListSessions("")
		if err != nil {
			log.Printf("status page: failed to list sessions: %v", err)
		} else {
			if len(sessions) > 5 {
				sessions = sessions[:5]
			}
			recent = sessions
		}
	}

	source := ws.source
	if source == "" {
		source = "none"
	}

	data := struct {
		HTTPAddress string
		Model       string
		Source      string
		Uptime      string
		Stats       *StatsSnapshot
		Sessions    []*session.Session
	}{
		HTTPAddress: ws.address,
		Model:       ws.model,
		Source:      source,
		Uptime:      ws.stats.GetUptime().Round(time.Second).String(),
		Stats:       ws.stats.GetLatestSnapshot(),
		Sessions:    recent,
	}

	if err := tmpl.Execute(w, data); err != nil {
		http.Error(w, "Error executing template: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// handleSessions returns a JSON array of recorded sessions, newest first.
// Query params:
//
//	model (optional) filters by pose model name
func (ws *WebServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.store == nil {
		httputil.InternalServerError(w, "no session store configured")
		return
	}

	sessions, err := ws.store.ListSessions(r.URL.Query().Get("model"))
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("list sessions: %v", err))
		return
	}
	if sessions == nil {
		sessions = []*session.Session{}
	}
	httputil.WriteJSONOK(w, sessions)
}

// handleSession returns one session with its sample count.
// Query params:
//
//	session_id (required)
func (ws *WebServer) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.store == nil {
		httputil.InternalServerError(w, "no session store configured")
		return
	}
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		httputil.BadRequest(w, "missing 'session_id' parameter")
		return
	}

	sess, err := ws.store.GetSession(sessionID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			httputil.NotFound(w, err.Error())
		} else {
			httputil.InternalServerError(w, fmt.Sprintf("get session: %v", err))
		}
		return
	}

	count, err := ws.store.SampleCount(sessionID)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("count samples: %v", err))
		return
	}

	httputil.WriteJSONOK(w, struct {
		Session     *session.Session `json:"session"`
		SampleCount int64            `json:"sample_count"`
	}{Session: sess, SampleCount: count})
}

// handleSessionSamples returns the recorded samples for a session in
// frame order.
// Query params:
//
//	session_id (required)
//	limit (optional, default 1000, max 10000)
func (ws *WebServer) handleSessionSamples(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.store == nil {
		httputil.InternalServerError(w, "no session store configured")
		return
	}
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		httputil.BadRequest(w, "missing 'session_id' parameter")
		return
	}
	limit := 1000
	if l := r.URL.Query().Get("limit"); l != "" {
		fmt.Sscanf(l, "%d", &limit)
		if limit <= 0 || limit > 10000 {
			limit = 1000
		}
	}

	samples, err := ws.store.SamplesForSession(sessionID, limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("get samples: %v", err))
		return
	}
	if samples == nil {
		samples = []*session.Sample{}
	}
	httputil.WriteJSONOK(w, samples)
}

// handleSessionLabel updates a session's label.
// Query params:
//
//	session_id (required)
//	label (required)
func (ws *WebServer) handleSessionLabel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.store == nil {
		httputil.InternalServerError(w, "no session store configured")
		return
	}
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		httputil.BadRequest(w, "missing 'session_id' parameter")
		return
	}
	label := r.URL.Query().Get("label")
	if label == "" {
		httputil.BadRequest(w, "missing 'label' parameter")
		return
	}

	if err := ws.store.UpdateLabel(sessionID, label); err != nil {
		if strings.Contains(err.Error(), "not found") {
			httputil.NotFound(w, err.Error())
		} else {
			httputil.InternalServerError(w, fmt.Sprintf("update label: %v", err))
		}
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{"ok": true, "session_id": sessionID, "label": label})
}

// handleSessionDelete removes a session and all of its samples.
// Query params:
//
//	session_id (required)
func (ws *WebServer) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.store == nil {
		httputil.InternalServerError(w, "no session store configured")
		return
	}
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		httputil.BadRequest(w, "missing 'session_id' parameter")
		return
	}

	if err := ws.store.DeleteSession(sessionID); err != nil {
		if strings.Contains(err.Error(), "not found") {
			httputil.NotFound(w, err.Error())
		} else {
			httputil.InternalServerError(w, fmt.Sprintf("delete session: %v", err))
		}
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{"ok": true, "session_id": sessionID})
}

// Close shuts down the web server
func (ws *WebServer) Close() error {
	if ws.server != nil {
		return ws.server.Close()
	}
	return nil
}

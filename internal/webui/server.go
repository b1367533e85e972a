// Package webui serves the browser rendition of the operator console. It is a
// thin presentation layer: every handler delegates to the console's mutation
// entry points and reports the refreshed state back to the page.
package webui

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	chi "github.com/go-chi/chi/v5"

	"ragops/internal/backend"
	"ragops/internal/common"
	"ragops/internal/console"
)

//go:embed static/index.html
var staticFS embed.FS

// Server exposes the console over HTTP for a local browser session.
type Server struct {
	router  chi.Router
	console *console.Console
}

func NewServer(c *console.Console) *Server {
	srv := &Server{router: chi.NewRouter(), console: c}
	srv.routes()
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("webui: request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start))
		})
	})

	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		page, err := staticFS.ReadFile("static/index.html")
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	})

	s.router.Get("/api/state", s.handleState)
	s.router.Get("/api/logs", s.handleLogs)
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/settings", s.handleGetSettings)
	s.router.Put("/api/settings", s.handleSetSettings)
	s.router.Post("/api/ingest/path", s.handleIngestPath)
	s.router.Post("/api/ingest/upload", s.handleIngestUpload)
	s.router.Post("/api/ingest/one", s.handleIngestOne)
	s.router.Post("/api/chat", s.handleChat)
	s.router.Post("/api/notification/dismiss", s.handleDismiss)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.console.Snapshot())
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"logs": common.LogEntries()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.console.Probe(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": status.String()})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"backend_base": s.console.BackendBase()})
}

func (s *Server) handleSetSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BackendBase string `json:"backend_base"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.console.SetBackendBase(req.BackendBase); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"backend_base": s.console.BackendBase()})
}

func (s *Server) handleIngestPath(w http.ResponseWriter, r *http.Request) {
	if s.console.Busy() {
		writeError(w, http.StatusConflict, errBusy)
		return
	}
	s.console.RunPathIngest(r.Context())
	writeJSON(w, http.StatusOK, s.console.Snapshot())
}

func (s *Server) handleIngestUpload(w http.ResponseWriter, r *http.Request) {
	if s.console.Busy() {
		writeError(w, http.StatusConflict, errBusy)
		return
	}
	const maxMemory = 64 << 20
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse upload form: %w", err))
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("no files provided"))
		return
	}
	uploads := make([]backend.Upload, 0, len(headers))
	for _, header := range headers {
		part, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("open upload %s: %w", header.Filename, err))
			return
		}
		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("read upload %s: %w", header.Filename, err))
			return
		}
		uploads = append(uploads, backend.Upload{Name: header.Filename, Data: data})
	}
	s.console.SetUploads(uploads)
	s.console.RunFilesIngest(r.Context())
	writeJSON(w, http.StatusOK, s.console.Snapshot())
}

func (s *Server) handleIngestOne(w http.ResponseWriter, r *http.Request) {
	if s.console.Busy() {
		writeError(w, http.StatusConflict, errBusy)
		return
	}
	var req struct {
		Filename  string `json:"filename"`
		MaxPages  *int   `json:"max_pages"`
		MaxChunks *int   `json:"max_chunks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.console.SetIngestOneParams(backend.IngestOneParams{
		Filename:  req.Filename,
		MaxPages:  req.MaxPages,
		MaxChunks: req.MaxChunks,
	})
	s.console.RunSingleIngest(r.Context())
	writeJSON(w, http.StatusOK, s.console.Snapshot())
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.console.Busy() {
		writeError(w, http.StatusConflict, errBusy)
		return
	}
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("question required"))
		return
	}
	s.console.SetQuestionDraft(req.Question)
	s.console.RunChat(r.Context())
	writeJSON(w, http.StatusOK, s.console.Snapshot())
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	s.console.DismissNotification()
	writeJSON(w, http.StatusOK, s.console.Snapshot())
}

var errBusy = fmt.Errorf("another operation is in flight")

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("webui: request failed", "status", status, "error", err)
	} else {
		logger.Warn("webui: request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

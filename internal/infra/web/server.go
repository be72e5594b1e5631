// Package web serves the editor UI and carries the session between the
// process and connected browsers over HTTP and WebSocket.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"voice-editor/internal/application"
)

//go:embed static
var staticFiles embed.FS

// Editor is what the plain HTTP endpoints need from the session.
type Editor interface {
	Submit(command string)
	Snapshot(ctx context.Context) (application.Snapshot, error)
}

type ServerConfig struct {
	Addr          string
	AuthToken     string
	RatePerMinute int
}

type Server struct {
	cfg         ServerConfig
	hub         *Hub
	editor      Editor
	logger      zerolog.Logger
	mux         *http.ServeMux
	rateLimiter *RateLimiter

	mu      sync.Mutex
	server  *http.Server
	running bool
}

func NewServer(cfg ServerConfig, hub *Hub, editor Editor, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:         cfg,
		hub:         hub,
		editor:      editor,
		logger:      logger.With().Str("component", "http").Logger(),
		mux:         http.NewServeMux(),
		rateLimiter: NewRateLimiter(cfg.RatePerMinute, time.Minute),
	}

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}

	s.mux.Handle("GET /", http.FileServer(http.FS(static)))
	s.mux.HandleFunc("GET /ws", s.requireAuth(hub.ServeWS))
	// Typed commands cost a model call each, so they are rate limited.
	s.mux.HandleFunc("POST /text", s.requireAuth(s.rateLimiter.Middleware(s.handleText)))
	s.mux.HandleFunc("GET /download", s.requireAuth(s.handleDownload))
	s.mux.HandleFunc("GET /health", s.handleHealth)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	s.server = &http.Server{
		Addr:        s.cfg.Addr,
		Handler:     s.mux,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	s.running = true
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("http server starting")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.setRunning(false)
		if err != nil {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.setRunning(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn().Err(err).Msg("graceful shutdown failed, forcing close")
		if err := s.server.Close(); err != nil {
			return fmt.Errorf("closing server: %w", err)
		}
	}
	return nil
}

func (s *Server) setRunning(running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = running
}

func (s *Server) authorized(r *http.Request) bool {
	if s.cfg.AuthToken == "" {
		return true
	}
	token := r.Header.Get("X-Auth-Token")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	return token == s.cfg.AuthToken
}

// requireAuth rejects requests without the configured token. Every route that
// reads or drives the session goes through it.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			s.logger.Warn().Str("remote_addr", r.RemoteAddr).Str("path", r.URL.Path).Msg("unauthorized request")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, 4096))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	text := strings.TrimSpace(string(data))
	if text == "" {
		http.Error(w, "empty text", http.StatusBadRequest)
		return
	}

	s.editor.Submit(text)
	s.logger.Info().Str("text", text).Msg("received text command via HTTP")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "received", "text": text})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	snap, err := s.editor.Snapshot(r.Context())
	if err != nil {
		http.Error(w, "session unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", DownloadName(snap.ProjectName)))
	io.WriteString(w, snap.Document)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	status := "ok"
	statusCode := http.StatusOK

	if !running {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]any{
		"status":  status,
		"running": running,
		"clients": s.hub.ClientCount(),
	})
}

// DownloadName turns a project name into a file name: every character other
// than an ASCII letter or digit becomes an underscore, and the result is
// lower-cased.
func DownloadName(project string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, strings.TrimSpace(project))

	if name == "" {
		name = "project"
	}
	return name + ".html"
}

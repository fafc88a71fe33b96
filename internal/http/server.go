// Package http exposes the persisted snapshot over a minimal read-only HTTP
// surface: the snapshot JSON and the bank logo assets.
package http

import (
	"errors"
	"mime"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rodrigocabraln/bank-scraper/internal/log"
	"github.com/rodrigocabraln/bank-scraper/internal/snapshot"
)

// Server serves GET /accounts.json and GET /logos/<file>. It only ever reads
// the snapshot file and the assets directory; the scheduler is the sole
// writer and replaces the snapshot atomically, so no locking is needed here.
type Server struct {
	http.Server
	store      *snapshot.Store
	logosDir   string
	allowedIPs map[string]struct{}
	logger     *log.Logger
}

// NewServer configures routes and timeouts. allowedIPs is an optional client
// allow-list; when non-empty, requests from other addresses are rejected
// before any path matching.
func NewServer(addr string, store *snapshot.Store, logosDir string, allowedIPs []string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	s := &Server{
		store:    store,
		logosDir: logosDir,
		logger:   logger.WithComponent(log.ComponentHTTP),
	}
	if len(allowedIPs) > 0 {
		s.allowedIPs = make(map[string]struct{}, len(allowedIPs))
		for _, ip := range allowedIPs {
			if ip = strings.TrimSpace(ip); ip != "" {
				s.allowedIPs[ip] = struct{}{}
			}
		}
	}

	s.Server = http.Server{
		Addr:         addr,
		Handler:      s.withIPFilter(http.HandlerFunc(s.route)),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
	return s
}

// withIPFilter rejects clients outside the allow-list before routing.
func (s *Server) withIPFilter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.allowedIPs != nil {
			ip := clientIP(r)
			if _, ok := s.allowedIPs[ip]; !ok {
				s.logger.Warn("Rejected request from disallowed client", log.FieldClientIP, ip, log.FieldPath, r.URL.Path)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// route dispatches explicitly instead of going through http.ServeMux: the
// mux path-cleans ".." segments into redirects, and the traversal defense
// below must see the request as sent.
func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/accounts.json":
		s.handleSnapshot(w, r)
	case strings.HasPrefix(r.URL.Path, "/logos/"):
		s.handleLogo(w, r)
	default:
		http.Error(w, "Not Found", http.StatusNotFound)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// handleSnapshot serves the persisted snapshot bytes verbatim. Before the
// first scrape it answers 404 with a "not yet" body rather than pretending
// the resource can never exist.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	data, err := s.store.Bytes()
	if errors.Is(err, snapshot.ErrNotYetAvailable) {
		http.Error(w, "snapshot not yet available", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("Reading snapshot failed", log.FieldError, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}

// handleLogo serves one asset from the logos directory. Any path separator
// or parent-directory sequence in the requested name is rejected before the
// filesystem is touched.
func (s *Server) handleLogo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/logos/")
	if name == "" || strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	data, err := os.ReadFile(filepath.Join(s.logosDir, name))
	if errors.Is(err, os.ErrNotExist) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("Reading logo failed", "logo", name, log.FieldError, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ctype := mime.TypeByExtension(filepath.Ext(name))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(data)
}

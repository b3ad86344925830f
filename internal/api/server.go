// Package api provides the HTTP API for playing and observing cities.
// GET endpoints are public and read-only. City actions are POSTs behind a
// per-IP rate limiter. Changing the clock speed requires a bearer token.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/talgya/gridcity/internal/catalog"
	"github.com/talgya/gridcity/internal/clock"
	"github.com/talgya/gridcity/internal/engine"
	"github.com/talgya/gridcity/internal/persistence"
	"github.com/talgya/gridcity/internal/session"
)

// Server serves a session over HTTP.
type Server struct {
	Session  *session.Session
	Clock    *clock.Clock    // Optional; nil disables speed changes
	DB       *persistence.DB // Optional; nil disables history
	Hub      *Hub            // Optional; nil disables streaming
	Port     int
	AdminKey string // Bearer token for POST /speed. Empty = disabled.

	// Actions allowed per client per minute. Zero means 120.
	ActionsPerMinute int

	srv *http.Server
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "history", s.DB != nil)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown gracefully stops a started server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// Handler returns the API routes wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	rate := s.ActionsPerMinute
	if rate <= 0 {
		rate = 120
	}
	limiter := NewRateLimiter(rate, time.Minute)
	limited := func(h http.HandlerFunc) http.HandlerFunc {
		return RateLimitMiddleware(limiter, h)
	}

	mux := http.NewServeMux()

	// Observation.
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/catalog", s.handleCatalog)
	mux.HandleFunc("GET /api/v1/cities", s.handleCities)
	mux.HandleFunc("GET /api/v1/city/{key}", s.handleCity)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)
	mux.HandleFunc("GET /api/v1/history", s.handleHistory)
	mux.HandleFunc("GET /api/v1/tool", s.handleGetTool)
	mux.HandleFunc("GET /api/v1/speed", s.handleGetSpeed)
	mux.HandleFunc("GET /api/v1/stream", s.handleStream)

	// City actions.
	mux.HandleFunc("POST /api/v1/city/{key}/activate", limited(s.handleActivate))
	mux.HandleFunc("POST /api/v1/city/{key}/build", limited(s.handleBuild))
	mux.HandleFunc("POST /api/v1/city/{key}/demolish", limited(s.handleDemolish))
	mux.HandleFunc("POST /api/v1/city/{key}/tick", limited(s.handleTick))
	mux.HandleFunc("POST /api/v1/tool", limited(s.handleSetTool))
	mux.HandleFunc("POST /api/v1/click", limited(s.handleClick))

	// Admin.
	mux.HandleFunc("POST /api/v1/speed", s.adminOnly(s.handleSetSpeed))

	return corsMiddleware(allowedOrigins(), mux)
}

// allowedOrigins returns the localhost dev servers plus CORS_ORIGINS,
// a comma-separated list.
func allowedOrigins() map[string]bool {
	origins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				origins[origin] = true
			}
		}
	}
	return origins
}

// OriginChecker accepts requests without an Origin header and those from
// allowed origins. It suits Hub's websocket upgrader.
func OriginChecker() func(*http.Request) bool {
	origins := allowedOrigins()
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || origins[origin]
	}
}

// corsMiddleware adds CORS headers for allowed frontend origins.
func corsMiddleware(allowed map[string]bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			writeError(w, http.StatusForbidden, "admin_disabled", "admin endpoints disabled (no GRIDCITY_ADMIN_KEY set)")
			return
		}
		if !s.checkBearerToken(r) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		}
		next(w, r)
	}
}

// errorCode maps a simulation error to an HTTP status and a stable code.
func errorCode(err error) (int, string) {
	switch {
	case errors.Is(err, catalog.ErrUnknownCityKey):
		return http.StatusNotFound, "unknown_city"
	case errors.Is(err, engine.ErrOutOfBounds):
		return http.StatusBadRequest, "out_of_bounds"
	case errors.Is(err, engine.ErrInvalidKind), errors.Is(err, catalog.ErrUnknownKey):
		return http.StatusBadRequest, "invalid_kind"
	case errors.Is(err, engine.ErrCellOccupied):
		return http.StatusConflict, "cell_occupied"
	case errors.Is(err, engine.ErrCellEmpty):
		return http.StatusConflict, "cell_empty"
	case errors.Is(err, engine.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity, "insufficient_funds"
	case errors.Is(err, session.ErrNoTool):
		return http.StatusConflict, "no_tool"
	case errors.Is(err, session.ErrNoActiveCity):
		return http.StatusConflict, "no_active_city"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// fail writes err with its mapped status and code.
func fail(w http.ResponseWriter, err error) {
	status, code := errorCode(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	writeError(w, status, code, err.Error())
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Error: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}

// decode reads a small JSON request body into v and reports whether the
// handler may continue. An empty body leaves v unchanged. Unknown building
// kinds are reported as invalid_kind.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	err := dec.Decode(v)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return true
	case errors.Is(err, catalog.ErrUnknownKey):
		fail(w, err)
	default:
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
	}
	return false
}

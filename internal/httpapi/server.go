package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"worldweaver/internal/engine"
	"worldweaver/internal/mcp"
	"worldweaver/internal/observability"
)

// Server exposes the engine over HTTP. The route shapes mirror the MCP
// tools; the websocket map stream is HTTP-only.
type Server struct {
	game    mcp.Game
	hub     *mapHub
	version string
	tracer  trace.Tracer
}

// Option configures a Server.
type Option func(*Server)

// WithTracing records a span per API request, tagged with the session id
// when the route carries one.
func WithTracing(tp *observability.TracerProvider) Option {
	return func(s *Server) {
		s.tracer = tp.GetTracer("worldweaver/httpapi")
	}
}

func NewServer(game mcp.Game, version string, opts ...Option) *Server {
	s := &Server{
		game:    game,
		hub:     newMapHub(),
		version: version,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/next", s.traced("next_storylet", s.handleNext))
	mux.HandleFunc("GET /api/state/{session}", s.traced("get_state", s.handleGetState))
	mux.HandleFunc("POST /api/state/{session}/relationship", s.traced("update_relationship", s.handleUpdateRelationship))
	mux.HandleFunc("POST /api/state/{session}/item", s.traced("add_item", s.handleAddItem))
	mux.HandleFunc("POST /api/state/{session}/environment", s.traced("update_environment", s.handleUpdateEnvironment))
	mux.HandleFunc("GET /api/spatial/navigation/{session}", s.traced("get_navigation", s.handleNavigation))
	mux.HandleFunc("POST /api/spatial/move/{session}", s.traced("move", s.handleMove))
	mux.HandleFunc("GET /api/spatial/map", s.traced("get_map", s.handleMap))
	mux.HandleFunc("POST /api/spatial/assign-positions", s.traced("assign_positions", s.handleAssignPositions))
	mux.HandleFunc("POST /api/cleanup-sessions", s.traced("cleanup_sessions", s.handleCleanupSessions))
	mux.HandleFunc("GET /ws/map", s.handleMapStream)

	return mux
}

func (s *Server) traced(name string, h http.HandlerFunc) http.HandlerFunc {
	if s.tracer == nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if session := r.PathValue("session"); session != "" {
			ctx = observability.WithSessionID(ctx, session)
		}
		ctx, span := s.tracer.Start(ctx, name)
		defer span.End()
		h(w, r.WithContext(ctx))
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "failed to encode", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// writeError maps the engine's failure taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
	}
	writeJSON(w, status, errorResponse{Detail: err.Error()})
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

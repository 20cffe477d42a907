package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"worldweaver/internal/engine"
	"worldweaver/internal/observability"
	"worldweaver/internal/spatial"
	"worldweaver/internal/state"
	"worldweaver/internal/storylet"
)

type stubGame struct {
	nextResult    *engine.NextResult
	nextErr       error
	navResult     *engine.NavigationResult
	navErr        error
	moveResult    *engine.MoveResult
	moveErr       error
	mapResult     []spatial.MapEntry
	mapErr        error
	assignResult  []engine.Assignment
	assignErr     error
	stateResult   map[string]any
	stateErr      error
	relResult     *state.Relationship
	relErr        error
	itemResult    *engine.ItemResult
	itemErr       error
	envResult     state.Environment
	envErr        error
	cleanupResult engine.CleanupResult
	cleanupErr    error

	lastSessionID string
	lastDirection string
	lastMaxAge    time.Duration
}

func (g *stubGame) Next(ctx context.Context, sessionID string, incoming map[string]any) (*engine.NextResult, error) {
	g.lastSessionID = sessionID
	return g.nextResult, g.nextErr
}

func (g *stubGame) Navigation(ctx context.Context, sessionID string) (*engine.NavigationResult, error) {
	g.lastSessionID = sessionID
	return g.navResult, g.navErr
}

func (g *stubGame) Move(ctx context.Context, sessionID, direction string) (*engine.MoveResult, error) {
	g.lastSessionID = sessionID
	g.lastDirection = direction
	return g.moveResult, g.moveErr
}

func (g *stubGame) Map(ctx context.Context) ([]spatial.MapEntry, error) {
	return g.mapResult, g.mapErr
}

func (g *stubGame) AssignPositions(ctx context.Context, explicit []engine.Assignment) ([]engine.Assignment, error) {
	return g.assignResult, g.assignErr
}

func (g *stubGame) StateSummary(ctx context.Context, sessionID string) (map[string]any, error) {
	g.lastSessionID = sessionID
	return g.stateResult, g.stateErr
}

func (g *stubGame) UpdateRelationship(ctx context.Context, sessionID, entityA, entityB string, changes map[string]float64, memory string) (*state.Relationship, error) {
	g.lastSessionID = sessionID
	return g.relResult, g.relErr
}

func (g *stubGame) AddItem(ctx context.Context, sessionID, itemID, name string, quantity int, properties map[string]any) (*engine.ItemResult, error) {
	g.lastSessionID = sessionID
	return g.itemResult, g.itemErr
}

func (g *stubGame) UpdateEnvironment(ctx context.Context, sessionID string, changes map[string]any) (state.Environment, error) {
	g.lastSessionID = sessionID
	return g.envResult, g.envErr
}

func (g *stubGame) CleanupSessions(ctx context.Context, maxAge time.Duration) (engine.CleanupResult, error) {
	g.lastMaxAge = maxAge
	return g.cleanupResult, g.cleanupErr
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleNext(t *testing.T) {
	game := &stubGame{
		nextResult: &engine.NextResult{
			SessionID: "abc",
			Text:      "You stand at the crossroads.",
			Choices:   []storylet.Choice{{Label: "Look around", Set: map[string]any{}}},
			Vars:      map[string]any{"location": "start"},
		},
	}
	handler := NewServer(game, "test").Handler()

	rec := doRequest(t, handler, http.MethodPost, "/api/next", `{"session_id":"abc","vars":{"location":"start"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var res engine.NextResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if res.Text != "You stand at the crossroads." {
		t.Fatalf("text = %q", res.Text)
	}
	if game.lastSessionID != "abc" {
		t.Fatalf("session not forwarded: %q", game.lastSessionID)
	}
}

func TestHandleNext_MalformedBody(t *testing.T) {
	handler := NewServer(&stubGame{}, "test").Handler()

	rec := doRequest(t, handler, http.MethodPost, "/api/next", `{"session_id":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleGetState(t *testing.T) {
	game := &stubGame{
		stateResult: map[string]any{"session_id": "abc", "variables": map[string]any{"name": "Adventurer"}},
	}
	handler := NewServer(game, "test").Handler()

	rec := doRequest(t, handler, http.MethodGet, "/api/state/abc", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if game.lastSessionID != "abc" {
		t.Fatalf("session not extracted from path: %q", game.lastSessionID)
	}
}

func TestHandleMove(t *testing.T) {
	t.Run("allowed", func(t *testing.T) {
		game := &stubGame{
			moveResult: &engine.MoveResult{
				Result:      "Moved N to Northern Ridge",
				NewPosition: &storylet.Position{X: 0, Y: -1},
			},
		}
		handler := NewServer(game, "test").Handler()

		rec := doRequest(t, handler, http.MethodPost, "/api/spatial/move/abc", `{"direction":"n"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
		}
		if game.lastDirection != "n" {
			t.Fatalf("direction not forwarded: %q", game.lastDirection)
		}
	})

	t.Run("rejected maps to 403", func(t *testing.T) {
		game := &stubGame{
			moveResult: &engine.MoveResult{Rejected: true, Reason: "requirements not met"},
		}
		handler := NewServer(game, "test").Handler()

		rec := doRequest(t, handler, http.MethodPost, "/api/spatial/move/abc", `{"direction":"se"}`)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("missing direction", func(t *testing.T) {
		handler := NewServer(&stubGame{}, "test").Handler()

		rec := doRequest(t, handler, http.MethodPost, "/api/spatial/move/abc", `{}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("invalid direction maps to 400", func(t *testing.T) {
		game := &stubGame{
			moveErr: fmt.Errorf("%w: direction %q", engine.ErrInvalidArgument, "up"),
		}
		handler := NewServer(game, "test").Handler()

		rec := doRequest(t, handler, http.MethodPost, "/api/spatial/move/abc", `{"direction":"up"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestErrorTaxonomyMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("%w: storylet 99", engine.ErrNotFound), http.StatusNotFound},
		{"invalid argument", fmt.Errorf("%w: bad", engine.ErrInvalidArgument), http.StatusBadRequest},
		{"conflict", fmt.Errorf("%w: cell taken", engine.ErrConflict), http.StatusConflict},
		{"unavailable", fmt.Errorf("%w: nothing positioned", engine.ErrUnavailable), http.StatusServiceUnavailable},
		{"internal", fmt.Errorf("database exploded"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			game := &stubGame{navErr: tt.err}
			handler := NewServer(game, "test").Handler()

			rec := doRequest(t, handler, http.MethodGet, "/api/spatial/navigation/abc", "")
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandleAssignPositions(t *testing.T) {
	game := &stubGame{
		assignResult: []engine.Assignment{{StoryletID: 5, X: 3, Y: 3}},
	}
	handler := NewServer(game, "test").Handler()

	rec := doRequest(t, handler, http.MethodPost, "/api/spatial/assign-positions", `{"assignments":[{"storylet_id":5,"x":3,"y":3}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var res struct {
		Assigned []engine.Assignment `json:"assigned"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(res.Assigned) != 1 || res.Assigned[0].StoryletID != 5 {
		t.Fatalf("assigned = %+v", res.Assigned)
	}
}

func TestHandleCleanupSessions_DefaultAge(t *testing.T) {
	game := &stubGame{cleanupResult: engine.CleanupResult{SessionsRemoved: 3}}
	handler := NewServer(game, "test").Handler()

	rec := doRequest(t, handler, http.MethodPost, "/api/cleanup-sessions", `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if game.lastMaxAge != 24*time.Hour {
		t.Fatalf("default max age = %v", game.lastMaxAge)
	}
}

func TestHandleHealth(t *testing.T) {
	handler := NewServer(&stubGame{}, "1.2.3").Handler()

	rec := doRequest(t, handler, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "1.2.3") {
		t.Fatalf("version missing from health body: %s", rec.Body)
	}
}

func TestMapStream(t *testing.T) {
	game := &stubGame{
		mapResult: []spatial.MapEntry{
			{ID: 1, Title: "Center", Position: storylet.Position{X: 0, Y: 0}},
		},
	}
	server := NewServer(game, "test")
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/map"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing map stream: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading initial map: %v", err)
	}

	var msg mapMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("decoding initial map: %v", err)
	}
	if msg.Type != "map" || len(msg.Storylets) != 1 || msg.Storylets[0].Title != "Center" {
		t.Fatalf("initial map = %+v", msg)
	}

	// A layout change pushes a fresh snapshot to the open stream.
	game.mapResult = append(game.mapResult, spatial.MapEntry{ID: 2, Title: "Ridge", Position: storylet.Position{X: 0, Y: -1}})
	server.hub.broadcast(game.mapResult)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, payload, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading broadcast: %v", err)
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("decoding broadcast: %v", err)
	}
	if len(msg.Storylets) != 2 {
		t.Fatalf("broadcast map = %+v", msg)
	}
}

func TestWithTracingRoutesStillServe(t *testing.T) {
	tp, err := observability.InitTracing(context.Background(), observability.Config{
		ServiceName: "worldweaver-test",
	})
	if err != nil {
		t.Fatalf("init tracing: %v", err)
	}
	game := &stubGame{stateResult: map[string]any{"session_id": "s-1"}}
	handler := NewServer(game, "test", WithTracing(tp)).Handler()

	rec := doRequest(t, handler, http.MethodGet, "/api/state/s-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if game.lastSessionID != "s-1" {
		t.Fatalf("session id = %q", game.lastSessionID)
	}
}

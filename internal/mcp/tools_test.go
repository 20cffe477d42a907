package mcp

import (
	"context"
	"testing"
	"time"

	"worldweaver/internal/engine"
	"worldweaver/internal/spatial"
	"worldweaver/internal/state"
	"worldweaver/internal/storylet"
)

type mockGame struct {
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
	lastVars      map[string]any
	lastDirection string
	lastAssigns   []engine.Assignment
	lastEntityA   string
	lastEntityB   string
	lastChanges   map[string]float64
	lastMemory    string
	lastItemID    string
	lastQuantity  int
	lastEnvChange map[string]any
	lastMaxAge    time.Duration
}

func (m *mockGame) Next(ctx context.Context, sessionID string, incoming map[string]any) (*engine.NextResult, error) {
	m.lastSessionID = sessionID
	m.lastVars = incoming
	return m.nextResult, m.nextErr
}

func (m *mockGame) Navigation(ctx context.Context, sessionID string) (*engine.NavigationResult, error) {
	m.lastSessionID = sessionID
	return m.navResult, m.navErr
}

func (m *mockGame) Move(ctx context.Context, sessionID, direction string) (*engine.MoveResult, error) {
	m.lastSessionID = sessionID
	m.lastDirection = direction
	return m.moveResult, m.moveErr
}

func (m *mockGame) Map(ctx context.Context) ([]spatial.MapEntry, error) {
	return m.mapResult, m.mapErr
}

func (m *mockGame) AssignPositions(ctx context.Context, explicit []engine.Assignment) ([]engine.Assignment, error) {
	m.lastAssigns = explicit
	return m.assignResult, m.assignErr
}

func (m *mockGame) StateSummary(ctx context.Context, sessionID string) (map[string]any, error) {
	m.lastSessionID = sessionID
	return m.stateResult, m.stateErr
}

func (m *mockGame) UpdateRelationship(ctx context.Context, sessionID, entityA, entityB string, changes map[string]float64, memory string) (*state.Relationship, error) {
	m.lastSessionID = sessionID
	m.lastEntityA = entityA
	m.lastEntityB = entityB
	m.lastChanges = changes
	m.lastMemory = memory
	return m.relResult, m.relErr
}

func (m *mockGame) AddItem(ctx context.Context, sessionID, itemID, name string, quantity int, properties map[string]any) (*engine.ItemResult, error) {
	m.lastSessionID = sessionID
	m.lastItemID = itemID
	m.lastQuantity = quantity
	return m.itemResult, m.itemErr
}

func (m *mockGame) UpdateEnvironment(ctx context.Context, sessionID string, changes map[string]any) (state.Environment, error) {
	m.lastSessionID = sessionID
	m.lastEnvChange = changes
	return m.envResult, m.envErr
}

func (m *mockGame) CleanupSessions(ctx context.Context, maxAge time.Duration) (engine.CleanupResult, error) {
	m.lastMaxAge = maxAge
	return m.cleanupResult, m.cleanupErr
}

func TestNextStorylet(t *testing.T) {
	game := &mockGame{
		nextResult: &engine.NextResult{
			SessionID: "abc",
			Text:      "You stand at the crossroads.",
			Choices:   []storylet.Choice{{Label: "Look around", Set: map[string]any{}}},
			Vars:      map[string]any{"location": "start"},
		},
	}
	server := NewServer(game, "test")

	_, output, err := server.handleNextStorylet(context.Background(), nil, NextStoryletInput{
		SessionID: "abc",
		Vars:      map[string]any{"location": "start"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.SessionID != "abc" || output.Text != "You stand at the crossroads." {
		t.Fatalf("unexpected output: %+v", output)
	}
	if game.lastVars["location"] != "start" {
		t.Fatalf("vars not forwarded: %+v", game.lastVars)
	}
}

func TestGetNavigation_RequiresSession(t *testing.T) {
	server := NewServer(&mockGame{}, "test")

	if _, _, err := server.handleGetNavigation(context.Background(), nil, GetNavigationInput{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestMove(t *testing.T) {
	game := &mockGame{
		moveResult: &engine.MoveResult{
			Result:      "Moved N to Northern Ridge",
			NewPosition: &storylet.Position{X: 0, Y: -1},
		},
	}
	server := NewServer(game, "test")

	_, output, err := server.handleMove(context.Background(), nil, MoveInput{SessionID: "abc", Direction: "n"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Result != "Moved N to Northern Ridge" {
		t.Fatalf("unexpected output: %+v", output)
	}
	if game.lastDirection != "n" {
		t.Fatalf("direction not forwarded: %q", game.lastDirection)
	}
}

func TestMove_RequiresDirection(t *testing.T) {
	server := NewServer(&mockGame{}, "test")

	if _, _, err := server.handleMove(context.Background(), nil, MoveInput{SessionID: "abc"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestGetMap(t *testing.T) {
	game := &mockGame{
		mapResult: []spatial.MapEntry{
			{ID: 1, Title: "Center", Position: storylet.Position{X: 0, Y: 0}},
		},
	}
	server := NewServer(game, "test")

	_, output, err := server.handleGetMap(context.Background(), nil, GetMapInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.Storylets) != 1 || output.Storylets[0].Title != "Center" {
		t.Fatalf("unexpected output: %+v", output)
	}
}

func TestAssignPositions(t *testing.T) {
	game := &mockGame{
		assignResult: []engine.Assignment{{StoryletID: 5, X: 3, Y: 3}},
	}
	server := NewServer(game, "test")

	_, output, err := server.handleAssignPositions(context.Background(), nil, AssignPositionsInput{
		Assignments: []engine.Assignment{{StoryletID: 5, X: 3, Y: 3}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.Assigned) != 1 || output.Assigned[0].StoryletID != 5 {
		t.Fatalf("unexpected output: %+v", output)
	}
	if len(game.lastAssigns) != 1 {
		t.Fatalf("explicit assignments not forwarded")
	}
}

func TestUpdateRelationship(t *testing.T) {
	game := &mockGame{
		relResult: &state.Relationship{Trust: 30, Respect: 10, InteractionCount: 1, Memories: []string{"shared a lantern"}},
	}
	server := NewServer(game, "test")

	_, output, err := server.handleUpdateRelationship(context.Background(), nil, UpdateRelationshipInput{
		SessionID: "abc",
		EntityA:   "player",
		EntityB:   "mirela",
		Changes:   map[string]float64{"trust": 30, "respect": 10},
		Memory:    "shared a lantern",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Trust != 30 || output.Disposition != 0.6*30+0.4*10 {
		t.Fatalf("unexpected output: %+v", output)
	}
	if game.lastEntityA != "player" || game.lastEntityB != "mirela" || game.lastMemory != "shared a lantern" {
		t.Fatalf("unexpected params")
	}
}

func TestUpdateRelationship_RequiresEntities(t *testing.T) {
	server := NewServer(&mockGame{}, "test")

	_, _, err := server.handleUpdateRelationship(context.Background(), nil, UpdateRelationshipInput{SessionID: "abc", EntityA: "player"})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestAddItem(t *testing.T) {
	game := &mockGame{
		itemResult: &engine.ItemResult{
			Item:    &state.Item{ID: "lantern", Name: "Storm Lantern", Quantity: 1, Condition: "pristine"},
			Actions: []string{"examine", "drop", "use"},
		},
	}
	server := NewServer(game, "test")

	_, output, err := server.handleAddItem(context.Background(), nil, AddItemInput{
		SessionID: "abc",
		ItemID:    "lantern",
		Name:      "Storm Lantern",
		Quantity:  1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.ItemID != "lantern" || len(output.AvailableActions) != 3 {
		t.Fatalf("unexpected output: %+v", output)
	}
	if game.lastItemID != "lantern" || game.lastQuantity != 1 {
		t.Fatalf("unexpected params")
	}
}

func TestUpdateEnvironment(t *testing.T) {
	game := &mockGame{
		envResult: state.Environment{TimeOfDay: "night", Weather: "storm", DangerLevel: 5},
	}
	server := NewServer(game, "test")

	_, output, err := server.handleUpdateEnvironment(context.Background(), nil, UpdateEnvironmentInput{
		SessionID: "abc",
		Changes:   map[string]any{"time_of_day": "night", "weather": "storm", "danger_level": 5},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.TimeOfDay != "night" || output.DangerLevel != 5 {
		t.Fatalf("unexpected output: %+v", output)
	}
	want := map[string]bool{"shadowed": true, "somber": true, "tense": true}
	if len(output.MoodModifiers) != len(want) {
		t.Fatalf("unexpected moods: %v", output.MoodModifiers)
	}
	for _, mood := range output.MoodModifiers {
		if !want[mood] {
			t.Fatalf("unexpected mood %q", mood)
		}
	}
}

func TestCleanupSessions_DefaultAge(t *testing.T) {
	game := &mockGame{cleanupResult: engine.CleanupResult{SessionsRemoved: 2}}
	server := NewServer(game, "test")

	_, output, err := server.handleCleanupSessions(context.Background(), nil, CleanupSessionsInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.SessionsRemoved != 2 {
		t.Fatalf("unexpected output: %+v", output)
	}
	if game.lastMaxAge != 24*time.Hour {
		t.Fatalf("default max age = %v", game.lastMaxAge)
	}
}

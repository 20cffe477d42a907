package mcp

import (
	"context"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"worldweaver/internal/engine"
	"worldweaver/internal/spatial"
	"worldweaver/internal/state"
)

// Game is the slice of the engine the tools need. It is an interface so
// handler tests can substitute a mock.
type Game interface {
	Next(ctx context.Context, sessionID string, incoming map[string]any) (*engine.NextResult, error)
	Navigation(ctx context.Context, sessionID string) (*engine.NavigationResult, error)
	Move(ctx context.Context, sessionID, direction string) (*engine.MoveResult, error)
	Map(ctx context.Context) ([]spatial.MapEntry, error)
	AssignPositions(ctx context.Context, explicit []engine.Assignment) ([]engine.Assignment, error)
	StateSummary(ctx context.Context, sessionID string) (map[string]any, error)
	UpdateRelationship(ctx context.Context, sessionID, entityA, entityB string, changes map[string]float64, memory string) (*state.Relationship, error)
	AddItem(ctx context.Context, sessionID, itemID, name string, quantity int, properties map[string]any) (*engine.ItemResult, error)
	UpdateEnvironment(ctx context.Context, sessionID string, changes map[string]any) (state.Environment, error)
	CleanupSessions(ctx context.Context, maxAge time.Duration) (engine.CleanupResult, error)
}

var _ Game = (*engine.Engine)(nil)

type Server struct {
	game Game
	mcp  *sdk.Server
}

func NewServer(game Game, version string) *Server {
	s := &Server{
		game: game,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "worldweaver",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}

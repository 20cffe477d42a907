package mcp

import (
	"context"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"worldweaver/internal/engine"
	"worldweaver/internal/spatial"
	"worldweaver/internal/storylet"
)

type NextStoryletInput struct {
	SessionID string         `json:"session_id,omitempty" jsonschema:"session identifier, generated when empty"`
	Vars      map[string]any `json:"vars,omitempty" jsonschema:"variables to set before selection"`
}

type NextStoryletOutput struct {
	SessionID string            `json:"session_id"`
	Text      string            `json:"text"`
	Choices   []storylet.Choice `json:"choices"`
	Vars      map[string]any    `json:"vars"`
}

type GetNavigationInput struct {
	SessionID string `json:"session_id" jsonschema:"session identifier"`
}

type GetNavigationOutput struct {
	StoryletID int64                  `json:"storylet_id"`
	Position   storylet.Position      `json:"position"`
	Directions []engine.DirectionInfo `json:"directions"`
}

type MoveInput struct {
	SessionID string `json:"session_id" jsonschema:"session identifier"`
	Direction string `json:"direction" jsonschema:"compass direction, short or long form"`
}

type MoveOutput struct {
	Rejected    bool               `json:"rejected,omitempty"`
	Reason      string             `json:"reason,omitempty"`
	Result      string             `json:"result,omitempty"`
	NewPosition *storylet.Position `json:"new_position,omitempty"`
}

type GetMapInput struct{}

type GetMapOutput struct {
	Storylets []spatial.MapEntry `json:"storylets"`
}

type AssignPositionsInput struct {
	Assignments []engine.Assignment `json:"assignments,omitempty" jsonschema:"explicit placements applied before automatic layout"`
}

type AssignPositionsOutput struct {
	Assigned []engine.Assignment `json:"assigned"`
}

type GetStateInput struct {
	SessionID string `json:"session_id" jsonschema:"session identifier"`
}

type GetStateOutput struct {
	State map[string]any `json:"state"`
}

type UpdateRelationshipInput struct {
	SessionID string             `json:"session_id" jsonschema:"session identifier"`
	EntityA   string             `json:"entity_a" jsonschema:"first entity in the pair"`
	EntityB   string             `json:"entity_b" jsonschema:"second entity in the pair"`
	Changes   map[string]float64 `json:"changes" jsonschema:"deltas per dimension: trust, respect, familiarity"`
	Memory    string             `json:"memory,omitempty" jsonschema:"optional shared memory to record"`
}

type UpdateRelationshipOutput struct {
	Trust            float64  `json:"trust"`
	Respect          float64  `json:"respect"`
	Familiarity      float64  `json:"familiarity"`
	Disposition      float64  `json:"disposition"`
	InteractionCount int      `json:"interaction_count"`
	Memories         []string `json:"memories"`
}

type AddItemInput struct {
	SessionID  string         `json:"session_id" jsonschema:"session identifier"`
	ItemID     string         `json:"item_id" jsonschema:"stable item identifier"`
	Name       string         `json:"name" jsonschema:"display name"`
	Quantity   int            `json:"quantity" jsonschema:"amount to add, must be positive"`
	Properties map[string]any `json:"properties,omitempty" jsonschema:"item properties, may include condition and use requirements"`
}

type AddItemOutput struct {
	ItemID           string   `json:"item_id"`
	Name             string   `json:"name"`
	Quantity         int      `json:"quantity"`
	Condition        string   `json:"condition"`
	AvailableActions []string `json:"available_actions"`
}

type UpdateEnvironmentInput struct {
	SessionID string         `json:"session_id" jsonschema:"session identifier"`
	Changes   map[string]any `json:"changes" jsonschema:"fields to change: time_of_day, weather, danger_level"`
}

type UpdateEnvironmentOutput struct {
	TimeOfDay     string   `json:"time_of_day"`
	Weather       string   `json:"weather"`
	DangerLevel   int      `json:"danger_level"`
	MoodModifiers []string `json:"mood_modifiers"`
}

type CleanupSessionsInput struct {
	MaxAgeHours int `json:"max_age_hours,omitempty" jsonschema:"delete sessions idle longer than this, default 24"`
}

type CleanupSessionsOutput struct {
	SessionsRemoved int `json:"sessions_removed"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "next_storylet",
		Description: "Advance the narrative: select and render an eligible storylet",
	}, s.handleNextStorylet)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_navigation",
		Description: "Report the current position and all eight compass directions",
	}, s.handleGetNavigation)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "move",
		Description: "Move one cell in a compass direction",
	}, s.handleMove)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_map",
		Description: "List every positioned storylet",
	}, s.handleGetMap)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "assign_positions",
		Description: "Assign grid positions to storylets, explicit placements first",
	}, s.handleAssignPositions)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_state",
		Description: "Inspect the full session state",
	}, s.handleGetState)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "update_relationship",
		Description: "Apply trust, respect, or familiarity deltas between two entities",
	}, s.handleUpdateRelationship)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "add_item",
		Description: "Add an item to the session inventory",
	}, s.handleAddItem)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "update_environment",
		Description: "Change time of day, weather, or danger level",
	}, s.handleUpdateEnvironment)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "cleanup_sessions",
		Description: "Delete sessions idle past the given age",
	}, s.handleCleanupSessions)
}

func (s *Server) handleNextStorylet(ctx context.Context, req *sdk.CallToolRequest, input NextStoryletInput) (*sdk.CallToolResult, NextStoryletOutput, error) {
	res, err := s.game.Next(ctx, input.SessionID, input.Vars)
	if err != nil {
		return nil, NextStoryletOutput{}, err
	}
	return nil, NextStoryletOutput{
		SessionID: res.SessionID,
		Text:      res.Text,
		Choices:   res.Choices,
		Vars:      res.Vars,
	}, nil
}

func (s *Server) handleGetNavigation(ctx context.Context, req *sdk.CallToolRequest, input GetNavigationInput) (*sdk.CallToolResult, GetNavigationOutput, error) {
	if input.SessionID == "" {
		return nil, GetNavigationOutput{}, fmt.Errorf("session_id is required")
	}
	res, err := s.game.Navigation(ctx, input.SessionID)
	if err != nil {
		return nil, GetNavigationOutput{}, err
	}
	return nil, GetNavigationOutput{
		StoryletID: res.StoryletID,
		Position:   res.Position,
		Directions: res.Directions,
	}, nil
}

func (s *Server) handleMove(ctx context.Context, req *sdk.CallToolRequest, input MoveInput) (*sdk.CallToolResult, MoveOutput, error) {
	if input.SessionID == "" {
		return nil, MoveOutput{}, fmt.Errorf("session_id is required")
	}
	if input.Direction == "" {
		return nil, MoveOutput{}, fmt.Errorf("direction is required")
	}
	res, err := s.game.Move(ctx, input.SessionID, input.Direction)
	if err != nil {
		return nil, MoveOutput{}, err
	}
	return nil, MoveOutput{
		Rejected:    res.Rejected,
		Reason:      res.Reason,
		Result:      res.Result,
		NewPosition: res.NewPosition,
	}, nil
}

func (s *Server) handleGetMap(ctx context.Context, req *sdk.CallToolRequest, input GetMapInput) (*sdk.CallToolResult, GetMapOutput, error) {
	entries, err := s.game.Map(ctx)
	if err != nil {
		return nil, GetMapOutput{}, err
	}
	return nil, GetMapOutput{Storylets: entries}, nil
}

func (s *Server) handleAssignPositions(ctx context.Context, req *sdk.CallToolRequest, input AssignPositionsInput) (*sdk.CallToolResult, AssignPositionsOutput, error) {
	assigned, err := s.game.AssignPositions(ctx, input.Assignments)
	if err != nil {
		return nil, AssignPositionsOutput{}, err
	}
	return nil, AssignPositionsOutput{Assigned: assigned}, nil
}

func (s *Server) handleGetState(ctx context.Context, req *sdk.CallToolRequest, input GetStateInput) (*sdk.CallToolResult, GetStateOutput, error) {
	if input.SessionID == "" {
		return nil, GetStateOutput{}, fmt.Errorf("session_id is required")
	}
	summary, err := s.game.StateSummary(ctx, input.SessionID)
	if err != nil {
		return nil, GetStateOutput{}, err
	}
	return nil, GetStateOutput{State: summary}, nil
}

func (s *Server) handleUpdateRelationship(ctx context.Context, req *sdk.CallToolRequest, input UpdateRelationshipInput) (*sdk.CallToolResult, UpdateRelationshipOutput, error) {
	if input.SessionID == "" {
		return nil, UpdateRelationshipOutput{}, fmt.Errorf("session_id is required")
	}
	if input.EntityA == "" || input.EntityB == "" {
		return nil, UpdateRelationshipOutput{}, fmt.Errorf("entity_a and entity_b are required")
	}
	rel, err := s.game.UpdateRelationship(ctx, input.SessionID, input.EntityA, input.EntityB, input.Changes, input.Memory)
	if err != nil {
		return nil, UpdateRelationshipOutput{}, err
	}
	return nil, UpdateRelationshipOutput{
		Trust:            rel.Trust,
		Respect:          rel.Respect,
		Familiarity:      rel.Familiarity,
		Disposition:      rel.Disposition(),
		InteractionCount: rel.InteractionCount,
		Memories:         append([]string{}, rel.Memories...),
	}, nil
}

func (s *Server) handleAddItem(ctx context.Context, req *sdk.CallToolRequest, input AddItemInput) (*sdk.CallToolResult, AddItemOutput, error) {
	if input.SessionID == "" {
		return nil, AddItemOutput{}, fmt.Errorf("session_id is required")
	}
	if input.ItemID == "" {
		return nil, AddItemOutput{}, fmt.Errorf("item_id is required")
	}
	res, err := s.game.AddItem(ctx, input.SessionID, input.ItemID, input.Name, input.Quantity, input.Properties)
	if err != nil {
		return nil, AddItemOutput{}, err
	}
	return nil, AddItemOutput{
		ItemID:           res.Item.ID,
		Name:             res.Item.Name,
		Quantity:         res.Item.Quantity,
		Condition:        res.Item.Condition,
		AvailableActions: res.Actions,
	}, nil
}

func (s *Server) handleUpdateEnvironment(ctx context.Context, req *sdk.CallToolRequest, input UpdateEnvironmentInput) (*sdk.CallToolResult, UpdateEnvironmentOutput, error) {
	if input.SessionID == "" {
		return nil, UpdateEnvironmentOutput{}, fmt.Errorf("session_id is required")
	}
	env, err := s.game.UpdateEnvironment(ctx, input.SessionID, input.Changes)
	if err != nil {
		return nil, UpdateEnvironmentOutput{}, err
	}
	return nil, UpdateEnvironmentOutput{
		TimeOfDay:     env.TimeOfDay,
		Weather:       env.Weather,
		DangerLevel:   env.DangerLevel,
		MoodModifiers: env.MoodModifiers(),
	}, nil
}

func (s *Server) handleCleanupSessions(ctx context.Context, req *sdk.CallToolRequest, input CleanupSessionsInput) (*sdk.CallToolResult, CleanupSessionsOutput, error) {
	hours := input.MaxAgeHours
	if hours <= 0 {
		hours = 24
	}
	res, err := s.game.CleanupSessions(ctx, time.Duration(hours)*time.Hour)
	if err != nil {
		return nil, CleanupSessionsOutput{}, err
	}
	return nil, CleanupSessionsOutput{SessionsRemoved: res.SessionsRemoved}, nil
}

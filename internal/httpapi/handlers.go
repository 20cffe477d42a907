package httpapi

import (
	"net/http"
	"time"

	"worldweaver/internal/engine"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.version})
}

type nextRequest struct {
	SessionID string         `json:"session_id"`
	Vars      map[string]any `json:"vars"`
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	var req nextRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "malformed request body"})
		return
	}

	res, err := s.game.Next(r.Context(), req.SessionID, req.Vars)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	summary, err := s.game.StateSummary(r.Context(), r.PathValue("session"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type relationshipRequest struct {
	EntityA string             `json:"entity_a"`
	EntityB string             `json:"entity_b"`
	Changes map[string]float64 `json:"changes"`
	Memory  string             `json:"memory"`
}

func (s *Server) handleUpdateRelationship(w http.ResponseWriter, r *http.Request) {
	var req relationshipRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "malformed request body"})
		return
	}
	if req.EntityA == "" || req.EntityB == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "entity_a and entity_b are required"})
		return
	}

	rel, err := s.game.UpdateRelationship(r.Context(), r.PathValue("session"), req.EntityA, req.EntityB, req.Changes, req.Memory)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"trust":             rel.Trust,
		"respect":           rel.Respect,
		"familiarity":       rel.Familiarity,
		"disposition":       rel.Disposition(),
		"interaction_count": rel.InteractionCount,
		"memories":          rel.Memories,
	})
}

type itemRequest struct {
	ItemID     string         `json:"item_id"`
	Name       string         `json:"name"`
	Quantity   int            `json:"quantity"`
	Properties map[string]any `json:"properties"`
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "malformed request body"})
		return
	}
	if req.ItemID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "item_id is required"})
		return
	}

	res, err := s.game.AddItem(r.Context(), r.PathValue("session"), req.ItemID, req.Name, req.Quantity, req.Properties)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"item_id":           res.Item.ID,
		"name":              res.Item.Name,
		"quantity":          res.Item.Quantity,
		"condition":         res.Item.Condition,
		"available_actions": res.Actions,
	})
}

type environmentRequest struct {
	Changes map[string]any `json:"changes"`
}

func (s *Server) handleUpdateEnvironment(w http.ResponseWriter, r *http.Request) {
	var req environmentRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "malformed request body"})
		return
	}

	env, err := s.game.UpdateEnvironment(r.Context(), r.PathValue("session"), req.Changes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"time_of_day":    env.TimeOfDay,
		"weather":        env.Weather,
		"danger_level":   env.DangerLevel,
		"mood_modifiers": env.MoodModifiers(),
	})
}

func (s *Server) handleNavigation(w http.ResponseWriter, r *http.Request) {
	res, err := s.game.Navigation(r.Context(), r.PathValue("session"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type moveRequest struct {
	Direction string `json:"direction"`
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "malformed request body"})
		return
	}
	if req.Direction == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "direction is required"})
		return
	}

	res, err := s.game.Move(r.Context(), r.PathValue("session"), req.Direction)
	if err != nil {
		writeError(w, err)
		return
	}
	if res.Rejected {
		writeJSON(w, http.StatusForbidden, errorResponse{Detail: res.Reason})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	entries, err := s.game.Map(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"storylets": entries})
}

type assignRequest struct {
	Assignments []engine.Assignment `json:"assignments"`
}

func (s *Server) handleAssignPositions(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "malformed request body"})
		return
	}

	assigned, err := s.game.AssignPositions(r.Context(), req.Assignments)
	if err != nil {
		writeError(w, err)
		return
	}

	// Stream the fresh layout to map subscribers.
	if entries, mapErr := s.game.Map(r.Context()); mapErr == nil {
		s.hub.broadcast(entries)
	}

	writeJSON(w, http.StatusOK, map[string]any{"assigned": assigned})
}

type cleanupRequest struct {
	MaxAgeHours int `json:"max_age_hours"`
}

func (s *Server) handleCleanupSessions(w http.ResponseWriter, r *http.Request) {
	var req cleanupRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "malformed request body"})
		return
	}
	hours := req.MaxAgeHours
	if hours <= 0 {
		hours = 24
	}

	res, err := s.game.CleanupSessions(r.Context(), time.Duration(hours)*time.Hour)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions_removed": res.SessionsRemoved})
}

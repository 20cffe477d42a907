package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"worldweaver/internal/spatial"
	"worldweaver/internal/state"
	"worldweaver/internal/store"
	"worldweaver/internal/storylet"
)

const defaultSessionTTL = 24 * time.Hour

// Engine wires the storylet store, the spatial navigator, and per-session
// state managers into the operations the transport layers expose.
type Engine struct {
	store    store.Store
	nav      *spatial.Navigator
	sessions *sessionCache
	selector *selector
	now      func() time.Time
}

type Option func(*Engine)

// WithRand injects the selection random source.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.selector = newSelector(rng) }
}

// WithSessionTTL overrides how long idle sessions stay cached.
func WithSessionTTL(ttl time.Duration) Option {
	return func(e *Engine) { e.sessions = newSessionCache(ttl, e.now) }
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
		e.sessions = newSessionCache(e.sessions.ttl, now)
	}
}

func New(st store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    st,
		nav:      spatial.NewNavigator(st),
		selector: newSelector(rand.New(rand.NewSource(time.Now().UnixNano()))),
		now:      time.Now,
	}
	e.sessions = newSessionCache(defaultSessionTTL, e.now)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Refresh rebuilds the navigator's position index from the store. Call it
// after storylets are created outside the engine.
func (e *Engine) Refresh(ctx context.Context) error {
	return e.nav.Refresh(ctx)
}

// manager returns the session's live state manager, loading persisted
// variables and seeding the gameplay defaults on first touch. The cache
// serializes first-touch loads so concurrent calls for the same session
// always share one manager.
func (e *Engine) manager(ctx context.Context, sessionID string) (*state.Manager, error) {
	return e.sessions.getOrCreate(sessionID, func() (*state.Manager, error) {
		mgr := state.NewManager(sessionID)
		vars, err := e.store.LoadSessionState(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("loading session state: %w", err)
		}
		if vars != nil {
			mgr.Restore(vars)
		}
		// Danger is intentionally not defaulted here: the snapshot derives
		// its danger key from the environment, and a flat danger variable
		// would shadow it in every snapshot.
		mgr.SetDefault("name", "Adventurer")
		mgr.SetDefault("has_pickaxe", true)
		return mgr, nil
	})
}

func (e *Engine) saveSession(ctx context.Context, mgr *state.Manager) error {
	if err := e.store.SaveSessionState(ctx, mgr.SessionID(), mgr.Variables()); err != nil {
		return fmt.Errorf("saving session state: %w", err)
	}
	return nil
}

// NextResult is the outcome of advancing the narrative one beat.
type NextResult struct {
	SessionID string            `json:"session_id"`
	Text      string            `json:"text"`
	Choices   []storylet.Choice `json:"choices"`
	Vars      map[string]any    `json:"vars"`
}

// Next applies incoming variables, selects an eligible storylet, and renders
// its template against the contextual snapshot. When nothing is eligible the
// caller gets a contextual idle narration with a single wait choice instead
// of an error.
func (e *Engine) Next(ctx context.Context, sessionID string, incoming map[string]any) (*NextResult, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	mgr, err := e.manager(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for k, v := range incoming {
		mgr.SetVariable(k, v)
	}
	snapshot := mgr.ContextualVariables()

	storylets, err := e.store.ListStorylets(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing storylets: %w", err)
	}

	var text string
	var choices []storylet.Choice
	if story := e.selector.Select(storylets, snapshot); story != nil {
		text = Render(story.TextTemplate, snapshot)
		choices = normalizeChoices(story.Choices)
	} else {
		text = idleNarration(mgr.Environment())
		choices = []storylet.Choice{{Label: "Wait", Set: map[string]any{}}}
	}

	if err := e.saveSession(ctx, mgr); err != nil {
		return nil, err
	}
	return &NextResult{SessionID: sessionID, Text: text, Choices: choices, Vars: snapshot}, nil
}

func normalizeChoices(choices []storylet.Choice) []storylet.Choice {
	out := make([]storylet.Choice, 0, len(choices))
	for _, c := range choices {
		if c.Label == "" {
			c.Label = "Continue"
		}
		if c.Set == nil {
			c.Set = map[string]any{}
		}
		out = append(out, c)
	}
	return out
}

func idleNarration(env state.Environment) string {
	switch {
	case env.DangerLevel > 3:
		return "The air feels heavy with danger. Perhaps it's wise to wait and listen."
	case env.TimeOfDay == "night":
		return "The darkness is deep. Something stirs in the shadows, but nothing approaches."
	default:
		return "The tunnel is quiet. Nothing compelling meets the eye."
	}
}

// DirectionInfo describes one compass direction from the current storylet.
type DirectionInfo struct {
	Direction  spatial.Direction `json:"direction"`
	Neighbor   *spatial.Neighbor `json:"neighbor,omitempty"`
	Accessible bool              `json:"accessible"`
	Reason     string            `json:"reason,omitempty"`
}

// NavigationResult reports the player's position and the state of all eight
// directions, in clockwise order from north.
type NavigationResult struct {
	SessionID  string            `json:"session_id"`
	StoryletID int64             `json:"storylet_id"`
	Position   storylet.Position `json:"position"`
	Directions []DirectionInfo   `json:"directions"`
}

// Navigation resolves the session's current storylet from its location
// variable and reports the 8-directional options. A stale location variable
// falls back to the first known location anchor, as the original behavior
// never strands a player on a location that no longer exists.
func (e *Engine) Navigation(ctx context.Context, sessionID string) (*NavigationResult, error) {
	mgr, err := e.manager(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	id, err := e.currentStorylet(ctx, mgr)
	if err != nil {
		return nil, err
	}
	pos, err := e.nav.Position(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	neighbors, err := e.nav.DirectionalNavigation(ctx, id)
	if err != nil {
		return nil, classify(err)
	}

	snapshot := mgr.ContextualVariables()
	directions := make([]DirectionInfo, 0, len(spatial.Directions))
	for _, dir := range spatial.Directions {
		info := DirectionInfo{Direction: dir, Neighbor: neighbors[dir]}
		if info.Neighbor != nil {
			ok, err := e.nav.CanMoveTo(ctx, id, dir, snapshot)
			if err != nil {
				return nil, classify(err)
			}
			info.Accessible = ok
			if !ok {
				info.Reason = "requirements not met"
			}
		}
		directions = append(directions, info)
	}

	if err := e.saveSession(ctx, mgr); err != nil {
		return nil, err
	}
	return &NavigationResult{
		SessionID:  sessionID,
		StoryletID: id,
		Position:   pos,
		Directions: directions,
	}, nil
}

// currentStorylet maps the session's location variable to its anchor
// storylet. Unknown locations fall back to the first known anchor; worlds
// with no anchors at all fall back to any positioned storylet.
func (e *Engine) currentStorylet(ctx context.Context, mgr *state.Manager) (int64, error) {
	loc, _ := mgr.GetVariable("location", "start").(string)

	id, err := e.nav.FindByLocation(ctx, loc)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, spatial.ErrNotFound) {
		return 0, classify(err)
	}

	locations, err := e.nav.Locations(ctx)
	if err != nil {
		return 0, classify(err)
	}
	if len(locations) > 0 {
		mgr.SetVariable("location", locations[0])
		id, err := e.nav.FindByLocation(ctx, locations[0])
		if err != nil {
			return 0, classify(err)
		}
		return id, nil
	}

	entries, err := e.nav.MapData(ctx)
	if err != nil {
		return 0, classify(err)
	}
	if len(entries) == 0 {
		return 0, fmt.Errorf("%w: no storylets positioned", ErrUnavailable)
	}
	return entries[0].ID, nil
}

// MoveResult is the outcome of a movement attempt. Rejections are results,
// not errors: the session stays intact and the reason is user-visible.
type MoveResult struct {
	SessionID   string             `json:"session_id"`
	Rejected    bool               `json:"rejected,omitempty"`
	Reason      string             `json:"reason,omitempty"`
	Result      string             `json:"result,omitempty"`
	NewPosition *storylet.Position `json:"new_position,omitempty"`
}

// Move validates one step in the given direction and, when permitted,
// relocates the session to the destination storylet's location anchor.
func (e *Engine) Move(ctx context.Context, sessionID, directionToken string) (*MoveResult, error) {
	dir, err := spatial.ParseDirection(directionToken)
	if err != nil {
		return nil, classify(err)
	}

	mgr, err := e.manager(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	id, err := e.currentStorylet(ctx, mgr)
	if err != nil {
		return nil, err
	}

	neighbors, err := e.nav.DirectionalNavigation(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	target := neighbors[dir]
	if target == nil {
		return &MoveResult{SessionID: sessionID, Rejected: true, Reason: "no passage that way"}, nil
	}

	snapshot := mgr.ContextualVariables()
	ok, err := e.nav.CanMoveTo(ctx, id, dir, snapshot)
	if err != nil {
		return nil, classify(err)
	}
	if !ok {
		return &MoveResult{SessionID: sessionID, Rejected: true, Reason: "requirements not met"}, nil
	}

	dest, err := e.store.GetStorylet(ctx, target.ID)
	if err != nil {
		return nil, fmt.Errorf("loading destination storylet: %w", err)
	}
	if dest != nil {
		if loc, hasAnchor := dest.Location(); hasAnchor {
			mgr.SetVariable("location", loc)
		}
	}
	if err := e.saveSession(ctx, mgr); err != nil {
		return nil, err
	}

	pos := target.Position
	return &MoveResult{
		SessionID:   sessionID,
		Result:      fmt.Sprintf("Moved %s to %s", dir, target.Title),
		NewPosition: &pos,
	}, nil
}

// Assignment pairs a storylet with a grid cell.
type Assignment struct {
	StoryletID int64 `json:"storylet_id"`
	X          int   `json:"x"`
	Y          int   `json:"y"`
}

// AssignPositions applies any explicitly requested placements, then lays out
// every remaining unpositioned storylet. Returns everything assigned in this
// call, ordered by storylet id.
func (e *Engine) AssignPositions(ctx context.Context, explicit []Assignment) ([]Assignment, error) {
	if err := e.nav.Refresh(ctx); err != nil {
		return nil, err
	}

	for _, a := range explicit {
		s, err := e.store.GetStorylet(ctx, a.StoryletID)
		if err != nil {
			return nil, fmt.Errorf("checking storylet %d: %w", a.StoryletID, err)
		}
		if s == nil {
			return nil, fmt.Errorf("%w: storylet %d", ErrNotFound, a.StoryletID)
		}
	}

	assigned := make([]Assignment, 0, len(explicit))
	for _, a := range explicit {
		if err := e.nav.SetPosition(ctx, a.StoryletID, storylet.Position{X: a.X, Y: a.Y}); err != nil {
			return nil, classify(err)
		}
		assigned = append(assigned, a)
	}

	placed, err := e.nav.AssignSpatialPositions(ctx, nil)
	if err != nil {
		return nil, classify(err)
	}
	for id, pos := range placed {
		assigned = append(assigned, Assignment{StoryletID: id, X: pos.X, Y: pos.Y})
	}
	sort.Slice(assigned, func(i, j int) bool { return assigned[i].StoryletID < assigned[j].StoryletID })
	return assigned, nil
}

// AutoAssign places every unpositioned storylet and reports how many moved.
func (e *Engine) AutoAssign(ctx context.Context) (int, error) {
	if err := e.nav.Refresh(ctx); err != nil {
		return 0, err
	}
	count, err := e.nav.AutoAssignCoordinates(ctx, nil)
	if err != nil {
		return count, classify(err)
	}
	return count, nil
}

// Map snapshots every positioned storylet for rendering.
func (e *Engine) Map(ctx context.Context) ([]spatial.MapEntry, error) {
	entries, err := e.nav.MapData(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return entries, nil
}

// StateSummary reports every facet of the session's state.
func (e *Engine) StateSummary(ctx context.Context, sessionID string) (map[string]any, error) {
	mgr, err := e.manager(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return mgr.Summary(), nil
}

// UpdateRelationship applies deltas to the pair's relationship record and
// persists the session.
func (e *Engine) UpdateRelationship(ctx context.Context, sessionID, entityA, entityB string, changes map[string]float64, memory string) (*state.Relationship, error) {
	mgr, err := e.manager(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	rel, err := mgr.UpdateRelationship(entityA, entityB, changes, memory)
	if err != nil {
		return nil, classify(err)
	}
	if err := e.saveSession(ctx, mgr); err != nil {
		return nil, err
	}
	return rel, nil
}

// ItemResult is an inventory entry plus the actions it currently offers.
type ItemResult struct {
	Item    *state.Item `json:"item"`
	Actions []string    `json:"available_actions"`
}

// AddItem adds to the session inventory and reports the actions available
// under the current contextual snapshot.
func (e *Engine) AddItem(ctx context.Context, sessionID, itemID, name string, quantity int, properties map[string]any) (*ItemResult, error) {
	mgr, err := e.manager(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	item, err := mgr.AddItem(itemID, name, quantity, properties)
	if err != nil {
		return nil, classify(err)
	}
	if err := e.saveSession(ctx, mgr); err != nil {
		return nil, err
	}
	return &ItemResult{Item: item, Actions: item.AvailableActions(mgr.ContextualVariables())}, nil
}

// UpdateEnvironment merges validated environment changes.
func (e *Engine) UpdateEnvironment(ctx context.Context, sessionID string, changes map[string]any) (state.Environment, error) {
	mgr, err := e.manager(ctx, sessionID)
	if err != nil {
		return state.Environment{}, err
	}
	env, err := mgr.UpdateEnvironment(changes)
	if err != nil {
		return state.Environment{}, classify(err)
	}
	if err := e.saveSession(ctx, mgr); err != nil {
		return state.Environment{}, err
	}
	return env, nil
}

// CleanupResult reports a session sweep.
type CleanupResult struct {
	SessionsRemoved int `json:"sessions_removed"`
	CacheRemoved    int `json:"cache_entries_removed"`
}

// CleanupSessions deletes stored sessions idle past maxAge and drops them,
// plus anything idle past the cache TTL, from the live cache.
func (e *Engine) CleanupSessions(ctx context.Context, maxAge time.Duration) (CleanupResult, error) {
	cutoff := e.now().Add(-maxAge)
	ids, err := e.store.DeleteSessionsBefore(ctx, cutoff)
	if err != nil {
		return CleanupResult{}, fmt.Errorf("deleting stale sessions: %w", err)
	}
	removed := e.sessions.remove(ids)
	e.sessions.sweep()
	return CleanupResult{SessionsRemoved: len(ids), CacheRemoved: removed}, nil
}

// classify wraps lower-level failures with the engine's taxonomy so
// transports can map them without knowing the internals.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, spatial.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, spatial.ErrInvalidDirection):
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	case errors.Is(err, spatial.ErrNoPositions):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	case errors.Is(err, storylet.ErrPositionTaken):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, state.ErrInvalidQuantity),
		errors.Is(err, state.ErrInvalidEnvironment),
		errors.Is(err, state.ErrUnknownDimension):
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	default:
		return err
	}
}

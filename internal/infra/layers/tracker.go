// Package layers tracks the live surfaces contributing frame rate
// votes. Surfaces register for a handle and report their desired rate
// as they render; once they stop reporting, their vote lapses to
// NoVote until they report again or unregister. The tracker turns
// that stream into the per-frame requirement slice the selection
// engine consumes.
package layers

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lumen-display/lumen/internal/domain"
	"github.com/lumen-display/lumen/internal/infra/refresh"
)

// Config tunes the tracker.
type Config struct {
	// InactiveAfter is how long a surface may go without reporting
	// before its vote stops counting.
	InactiveAfter time.Duration
}

// DefaultConfig returns production settings.
func DefaultConfig() Config {
	return Config{
		InactiveAfter: 2 * time.Second,
	}
}

type surface struct {
	name         string
	ownerUID     int
	vote         domain.LayerVote
	desired      domain.Fps
	seamlessness domain.Seamlessness
	weight       float64
	focused      bool
	lastReport   time.Time
}

// Tracker is the surface registry.
type Tracker struct {
	mu       sync.RWMutex
	cfg      Config
	surfaces map[uuid.UUID]*surface

	now func() time.Time
}

// NewTracker creates a tracker.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{
		cfg:      cfg,
		surfaces: make(map[uuid.UUID]*surface),
		now:      time.Now,
	}
}

// Register adds a surface and returns its handle.
func (t *Tracker) Register(name string, ownerUID int) uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := uuid.New()
	t.surfaces[h] = &surface{
		name:       name,
		ownerUID:   ownerUID,
		vote:       domain.VoteNone,
		weight:     1.0,
		lastReport: t.now(),
	}
	return h
}

// Unregister removes a surface.
func (t *Tracker) Unregister(h uuid.UUID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.surfaces[h]; !ok {
		return domain.ErrUnknownSurface
	}
	delete(t.surfaces, h)
	return nil
}

// SetVote records a surface's vote and desired rate. Heuristic desired
// rates are snapped to the known frame rates; explicit rates are kept
// as requested.
func (t *Tracker) SetVote(h uuid.UUID, vote domain.LayerVote, desired domain.Fps) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.surfaces[h]
	if !ok {
		return domain.ErrUnknownSurface
	}
	if vote == domain.VoteHeuristic && desired.IsValid() {
		desired = refresh.ClosestKnownFrameRate(desired)
	}
	s.vote = vote
	s.desired = desired
	s.lastReport = t.now()
	return nil
}

// SetSeamlessness records a surface's tolerance for seamed switches.
func (t *Tracker) SetSeamlessness(h uuid.UUID, s domain.Seamlessness) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	surf, ok := t.surfaces[h]
	if !ok {
		return domain.ErrUnknownSurface
	}
	surf.seamlessness = s
	return nil
}

// SetWeight records a surface's share of the screen.
func (t *Tracker) SetWeight(h uuid.UUID, weight float64) error {
	if weight < 0 || weight > 1 {
		return domain.ErrInvalidWeight
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.surfaces[h]
	if !ok {
		return domain.ErrUnknownSurface
	}
	s.weight = weight
	return nil
}

// SetFocused marks which surface holds input focus. At most one
// surface is focused at a time.
func (t *Tracker) SetFocused(h uuid.UUID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.surfaces[h]; !ok {
		return domain.ErrUnknownSurface
	}
	for handle, s := range t.surfaces {
		s.focused = handle == h
	}
	return nil
}

// Touch refreshes a surface's activity clock without changing its vote.
func (t *Tracker) Touch(h uuid.UUID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.surfaces[h]
	if !ok {
		return domain.ErrUnknownSurface
	}
	s.lastReport = t.now()
	return nil
}

// Requirements snapshots the active surfaces as selection input,
// ordered by name for determinism. Surfaces that stopped reporting
// demote to NoVote rather than disappearing, so they stay in the frame
// as abstaining layers.
func (t *Tracker) Requirements() []domain.LayerRequirement {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cutoff := t.now().Add(-t.cfg.InactiveAfter)
	out := make([]domain.LayerRequirement, 0, len(t.surfaces))
	for _, s := range t.surfaces {
		vote := s.vote
		if s.lastReport.Before(cutoff) {
			vote = domain.VoteNone
		}
		out = append(out, domain.LayerRequirement{
			Name:         s.name,
			OwnerUID:     s.ownerUID,
			Desired:      s.desired,
			Vote:         vote,
			Seamlessness: s.seamlessness,
			Weight:       s.weight,
			Focused:      s.focused,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered surfaces.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.surfaces)
}

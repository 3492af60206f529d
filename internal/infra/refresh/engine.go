// Package refresh implements refresh rate selection: scoring the
// catalog against layer votes, policy constraints, and global signals,
// then picking the mode the display should run at. One engine instance
// serves one display; all state lives behind a single lock.
package refresh

import (
	"sync"

	"github.com/lumen-display/lumen/internal/domain"
	"github.com/lumen-display/lumen/internal/infra/modes"
	"github.com/lumen-display/lumen/internal/infra/policy"
)

// Engine selects refresh rates for one display.
type Engine struct {
	mu       sync.Mutex
	catalog  *modes.Catalog
	policies *policy.Store
	current  domain.DisplayMode

	lastIdleAction domain.IdleTimerAction
}

// New creates an engine positioned at the given current mode.
func New(catalog *modes.Catalog, policies *policy.Store, current domain.ModeID) (*Engine, error) {
	mode, err := catalog.Lookup(current)
	if err != nil {
		return nil, err
	}
	return &Engine{
		catalog:  catalog,
		policies: policies,
		current:  mode,
	}, nil
}

// CurrentMode returns the mode the display is running at.
func (e *Engine) CurrentMode() domain.DisplayMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// SetCurrentMode records that the display switched modes.
func (e *Engine) SetCurrentMode(id domain.ModeID) error {
	mode, err := e.catalog.Lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.current = mode
	e.mu.Unlock()
	return nil
}

// BestMode picks the refresh rate for one frame of layer requirements
// and global signals. It never fails: frames with no voting layer, or
// where no candidate scores, fall back to the fastest mode of the
// primary range; an empty candidate set falls back to the policy's
// default mode.
func (e *Engine) BestMode(layers []domain.LayerRequirement, signals domain.GlobalSignals) domain.Selection {
	e.mu.Lock()
	defer e.mu.Unlock()

	pol := e.policies.Effective()
	defaultMode := e.defaultMode(pol)

	var noVote, minVote, maxVote, explicit int
	var focusedExplicit, seamedLayerPresent, onlySeamlessPresent bool
	for _, l := range layers {
		switch l.Vote {
		case domain.VoteNone:
			noVote++
		case domain.VoteMin:
			minVote++
		case domain.VoteMax:
			maxVote++
		case domain.VoteExplicitDefault, domain.VoteExplicitExactOrMultiple:
			explicit++
			if l.Focused {
				focusedExplicit = true
			}
		}
		switch l.Seamlessness {
		case domain.SeamedAndSeamless:
			seamedLayerPresent = true
		case domain.OnlySeamless:
			onlySeamlessPresent = true
		}
	}

	// Touch boost wins unless a focused app asked for a rate itself.
	if signals.Touch && !focusedExplicit {
		return domain.Selection{
			Mode:    e.maxByPolicy(pol, defaultMode),
			Signals: domain.GlobalSignals{Touch: true},
		}
	}

	// An idle display drops to the bottom of the policy, except when
	// the primary range pins one rate and apps voted explicitly: that
	// configuration exists precisely to hold the pinned rate.
	if !signals.Touch && signals.Idle && !(pol.Primary.IsSingleRate() && explicit > 0) {
		return domain.Selection{
			Mode:    e.minByPolicy(pol, defaultMode),
			Signals: domain.GlobalSignals{Idle: true},
		}
	}

	if len(layers) == 0 || noVote == len(layers) {
		return domain.Selection{Mode: e.maxByPolicy(pol, defaultMode)}
	}
	if noVote+minVote == len(layers) {
		return domain.Selection{Mode: e.minByPolicy(pol, defaultMode)}
	}

	candidates := e.candidateModes(pol, defaultMode, onlySeamlessPresent, seamedLayerPresent)
	if len(candidates) == 0 {
		return domain.Selection{Mode: defaultMode}
	}
	maxCandidateFps := candidates[len(candidates)-1].Fps

	scores := make([]float64, len(candidates))
	for _, layer := range layers {
		if layer.Vote == domain.VoteNone || layer.Vote == domain.VoteMin {
			continue
		}
		for i, cand := range candidates {
			if !e.layerAccepts(layer, cand, defaultMode, seamedLayerPresent) {
				continue
			}

			// Candidates outside the primary range only score for
			// focused layers with an explicit vote. A single-rate
			// primary range behaves as if every candidate were
			// outside it.
			inPrimary := pol.Primary.Includes(cand.Fps)
			if (pol.Primary.IsSingleRate() || !inPrimary) &&
				!(layer.Focused && layer.Vote.IsExplicit()) {
				continue
			}

			if layer.Vote == domain.VoteMax {
				ratio := float64(cand.Fps) / float64(maxCandidateFps)
				scores[i] += layer.Weight * ratio * ratio
				continue
			}
			scores[i] += layer.Weight * e.layerScore(layer, cand)
		}
	}

	best := e.pickBest(candidates, scores, maxVote > 0)
	if best == nil {
		// Nothing scored: either every candidate was filtered out or
		// no layer cared. Fall back to the top of the policy.
		return domain.Selection{Mode: e.maxByPolicy(pol, defaultMode)}
	}
	return domain.Selection{Mode: *best}
}

// layerAccepts applies the per-layer seamlessness rules against one
// candidate mode. Cross-layer restrictions are handled up front by
// candidateModes.
func (e *Engine) layerAccepts(layer domain.LayerRequirement, cand, defaultMode domain.DisplayMode, seamedLayerPresent bool) bool {
	seamless := cand.Group == e.current.Group

	if layer.Seamlessness == domain.SeamedAndSeamless && !seamless && !layer.Focused {
		return false
	}
	if layer.Seamlessness == domain.SeamlessnessDefault && !layer.Focused {
		// With a seamed-tolerant layer on screen the display may
		// already sit outside the default group; anchor to the
		// current group then, otherwise to the default mode's group.
		anchor := defaultMode.Group
		if seamedLayerPresent {
			anchor = e.current.Group
		}
		if cand.Group != anchor {
			return false
		}
	}
	return true
}

// layerScore rates one candidate for one voting layer, in [0, 1].
func (e *Engine) layerScore(layer domain.LayerRequirement, cand domain.DisplayMode) float64 {
	seamless := cand.Group == e.current.Group

	switch layer.Vote {
	case domain.VoteExplicitDefault:
		return defaultVoteScore(layer.Desired, cand)
	case domain.VoteHeuristic, domain.VoteExplicitExactOrMultiple:
		return cadenceScore(layer.Desired, cand, seamless)
	default:
		return 0
	}
}

// pickBest selects the top-scoring candidate. Ties go to the lowest
// rate, or the highest when a max vote is present. Returns nil when no
// candidate scored.
func (e *Engine) pickBest(candidates []domain.DisplayMode, scores []float64, preferHigh bool) *domain.DisplayMode {
	bestIdx := -1
	bestScore := 0.0
	if preferHigh {
		for i := len(candidates) - 1; i >= 0; i-- {
			if scores[i] > bestScore {
				bestScore = scores[i]
				bestIdx = i
			}
		}
	} else {
		for i := range candidates {
			if scores[i] > bestScore {
				bestScore = scores[i]
				bestIdx = i
			}
		}
	}
	if bestIdx < 0 {
		return nil
	}
	m := candidates[bestIdx]
	return &m
}

// candidateModes returns the modes the frame's layers may vote on,
// ascending by rate. Group restrictions that depend on the whole layer
// set apply here: an OnlySeamless layer pins every layer to the
// current group, and without a seamed-tolerant layer the display
// returns to the default group when it has strayed from it.
func (e *Engine) candidateModes(pol domain.Policy, defaultMode domain.DisplayMode, onlySeamlessPresent, seamedLayerPresent bool) []domain.DisplayMode {
	var out []domain.DisplayMode
	for _, m := range e.catalog.All() {
		if !pol.AllowGroupSwitching && m.Group != defaultMode.Group {
			continue
		}
		if onlySeamlessPresent && m.Group != e.current.Group {
			continue
		}
		if !seamedLayerPresent && e.current.Group != defaultMode.Group && m.Group != defaultMode.Group {
			continue
		}
		if !pol.AppRequest.Includes(m.Fps) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// primaryModes returns the modes the device may choose on its own,
// ascending by rate.
func (e *Engine) primaryModes(pol domain.Policy, defaultMode domain.DisplayMode) []domain.DisplayMode {
	var out []domain.DisplayMode
	for _, m := range e.catalog.All() {
		if !pol.AllowGroupSwitching && m.Group != defaultMode.Group {
			continue
		}
		if !pol.Primary.Includes(m.Fps) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// defaultMode resolves the policy's default mode against the catalog.
func (e *Engine) defaultMode(pol domain.Policy) domain.DisplayMode {
	mode, err := e.catalog.Lookup(pol.DefaultMode)
	if err != nil {
		// The policy store validates against this catalog, so the
		// default mode is always resolvable.
		return e.current
	}
	return mode
}

// MinByPolicy returns the slowest mode the effective policy lets the
// device choose on its own.
func (e *Engine) MinByPolicy() domain.DisplayMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	pol := e.policies.Effective()
	return e.minByPolicy(pol, e.defaultMode(pol))
}

// MaxByPolicy returns the fastest mode the effective policy lets the
// device choose on its own.
func (e *Engine) MaxByPolicy() domain.DisplayMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	pol := e.policies.Effective()
	return e.maxByPolicy(pol, e.defaultMode(pol))
}

func (e *Engine) minByPolicy(pol domain.Policy, defaultMode domain.DisplayMode) domain.DisplayMode {
	in := e.primaryModes(pol, defaultMode)
	if len(in) == 0 {
		return defaultMode
	}
	return in[0]
}

func (e *Engine) maxByPolicy(pol domain.Policy, defaultMode domain.DisplayMode) domain.DisplayMode {
	in := e.primaryModes(pol, defaultMode)
	if len(in) == 0 {
		return defaultMode
	}
	return in[len(in)-1]
}

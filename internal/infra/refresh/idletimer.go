package refresh

import "github.com/lumen-display/lumen/internal/domain"

// IdleTimerAction recomputes the kernel idle timer verdict from the
// effective policy. The advisor is stateful: a verdict equal to the
// last one emitted collapses to NoChange, so callers can forward every
// result to the kernel without deduplicating.
func (e *Engine) IdleTimerAction() domain.IdleTimerAction {
	e.mu.Lock()
	defer e.mu.Unlock()

	pol := e.policies.Effective()
	desired := e.desiredIdleAction(pol, e.defaultMode(pol))
	if desired == e.lastIdleAction {
		return domain.IdleTimerNoChange
	}
	e.lastIdleAction = desired
	return desired
}

// LastIdleAction returns the most recent verdict without advancing the
// advisor.
func (e *Engine) LastIdleAction() domain.IdleTimerAction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastIdleAction
}

// desiredIdleAction arms the timer only when idling can actually lower
// the rate: more than one distinct rate must be reachable under the
// primary range.
func (e *Engine) desiredIdleAction(pol domain.Policy, defaultMode domain.DisplayMode) domain.IdleTimerAction {
	reachable := e.primaryModes(pol, defaultMode)

	distinct := 0
	var last domain.Fps
	for _, m := range reachable {
		if distinct == 0 || !m.Fps.EqualsWithMargin(last) {
			distinct++
			last = m.Fps
		}
	}
	if distinct > 1 {
		return domain.IdleTimerTurnOn
	}
	return domain.IdleTimerTurnOff
}

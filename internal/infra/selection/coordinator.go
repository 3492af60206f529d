// Package selection orchestrates one refresh rate decision end to end:
// gather layer requirements, run the engine, apply the chosen mode,
// journal the outcome, and fan it out to observers.
package selection

import (
	"log/slog"
	"sync"
	"time"

	"github.com/lumen-display/lumen/internal/domain"
	"github.com/lumen-display/lumen/internal/infra/layers"
	"github.com/lumen-display/lumen/internal/infra/metrics"
	"github.com/lumen-display/lumen/internal/infra/refresh"
	"github.com/lumen-display/lumen/internal/infra/sqlite"
)

// Coordinator drives the selection pipeline.
type Coordinator struct {
	engine  *refresh.Engine
	tracker *layers.Tracker
	db      *sqlite.DB
	logger  *slog.Logger

	mu        sync.Mutex
	observers []func(domain.Selection)

	now func() time.Time
}

// NewCoordinator wires the pipeline.
func NewCoordinator(engine *refresh.Engine, tracker *layers.Tracker, db *sqlite.DB, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		engine:  engine,
		tracker: tracker,
		db:      db,
		logger:  logger,
		now:     time.Now,
	}
}

// OnDecision registers an observer invoked after every decision.
func (c *Coordinator) OnDecision(fn func(domain.Selection)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Decide runs one selection for an explicit layer slice and applies
// the result.
func (c *Coordinator) Decide(reqs []domain.LayerRequirement, signals domain.GlobalSignals) domain.Selection {
	start := c.now()
	sel := c.engine.BestMode(reqs, signals)
	metrics.SelectionDuration.Observe(c.now().Sub(start).Seconds())

	c.apply(sel, len(reqs))
	return sel
}

// DecideTracked runs one selection from the tracker's current surfaces.
func (c *Coordinator) DecideTracked(signals domain.GlobalSignals) domain.Selection {
	return c.Decide(c.tracker.Requirements(), signals)
}

func (c *Coordinator) apply(sel domain.Selection, layerCount int) {
	if err := c.engine.SetCurrentMode(sel.Mode.ID); err != nil {
		c.logger.Error("apply chosen mode", "mode", sel.Mode.ID, "error", err)
	}

	outcome := "scored"
	switch {
	case sel.Signals.Touch:
		outcome = "touch_boost"
		metrics.SignalConsumed.WithLabelValues("touch").Inc()
	case sel.Signals.Idle:
		outcome = "idle"
		metrics.SignalConsumed.WithLabelValues("idle").Inc()
	}
	metrics.SelectionsTotal.WithLabelValues(outcome).Inc()
	metrics.ChosenRefreshRate.Set(float64(sel.Mode.Fps))
	metrics.SurfacesTracked.Set(float64(c.tracker.Len()))

	if c.db != nil {
		if err := c.db.AppendDecision(sel, layerCount, c.now()); err != nil {
			c.logger.Error("journal decision", "error", err)
		}
	}

	c.logger.Debug("selection",
		"mode", sel.Mode.ID,
		"fps", sel.Mode.Fps,
		"outcome", outcome,
		"layers", layerCount)

	c.mu.Lock()
	observers := make([]func(domain.Selection), len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()
	for _, fn := range observers {
		fn(sel)
	}
}

// Overrides plans per-app frame rate caps for the current display rate.
func (c *Coordinator) Overrides() []domain.FrameRateOverride {
	reqs := c.tracker.Requirements()
	return c.engine.FrameRateOverrides(reqs, c.engine.CurrentMode().Fps)
}

// IdleTimerAdvice recomputes the kernel idle timer verdict, counting
// emitted actions.
func (c *Coordinator) IdleTimerAdvice() domain.IdleTimerAction {
	action := c.engine.IdleTimerAction()
	if action != domain.IdleTimerNoChange {
		metrics.IdleTimerActions.WithLabelValues(action.String()).Inc()
		c.logger.Info("idle timer", "action", action.String())
	}
	return action
}

package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/lumen-display/lumen/internal/api"
	"github.com/lumen-display/lumen/internal/domain"
	"github.com/lumen-display/lumen/internal/health"
	"github.com/lumen-display/lumen/internal/infra/input"
	"github.com/lumen-display/lumen/internal/infra/layers"
	_ "github.com/lumen-display/lumen/internal/infra/metrics" // Register Prometheus metrics
	"github.com/lumen-display/lumen/internal/infra/modes"
	"github.com/lumen-display/lumen/internal/infra/policy"
	"github.com/lumen-display/lumen/internal/infra/refresh"
	"github.com/lumen-display/lumen/internal/infra/selection"
	"github.com/lumen-display/lumen/internal/infra/sqlite"
)

// Daemon is the core lumen runtime. It wires together all services.
type Daemon struct {
	Config   Config
	DB       *sqlite.DB
	Catalog  *modes.Catalog
	Policies *policy.Store
	Engine   *refresh.Engine
	Tracker  *layers.Tracker
	Coord    *selection.Coordinator
	Health   *health.Checker
	Server   *api.Server
	Feed     *api.FeedHub
	Input    *input.Probe

	logger *slog.Logger
	cancel context.CancelFunc

	mu           sync.Mutex
	lastFrame    time.Time
	idleApplied  bool
	touchApplied bool
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	logger := newLogger(cfg.Logging.Level)

	dataDir := cfg.Storage.Dir
	if dataDir == "" {
		dataDir = lumenHome()
	}

	db, err := sqlite.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	catalog, err := modes.NewCatalog(cfg.Display.DomainModes())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("build catalog: %w", err)
	}

	// A persisted display manager policy wins over the config file,
	// unless the configured catalog no longer satisfies it.
	basePolicy := cfg.Policy.DomainPolicy()
	if persisted, err := db.LoadPolicy(sqlite.LayerDisplayManager); err != nil {
		logger.Warn("load persisted policy", "error", err)
	} else if persisted != nil {
		basePolicy = *persisted
	}

	policies, err := policy.NewStore(catalog, basePolicy)
	if err != nil {
		logger.Warn("persisted policy no longer valid, using config", "error", err)
		policies, err = policy.NewStore(catalog, cfg.Policy.DomainPolicy())
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("build policy store: %w", err)
		}
	}

	if ov, err := db.LoadPolicy(sqlite.LayerOverride); err != nil {
		logger.Warn("load override policy", "error", err)
	} else if ov != nil {
		if _, err := policies.SetOverridePolicy(ov); err != nil {
			logger.Warn("persisted override no longer valid, dropping", "error", err)
			_ = db.ClearPolicy(sqlite.LayerOverride)
		}
	}

	engine, err := refresh.New(catalog, policies, domain.ModeID(cfg.Display.CurrentMode))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("build engine: %w", err)
	}

	trackerCfg := layers.DefaultConfig()
	if d := parseDuration(cfg.Idle.SurfaceExpiry, 0); d > 0 {
		trackerCfg.InactiveAfter = d
	}
	tracker := layers.NewTracker(trackerCfg)

	coord := selection.NewCoordinator(engine, tracker, db, logger)

	feed := api.NewFeedHub(logger)
	coord.OnDecision(feed.Broadcast)

	checker := health.NewChecker(db, catalog, dataDir)

	srv := api.NewServer(catalog, policies, engine, coord, tracker, db)
	srv.EnableMetrics()
	srv.SetFeed(feed)
	srv.SetHealth(checker)

	d := &Daemon{
		Config:    cfg,
		DB:        db,
		Catalog:   catalog,
		Policies:  policies,
		Engine:    engine,
		Tracker:   tracker,
		Coord:     coord,
		Health:    checker,
		Server:    srv,
		Feed:      feed,
		Input:     input.NewProbe(),
		logger:    logger,
		lastFrame: time.Now(),
	}

	// Every policy change can flip the idle timer verdict and the
	// best mode for the frame on screen.
	policies.Subscribe(func(domain.Policy) {
		d.Coord.IdleTimerAdvice()
		d.Coord.DecideTracked(domain.GlobalSignals{})
	})

	// Non-idle decisions count as display activity.
	coord.OnDecision(func(sel domain.Selection) {
		if sel.Signals.Idle {
			return
		}
		d.mu.Lock()
		d.lastFrame = time.Now()
		d.idleApplied = false
		d.mu.Unlock()
	})

	// Seed the kernel idle timer verdict from the startup policy.
	coord.IdleTimerAdvice()

	return d, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go d.Health.Run(ctx)
	go d.idleLoop(ctx)
	go d.pruneLoop(ctx)

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		_ = httpServer.Shutdown(shutdownCtx)
		_ = d.DB.Close()
	}()

	d.logger.Info("lumen serving", "addr", "http://"+addr)
	d.logger.Info("metrics", "url", "http://"+addr+"/metrics")

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}

// idleLoop watches frame and user input activity. Fresh input raises
// the touch boost; once both frames and input have been quiet past the
// configured timeout, the idle signal is applied.
func (d *Daemon) idleLoop(ctx context.Context) {
	timeout := parseDuration(d.Config.Idle.Timeout, 5*time.Second)
	touchWindow := parseDuration(d.Config.Idle.TouchWindow, 500*time.Millisecond)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sample := d.Input.Sample()
			active := sample.Active(touchWindow)
			// Headless hosts have no input to wait for; frame
			// staleness alone decides.
			inputStale := !sample.Available || sample.IdleFor >= timeout

			d.mu.Lock()
			stale := time.Since(d.lastFrame) >= timeout && inputStale
			boost := active && !d.touchApplied
			d.touchApplied = active
			apply := stale && !d.idleApplied
			if apply {
				d.idleApplied = true
			}
			if active {
				d.idleApplied = false
			}
			d.mu.Unlock()

			switch {
			case boost:
				d.Coord.DecideTracked(domain.GlobalSignals{Touch: true})
			case apply:
				d.Coord.DecideTracked(domain.GlobalSignals{Idle: true})
			}
		}
	}
}

// pruneLoop trims old decision journal entries.
func (d *Daemon) pruneLoop(ctx context.Context) {
	retention := parseDuration(d.Config.Storage.JournalRetention, 7*24*time.Hour)

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := d.DB.PruneDecisions(time.Now().Add(-retention))
			if err != nil {
				d.logger.Warn("prune journal", "error", err)
				continue
			}
			if n > 0 {
				d.logger.Debug("pruned journal", "entries", n)
			}
		}
	}
}

// newLogger builds the daemon logger at the configured level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

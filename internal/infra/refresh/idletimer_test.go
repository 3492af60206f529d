package refresh

import (
	"testing"

	"github.com/lumen-display/lumen/internal/domain"
	"github.com/lumen-display/lumen/internal/infra/modes"
	"github.com/lumen-display/lumen/internal/infra/policy"
)

func TestIdleTimerActionArmsWhenIdlingCanLowerRate(t *testing.T) {
	e := newTestEngine(t, modes60_90(), wideOpenPolicy(1, 60, 90), 1)

	if got := e.IdleTimerAction(); got != domain.IdleTimerTurnOn {
		t.Fatalf("first verdict = %s, want turn_on", got)
	}
	if got := e.IdleTimerAction(); got != domain.IdleTimerNoChange {
		t.Fatalf("repeat verdict = %s, want no_change", got)
	}
	if got := e.LastIdleAction(); got != domain.IdleTimerTurnOn {
		t.Fatalf("LastIdleAction = %s, want turn_on", got)
	}
}

func TestIdleTimerActionDisarmsOnPinnedRange(t *testing.T) {
	catalog, err := modes.NewCatalog(modes60_90())
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	store, err := policy.NewStore(catalog, wideOpenPolicy(1, 60, 90))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	e, err := New(catalog, store, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if got := e.IdleTimerAction(); got != domain.IdleTimerTurnOn {
		t.Fatalf("verdict = %s, want turn_on", got)
	}

	pinned := domain.Policy{
		DefaultMode: 1,
		Primary:     domain.FpsRange{Min: 60, Max: 60},
		AppRequest:  domain.FpsRange{Min: 60, Max: 90},
	}
	if _, err := store.SetOverridePolicy(&pinned); err != nil {
		t.Fatalf("SetOverridePolicy: %v", err)
	}

	if got := e.IdleTimerAction(); got != domain.IdleTimerTurnOff {
		t.Fatalf("verdict after pinning = %s, want turn_off", got)
	}
	if got := e.IdleTimerAction(); got != domain.IdleTimerNoChange {
		t.Fatalf("repeat verdict = %s, want no_change", got)
	}
}

func TestIdleTimerActionTreatsEqualRatesAsOne(t *testing.T) {
	ms := []domain.DisplayMode{
		{ID: 1, Fps: 60, Group: 0},
		{ID: 2, Fps: 60, Group: 0},
	}
	e := newTestEngine(t, ms, wideOpenPolicy(1, 60, 60), 1)
	if got := e.IdleTimerAction(); got != domain.IdleTimerTurnOff {
		t.Fatalf("verdict = %s, want turn_off", got)
	}
}

func TestClosestKnownFrameRate(t *testing.T) {
	tests := []struct {
		in   domain.Fps
		want domain.Fps
	}{
		{23.976, 24},
		{26, 24},
		{28, 30},
		{35, 30},
		{40, 45},
		{52, 45},
		{53, 60},
		{65, 60},
		{67, 72},
		{80, 72},
		{82, 90},
		{1000, 90},
	}
	for _, tt := range tests {
		if got := ClosestKnownFrameRate(tt.in); got != tt.want {
			t.Fatalf("ClosestKnownFrameRate(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

package sqlite

import (
	"testing"
	"time"

	"github.com/lumen-display/lumen/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	db.Close()

	db, err = Open(dir)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestPolicyRoundTrip(t *testing.T) {
	db := openTestDB(t)

	p := domain.Policy{
		DefaultMode:         2,
		AllowGroupSwitching: true,
		Primary:             domain.FpsRange{Min: 60, Max: 90},
		AppRequest:          domain.FpsRange{Min: 60, Max: 120},
	}
	if err := db.SavePolicy(LayerDisplayManager, p); err != nil {
		t.Fatalf("SavePolicy: %v", err)
	}

	got, err := db.LoadPolicy(LayerDisplayManager)
	if err != nil {
		t.Fatalf("LoadPolicy: %v", err)
	}
	if got == nil || !got.Equal(p) {
		t.Fatalf("LoadPolicy = %v, want %s", got, p)
	}

	// Saving again overwrites.
	p.Primary.Max = 120
	if err := db.SavePolicy(LayerDisplayManager, p); err != nil {
		t.Fatalf("SavePolicy overwrite: %v", err)
	}
	got, err = db.LoadPolicy(LayerDisplayManager)
	if err != nil {
		t.Fatalf("LoadPolicy: %v", err)
	}
	if !got.Primary.Max.EqualsWithMargin(120) {
		t.Fatalf("primary max = %s, want 120Hz", got.Primary.Max)
	}
}

func TestLoadPolicyMissingLayer(t *testing.T) {
	db := openTestDB(t)
	got, err := db.LoadPolicy(LayerOverride)
	if err != nil {
		t.Fatalf("LoadPolicy: %v", err)
	}
	if got != nil {
		t.Fatalf("LoadPolicy = %v, want nil for a missing layer", got)
	}
}

func TestClearPolicy(t *testing.T) {
	db := openTestDB(t)

	p := domain.Policy{
		DefaultMode: 1,
		Primary:     domain.FpsRange{Min: 60, Max: 60},
		AppRequest:  domain.FpsRange{Min: 60, Max: 90},
	}
	if err := db.SavePolicy(LayerOverride, p); err != nil {
		t.Fatalf("SavePolicy: %v", err)
	}
	if err := db.ClearPolicy(LayerOverride); err != nil {
		t.Fatalf("ClearPolicy: %v", err)
	}
	got, err := db.LoadPolicy(LayerOverride)
	if err != nil {
		t.Fatalf("LoadPolicy: %v", err)
	}
	if got != nil {
		t.Fatalf("LoadPolicy after clear = %v, want nil", got)
	}

	// Clearing an absent layer is not an error.
	if err := db.ClearPolicy(LayerOverride); err != nil {
		t.Fatalf("ClearPolicy on empty: %v", err)
	}
}

func TestDecisionJournal(t *testing.T) {
	db := openTestDB(t)
	base := time.Unix(1700000000, 0)

	sels := []domain.Selection{
		{Mode: domain.DisplayMode{ID: 1, Fps: 60}, Signals: domain.GlobalSignals{Idle: true}},
		{Mode: domain.DisplayMode{ID: 2, Fps: 90}, Signals: domain.GlobalSignals{Touch: true}},
		{Mode: domain.DisplayMode{ID: 2, Fps: 90}},
	}
	for i, sel := range sels {
		if err := db.AppendDecision(sel, i+1, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("AppendDecision %d: %v", i, err)
		}
	}

	entries, err := db.RecentDecisions(2)
	if err != nil {
		t.Fatalf("RecentDecisions: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("RecentDecisions returned %d entries, want 2", len(entries))
	}
	// Most recent first.
	if entries[0].LayerCount != 3 || entries[1].LayerCount != 2 {
		t.Fatalf("order wrong: layer counts %d, %d", entries[0].LayerCount, entries[1].LayerCount)
	}
	if entries[0].ModeID != 2 || !entries[0].Fps.EqualsWithMargin(90) {
		t.Fatalf("entry = %+v", entries[0])
	}
	if !entries[1].Signals.Touch {
		t.Fatalf("entry signals = %+v, want touch", entries[1].Signals)
	}
}

func TestPruneDecisions(t *testing.T) {
	db := openTestDB(t)
	base := time.Unix(1700000000, 0)

	for i := 0; i < 5; i++ {
		sel := domain.Selection{Mode: domain.DisplayMode{ID: 1, Fps: 60}}
		if err := db.AppendDecision(sel, 0, base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("AppendDecision: %v", err)
		}
	}

	n, err := db.PruneDecisions(base.Add(2 * time.Hour))
	if err != nil {
		t.Fatalf("PruneDecisions: %v", err)
	}
	if n != 2 {
		t.Fatalf("pruned %d entries, want 2", n)
	}

	entries, err := db.RecentDecisions(10)
	if err != nil {
		t.Fatalf("RecentDecisions: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("%d entries remain, want 3", len(entries))
	}
}

package layers

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lumen-display/lumen/internal/domain"
)

func newTestTracker(at time.Time) (*Tracker, *time.Time) {
	clock := at
	t := NewTracker(Config{InactiveAfter: 2 * time.Second})
	t.now = func() time.Time { return clock }
	return t, &clock
}

func TestRegisterAndRequirements(t *testing.T) {
	tr, _ := newTestTracker(time.Unix(1000, 0))

	hb := tr.Register("browser", 10001)
	ha := tr.Register("album", 10002)

	if err := tr.SetVote(ha, domain.VoteExplicitDefault, 30); err != nil {
		t.Fatalf("SetVote: %v", err)
	}
	if err := tr.SetVote(hb, domain.VoteMax, 0); err != nil {
		t.Fatalf("SetVote: %v", err)
	}

	reqs := tr.Requirements()
	if len(reqs) != 2 {
		t.Fatalf("Requirements returned %d layers, want 2", len(reqs))
	}
	// Snapshot order is by name.
	if reqs[0].Name != "album" || reqs[1].Name != "browser" {
		t.Fatalf("order = %s, %s; want album, browser", reqs[0].Name, reqs[1].Name)
	}
	if reqs[0].Vote != domain.VoteExplicitDefault || !reqs[0].Desired.EqualsWithMargin(30) {
		t.Fatalf("album = %+v", reqs[0])
	}
	if reqs[0].OwnerUID != 10002 {
		t.Fatalf("album uid = %d, want 10002", reqs[0].OwnerUID)
	}
	if reqs[1].Vote != domain.VoteMax {
		t.Fatalf("browser vote = %v, want max", reqs[1].Vote)
	}
	if tr.Len() != 2 {
		t.Fatalf("Len = %d, want 2", tr.Len())
	}
}

func TestHeuristicVoteSnapsToKnownRates(t *testing.T) {
	tr, _ := newTestTracker(time.Unix(1000, 0))
	h := tr.Register("video", 10001)

	if err := tr.SetVote(h, domain.VoteHeuristic, 29.4); err != nil {
		t.Fatalf("SetVote: %v", err)
	}
	reqs := tr.Requirements()
	if !reqs[0].Desired.EqualsWithMargin(30) {
		t.Fatalf("desired = %s, want snapped 30Hz", reqs[0].Desired)
	}

	// Explicit votes keep the exact rate.
	if err := tr.SetVote(h, domain.VoteExplicitExactOrMultiple, 29.4); err != nil {
		t.Fatalf("SetVote: %v", err)
	}
	reqs = tr.Requirements()
	if !reqs[0].Desired.EqualsWithMargin(29.4) {
		t.Fatalf("desired = %s, want exact 29.4Hz", reqs[0].Desired)
	}
}

func TestStaleSurfaceDemotesToNoVote(t *testing.T) {
	tr, clock := newTestTracker(time.Unix(1000, 0))
	h := tr.Register("video", 10001)
	if err := tr.SetVote(h, domain.VoteHeuristic, 30); err != nil {
		t.Fatalf("SetVote: %v", err)
	}

	*clock = clock.Add(3 * time.Second)
	reqs := tr.Requirements()
	if len(reqs) != 1 {
		t.Fatalf("Requirements returned %d layers, want the stale one kept", len(reqs))
	}
	if reqs[0].Vote != domain.VoteNone {
		t.Fatalf("stale vote = %v, want no_vote", reqs[0].Vote)
	}

	// Touch revives the vote without restating it.
	if err := tr.Touch(h); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	reqs = tr.Requirements()
	if reqs[0].Vote != domain.VoteHeuristic {
		t.Fatalf("vote after touch = %v, want heuristic", reqs[0].Vote)
	}
}

func TestFocusIsExclusive(t *testing.T) {
	tr, _ := newTestTracker(time.Unix(1000, 0))
	a := tr.Register("a", 1)
	b := tr.Register("b", 2)

	if err := tr.SetFocused(a); err != nil {
		t.Fatalf("SetFocused: %v", err)
	}
	if err := tr.SetFocused(b); err != nil {
		t.Fatalf("SetFocused: %v", err)
	}

	reqs := tr.Requirements()
	if reqs[0].Focused {
		t.Fatal("surface a still focused after focus moved")
	}
	if !reqs[1].Focused {
		t.Fatal("surface b should hold focus")
	}
}

func TestSetWeightBounds(t *testing.T) {
	tr, _ := newTestTracker(time.Unix(1000, 0))
	h := tr.Register("a", 1)

	if err := tr.SetWeight(h, 0.5); err != nil {
		t.Fatalf("SetWeight: %v", err)
	}
	if err := tr.SetWeight(h, 1.5); !errors.Is(err, domain.ErrInvalidWeight) {
		t.Fatalf("SetWeight(1.5) = %v, want ErrInvalidWeight", err)
	}
	if err := tr.SetWeight(h, -0.1); !errors.Is(err, domain.ErrInvalidWeight) {
		t.Fatalf("SetWeight(-0.1) = %v, want ErrInvalidWeight", err)
	}

	reqs := tr.Requirements()
	if reqs[0].Weight != 0.5 {
		t.Fatalf("weight = %v, want the accepted 0.5", reqs[0].Weight)
	}
}

func TestUnknownHandleErrors(t *testing.T) {
	tr, _ := newTestTracker(time.Unix(1000, 0))
	ghost := uuid.New()

	if err := tr.Unregister(ghost); !errors.Is(err, domain.ErrUnknownSurface) {
		t.Fatalf("Unregister = %v, want ErrUnknownSurface", err)
	}
	if err := tr.SetVote(ghost, domain.VoteMax, 0); !errors.Is(err, domain.ErrUnknownSurface) {
		t.Fatalf("SetVote = %v, want ErrUnknownSurface", err)
	}
	if err := tr.SetSeamlessness(ghost, domain.OnlySeamless); !errors.Is(err, domain.ErrUnknownSurface) {
		t.Fatalf("SetSeamlessness = %v, want ErrUnknownSurface", err)
	}
	if err := tr.SetWeight(ghost, 0.5); !errors.Is(err, domain.ErrUnknownSurface) {
		t.Fatalf("SetWeight = %v, want ErrUnknownSurface", err)
	}
	if err := tr.SetFocused(ghost); !errors.Is(err, domain.ErrUnknownSurface) {
		t.Fatalf("SetFocused = %v, want ErrUnknownSurface", err)
	}
	if err := tr.Touch(ghost); !errors.Is(err, domain.ErrUnknownSurface) {
		t.Fatalf("Touch = %v, want ErrUnknownSurface", err)
	}
}

func TestUnregisterRemovesSurface(t *testing.T) {
	tr, _ := newTestTracker(time.Unix(1000, 0))
	h := tr.Register("a", 1)
	if err := tr.Unregister(h); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	if tr.Len() != 0 {
		t.Fatalf("Len = %d, want 0", tr.Len())
	}
}

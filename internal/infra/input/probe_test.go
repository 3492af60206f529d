package input

import (
	"testing"
	"time"
)

func TestSampleActive(t *testing.T) {
	tests := []struct {
		name   string
		sample Sample
		window time.Duration
		want   bool
	}{
		{"fresh input", Sample{Available: true, IdleFor: 100 * time.Millisecond}, 500 * time.Millisecond, true},
		{"stale input", Sample{Available: true, IdleFor: 2 * time.Second}, 500 * time.Millisecond, false},
		{"locked session", Sample{Available: true, Locked: true, IdleFor: 0}, 500 * time.Millisecond, false},
		{"headless host", Sample{Available: false, IdleFor: 0}, 500 * time.Millisecond, false},
		{"exactly at window", Sample{Available: true, IdleFor: 500 * time.Millisecond}, 500 * time.Millisecond, false},
	}
	for _, tt := range tests {
		if got := tt.sample.Active(tt.window); got != tt.want {
			t.Errorf("%s: Active(%v) = %v, want %v", tt.name, tt.window, got, tt.want)
		}
	}
}

func TestProbeSampleCachesLast(t *testing.T) {
	p := NewProbe()

	if last := p.Last(); last.Available || last.IdleFor != 0 {
		t.Fatalf("Last() before any sample = %+v, want zero", last)
	}

	s := p.Sample()
	if s.IdleFor < 0 {
		t.Fatalf("IdleFor = %v, want non-negative", s.IdleFor)
	}
	if got := p.Last(); got != s {
		t.Fatalf("Last() = %+v, want cached sample %+v", got, s)
	}
}

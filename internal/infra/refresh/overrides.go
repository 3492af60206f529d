package refresh

import (
	"math"
	"sort"

	"github.com/lumen-display/lumen/internal/domain"
)

// FrameRateOverrides plans per-application frame rate caps once a
// display rate is chosen. Each app that voted explicitly gets the
// largest divisor of the chosen rate that still meets its desire.
// When one app owns several explicit layers, the last one wins.
func (e *Engine) FrameRateOverrides(layers []domain.LayerRequirement, chosen domain.Fps) []domain.FrameRateOverride {
	byUID := make(map[int]domain.Fps)
	for _, l := range layers {
		if !l.Vote.IsExplicit() || l.OwnerUID <= 0 || !l.Desired.IsValid() {
			continue
		}
		k := l.Desired.Divides(chosen)
		if k == 0 {
			floor := float64(l.Desired) - domain.FpsMargin
			if floor <= 0 {
				continue
			}
			k = int(float64(chosen) / floor)
			if k < 1 {
				k = 1
			}
		}
		byUID[l.OwnerUID] = chosen / domain.Fps(k)
	}

	out := make([]domain.FrameRateOverride, 0, len(byUID))
	for uid, fps := range byUID {
		out = append(out, domain.FrameRateOverride{UID: uid, Fps: fps})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out
}

// DividerForRate returns the integer divisor that maps the current
// display rate down to the given rate, or 0 when the rate exceeds the
// display rate. Ties between divisors go to the smaller one.
func (e *Engine) DividerForRate(rate domain.Fps) int {
	e.mu.Lock()
	current := e.current.Fps
	e.mu.Unlock()

	if !rate.IsValid() || rate.GreaterThanWithMargin(current) {
		return 0
	}
	if k := rate.Divides(current); k > 0 {
		return k
	}

	k := int(float64(current)/float64(rate) + 1e-9)
	if k < 1 {
		k = 1
	}
	lower := math.Abs(float64(current)/float64(k) - float64(rate))
	higher := math.Abs(float64(current)/float64(k+1) - float64(rate))
	if higher < lower {
		return k + 1
	}
	return k
}

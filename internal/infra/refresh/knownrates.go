package refresh

import (
	"math"

	"github.com/lumen-display/lumen/internal/domain"
)

// KnownFrameRates are the cadences layer heuristics snap to. Content
// overwhelmingly renders at one of these, so quantizing noisy present
// timestamps to them keeps votes stable.
var KnownFrameRates = []domain.Fps{24, 30, 45, 60, 72, 90}

// ClosestKnownFrameRate snaps an arbitrary rate to the nearest known
// frame rate. Exact midpoints go to the lower rate.
func ClosestKnownFrameRate(f domain.Fps) domain.Fps {
	best := KnownFrameRates[0]
	bestDiff := math.Abs(float64(f) - float64(best))
	for _, k := range KnownFrameRates[1:] {
		d := math.Abs(float64(f) - float64(k))
		if d < bestDiff {
			best = k
			bestDiff = d
		}
	}
	return best
}

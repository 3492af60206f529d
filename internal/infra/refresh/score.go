package refresh

import (
	"math"

	"github.com/lumen-display/lumen/internal/domain"
)

// Period arithmetic constants. Scoring works on vsync periods in
// nanoseconds rather than rates, so a layer that almost fits a mode
// still scores well.
const (
	// periodFitMargin absorbs rounding when comparing layer periods
	// against whole display frames.
	periodFitMargin = int64(800_000) // 800µs

	// maxFramesToFit caps the cadence search. A layer whose cadence has
	// not evened out by this many frames scores 1/maxFramesToFit.
	maxFramesToFit = 10

	// seamedSwitchPenalty discounts candidates in a different mode
	// group than the current mode.
	seamedSwitchPenalty = 0.95
)

// cadenceScore rates how well a layer's desired period fits a display
// mode's period. Used for heuristic and exact-or-multiple votes.
func cadenceScore(desired domain.Fps, mode domain.DisplayMode, seamless bool) float64 {
	factor := 1.0
	if !seamless {
		factor = seamedSwitchPenalty
	}

	if desired.Divides(mode.Fps) > 0 {
		// The layer rate divides the display rate evenly.
		return 1.0 * factor
	}

	layerPeriod := desired.PeriodNsecs()
	displayPeriod := mode.Fps.PeriodNsecs()

	quot := layerPeriod / displayPeriod
	rem := layerPeriod % displayPeriod
	if quot == 0 {
		// The layer wants to render faster than this mode refreshes.
		return float64(layerPeriod) / float64(displayPeriod) * (1.0 / (maxFramesToFit + 1))
	}

	// The layer renders slower than the display. Count how many frames
	// it takes for the presentation cadence to even out.
	diff := math.Abs(float64(rem - (displayPeriod - rem)))
	iter := 2
	for diff > float64(periodFitMargin) && iter < maxFramesToFit {
		diff = diff - (float64(displayPeriod) - diff)
		iter++
	}
	return (1.0 / float64(iter)) * factor
}

// defaultVoteScore rates a mode for an explicit default vote. The vote
// is a soft preference, so the score degrades gently as the display
// rate the layer would actually render at drifts from its desire. No
// seamed-switch penalty applies.
func defaultVoteScore(desired domain.Fps, mode domain.DisplayMode) float64 {
	layerPeriod := desired.PeriodNsecs()
	displayPeriod := mode.Fps.PeriodNsecs()

	actualPeriod := displayPeriod
	multiplier := int64(1)
	for layerPeriod > actualPeriod+periodFitMargin {
		multiplier++
		actualPeriod = displayPeriod * multiplier
	}
	return math.Min(1.0, float64(layerPeriod)/float64(actualPeriod))
}

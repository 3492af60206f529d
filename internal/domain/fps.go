// Package domain defines the core types shared across lumen: refresh
// rates, display modes, layer frame-rate requirements, and selection
// policies. It contains no I/O and no locking.
package domain

import (
	"fmt"
	"math"
)

// FpsMargin is the tolerance for refresh rate comparisons, in Hz.
// Two rates closer than this are the same rate.
const FpsMargin = 0.001

// Fps is a refresh or frame rate in Hertz.
type Fps float64

// FpsFromPeriodNsecs converts a vsync period in nanoseconds to a rate.
func FpsFromPeriodNsecs(period int64) Fps {
	if period <= 0 {
		return 0
	}
	return Fps(1e9 / float64(period))
}

// PeriodNsecs returns the vsync period for this rate in nanoseconds.
func (f Fps) PeriodNsecs() int64 {
	if f <= 0 {
		return 0
	}
	return int64(1e9 / float64(f))
}

// IsValid reports whether the rate is positive.
func (f Fps) IsValid() bool { return f > 0 }

// EqualsWithMargin reports whether two rates are equal within FpsMargin.
func (f Fps) EqualsWithMargin(o Fps) bool {
	return math.Abs(float64(f)-float64(o)) < FpsMargin
}

// Divides returns the integer k for which f*k equals o within
// FpsMargin, or 0 when f does not evenly divide o. A rate always
// divides itself (k = 1).
func (f Fps) Divides(o Fps) int {
	if !f.IsValid() || !o.IsValid() || f.GreaterThanWithMargin(o) {
		return 0
	}
	k := math.Round(float64(o) / float64(f))
	if k < 1 || !(f * Fps(k)).EqualsWithMargin(o) {
		return 0
	}
	return int(k)
}

// LessThanWithMargin reports f < o beyond the comparison margin.
func (f Fps) LessThanWithMargin(o Fps) bool {
	return float64(f)+FpsMargin <= float64(o)
}

// GreaterThanWithMargin reports f > o beyond the comparison margin.
func (f Fps) GreaterThanWithMargin(o Fps) bool {
	return float64(f) >= float64(o)+FpsMargin
}

// LessThanOrEqualWithMargin reports f <= o within the comparison margin.
func (f Fps) LessThanOrEqualWithMargin(o Fps) bool {
	return !f.GreaterThanWithMargin(o)
}

// GreaterThanOrEqualWithMargin reports f >= o within the comparison margin.
func (f Fps) GreaterThanOrEqualWithMargin(o Fps) bool {
	return !f.LessThanWithMargin(o)
}

func (f Fps) String() string {
	return fmt.Sprintf("%.2fHz", float64(f))
}

// FpsRange is an inclusive rate interval.
type FpsRange struct {
	Min Fps `json:"min" toml:"min"`
	Max Fps `json:"max" toml:"max"`
}

// Includes reports whether rate lies within the range, margin-inclusive
// at both bounds.
func (r FpsRange) Includes(f Fps) bool {
	return f.GreaterThanOrEqualWithMargin(r.Min) && f.LessThanOrEqualWithMargin(r.Max)
}

// IsSingleRate reports whether the range pins exactly one rate.
func (r FpsRange) IsSingleRate() bool {
	return r.Min.EqualsWithMargin(r.Max)
}

// Contains reports whether r fully covers other.
func (r FpsRange) Contains(other FpsRange) bool {
	return r.Min.LessThanOrEqualWithMargin(other.Min) && r.Max.GreaterThanOrEqualWithMargin(other.Max)
}

func (r FpsRange) String() string {
	return fmt.Sprintf("[%s %s]", r.Min, r.Max)
}

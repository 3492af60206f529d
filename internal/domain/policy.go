package domain

import "fmt"

// Policy constrains refresh rate selection for one display.
type Policy struct {
	// DefaultMode anchors group filtering and is the fallback choice.
	DefaultMode ModeID `json:"default_mode" toml:"default_mode"`
	// AllowGroupSwitching permits candidates outside the default
	// mode's group.
	AllowGroupSwitching bool `json:"allow_group_switching" toml:"allow_group_switching"`
	// Primary is the range the device may choose from on its own.
	Primary FpsRange `json:"primary" toml:"primary"`
	// AppRequest is the wider range reachable when applications ask
	// for a rate explicitly. It always contains Primary.
	AppRequest FpsRange `json:"app_request" toml:"app_request"`
}

func (p Policy) String() string {
	return fmt.Sprintf("default=%d groupSwitch=%t primary=%s appRequest=%s",
		p.DefaultMode, p.AllowGroupSwitching, p.Primary, p.AppRequest)
}

// Equal reports whether two policies are the same within the rate
// comparison margin.
func (p Policy) Equal(o Policy) bool {
	return p.DefaultMode == o.DefaultMode &&
		p.AllowGroupSwitching == o.AllowGroupSwitching &&
		p.Primary.Min.EqualsWithMargin(o.Primary.Min) &&
		p.Primary.Max.EqualsWithMargin(o.Primary.Max) &&
		p.AppRequest.Min.EqualsWithMargin(o.AppRequest.Min) &&
		p.AppRequest.Max.EqualsWithMargin(o.AppRequest.Max)
}

// MergePolicies combines the display manager's policy with an override,
// keeping the more restrictive bound of each range. Group switching is
// allowed only when both policies allow it. The override's default mode
// wins when the override is present.
func MergePolicies(base Policy, override *Policy) Policy {
	if override == nil {
		return base
	}
	merged := Policy{
		DefaultMode:         override.DefaultMode,
		AllowGroupSwitching: base.AllowGroupSwitching && override.AllowGroupSwitching,
		Primary: FpsRange{
			Min: maxFps(base.Primary.Min, override.Primary.Min),
			Max: minFps(base.Primary.Max, override.Primary.Max),
		},
		AppRequest: FpsRange{
			Min: maxFps(base.AppRequest.Min, override.AppRequest.Min),
			Max: minFps(base.AppRequest.Max, override.AppRequest.Max),
		},
	}
	return merged
}

func maxFps(a, b Fps) Fps {
	if a.GreaterThanWithMargin(b) {
		return a
	}
	return b
}

func minFps(a, b Fps) Fps {
	if a.LessThanWithMargin(b) {
		return a
	}
	return b
}

//go:build linux

package input

import (
	"os"
	"time"
)

// lastInputAge estimates the time since the last user input. The
// framebuffer node's modification time is a coarse stand-in; proper
// idle tracking needs libXss or logind over D-Bus, neither of which
// we link against yet.
func lastInputAge() time.Duration {
	info, err := os.Stat("/sys/class/graphics/fb0")
	if err != nil {
		return 0
	}
	return time.Since(info.ModTime())
}

// hasDisplay reports whether a graphical session is present.
func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

// sessionLocked reports whether the session is locked. Lock state on
// Linux lives behind org.freedesktop.login1; until that is wired the
// probe assumes unlocked.
func sessionLocked() bool {
	return false
}

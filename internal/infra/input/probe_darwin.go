//go:build darwin

package input

import (
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// lastInputAge returns the time since the last HID event on macOS.
// ioreg exposes HIDIdleTime in nanoseconds.
func lastInputAge() time.Duration {
	out, err := exec.Command("ioreg", "-c", "IOHIDSystem", "-d", "4").Output()
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(out), "\n") {
		if strings.Contains(line, "HIDIdleTime") {
			parts := strings.Split(line, "=")
			if len(parts) == 2 {
				ns, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
				if err == nil {
					return time.Duration(ns)
				}
			}
		}
	}
	return 0
}

// hasDisplay reports whether a graphical session is present. macOS
// always has one outside headless CI.
func hasDisplay() bool {
	return true
}

// sessionLocked reports whether the macOS session is locked, via the
// Quartz session dictionary (no CGO needed).
func sessionLocked() bool {
	out, err := exec.Command("python3", "-c",
		`import Quartz; d=Quartz.CGSessionCopyCurrentDictionary(); print(d.get("CGSSessionScreenIsLocked",0))`).Output()
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(out)) == "1"
}

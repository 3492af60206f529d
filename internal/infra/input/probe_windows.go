//go:build windows

package input

import (
	"syscall"
	"time"
	"unsafe"
)

var (
	user32               = syscall.NewLazyDLL("user32.dll")
	kernel32             = syscall.NewLazyDLL("kernel32.dll")
	procGetLastInputInfo = user32.NewProc("GetLastInputInfo")
	procGetTickCount     = kernel32.NewProc("GetTickCount")
)

type lastInputInfo struct {
	cbSize uint32
	dwTime uint32
}

// lastInputAge returns the time since the last keyboard or mouse
// event, via GetLastInputInfo.
func lastInputAge() time.Duration {
	var info lastInputInfo
	info.cbSize = uint32(unsafe.Sizeof(info))

	ret, _, _ := procGetLastInputInfo.Call(uintptr(unsafe.Pointer(&info)))
	if ret == 0 {
		return 0 // API failed, assume active
	}

	tick, _, _ := procGetTickCount.Call()
	idle := uint32(tick) - info.dwTime
	return time.Duration(idle) * time.Millisecond
}

// hasDisplay reports whether a graphical session is present. Windows
// desktops always have one.
func hasDisplay() bool {
	return true
}

// sessionLocked reports whether the workstation is locked. When the
// input desktop cannot be opened, the session is locked.
func sessionLocked() bool {
	procOpenInputDesktop := user32.NewProc("OpenInputDesktop")
	procCloseDesktop := user32.NewProc("CloseDesktop")

	// OpenInputDesktop(0, false, DESKTOP_READOBJECTS)
	hDesktop, _, _ := procOpenInputDesktop.Call(0, 0, 0x0001)
	if hDesktop == 0 {
		return true
	}
	procCloseDesktop.Call(hDesktop)
	return false
}

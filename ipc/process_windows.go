//go:build windows

package ipc

import "os"

// FindProcess opens a handle on Windows and fails for dead PIDs.
func processRunning(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	p.Release()
	return true
}

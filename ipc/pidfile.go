package ipc

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Lock is the daemon's PID file. Only one daemon may own a Channel.
type Lock struct {
	path string
	pid  int
}

// Lock claims hark.pid, replacing it if the recorded process is gone.
func (c *Channel) Lock() (*Lock, error) {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return nil, err
	}
	path := filepath.Join(c.dir, "hark.pid")
	if pid, ok := readPID(path); ok && pid != os.Getpid() && processRunning(pid) {
		return nil, fmt.Errorf("hark is already running (pid %d)", pid)
	}
	pid := os.Getpid()
	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return nil, fmt.Errorf("write pid file: %w", err)
	}
	return &Lock{path: path, pid: pid}, nil
}

// Running reports the PID of a live daemon, if any.
func (c *Channel) Running() (int, bool) {
	pid, ok := readPID(filepath.Join(c.dir, "hark.pid"))
	if !ok || !processRunning(pid) {
		return 0, false
	}
	return pid, true
}

// Release removes the PID file if it still holds our PID.
func (l *Lock) Release() {
	if l == nil {
		return
	}
	if pid, ok := readPID(l.path); ok && pid == l.pid {
		os.Remove(l.path)
	}
}

func readPID(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

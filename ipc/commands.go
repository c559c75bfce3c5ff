package ipc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"hark/log"
)

// Command is written by `hark toggle` and friends and consumed by the daemon.
type Command string

const (
	CmdToggle Command = "toggle"
	CmdStart  Command = "start" // only acts when idle
	CmdStop   Command = "stop"  // only acts when recording
	CmdQuit   Command = "quit"
)

func ParseCommand(s string) (Command, error) {
	cmd := Command(strings.TrimSpace(s))
	switch cmd {
	case CmdToggle, CmdStart, CmdStop, CmdQuit, "":
		return cmd, nil
	}
	return "", fmt.Errorf("unknown command %q", cmd)
}

const pollInterval = time.Second

// Channel is a directory holding cmd.txt and status.json.
type Channel struct {
	dir string
}

// DefaultDir is $XDG_CACHE_HOME/hark (or the platform cache dir).
func DefaultDir() string {
	if d, err := os.UserCacheDir(); err == nil {
		return filepath.Join(d, "hark")
	}
	return filepath.Join(os.TempDir(), "hark")
}

func New(dir string) *Channel {
	if dir == "" {
		dir = DefaultDir()
	}
	return &Channel{dir: dir}
}

func (c *Channel) Dir() string { return c.dir }

func (c *Channel) cmdPath() string { return filepath.Join(c.dir, "cmd.txt") }

// Send leaves cmd for the daemon. The file is renamed into place so
// Take never sees a partial write.
func (c *Channel) Send(cmd Command) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return err
	}
	tmp := fmt.Sprintf("%s.%d.tmp", c.cmdPath(), os.Getpid())
	if err := os.WriteFile(tmp, []byte(cmd), 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, c.cmdPath()); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Take claims and returns the pending command. No file or an empty file
// yields "". The file is moved aside before reading, so a Send that lands
// meanwhile creates a fresh cmd.txt for the next Take.
func (c *Channel) Take() (Command, error) {
	taken := fmt.Sprintf("%s.taken-%d", c.cmdPath(), os.Getpid())
	if err := os.Rename(c.cmdPath(), taken); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	data, err := os.ReadFile(taken)
	if rmErr := os.Remove(taken); rmErr != nil && !os.IsNotExist(rmErr) {
		log.Warnf("ipc: remove %s: %v", taken, rmErr)
	}
	if err != nil {
		return "", err
	}
	return ParseCommand(string(data))
}

// Watch calls fn for every command until ctx is done. It watches the
// directory with fsnotify and polls once a second as a fallback. A
// command left over from a previous daemon is discarded.
func (c *Channel) Watch(ctx context.Context, fn func(Command)) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return err
	}
	if stale, _ := c.Take(); stale != "" {
		log.Infof("discarding stale command %q", stale)
	}

	lastCheck := time.Now()
	take := func() {
		// let the writer finish
		time.Sleep(50 * time.Millisecond)
		lastCheck = time.Now()
		cmd, err := c.Take()
		if err != nil {
			log.Warnf("ipc: %v", err)
			return
		}
		if cmd != "" {
			log.Infof("ipc command: %s", cmd)
			fn(cmd)
		}
	}

	poll := time.NewTicker(pollInterval)
	defer poll.Stop()

	var events <-chan fsnotify.Event
	var errs <-chan error
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warnf("fsnotify unavailable, polling %s: %v", c.dir, err)
	} else {
		defer watcher.Close()
		if err := watcher.Add(c.dir); err != nil {
			log.Warnf("cannot watch %s, polling: %v", c.dir, err)
		} else {
			events, errs = watcher.Events, watcher.Errors
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) == c.cmdPath() && ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				take()
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Warnf("ipc watcher: %v", err)
		case <-poll.C:
			fi, err := os.Stat(c.cmdPath())
			if err == nil && fi.Size() > 0 && fi.ModTime().After(lastCheck) {
				take()
			}
		}
	}
}

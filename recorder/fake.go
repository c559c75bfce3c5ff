package recorder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// Fake records nothing: Stop writes Length of silence (or an empty file
// when Length is zero) to a unique path under Dir.
type Fake struct {
	Dir      string
	Length   time.Duration
	StartErr error

	starts atomic.Int32
	seq    atomic.Int32

	mu   sync.Mutex
	last *FakeRecording
}

func NewFake(dir string, length time.Duration) *Fake {
	return &Fake{Dir: dir, Length: length}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Starts() int { return int(f.starts.Load()) }

// Last is the most recent recording handed out by Start.
func (f *Fake) Last() *FakeRecording {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func (f *Fake) Start(_ context.Context) (Recording, error) {
	if f.StartErr != nil {
		return nil, f.StartErr
	}
	f.starts.Add(1)
	path := filepath.Join(f.Dir, fmt.Sprintf("hark-fake-%d.wav", f.seq.Add(1)))
	if err := os.WriteFile(path, nil, 0644); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureLaunch, err)
	}
	rec := &FakeRecording{path: path, length: f.Length, exited: make(chan error, 1)}
	f.mu.Lock()
	f.last = rec
	f.mu.Unlock()
	return rec, nil
}

type FakeRecording struct {
	path   string
	length time.Duration
	exited chan error
	killed atomic.Bool
}

func (r *FakeRecording) Path() string         { return r.path }
func (r *FakeRecording) Exited() <-chan error { return r.exited }
func (r *FakeRecording) Killed() bool         { return r.killed.Load() }

// Crash simulates the recorder process dying on its own.
func (r *FakeRecording) Crash(err error) {
	r.exited <- fmt.Errorf("%w: %v", ErrCaptureLaunch, err)
}

func (r *FakeRecording) Stop() (string, error) {
	if r.length > 0 {
		if err := WriteSilence(r.path, r.length, SampleRate); err != nil {
			return r.path, err
		}
	}
	return r.path, Validate(r.path)
}

func (r *FakeRecording) Kill() { r.killed.Store(true) }

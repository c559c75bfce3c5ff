package recorder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-shellwords"
)

var (
	ErrRecorderNotFound = errors.New("recorder executable not found")
	ErrCaptureLaunch    = errors.New("audio capture failed")
	ErrEmptyRecording   = errors.New("no audio was recorded")
)

const (
	SampleRate = 16000
	Channels   = 1
	BitDepth   = 16

	// stopWait bounds how long Stop waits for the recorder to exit after SIGINT.
	stopWait = 3 * time.Second
)

// Capture starts recordings. The session controller only depends on this.
type Capture interface {
	Name() string
	Start(ctx context.Context) (Recording, error)
}

// Recording is a live recorder process writing to Path.
type Recording interface {
	Path() string
	// Exited delivers one value if the process ends without Stop being called.
	Exited() <-chan error
	// Stop ends capture, waits for the file to flush and validates it.
	Stop() (string, error)
	// Kill ends the process without validation.
	Kill()
}

type Config struct {
	Preset     string
	Command    string
	SampleRate int
	Flush      time.Duration
	TempDir    string
}

type Recorder struct {
	cfg  Config
	argv []string
}

func New(cfg Config) (*Recorder, error) {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = SampleRate
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}

	var argv []string
	if cfg.Command != "" {
		parsed, err := shellwords.Parse(cfg.Command)
		if err != nil {
			return nil, fmt.Errorf("parse recorder command: %w", err)
		}
		if len(parsed) == 0 {
			return nil, fmt.Errorf("recorder command is empty")
		}
		argv = parsed
	} else {
		var err error
		argv, err = presetArgs(cfg.Preset, cfg.SampleRate)
		if err != nil {
			return nil, err
		}
	}
	if !hasFilePlaceholder(argv) {
		argv = append(argv, "{file}")
	}
	return &Recorder{cfg: cfg, argv: argv}, nil
}

func presetArgs(preset string, rate int) ([]string, error) {
	r := strconv.Itoa(rate)
	switch preset {
	case "", "sox":
		return []string{"sox", "-q", "-d", "-r", r, "-c", "1", "-b", "16", "{file}"}, nil
	case "rec":
		return []string{"rec", "-q", "-r", r, "-c", "1", "-b", "16", "{file}"}, nil
	case "arecord":
		return []string{"arecord", "-q", "-f", "S16_LE", "-r", r, "-c", "1", "-t", "wav", "{file}"}, nil
	default:
		return nil, fmt.Errorf("unknown recorder preset %q", preset)
	}
}

func hasFilePlaceholder(argv []string) bool {
	for _, a := range argv {
		if strings.Contains(a, "{file}") {
			return true
		}
	}
	return false
}

// Name is the executable the recorder runs.
func (r *Recorder) Name() string { return r.argv[0] }

// Binary resolves the recorder executable on PATH.
func (r *Recorder) Binary() (string, error) {
	path, err := exec.LookPath(r.argv[0])
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrRecorderNotFound, r.argv[0])
	}
	return path, nil
}

func (r *Recorder) args(file string) []string {
	out := make([]string, 0, len(r.argv)-1)
	for _, a := range r.argv[1:] {
		out = append(out, strings.ReplaceAll(a, "{file}", file))
	}
	return out
}

// TempPath is unique per call: hark-<unixnano>.wav in the temp dir.
func (r *Recorder) TempPath() string {
	return filepath.Join(r.cfg.TempDir, fmt.Sprintf("hark-%d.wav", time.Now().UnixNano()))
}

func (r *Recorder) Start(_ context.Context) (Recording, error) {
	bin, err := r.Binary()
	if err != nil {
		return nil, err
	}

	path := r.TempPath()
	// Not CommandContext: the process must outlive the toggle that started it.
	cmd := exec.Command(bin, r.args(path)...)
	if err := cmd.Start(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("%w: %v", ErrCaptureLaunch, err)
	}

	rec := &process{
		cmd:    cmd,
		path:   path,
		flush:  r.cfg.Flush,
		exited: make(chan error, 1),
		done:   make(chan struct{}),
	}
	go rec.wait()
	return rec, nil
}

type process struct {
	cmd   *exec.Cmd
	path  string
	flush time.Duration

	mu       sync.Mutex
	stopping bool
	waitErr  error
	exited   chan error
	done     chan struct{}
}

func (p *process) Path() string { return p.path }

func (p *process) Exited() <-chan error { return p.exited }

func (p *process) wait() {
	err := p.cmd.Wait()
	p.mu.Lock()
	p.waitErr = err
	stopping := p.stopping
	p.mu.Unlock()
	close(p.done)

	if stopping {
		return
	}
	if err == nil {
		err = errors.New("recorder exited unexpectedly")
	}
	p.exited <- fmt.Errorf("%w: %v", ErrCaptureLaunch, err)
}

func (p *process) Stop() (string, error) {
	p.mu.Lock()
	p.stopping = true
	p.mu.Unlock()

	if err := interrupt(p.cmd.Process); err != nil {
		p.cmd.Process.Kill()
	}
	select {
	case <-p.done:
	case <-time.After(stopWait):
		p.cmd.Process.Kill()
		<-p.done
	}

	time.Sleep(p.flush)
	return p.path, Validate(p.path)
}

func (p *process) Kill() {
	p.mu.Lock()
	p.stopping = true
	p.mu.Unlock()
	p.cmd.Process.Kill()
	<-p.done
}

// Validate reports ErrEmptyRecording for a missing or zero-length file.
func Validate(path string) error {
	fi, err := os.Stat(path)
	if err != nil || fi.Size() == 0 {
		return ErrEmptyRecording
	}
	return nil
}

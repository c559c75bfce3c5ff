package session

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"
	"unicode/utf8"

	"hark/delivery"
	"hark/log"
	"hark/recorder"
	"hark/transcriber"
)

// Notifier shows messages to the user.
type Notifier interface {
	Info(msg string)
	Error(msg string)
}

type Deliverer interface {
	Deliver(text string) (delivery.Outcome, error)
}

// Config wires a Controller. Options is read when a recording starts so
// a reloaded configuration applies to the next session only.
type Config struct {
	Recorder    recorder.Capture
	Transcriber transcriber.Transcriber
	Deliverer   Deliverer
	Notifier    Notifier
	Options     func() transcriber.Options
}

// Result describes a completed pipeline.
type Result struct {
	Text    string
	Outcome delivery.Outcome
	Info    recorder.Info
	Metrics *transcriber.NetworkMetrics
}

// Controller owns the single recording session. All transitions happen
// under mu; the stop/transcribe/deliver pipeline runs outside it.
type Controller struct {
	cfg Config

	mu     sync.Mutex
	phase  Phase
	active recorder.Recording
	path   string
	opts   transcriber.Options
	// closed when the active recording leaves the Recording phase
	leave chan struct{}
	// set while Transcribing; done is closed once the temp file is gone
	cancel context.CancelFunc
	done   chan struct{}
	count  int

	obsMu     sync.Mutex
	observers []func(from, to Phase)
	results   []func(Result)
}

func New(cfg Config) *Controller {
	if cfg.Options == nil {
		cfg.Options = func() transcriber.Options { return transcriber.Options{} }
	}
	return &Controller{cfg: cfg}
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Path is the temp file of the current session, empty when Idle.
func (c *Controller) Path() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.path
}

// Count is the number of transcripts delivered so far.
func (c *Controller) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// OnPhase registers fn for every phase change. Observers run on the
// goroutine that caused the change, outside the controller lock.
func (c *Controller) OnPhase(fn func(from, to Phase)) {
	c.obsMu.Lock()
	c.observers = append(c.observers, fn)
	c.obsMu.Unlock()
}

// OnResult registers fn for every delivered transcript.
func (c *Controller) OnResult(fn func(Result)) {
	c.obsMu.Lock()
	c.results = append(c.results, fn)
	c.obsMu.Unlock()
}

func (c *Controller) emit(from, to Phase) {
	if from == to {
		return
	}
	log.PhaseChange(from.String(), to.String())
	c.obsMu.Lock()
	obs := append([]func(from, to Phase){}, c.observers...)
	c.obsMu.Unlock()
	for _, fn := range obs {
		fn(from, to)
	}
}

func (c *Controller) emitResult(r Result) {
	c.obsMu.Lock()
	fns := append([]func(Result){}, c.results...)
	c.obsMu.Unlock()
	for _, fn := range fns {
		fn(r)
	}
}

// Toggle starts a recording when Idle, or stops it and runs the
// transcription pipeline when Recording. In the Recording case Toggle
// returns once the pipeline has finished and the phase is back to Idle.
// Toggles while Transcribing are ignored and return ErrBusy.
func (c *Controller) Toggle(ctx context.Context) error {
	c.mu.Lock()
	switch c.phase {
	case Idle:
		return c.start(ctx)
	case Recording:
		rec := c.active
		opts := c.opts
		c.active = nil
		close(c.leave)
		ctx, c.cancel = context.WithCancel(ctx)
		done := make(chan struct{})
		c.done = done
		c.phase = Transcribing
		c.mu.Unlock()
		c.emit(Recording, Transcribing)
		return c.finish(ctx, rec, opts, done)
	default:
		c.mu.Unlock()
		log.Warn("toggle ignored while transcribing")
		return ErrBusy
	}
}

// start runs with mu held and releases it.
func (c *Controller) start(ctx context.Context) error {
	rec, err := c.cfg.Recorder.Start(ctx)
	if err != nil {
		c.mu.Unlock()
		log.Errorf("recorder start: %v", err)
		c.notifyError(err)
		return err
	}
	leave := make(chan struct{})
	c.active = rec
	c.path = rec.Path()
	c.opts = c.cfg.Options()
	c.leave = leave
	c.phase = Recording
	c.mu.Unlock()

	c.emit(Idle, Recording)
	go c.watchExit(rec, leave)
	c.notifyInfo("Recording... toggle again to stop")
	return nil
}

// watchExit resets the session if the recorder dies while still recording.
func (c *Controller) watchExit(rec recorder.Recording, leave <-chan struct{}) {
	var err error
	select {
	case err = <-rec.Exited():
	case <-leave:
		return
	}

	c.mu.Lock()
	if c.active != rec {
		c.mu.Unlock()
		return
	}
	path := c.path
	c.active = nil
	c.path = ""
	close(c.leave)
	c.phase = Idle
	c.mu.Unlock()

	removeTemp(path)
	log.Errorf("recorder exited: %v", err)
	c.emit(Recording, Idle)
	c.notifyError(err)
}

func (c *Controller) finish(ctx context.Context, rec recorder.Recording, opts transcriber.Options, done chan struct{}) (err error) {
	path := rec.Path()
	defer func() {
		removeTemp(path)
		close(done)
		c.mu.Lock()
		c.cancel()
		c.cancel = nil
		c.done = nil
		c.path = ""
		c.phase = Idle
		if err == nil {
			c.count++
		}
		c.mu.Unlock()
		c.emit(Transcribing, Idle)
	}()

	res, err := c.pipeline(ctx, rec, opts)
	if err != nil {
		log.Errorf("session: %v", err)
		c.notifyError(err)
		return err
	}
	c.emitResult(res)
	c.notifyInfo(successMessage(res))
	return nil
}

func (c *Controller) pipeline(ctx context.Context, rec recorder.Recording, opts transcriber.Options) (Result, error) {
	path, err := rec.Stop()
	if err != nil {
		return Result{}, err
	}

	info, ierr := recorder.Inspect(path)
	if ierr != nil {
		log.Warnf("wav header: %v", ierr)
	}
	log.Recording(path, info.Size, info.Duration.Seconds())

	tr, err := c.cfg.Transcriber.Transcribe(ctx, path, opts)
	if err != nil {
		return Result{Info: info}, err
	}
	logTranscription(tr, info)

	outcome, err := c.cfg.Deliverer.Deliver(tr.Transcript)
	if err != nil {
		return Result{Text: tr.Transcript, Info: info, Metrics: tr.Metrics}, err
	}
	return Result{Text: tr.Transcript, Outcome: outcome, Info: info, Metrics: tr.Metrics}, nil
}

func logTranscription(tr *transcriber.Result, info recorder.Info) {
	stats := log.TranscriptionStats{
		AudioS:      info.Duration.Seconds(),
		FileBytes:   info.Size,
		Language:    tr.Language,
		HasSpeakers: tr.HasSpeakers,
	}
	if m := tr.Metrics; m != nil {
		stats.DNSMs = ms(m.DNS.Seconds())
		stats.TCPMs = ms(m.TCP.Seconds())
		stats.TTFBMs = ms(m.TTFB.Seconds())
		stats.TotalMs = ms(m.Total.Seconds())
		stats.ConnReused = m.ConnReused
	}
	log.Transcription(stats)
	log.TranscriptionText(tr.Transcript)
}

func ms(s float64) float64 { return s * 1000 }

// closeWait bounds how long Close waits for a running pipeline.
var closeWait = 5 * time.Second

// Close kills an active recording and removes its file. A running
// pipeline is cancelled and given closeWait to clean up; if it does not,
// Close removes the temp file itself.
func (c *Controller) Close() {
	c.mu.Lock()
	switch c.phase {
	case Idle:
		c.mu.Unlock()
		return
	case Transcribing:
		cancel, done, path := c.cancel, c.done, c.path
		c.mu.Unlock()
		cancel()
		select {
		case <-done:
		case <-time.After(closeWait):
			log.Warnf("transcription still running at exit, removing %s", path)
			removeTemp(path)
		}
		return
	}
	rec := c.active
	path := c.path
	c.active = nil
	c.path = ""
	close(c.leave)
	c.phase = Idle
	c.mu.Unlock()

	rec.Kill()
	removeTemp(path)
	c.emit(Recording, Idle)
}

func removeTemp(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warnf("remove %s: %v", path, err)
	}
}

func successMessage(r Result) string {
	msg := fmt.Sprintf("Transcribed: \"%s\"", preview(r.Text, 50))
	if r.Outcome == delivery.CopiedToClipboard {
		msg += " (copied to clipboard, no focused editor)"
	}
	return msg
}

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func (c *Controller) notifyInfo(msg string) {
	if c.cfg.Notifier != nil {
		c.cfg.Notifier.Info(msg)
	}
}

func (c *Controller) notifyError(err error) {
	if c.cfg.Notifier != nil {
		c.cfg.Notifier.Error(Message(err))
	}
}

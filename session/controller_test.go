package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"hark/clipboard"
	"hark/delivery"
	"hark/recorder"
	"hark/transcriber"
)

type fakeNotifier struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (n *fakeNotifier) Info(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, msg)
}

func (n *fakeNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func (n *fakeNotifier) lastError() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.errors) == 0 {
		return ""
	}
	return n.errors[len(n.errors)-1]
}

type fakeDeliverer struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (d *fakeDeliverer) Deliver(text string) (delivery.Outcome, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.texts = append(d.texts, text)
	if d.err != nil {
		return 0, d.err
	}
	return delivery.InsertedIntoEditor, nil
}

func (d *fakeDeliverer) calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.texts)
}

type editor struct {
	inserted []string
}

func (e *editor) Focused() bool { return true }

func (e *editor) Insert(text string) error {
	e.inserted = append(e.inserted, text)
	return nil
}

func assertGone(t *testing.T, path string) {
	t.Helper()
	if path == "" {
		t.Fatal("no recording path")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("temp file %s still exists (stat err = %v)", path, err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEndToEnd(t *testing.T) {
	var gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		gotLang = r.FormValue("language")
		io.WriteString(w, `{"transcript":"Hello world"}`)
	}))
	defer srv.Close()

	rec := recorder.NewFake(t.TempDir(), 2*time.Second)
	ed := &editor{}
	clip := &clipboard.Fake{}
	n := &fakeNotifier{}
	c := New(Config{
		Recorder:    rec,
		Transcriber: transcriber.NewWhisperX(srv.URL, 5*time.Second),
		Deliverer:   delivery.New(ed, clip),
		Notifier:    n,
		Options:     func() transcriber.Options { return transcriber.Options{Language: "en"} },
	})

	if err := c.Toggle(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if c.Phase() != Recording {
		t.Fatalf("phase = %v, want recording", c.Phase())
	}
	path := c.Path()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("recording file missing: %v", err)
	}

	if err := c.Toggle(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if len(ed.inserted) != 1 || ed.inserted[0] != "Hello world" {
		t.Errorf("inserted = %q, want [Hello world]", ed.inserted)
	}
	if clip.Writes() != 0 {
		t.Error("clipboard touched while an editor was focused")
	}
	if gotLang != "en" {
		t.Errorf("language = %q, want en", gotLang)
	}
	if c.Phase() != Idle {
		t.Errorf("phase = %v, want idle", c.Phase())
	}
	if c.Path() != "" {
		t.Errorf("path = %q after session", c.Path())
	}
	if c.Count() != 1 {
		t.Errorf("count = %d, want 1", c.Count())
	}
	assertGone(t, path)

	if len(n.infos) != 2 || !strings.Contains(n.infos[1], `"Hello world"`) {
		t.Errorf("infos = %q", n.infos)
	}
}

func TestClipboardFallbackMessage(t *testing.T) {
	n := &fakeNotifier{}
	clip := &clipboard.Fake{}
	c := New(Config{
		Recorder:    recorder.NewFake(t.TempDir(), time.Second),
		Transcriber: transcriber.NewFake("hello", nil),
		Deliverer:   delivery.New(nil, clip),
		Notifier:    n,
	})
	c.Toggle(context.Background())
	if err := c.Toggle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got, _ := clip.Read(); got != "hello" {
		t.Errorf("clipboard = %q, want hello", got)
	}
	if last := n.infos[len(n.infos)-1]; !strings.Contains(last, "clipboard") {
		t.Errorf("info = %q, want clipboard mention", last)
	}
}

func TestRecorderNotFound(t *testing.T) {
	rec := &recorder.Fake{
		Dir:      t.TempDir(),
		StartErr: fmt.Errorf("%w: sox", recorder.ErrRecorderNotFound),
	}
	n := &fakeNotifier{}
	c := New(Config{Recorder: rec, Notifier: n})

	err := c.Toggle(context.Background())
	if !errors.Is(err, recorder.ErrRecorderNotFound) {
		t.Fatalf("err = %v, want ErrRecorderNotFound", err)
	}
	if c.Phase() != Idle {
		t.Errorf("phase = %v, want idle", c.Phase())
	}
	if rec.Starts() != 0 || rec.Last() != nil {
		t.Error("a recording was created")
	}
	if n.lastError() != installHint {
		t.Errorf("error message = %q", n.lastError())
	}
}

func TestEmptyRecording(t *testing.T) {
	tr := transcriber.NewFake("hello", nil)
	del := &fakeDeliverer{}
	c := New(Config{
		Recorder:    recorder.NewFake(t.TempDir(), 0),
		Transcriber: tr,
		Deliverer:   del,
		Notifier:    &fakeNotifier{},
	})

	c.Toggle(context.Background())
	path := c.Path()
	err := c.Toggle(context.Background())
	if !errors.Is(err, recorder.ErrEmptyRecording) {
		t.Fatalf("err = %v, want ErrEmptyRecording", err)
	}
	if len(tr.Calls()) != 0 {
		t.Error("transcriber called for an empty recording")
	}
	if del.calls() != 0 {
		t.Error("deliverer called for an empty recording")
	}
	if c.Phase() != Idle {
		t.Errorf("phase = %v, want idle", c.Phase())
	}
	assertGone(t, path)
}

func TestPipelineFailures(t *testing.T) {
	for _, tt := range []struct {
		name      string
		tr        transcriber.Transcriber
		delErr    error
		want      error
		delivered bool
		message   string
	}{
		{
			name:    "blank transcript",
			tr:      transcriber.NewFake("  ", nil),
			want:    transcriber.ErrEmptyTranscript,
			message: "No speech detected in recording",
		},
		{
			name:    "service unreachable",
			tr:      transcriber.NewFake("", fmt.Errorf("%w at http://localhost:48001", transcriber.ErrServiceUnreachable)),
			want:    transcriber.ErrServiceUnreachable,
			message: serviceHint,
		},
		{
			name:    "service error",
			tr:      transcriber.NewFake("", &transcriber.ServiceError{StatusCode: 500, Detail: "boom"}),
			want:    transcriber.ErrService,
			message: "Transcription failed: transcription service error 500: boom",
		},
		{
			name:      "delivery failed",
			tr:        transcriber.NewFake("hello", nil),
			delErr:    fmt.Errorf("%w: clipboard: locked", delivery.ErrDeliveryFailed),
			want:      delivery.ErrDeliveryFailed,
			delivered: true,
			message:   "Could not insert text: could not deliver transcript: clipboard: locked",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			del := &fakeDeliverer{err: tt.delErr}
			n := &fakeNotifier{}
			c := New(Config{
				Recorder:    recorder.NewFake(t.TempDir(), time.Second),
				Transcriber: tt.tr,
				Deliverer:   del,
				Notifier:    n,
			})

			c.Toggle(context.Background())
			path := c.Path()
			err := c.Toggle(context.Background())
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if got := del.calls() > 0; got != tt.delivered {
				t.Errorf("delivered = %v, want %v", got, tt.delivered)
			}
			if c.Phase() != Idle {
				t.Errorf("phase = %v, want idle", c.Phase())
			}
			if c.Count() != 0 {
				t.Errorf("count = %d, want 0", c.Count())
			}
			if got := n.lastError(); got != tt.message {
				t.Errorf("message = %q, want %q", got, tt.message)
			}
			assertGone(t, path)
		})
	}
}

type blockingTranscriber struct {
	release chan struct{}
}

func (b *blockingTranscriber) Transcribe(ctx context.Context, path string, opts transcriber.Options) (*transcriber.Result, error) {
	<-b.release
	return &transcriber.Result{Transcript: "late"}, nil
}

func TestToggleWhileTranscribing(t *testing.T) {
	bt := &blockingTranscriber{release: make(chan struct{})}
	del := &fakeDeliverer{}
	rec := recorder.NewFake(t.TempDir(), time.Second)
	c := New(Config{Recorder: rec, Transcriber: bt, Deliverer: del})

	c.Toggle(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Toggle(context.Background()) }()

	waitFor(t, func() bool { return c.Phase() == Transcribing })
	if err := c.Toggle(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("err = %v, want ErrBusy", err)
	}
	if rec.Starts() != 1 {
		t.Errorf("starts = %d, want 1", rec.Starts())
	}

	close(bt.release)
	if err := <-done; err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	if c.Phase() != Idle {
		t.Errorf("phase = %v, want idle", c.Phase())
	}
	if del.calls() != 1 {
		t.Errorf("deliveries = %d, want 1", del.calls())
	}
}

func TestRecorderCrash(t *testing.T) {
	rec := recorder.NewFake(t.TempDir(), time.Second)
	n := &fakeNotifier{}
	c := New(Config{Recorder: rec, Notifier: n})

	c.Toggle(context.Background())
	path := c.Path()
	rec.Last().Crash(errors.New("device busy"))

	waitFor(t, func() bool { return c.Phase() == Idle })
	assertGone(t, path)
	waitFor(t, func() bool { return n.lastError() != "" })
	if got := n.lastError(); !strings.HasPrefix(got, "Recording failed") {
		t.Errorf("message = %q", got)
	}

	// the controller is usable again
	if err := c.Toggle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.Phase() != Recording {
		t.Errorf("phase = %v, want recording", c.Phase())
	}
	c.Close()
}

func TestClose(t *testing.T) {
	rec := recorder.NewFake(t.TempDir(), time.Second)
	c := New(Config{Recorder: rec})

	c.Close() // idle: no-op
	c.Toggle(context.Background())
	path := c.Path()
	c.Close()

	if !rec.Last().Killed() {
		t.Error("recording not killed")
	}
	if c.Phase() != Idle {
		t.Errorf("phase = %v, want idle", c.Phase())
	}
	assertGone(t, path)
}

type cancelTranscriber struct{}

func (cancelTranscriber) Transcribe(ctx context.Context, path string, opts transcriber.Options) (*transcriber.Result, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestCloseWhileTranscribing(t *testing.T) {
	del := &fakeDeliverer{}
	c := New(Config{Recorder: recorder.NewFake(t.TempDir(), time.Second), Transcriber: cancelTranscriber{}, Deliverer: del})

	c.Toggle(context.Background())
	path := c.Path()
	done := make(chan error, 1)
	go func() { done <- c.Toggle(context.Background()) }()
	waitFor(t, func() bool { return c.Phase() == Transcribing })

	c.Close()
	assertGone(t, path)
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if c.Phase() != Idle {
		t.Errorf("phase = %v, want idle", c.Phase())
	}
	if del.calls() != 0 {
		t.Errorf("deliveries = %d, want 0", del.calls())
	}
}

func TestCloseWhileTranscriptionHangs(t *testing.T) {
	defer func(d time.Duration) { closeWait = d }(closeWait)
	closeWait = 20 * time.Millisecond

	bt := &blockingTranscriber{release: make(chan struct{})}
	c := New(Config{Recorder: recorder.NewFake(t.TempDir(), time.Second), Transcriber: bt, Deliverer: &fakeDeliverer{}})

	c.Toggle(context.Background())
	path := c.Path()
	done := make(chan error, 1)
	go func() { done <- c.Toggle(context.Background()) }()
	waitFor(t, func() bool { return c.Phase() == Transcribing })

	c.Close()
	assertGone(t, path)

	close(bt.release)
	<-done
}

func TestOptionsFixedAtStart(t *testing.T) {
	var mu sync.Mutex
	lang := "en"
	tr := transcriber.NewFake("hello", nil)
	c := New(Config{
		Recorder:    recorder.NewFake(t.TempDir(), time.Second),
		Transcriber: tr,
		Deliverer:   &fakeDeliverer{},
		Options: func() transcriber.Options {
			mu.Lock()
			defer mu.Unlock()
			return transcriber.Options{Language: lang}
		},
	})

	c.Toggle(context.Background())
	mu.Lock()
	lang = "de"
	mu.Unlock()
	if err := c.Toggle(context.Background()); err != nil {
		t.Fatal(err)
	}

	calls := tr.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	if got := calls[0].Opts.Language; got != "en" {
		t.Errorf("got %q, want %q", got, "en")
	}

	c.Toggle(context.Background())
	c.Toggle(context.Background())
	if got := tr.Calls()[1].Opts.Language; got != "de" {
		t.Errorf("next session: got %q, want %q", got, "de")
	}
}

func TestObservers(t *testing.T) {
	c := New(Config{
		Recorder:    recorder.NewFake(t.TempDir(), time.Second),
		Transcriber: transcriber.NewFake("hello", nil),
		Deliverer:   &fakeDeliverer{},
	})

	var mu sync.Mutex
	var seen []string
	c.OnPhase(func(from, to Phase) {
		mu.Lock()
		seen = append(seen, from.String()+">"+to.String())
		mu.Unlock()
	})
	var results []Result
	c.OnResult(func(r Result) { results = append(results, r) })

	c.Toggle(context.Background())
	c.Toggle(context.Background())

	want := []string{"idle>recording", "recording>transcribing", "transcribing>idle"}
	mu.Lock()
	defer mu.Unlock()
	if strings.Join(seen, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", seen, want)
	}
	if len(results) != 1 || results[0].Text != "hello" || results[0].Outcome != delivery.InsertedIntoEditor {
		t.Errorf("results = %+v", results)
	}
	if d := results[0].Info.Duration; d < 900*time.Millisecond || d > 1100*time.Millisecond {
		t.Errorf("duration = %v, want about 1s", d)
	}
}

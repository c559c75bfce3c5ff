package doctor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hark/clipboard"
	"hark/recorder"
	"hark/transcriber"
)

func pass(name string) Check {
	return Check{Name: name, Run: func(context.Context) (string, error) { return "ok", nil }}
}

func fail(name, fix string) Check {
	return Check{Name: name, Fix: fix, Run: func(context.Context) (string, error) { return "", errors.New("broken") }}
}

func TestExecute(t *testing.T) {
	for _, tt := range []struct {
		name   string
		checks []Check
		code   int
		want   []string
	}{
		{"all pass", []Check{pass("a"), pass("b")}, 0, []string{"[1/2] a", "[2/2] b", "PASS: ok", "All checks passed!"}},
		{"one fails", []Check{pass("a"), fail("b", "do the thing")}, 1, []string{"FAIL: broken", "Fix: do the thing", "1 of 2 checks failed"}},
		{"fail without fix", []Check{fail("a", "")}, 1, []string{"FAIL: broken"}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if code := Execute(context.Background(), &out, tt.checks); code != tt.code {
				t.Errorf("exit code = %d, want %d", code, tt.code)
			}
			for _, w := range tt.want {
				if !strings.Contains(out.String(), w) {
					t.Errorf("output missing %q:\n%s", w, out.String())
				}
			}
			if tt.checks[len(tt.checks)-1].Fix == "" && strings.Contains(out.String(), "Fix:") {
				t.Error("unexpected Fix line")
			}
		})
	}
}

func TestExecuteRunsAllChecks(t *testing.T) {
	ran := 0
	count := func(context.Context) (string, error) { ran++; return "", errors.New("x") }
	Execute(context.Background(), io.Discard, []Check{{Name: "a", Run: count}, {Name: "b", Run: count}})
	if ran != 2 {
		t.Errorf("ran %d checks, want 2", ran)
	}
}

func TestServiceCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"healthy","device":"cpu","model":"base","diarization_available":false}`)
	}))
	defer srv.Close()

	msg, err := ServiceCheck(transcriber.NewWhisperX(srv.URL, time.Second)).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range []string{"healthy", "cpu", "base", "diarization off"} {
		if !strings.Contains(msg, w) {
			t.Errorf("message %q missing %q", msg, w)
		}
	}
}

func TestServiceCheckDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := ServiceCheck(transcriber.NewWhisperX(url, time.Second))
	if _, err := c.Run(context.Background()); err == nil {
		t.Error("expected error for stopped service")
	}
	if !strings.Contains(c.Fix, "uvicorn") {
		t.Errorf("Fix = %q", c.Fix)
	}
}

func TestClipboardCheck(t *testing.T) {
	clip := &clipboard.Fake{}
	clip.Copy("previous")

	if _, err := ClipboardCheck(clip).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got, _ := clip.Read(); got != "previous" {
		t.Errorf("clipboard = %q, want previous content restored", got)
	}
}

func TestClipboardCheckError(t *testing.T) {
	clip := &clipboard.Fake{Err: errors.New("no display")}
	if _, err := ClipboardCheck(clip).Run(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestRecorderCheck(t *testing.T) {
	rec, err := recorder.New(recorder.Config{Command: "hark-no-such-recorder {file}"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = RecorderCheck(rec).Run(context.Background())
	if !errors.Is(err, recorder.ErrRecorderNotFound) {
		t.Errorf("err = %v, want ErrRecorderNotFound", err)
	}
}

func TestKeyboardCheck(t *testing.T) {
	if _, err := KeyboardCheck(func() error { return nil }).Run(context.Background()); err != nil {
		t.Error(err)
	}
	if _, err := KeyboardCheck(func() error { return errors.New("permission denied") }).Run(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestConfigCheck(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.toml")
	os.WriteFile(good, []byte("[service]\nurl = \"http://gpu:48001\"\n"), 0644)
	msg, err := ConfigCheck(good).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(msg, "http://gpu:48001") || !strings.Contains(msg, "sox") {
		t.Errorf("msg = %q", msg)
	}

	if _, err := ConfigCheck(filepath.Join(dir, "missing.toml")).Run(context.Background()); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestLiveCheck(t *testing.T) {
	rec := recorder.NewFake(t.TempDir(), time.Second)
	tr := transcriber.NewFake("testing one two", nil)
	in := strings.NewReader("\ny\n")

	msg, err := LiveCheck(rec, tr, transcriber.Options{}, in, 500*time.Millisecond).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if msg != "transcription verified by user" {
		t.Errorf("msg = %q", msg)
	}
	if path := rec.Last().Path(); fileExists(path) {
		t.Errorf("temp file %s not removed", path)
	}
}

func TestLiveCheckRejected(t *testing.T) {
	rec := recorder.NewFake(t.TempDir(), time.Second)
	in := strings.NewReader("\nn\n")
	if _, err := LiveCheck(rec, transcriber.NewFake("x", nil), transcriber.Options{}, in, 0).Run(context.Background()); err == nil {
		t.Error("expected error when not confirmed")
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

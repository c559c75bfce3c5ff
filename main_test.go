package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"hark/config"
	"hark/ipc"
	"hark/recorder"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := runCmd(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if out != "hark dev\n" {
		t.Errorf("got %q, want %q", out, "hark dev\n")
	}
}

func TestApplyFlags(t *testing.T) {
	for _, tt := range []struct {
		name string
		args []string
		want config.ServiceConfig
	}{
		{"none", nil, config.ServiceConfig{URL: "http://file:1", Language: "fr", Diarization: true}},
		{"url", []string{"--url", "http://gpu:48001/"}, config.ServiceConfig{URL: "http://gpu:48001", Language: "fr", Diarization: true}},
		{"empty lang is auto", []string{"--lang", ""}, config.ServiceConfig{URL: "http://file:1", Diarization: true}},
		{"diarize off", []string{"--diarize=false"}, config.ServiceConfig{URL: "http://file:1", Language: "fr"}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			f := &cliFlags{}
			cmd := &cobra.Command{}
			cmd.PersistentFlags().StringVar(&f.url, "url", "", "")
			cmd.PersistentFlags().StringVar(&f.lang, "lang", "", "")
			cmd.PersistentFlags().BoolVar(&f.diarize, "diarize", false, "")
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatal(err)
			}
			cfg := config.Default()
			cfg.Service = config.ServiceConfig{URL: "http://file:1", Language: "fr", Diarization: true}
			applyFlags(cmd, f, &cfg)
			cfg.Service.TimeoutSeconds = 0
			if cfg.Service != tt.want {
				t.Errorf("got %+v, want %+v", cfg.Service, tt.want)
			}
		})
	}
}

func TestShortcut(t *testing.T) {
	cfg := config.Default()
	combo, err := shortcut(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(combo.Mods) == 0 {
		t.Errorf("default shortcut %q parsed without modifiers", cfg.UI.Shortcut)
	}

	cfg.UI.Shortcut = "ctrl+f13"
	if _, err := shortcut(cfg); err == nil || !strings.Contains(err.Error(), "ui.shortcut") {
		t.Errorf("err = %v, want a ui.shortcut error", err)
	}
}

func TestTranscribeCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		if got := r.FormValue("language"); got != "en" {
			t.Errorf("language = %q, want en", got)
		}
		io.WriteString(w, `{"transcript":"Hello world","segments":[{"start":0,"end":1.5,"text":" Hello world","speaker":"SPEAKER_00"}]}`)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "in.wav")
	if err := recorder.WriteSilence(path, time.Second, recorder.SampleRate); err != nil {
		t.Fatal(err)
	}

	out, err := runCmd(t, "transcribe", "--url", srv.URL, "--lang", "en", path)
	if err != nil {
		t.Fatal(err)
	}
	if out != "Hello world\n" {
		t.Errorf("got %q, want %q", out, "Hello world\n")
	}

	out, err = runCmd(t, "transcribe", "--segments", "--url", srv.URL, "--lang", "en", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "SPEAKER_00: Hello world") {
		t.Errorf("segments output = %q", out)
	}
}

func TestTranscribeCommandErrors(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	path := filepath.Join(t.TempDir(), "in.wav")
	recorder.WriteSilence(path, time.Second, recorder.SampleRate)

	_, err := runCmd(t, "transcribe", "--url", url, path)
	if err == nil || !strings.Contains(err.Error(), "WhisperX service is not running") {
		t.Errorf("err = %v, want service hint", err)
	}

	_, err = runCmd(t, "transcribe", "--url", url, filepath.Join(t.TempDir(), "missing.wav"))
	if err == nil || err.Error() != "No audio was recorded" {
		t.Errorf("err = %v, want empty recording message", err)
	}
}

func TestUnknownCommand(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if code := execute([]string{"frobnicate"}); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestPrintStatus(t *testing.T) {
	var out bytes.Buffer
	printStatus(&out, &ipc.Status{
		PID:            42,
		Phase:          "recording",
		ServiceURL:     "http://localhost:48001",
		Count:          3,
		LastTranscript: "hello",
		Timestamp:      time.Now(),
	})
	for _, want := range []string{"phase:       recording", "pid:         42", "transcripts: 3", "last:        hello", "now"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
	if strings.Contains(out.String(), "last error") {
		t.Error("unexpected last error line")
	}
}

func TestAutostartStatus(t *testing.T) {
	out, err := runCmd(t, "autostart", "status")
	if err != nil {
		t.Fatal(err)
	}
	if out != "disabled\n" {
		t.Errorf("got %q, want disabled", out)
	}
}

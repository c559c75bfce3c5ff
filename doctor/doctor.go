package doctor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"hark/config"
	"hark/hotkey"
	"hark/recorder"
	"hark/transcriber"
)

// Check is one diagnostic. Run returns a short success message.
type Check struct {
	Name string
	Run  func(ctx context.Context) (string, error)
	Fix  string
}

// Execute runs every check and returns an exit code (0 = all pass, 1 = any fail).
func Execute(ctx context.Context, out io.Writer, checks []Check) int {
	fmt.Fprintln(out, "hark doctor - system diagnostics")
	fmt.Fprintln(out, "================================")

	failed := 0
	for i, c := range checks {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "[%d/%d] %s\n", i+1, len(checks), c.Name)
		msg, err := c.Run(ctx)
		if err != nil {
			failed++
			fmt.Fprintf(out, "  FAIL: %v\n", err)
			if c.Fix != "" {
				fmt.Fprintf(out, "  Fix: %s\n", c.Fix)
			}
			continue
		}
		fmt.Fprintf(out, "  PASS: %s\n", msg)
	}

	fmt.Fprintln(out)
	if failed == 0 {
		fmt.Fprintln(out, "All checks passed!")
		return 0
	}
	fmt.Fprintf(out, "%d of %d checks failed. See details above.\n", failed, len(checks))
	return 1
}

func ConfigCheck(path string) Check {
	return Check{
		Name: "Configuration",
		Run: func(context.Context) (string, error) {
			cfg, err := config.Load(path)
			if err != nil {
				return "", err
			}
			where := path
			if where == "" {
				where = config.DefaultPath()
			}
			return fmt.Sprintf("%s (service %s, recorder %s)", where, cfg.Service.URL, recorderName(cfg.Recorder)), nil
		},
		Fix: "fix the file or remove it to use defaults",
	}
}

func recorderName(rc config.RecorderConfig) string {
	if rc.Command != "" {
		return "custom"
	}
	return rc.Preset
}

func RecorderCheck(rec *recorder.Recorder) Check {
	return Check{
		Name: "Recorder executable",
		Run: func(context.Context) (string, error) {
			path, err := rec.Binary()
			if err != nil {
				return "", err
			}
			return "found " + path, nil
		},
		Fix: "install SoX (brew install sox / sudo apt install sox) or set recorder.command",
	}
}

type healthChecker interface {
	Health(ctx context.Context) (*transcriber.Health, error)
	BaseURL() string
}

func ServiceCheck(svc healthChecker) Check {
	return Check{
		Name: "Transcription service",
		Run: func(ctx context.Context) (string, error) {
			ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			h, err := svc.Health(ctx)
			if err != nil {
				return "", err
			}
			diar := "off"
			if h.DiarizationAvailable {
				diar = "available"
			}
			return fmt.Sprintf("%s at %s (device %s, model %s, diarization %s)",
				h.Status, svc.BaseURL(), orUnknown(h.Device), orUnknown(h.Model), diar), nil
		},
		Fix: "start it with: cd whisperx-service && uvicorn main:app --port 48001",
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

type clipboardRW interface {
	Read() (string, error)
	Copy(text string) error
}

// ClipboardCheck round-trips a sentinel and restores the previous content.
func ClipboardCheck(clip clipboardRW) Check {
	return Check{
		Name: "Clipboard",
		Run: func(context.Context) (string, error) {
			prev, _ := clip.Read()
			sentinel := fmt.Sprintf("hark-doctor-%d", time.Now().UnixNano())
			if err := clip.Copy(sentinel); err != nil {
				return "", fmt.Errorf("copy: %w", err)
			}
			got, err := clip.Read()
			if err != nil {
				return "", fmt.Errorf("read: %w", err)
			}
			if prev != "" {
				clip.Copy(prev)
			}
			if got != sentinel {
				return "", fmt.Errorf("read back %q, want %q", got, sentinel)
			}
			return "copy and read verified", nil
		},
		Fix: "on Linux install xclip, xsel or wl-clipboard",
	}
}

func KeyboardCheck(initKeyboard func() error) Check {
	return Check{
		Name: "Virtual keyboard",
		Run: func(context.Context) (string, error) {
			if err := initKeyboard(); err != nil {
				return "", err
			}
			return "ready for text insertion", nil
		},
		Fix: "on Linux: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput; on macOS grant Accessibility access",
	}
}

func HotkeyCheck() Check {
	return Check{
		Name: "Global hotkey",
		Run:  func(context.Context) (string, error) { return hotkey.Diagnose() },
		Fix:  "on Linux add yourself to the input group, or bind `hark toggle` in your window manager",
	}
}

// HotkeyPressCheck waits for the user to press the chord.
func HotkeyPressCheck(combo hotkey.Combo) Check {
	return Check{
		Name: "Hotkey press",
		Run: func(ctx context.Context) (string, error) {
			fmt.Printf("  Press %s...\n", combo)
			hk := hotkey.New(combo)
			if err := hk.Register(); err != nil {
				return "", fmt.Errorf("could not register hotkey: %w", err)
			}
			defer hk.Unregister()

			select {
			case <-hk.Keydown():
				select {
				case <-hk.Keyup():
				case <-time.After(5 * time.Second):
				}
				// evdev reads can leave the terminal in raw mode
				resetTerminal()
				return "hotkey detected", nil
			case <-time.After(10 * time.Second):
				return "", fmt.Errorf("timeout waiting for hotkey")
			case <-ctx.Done():
				return "", ctx.Err()
			}
		},
	}
}

// LiveCheck records a few seconds, transcribes them and asks the user to
// confirm the text.
func LiveCheck(rec recorder.Capture, tr transcriber.Transcriber, opts transcriber.Options, in io.Reader, length time.Duration) Check {
	return Check{
		Name: "Microphone and transcription",
		Run: func(ctx context.Context) (string, error) {
			reader := bufio.NewReader(in)
			fmt.Printf("  Press Enter and speak for %s...", length)
			reader.ReadString('\n')

			r, err := rec.Start(ctx)
			if err != nil {
				return "", err
			}
			path := r.Path()
			defer removeFile(path)

			fmt.Print("  Recording")
			for i := 0; i < int(length/(500*time.Millisecond)); i++ {
				time.Sleep(500 * time.Millisecond)
				fmt.Print(".")
			}
			fmt.Println(" done")

			if _, err := r.Stop(); err != nil {
				return "", err
			}
			info, _ := recorder.Inspect(path)
			fmt.Printf("  Recorded %s (%.1fs), transcribing...\n", humanize.Bytes(uint64(info.Size)), info.Duration.Seconds())

			res, err := tr.Transcribe(ctx, path, opts)
			if err != nil {
				return "", err
			}
			fmt.Printf("\n  Transcribed text: %s\n\n", res.Transcript)

			fmt.Print("  Is this correct? [y/n]: ")
			confirm, _ := reader.ReadString('\n')
			confirm = strings.TrimSpace(strings.ToLower(confirm))
			if confirm != "y" && confirm != "yes" {
				return "", fmt.Errorf("transcription not confirmed")
			}
			return "transcription verified by user", nil
		},
	}
}

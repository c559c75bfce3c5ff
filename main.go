package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"hark/clipboard"
	"hark/config"
	"hark/doctor"
	"hark/hotkey"
	"hark/ipc"
	"hark/login"
	"hark/paste"
	"hark/recorder"
	"hark/session"
	"hark/transcriber"
)

var version = "dev"

type cliFlags struct {
	configPath string
	logPath    string
	url        string
	lang       string
	diarize    bool
	noTUI      bool
}

// exitError carries a process exit code without printing anything.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func execute(args []string) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err == nil {
		return 0
	}
	var ee exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	return 1
}

func newRootCmd() *cobra.Command {
	f := &cliFlags{}
	root := &cobra.Command{
		Use:           "hark",
		Short:         "Push-to-talk dictation through a WhisperX service",
		Long:          "hark records from the microphone on a global hotkey, sends the audio to a WhisperX service and types the transcript into the focused window (or copies it to the clipboard).",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemon(cmd, f)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "config file (.toml or .yaml); default "+config.DefaultPath())
	pf.StringVar(&f.logPath, "logpath", "", "log directory (default: OS-specific location, use ./ for current dir)")
	pf.StringVar(&f.url, "url", "", "WhisperX service URL")
	pf.StringVar(&f.lang, "lang", "", "language code, e.g. en or de (empty = auto-detect)")
	pf.BoolVar(&f.diarize, "diarize", false, "ask the service to label speakers")
	root.Flags().BoolVar(&f.noTUI, "no-tui", false, "run headless even on a terminal")

	root.AddCommand(
		newSendCmd(ipc.CmdToggle, "Start or stop recording in the running daemon"),
		newSendCmd(ipc.CmdStart, "Start recording if idle"),
		newSendCmd(ipc.CmdStop, "Stop recording and transcribe"),
		newSendCmd(ipc.CmdQuit, "Stop the running daemon"),
		newStatusCmd(),
		newTranscribeCmd(f),
		newDoctorCmd(f),
		newAutostartCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "hark %s\n", version)
			},
		},
	)
	return root
}

// loadConfig reads the config file and applies flags set on the command line.
func loadConfig(cmd *cobra.Command, f *cliFlags) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}
	applyFlags(cmd, f, &cfg)
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, f *cliFlags, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.Service.URL = strings.TrimRight(f.url, "/")
	}
	if flags.Changed("lang") {
		cfg.Service.Language = f.lang
	}
	if flags.Changed("diarize") {
		cfg.Service.Diarization = f.diarize
	}
}

func shortcut(cfg config.Config) (hotkey.Combo, error) {
	combo, err := hotkey.Parse(cfg.UI.Shortcut)
	if err != nil {
		return hotkey.Combo{}, fmt.Errorf("ui.shortcut: %w", err)
	}
	return combo, nil
}

func newRecorder(cfg config.Config) (*recorder.Recorder, error) {
	return recorder.New(recorder.Config{
		Preset:     cfg.Recorder.Preset,
		Command:    cfg.Recorder.Command,
		SampleRate: cfg.Recorder.SampleRate,
		Flush:      cfg.Flush(),
	})
}

func newTranscriber(cfg config.Config) *transcriber.WhisperX {
	return transcriber.NewWhisperX(cfg.Service.URL, cfg.Timeout())
}

func transcriberOptions(cfg config.Config) transcriber.Options {
	return transcriber.Options{Language: cfg.Service.Language, Diarize: cfg.Service.Diarization}
}

func newSendCmd(c ipc.Command, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(c),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ch := ipc.New(ipc.DefaultDir())
			if _, ok := ch.Running(); !ok {
				return errors.New("hark is not running (start it with `hark`)")
			}
			return ch.Send(c)
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state of the running daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ch := ipc.New(ipc.DefaultDir())
			out := cmd.OutOrStdout()
			if _, ok := ch.Running(); !ok {
				fmt.Fprintln(out, "hark is not running")
				return exitError{code: 1}
			}
			st, err := ch.ReadStatus()
			if err != nil {
				return fmt.Errorf("read status: %w", err)
			}
			printStatus(out, st)
			return nil
		},
	}
}

func printStatus(out io.Writer, st *ipc.Status) {
	fmt.Fprintf(out, "phase:       %s\n", st.Phase)
	fmt.Fprintf(out, "pid:         %d\n", st.PID)
	fmt.Fprintf(out, "service:     %s\n", st.ServiceURL)
	fmt.Fprintf(out, "transcripts: %d\n", st.Count)
	if st.LastTranscript != "" {
		fmt.Fprintf(out, "last:        %s\n", st.LastTranscript)
	}
	if st.LastError != "" {
		fmt.Fprintf(out, "last error:  %s\n", st.LastError)
	}
	fmt.Fprintf(out, "updated:     %s\n", humanize.Time(st.Timestamp))
}

func newTranscribeCmd(f *cliFlags) *cobra.Command {
	var segments bool
	cmd := &cobra.Command{
		Use:   "transcribe <file.wav>",
		Short: "Send a WAV file to the service and print the transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			path := args[0]
			if err := recorder.Validate(path); err != nil {
				return errors.New(session.Message(err))
			}
			res, err := newTranscriber(cfg).Transcribe(cmd.Context(), path, transcriberOptions(cfg))
			if err != nil {
				return errors.New(session.Message(err))
			}

			out := cmd.OutOrStdout()
			if !segments {
				fmt.Fprintln(out, res.Transcript)
				return nil
			}
			for _, s := range res.Segments {
				if s.Speaker != "" {
					fmt.Fprintf(out, "[%6.2f-%6.2f] %s: %s\n", s.Start, s.End, s.Speaker, strings.TrimSpace(s.Text))
				} else {
					fmt.Fprintf(out, "[%6.2f-%6.2f] %s\n", s.Start, s.End, strings.TrimSpace(s.Text))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&segments, "segments", false, "print timed segments instead of the joined transcript")
	return cmd
}

func newDoctorCmd(f *cliFlags) *cobra.Command {
	var interactive bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check recorder, service, clipboard, keyboard and hotkey",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			checks := []doctor.Check{doctor.ConfigCheck(f.configPath)}

			cfg, err := loadConfig(cmd, f)
			if err != nil {
				cfg = config.Default()
				applyFlags(cmd, f, &cfg)
			}
			rec, err := newRecorder(cfg)
			if err != nil {
				return err
			}
			w := newTranscriber(cfg)
			checks = append(checks,
				doctor.RecorderCheck(rec),
				doctor.ServiceCheck(w),
				doctor.ClipboardCheck(clipboard.System{}),
				doctor.KeyboardCheck(paste.Init),
				doctor.HotkeyCheck(),
			)
			if interactive {
				combo, err := hotkey.Parse(cfg.UI.Shortcut)
				if err != nil {
					combo = hotkey.Default
				}
				checks = append(checks,
					doctor.HotkeyPressCheck(combo),
					doctor.LiveCheck(rec, w, transcriberOptions(cfg), os.Stdin, 3*time.Second),
				)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			if code := doctor.Execute(ctx, cmd.OutOrStdout(), checks); code != 0 {
				return exitError{code: code}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "also test the hotkey and a live recording")
	return cmd
}

func newAutostartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autostart",
		Short: "Start hark when you log in",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "enable [daemon flags]",
			Short: "Start the daemon at login with the given flags",
			RunE: func(cmd *cobra.Command, args []string) error {
				exe, err := os.Executable()
				if err != nil {
					return fmt.Errorf("resolve executable: %w", err)
				}
				if err := login.Enable(exe, append([]string{"--no-tui"}, args...)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "enabled: %s\n", login.Path())
				return nil
			},
			DisableFlagParsing: true,
		},
		&cobra.Command{
			Use:   "disable",
			Short: "Stop starting the daemon at login",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := login.Disable(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "disabled")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Report whether the daemon starts at login",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				if login.Enabled() {
					fmt.Fprintf(cmd.OutOrStdout(), "enabled: %s\n", login.Path())
					return
				}
				fmt.Fprintln(cmd.OutOrStdout(), "disabled")
			},
		},
	)
	return cmd
}

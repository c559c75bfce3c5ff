package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"hark/beep"
	"hark/clipboard"
	"hark/config"
	"hark/delivery"
	"hark/hotkey"
	"hark/ipc"
	"hark/log"
	"hark/notify"
	"hark/paste"
	"hark/recorder"
	"hark/session"
	"hark/shutdown"
	"hark/transcriber"
	"hark/tray"
)

// daemon holds the live configuration. Settings swap between sessions
// when the config file changes or the tray flips an option.
type daemon struct {
	ch    *ipc.Channel
	ctl   *session.Controller
	stats sessionStats
	cues  *beep.Player
	quit  chan struct{}

	quitOnce sync.Once

	mu      sync.Mutex
	cfg     config.Config
	rec     *recorder.Recorder
	w       *transcriber.WhisperX
	last    string
	lastErr string
}

func (d *daemon) settings() config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// apply installs cfg. A recorder that cannot be built keeps the old one.
func (d *daemon) apply(cfg config.Config) {
	rec, err := newRecorder(cfg)
	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		log.Warnf("recorder config: %v", err)
	} else {
		d.rec = rec
	}
	d.cfg = cfg
	d.w = newTranscriber(cfg)
}

func (d *daemon) update(fn func(*config.Config)) {
	cfg := d.settings()
	fn(&cfg)
	d.apply(cfg)
}

// liveRecorder and liveTranscriber forward to whatever the current config built.
type liveRecorder struct{ d *daemon }

func (l liveRecorder) current() *recorder.Recorder {
	l.d.mu.Lock()
	defer l.d.mu.Unlock()
	return l.d.rec
}

func (l liveRecorder) Name() string { return l.current().Name() }

func (l liveRecorder) Start(ctx context.Context) (recorder.Recording, error) {
	return l.current().Start(ctx)
}

type liveTranscriber struct{ d *daemon }

func (l liveTranscriber) current() *transcriber.WhisperX {
	l.d.mu.Lock()
	defer l.d.mu.Unlock()
	return l.d.w
}

func (l liveTranscriber) Transcribe(ctx context.Context, path string, opts transcriber.Options) (*transcriber.Result, error) {
	return l.current().Transcribe(ctx, path, opts)
}

func runDaemon(cmd *cobra.Command, f *cliFlags) error {
	logPath, err := log.ResolveDir(f.logPath)
	if err != nil {
		return fmt.Errorf("failed to resolve log directory: %w", err)
	}
	log.SetDir(logPath)
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()
	initCrashLog()

	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}

	// apply keeps the previous recorder on error, so the first one must be valid
	if _, err := newRecorder(cfg); err != nil {
		return err
	}
	combo, err := shortcut(cfg)
	if err != nil {
		return err
	}

	ch := ipc.New(ipc.DefaultDir())
	lock, err := ch.Lock()
	if err != nil {
		return err
	}
	defer lock.Release()
	defer ch.ClearStatus()

	d := &daemon{
		ch:   ch,
		cues: beep.NewPlayer(filepath.Join(ch.Dir(), "sounds")),
		quit: make(chan struct{}),
	}
	d.apply(cfg)

	ctx, stop := shutdown.Context(cmd.Context())
	defer stop()

	useTUI := !f.noTUI && term.IsTerminal(int(os.Stdout.Fd()))
	notifier := d.notifier(useTUI)

	deliverer := delivery.New(&delivery.KeyboardEditor{
		Keys:    paste.Keyboard{},
		Clip:    clipboard.System{},
		Enabled: func() bool { return d.settings().Delivery.Insert },
	}, clipboard.System{})

	d.ctl = session.New(session.Config{
		Recorder:    liveRecorder{d},
		Transcriber: liveTranscriber{d},
		Deliverer:   deliverer,
		Notifier:    notifier,
		Options:     func() transcriber.Options { return transcriberOptions(d.settings()) },
	})
	d.ctl.OnPhase(d.onPhase)
	d.ctl.OnResult(d.onResult)
	defer d.ctl.Close()

	log.SessionStart(cfg.Service.URL, d.rec.Name(), cfg.Service.Language)
	defer func() { log.SessionEnd(d.ctl.Count()) }()
	d.writeStatus()

	if cfg.UI.Hotkey {
		if err := d.startHotkey(ctx, combo, cfg.Hold()); err != nil {
			log.Errorf("hotkey register error: %v", err)
			notifier.Error(fmt.Sprintf("Global hotkey unavailable (%v). Bind `hark toggle` to a key instead.", err))
		}
	}

	var trayQuit <-chan struct{}
	if cfg.UI.Tray {
		trayQuit = d.startTray(cfg)
		defer tray.Stop()
	}

	go func() {
		if err := ch.Watch(ctx, d.command); err != nil {
			log.Errorf("ipc watch: %v", err)
		}
	}()
	d.watchConfig(ctx, cmd, f)
	go d.checkService(ctx, notifier)

	if useTUI {
		p := NewTUIProgram(combo.String(), &d.stats, d.toggle)
		tuiMu.Lock()
		tuiProgram = p
		tuiMu.Unlock()
		go func() {
			if _, err := p.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
			}
			d.stop()
		}()
		defer func() {
			tuiMu.Lock()
			tuiProgram = nil
			tuiMu.Unlock()
			p.Quit()
		}()
	} else {
		fmt.Fprintf(os.Stderr, "hark %s listening (%s, `hark toggle`), logs in %s\n", version, combo, log.Dir())
	}

	select {
	case <-ctx.Done():
	case <-trayQuit:
	case <-d.quit:
	}
	log.Info("shutdown")
	return nil
}

func (d *daemon) notifier(useTUI bool) notify.Notifier {
	desktop := notify.NewDesktop("hark")
	return notify.Multi{
		notify.Log{},
		notify.Func{
			OnInfo: func(msg string) {
				if d.settings().UI.Notify {
					desktop.Info(msg)
				}
				if useTUI {
					logToTUI("%s", msg)
				}
			},
			OnError: func(msg string) {
				d.cue(beep.Error)
				if d.settings().UI.Notify {
					desktop.Error(msg)
				}
				if useTUI {
					logToTUI("Error: %s", msg)
				}
				if d.settings().UI.Tray {
					tray.SetError(msg)
				}
				d.mu.Lock()
				d.lastErr = msg
				d.mu.Unlock()
				d.writeStatus()
			},
		},
	}
}

func (d *daemon) stop() {
	d.quitOnce.Do(func() { close(d.quit) })
}

// toggle never blocks the caller; the pipeline can take as long as the upload.
func (d *daemon) toggle() {
	go func() {
		if err := d.ctl.Toggle(context.Background()); err != nil && !errors.Is(err, session.ErrBusy) {
			log.Warnf("toggle: %v", err)
		}
	}()
}

func (d *daemon) command(c ipc.Command) {
	log.Info("ipc_command: " + string(c))
	switch c {
	case ipc.CmdToggle:
		d.toggle()
	case ipc.CmdStart:
		if d.ctl.Phase() == session.Idle {
			d.toggle()
		}
	case ipc.CmdStop:
		if d.ctl.Phase() == session.Recording {
			d.toggle()
		}
	case ipc.CmdQuit:
		d.stop()
	}
}

func (d *daemon) cue(c beep.Cue) {
	if d.settings().UI.Sounds {
		d.cues.Play(c)
	}
}

func (d *daemon) onPhase(from, to session.Phase) {
	switch {
	case to == session.Recording:
		d.cue(beep.Start)
	case from == session.Recording && to == session.Transcribing:
		d.cue(beep.End)
	}
	if d.settings().UI.Tray {
		tray.SetPhase(to)
	}
	tuiSend(PhaseMsg{Phase: to})
	d.writeStatus()
}

func (d *daemon) onResult(r session.Result) {
	d.stats.add(recordFor(r))
	d.mu.Lock()
	d.last = r.Text
	d.lastErr = ""
	d.mu.Unlock()
	if d.settings().UI.Tray {
		tray.SetLastTranscript(r.Text)
	}
	tuiSend(ResultMsg{Result: r})
}

func (d *daemon) writeStatus() {
	d.mu.Lock()
	st := ipc.Status{
		PID:            os.Getpid(),
		ServiceURL:     d.cfg.Service.URL,
		LastTranscript: d.last,
		LastError:      d.lastErr,
		Timestamp:      time.Now(),
	}
	d.mu.Unlock()
	if d.ctl != nil {
		st.Phase = d.ctl.Phase().String()
		st.Count = d.ctl.Count()
	}
	if err := d.ch.WriteStatus(st); err != nil {
		log.Warnf("write status: %v", err)
	}
}

func (d *daemon) startHotkey(ctx context.Context, combo hotkey.Combo, hold time.Duration) error {
	hk := hotkey.New(combo)
	if err := hk.Register(); err != nil {
		return err
	}
	trig := hotkey.NewTrigger(hk, hold)
	go func() {
		defer hk.Unregister()
		defer trig.Stop()
		for {
			select {
			case <-trig.Toggles():
				log.Info("hotkey_toggle")
				d.toggle()
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (d *daemon) startTray(cfg config.Config) <-chan struct{} {
	tray.OnToggle(d.toggle)
	tray.OnCopyLast(func() {
		d.mu.Lock()
		text := d.last
		d.mu.Unlock()
		if text == "" {
			return
		}
		if err := clipboard.Copy(text); err != nil {
			tray.SetError(err.Error())
		}
	})
	tray.SetInsert(cfg.Delivery.Insert, func(on bool) {
		d.update(func(c *config.Config) { c.Delivery.Insert = on })
	})
	tray.SetDiarize(cfg.Service.Diarization, func(on bool) {
		d.update(func(c *config.Config) { c.Service.Diarization = on })
	})
	tray.SetLanguage(cfg.Service.Language, func(code string) {
		d.update(func(c *config.Config) { c.Service.Language = code })
	})
	return tray.Init()
}

func (d *daemon) watchConfig(ctx context.Context, cmd *cobra.Command, f *cliFlags) {
	path := f.configPath
	if path == "" {
		path = config.DefaultPath()
		if _, err := os.Stat(path); err != nil {
			return
		}
	}
	go func() {
		err := config.Watch(ctx, path, func(cfg config.Config, err error) {
			if err != nil {
				log.Warnf("config reload: %v", err)
				logToTUI("Config not reloaded: %v", err)
				return
			}
			applyFlags(cmd, f, &cfg)
			d.apply(cfg)
			log.Info("config_reloaded")
			logToTUI("Config reloaded")
		})
		if err != nil {
			log.Warnf("config watch: %v", err)
		}
	}()
}

// checkService warns at startup when the service cannot be reached.
func (d *daemon) checkService(ctx context.Context, n notify.Notifier) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	w := liveTranscriber{d}.current()
	h, err := w.Health(ctx)
	if err != nil {
		log.Warnf("service health: %v", err)
		tuiSend(ServiceLineMsg{Text: w.BaseURL() + " (unreachable)"})
		n.Error(session.Message(err))
		return
	}
	tuiSend(ServiceLineMsg{Text: fmt.Sprintf("%s (%s, %s on %s)", w.BaseURL(), h.Status, h.Model, h.Device)})
}

func initCrashLog() {
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"hark/hotkey"
)

type ServiceConfig struct {
	URL            string `toml:"url" yaml:"url"`
	Language       string `toml:"language" yaml:"language"`
	Diarization    bool   `toml:"diarization" yaml:"diarization"`
	TimeoutSeconds int    `toml:"timeout_seconds" yaml:"timeout_seconds"`
}

type RecorderConfig struct {
	// Preset is one of sox, rec, arecord. Ignored when Command is set.
	Preset string `toml:"preset" yaml:"preset"`
	// Command is a full command line; {file} is replaced by the output path.
	Command    string `toml:"command" yaml:"command"`
	FlushMs    int    `toml:"flush_ms" yaml:"flush_ms"`
	SampleRate int    `toml:"sample_rate" yaml:"sample_rate"`
}

type DeliveryConfig struct {
	// Insert types the transcript into the focused window; false always copies.
	Insert bool `toml:"insert" yaml:"insert"`
}

type UIConfig struct {
	Notify bool `toml:"notify" yaml:"notify"`
	// Sounds plays a cue when recording starts, stops or fails.
	Sounds bool `toml:"sounds" yaml:"sounds"`
	Tray   bool `toml:"tray" yaml:"tray"`
	Hotkey bool `toml:"hotkey" yaml:"hotkey"`
	// Shortcut is the global chord, e.g. "ctrl+shift+space".
	Shortcut string `toml:"shortcut" yaml:"shortcut"`
	// HoldMs turns a press held this long into push-to-talk. 0 disables it.
	HoldMs int `toml:"hold_ms" yaml:"hold_ms"`
}

type Config struct {
	Service  ServiceConfig  `toml:"service" yaml:"service"`
	Recorder RecorderConfig `toml:"recorder" yaml:"recorder"`
	Delivery DeliveryConfig `toml:"delivery" yaml:"delivery"`
	UI       UIConfig       `toml:"ui" yaml:"ui"`
}

func Default() Config {
	return Config{
		Service: ServiceConfig{
			URL:            "http://localhost:48001",
			TimeoutSeconds: 60,
		},
		Recorder: RecorderConfig{
			Preset:     "sox",
			FlushMs:    500,
			SampleRate: 16000,
		},
		Delivery: DeliveryConfig{Insert: true},
		UI: UIConfig{
			Notify:   true,
			Sounds:   true,
			Tray:     true,
			Hotkey:   true,
			Shortcut: "ctrl+shift+space",
		},
	}
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.Service.TimeoutSeconds) * time.Second
}

func (c Config) Flush() time.Duration {
	return time.Duration(c.Recorder.FlushMs) * time.Millisecond
}

func (c Config) Hold() time.Duration {
	return time.Duration(c.UI.HoldMs) * time.Millisecond
}

// DefaultPath is $XDG_CONFIG_HOME/hark/config.toml (or the OS equivalent).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "hark", "config.toml")
}

// Load reads path on top of Default, then .env and HARK_* overrides.
// An empty path tries DefaultPath and tolerates its absence.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return cfg, err
			}
		}
	}

	// A missing .env is the common case.
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("config file not found: %w", err)
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml", "":
		err = toml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format %q (use .toml or .yaml)", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.Service.URL, "HARK_SERVICE_URL")
	overrideString(&cfg.Service.Language, "HARK_LANGUAGE")
	overrideBool(&cfg.Service.Diarization, "HARK_DIARIZATION")
	overrideInt(&cfg.Service.TimeoutSeconds, "HARK_TIMEOUT_SECONDS")
	overrideString(&cfg.Recorder.Preset, "HARK_RECORDER")
	overrideString(&cfg.Recorder.Command, "HARK_RECORDER_COMMAND")
	overrideInt(&cfg.Recorder.FlushMs, "HARK_FLUSH_MS")
	overrideBool(&cfg.Delivery.Insert, "HARK_INSERT")
	overrideBool(&cfg.UI.Notify, "HARK_NOTIFY")
	overrideBool(&cfg.UI.Sounds, "HARK_SOUNDS")
	overrideString(&cfg.UI.Shortcut, "HARK_HOTKEY")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func validate(cfg Config) error {
	if !strings.HasPrefix(cfg.Service.URL, "http://") && !strings.HasPrefix(cfg.Service.URL, "https://") {
		return fmt.Errorf("service.url must be an http(s) URL, got %q", cfg.Service.URL)
	}
	if cfg.Service.TimeoutSeconds <= 0 {
		return fmt.Errorf("service.timeout_seconds must be positive")
	}
	if cfg.Recorder.FlushMs < 0 {
		return fmt.Errorf("recorder.flush_ms must not be negative")
	}
	if cfg.UI.HoldMs < 0 {
		return fmt.Errorf("ui.hold_ms must not be negative")
	}
	if _, err := hotkey.Parse(cfg.UI.Shortcut); err != nil {
		return fmt.Errorf("ui.shortcut: %w", err)
	}
	if cfg.Recorder.Command == "" {
		switch cfg.Recorder.Preset {
		case "sox", "rec", "arecord":
		default:
			return fmt.Errorf("unknown recorder preset %q (use sox, rec or arecord)", cfg.Recorder.Preset)
		}
	}
	return nil
}

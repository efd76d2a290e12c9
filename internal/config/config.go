// Package config loads OttoLift settings from a YAML file with environment
// variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hammamikhairi/ottolift/internal/domain"
	"github.com/hammamikhairi/ottolift/internal/logger"
)

type Config struct {
	LogLevel string         `yaml:"log_level"`
	LogFile  string         `yaml:"log_file"`
	Exercise string         `yaml:"exercise"`
	Rest     RestConfig     `yaml:"rest"`
	Tempo    TempoConfig    `yaml:"tempo"`
	Feedback FeedbackConfig `yaml:"feedback"`
	Speech   SpeechConfig   `yaml:"speech"`
	Listen   ListenConfig   `yaml:"listen"`
	Storage  StorageConfig  `yaml:"storage"`
}

type RestConfig struct {
	Seconds float64 `yaml:"seconds"`
	Auto    bool    `yaml:"auto"` // start resting when a set is finished
}

type TempoConfig struct {
	Eccentric  float64 `yaml:"eccentric"`
	Hold       float64 `yaml:"hold"`
	Concentric float64 `yaml:"concentric"`
	TickMS     int     `yaml:"tick_ms"`
}

type FeedbackConfig struct {
	Tone      bool    `yaml:"tone"`
	Voice     bool    `yaml:"voice"`
	VoiceRate float64 `yaml:"voice_rate"`
}

type SpeechConfig struct {
	Voice     string `yaml:"voice"`
	CacheDir  string `yaml:"cache_dir"`
	DiskCache bool   `yaml:"disk_cache"`
}

type ListenConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WhisperBin string `yaml:"whisper_bin"`
	Model      string `yaml:"model"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "memory"
	Path   string `yaml:"path"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel: "normal",
		LogFile:  "ottolift.log",
		Rest:     RestConfig{Seconds: 90},
		Tempo:    TempoConfig{Eccentric: 3, Hold: 1, Concentric: 2, TickMS: 50},
		Feedback: FeedbackConfig{Tone: true, Voice: true, VoiceRate: 1.1},
		Speech:   SpeechConfig{Voice: "en-US-AvaNeural", CacheDir: ".ottolift-cache", DiskCache: true},
		Listen:   ListenConfig{WhisperBin: "whisper-cli", Model: "models/ggml-base.en.bin"},
		Storage:  StorageConfig{Driver: "sqlite", Path: "ottolift.db"},
	}
}

// Load reads config from a YAML file on top of the defaults, then applies
// environment variable overrides. A missing file is not an error. Env vars
// use the prefix OTTOLIFT_:
//
//	OTTOLIFT_LOG_LEVEL, OTTOLIFT_LOG_FILE, OTTOLIFT_EXERCISE,
//	OTTOLIFT_REST_SECONDS, OTTOLIFT_REST_AUTO, OTTOLIFT_TEMPO ("3-1-2"),
//	OTTOLIFT_TONE, OTTOLIFT_VOICE, OTTOLIFT_VOICE_RATE, OTTOLIFT_TTS_VOICE,
//	OTTOLIFT_LISTEN, OTTOLIFT_WHISPER_BIN, OTTOLIFT_WHISPER_MODEL,
//	OTTOLIFT_STORAGE_DRIVER, OTTOLIFT_STORAGE_PATH
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("OTTOLIFT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("OTTOLIFT_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("OTTOLIFT_EXERCISE"); v != "" {
		cfg.Exercise = v
	}
	if v := os.Getenv("OTTOLIFT_REST_SECONDS"); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Rest.Seconds = secs
		}
	}
	if v := os.Getenv("OTTOLIFT_REST_AUTO"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Rest.Auto = b
		}
	}
	if v := os.Getenv("OTTOLIFT_TEMPO"); v != "" {
		d, err := domain.ParseTempo(v)
		if err != nil {
			return err
		}
		cfg.Tempo.Eccentric = d.Eccentric.Seconds()
		cfg.Tempo.Hold = d.Hold.Seconds()
		cfg.Tempo.Concentric = d.Concentric.Seconds()
	}
	if v := os.Getenv("OTTOLIFT_TONE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Feedback.Tone = b
		}
	}
	if v := os.Getenv("OTTOLIFT_VOICE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Feedback.Voice = b
		}
	}
	if v := os.Getenv("OTTOLIFT_VOICE_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Feedback.VoiceRate = rate
		}
	}
	if v := os.Getenv("OTTOLIFT_TTS_VOICE"); v != "" {
		cfg.Speech.Voice = v
	}
	if v := os.Getenv("OTTOLIFT_LISTEN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Listen.Enabled = b
		}
	}
	if v := os.Getenv("OTTOLIFT_WHISPER_BIN"); v != "" {
		cfg.Listen.WhisperBin = v
	}
	if v := os.Getenv("OTTOLIFT_WHISPER_MODEL"); v != "" {
		cfg.Listen.Model = v
	}
	if v := os.Getenv("OTTOLIFT_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("OTTOLIFT_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	return nil
}

func (c *Config) validate() error {
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.RestDuration() <= 0 {
		return fmt.Errorf("rest.seconds must be positive and at most %g", domain.MaxDuration.Seconds())
	}
	if !c.TempoDurations().Valid() {
		return fmt.Errorf("tempo phases must all be positive and at most %g seconds", domain.MaxDuration.Seconds())
	}
	if c.Tempo.TickMS <= 0 || c.Tempo.TickMS > 1000 {
		return fmt.Errorf("tempo.tick_ms must be between 1 and 1000")
	}
	if c.Feedback.VoiceRate < 0.5 || c.Feedback.VoiceRate > 2 {
		return fmt.Errorf("feedback.voice_rate must be between 0.5 and 2")
	}
	switch strings.ToLower(c.Storage.Driver) {
	case "memory":
	case "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() logger.Level {
	l, _ := logger.ParseLevel(c.LogLevel)
	return l
}

// RestDuration returns the rest countdown length.
func (c *Config) RestDuration() time.Duration {
	return domain.SecondsToDuration(c.Rest.Seconds)
}

// TempoDurations returns the configured tempo.
func (c *Config) TempoDurations() domain.TempoDurations {
	return domain.TempoDurations{
		Eccentric:  domain.SecondsToDuration(c.Tempo.Eccentric),
		Hold:       domain.SecondsToDuration(c.Tempo.Hold),
		Concentric: domain.SecondsToDuration(c.Tempo.Concentric),
	}
}

// TickInterval returns the tempo tracker's tick interval.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Tempo.TickMS) * time.Millisecond
}

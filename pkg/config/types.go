package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Scripts  ScriptsConfig  `yaml:"scripts"`
	Playback PlaybackConfig `yaml:"playback"`
	Sweeper  SweeperConfig  `yaml:"sweeper"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds http and tls settings.
type ServerConfig struct {
	Address string    `yaml:"address"`
	Port    int       `yaml:"port"`
	TLS     TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate configuration.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// StorageConfig locates the pebble-backed catalog and its optional seed file.
type StorageConfig struct {
	DBPath   string `yaml:"db_path"`
	SeedFile string `yaml:"seed_file"`
}

// ScriptsConfig locates the pre-authored thread script files.
type ScriptsConfig struct {
	Dir         string    `yaml:"dir"`
	MaxFileSize SizeBytes `yaml:"max_file_size"`
}

// PlaybackConfig holds the pacing knobs of the playback engine. The defaults
// reproduce the rhythm of the original demo; none of them carry semantic
// meaning beyond pacing.
type PlaybackConfig struct {
	Animate            *bool     `yaml:"animate"`
	TickInterval       Duration  `yaml:"tick_interval"`
	CharsPerTick       int       `yaml:"chars_per_tick"`
	LoadingGrace       Duration  `yaml:"loading_grace"`
	AdvanceDelay       Duration  `yaml:"advance_delay"`
	VisibilityDebounce Duration  `yaml:"visibility_debounce"`
	ReplyDelay         Duration  `yaml:"reply_delay"`
	ReplyRate          RateLimit `yaml:"reply_rate"`
}

// RateLimit configures the per-session reply limiter.
type RateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// SweeperConfig controls the idle-session sweeper.
type SweeperConfig struct {
	Enabled bool     `yaml:"enabled"`
	Cron    string   `yaml:"cron"`
	MaxIdle Duration `yaml:"max_idle"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Animated reports whether typewriter animation is enabled (default true).
func (p PlaybackConfig) Animated() bool {
	return p.Animate == nil || *p.Animate
}

// SizeBytes represents a number of bytes, unmarshaled from human-friendly
// strings like "64MB" or plain integers.
type SizeBytes int64

func (s *SizeBytes) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*s = 0
		return nil
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*s = 0
		return nil
	}
	if v, err := humanize.ParseBytes(raw); err == nil {
		*s = SizeBytes(v)
		return nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*s = SizeBytes(i)
		return nil
	}
	return fmt.Errorf("invalid size value: %q", node.Value)
}

func (s SizeBytes) Int64() int64 { return int64(s) }

// Duration is a wrapper around time.Duration that supports YAML parsing from
// strings like "100ms" or plain numbers (interpreted as seconds).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*d = Duration(0)
		return nil
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*d = Duration(0)
		return nil
	}
	if td, err := time.ParseDuration(raw); err == nil {
		*d = Duration(td)
		return nil
	}
	// allow numeric seconds
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		*d = Duration(time.Duration(f * float64(time.Second)))
		return nil
	}
	return fmt.Errorf("invalid duration value: %q", node.Value)
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the playback pacing knobs. These reproduce the observed demo
// rhythm; operators can override every one of them.
const (
	DefaultTickInterval       = 30 * time.Millisecond
	DefaultCharsPerTick       = 3
	DefaultLoadingGrace       = 200 * time.Millisecond
	DefaultAdvanceDelay       = 700 * time.Millisecond
	DefaultVisibilityDebounce = 150 * time.Millisecond
	DefaultReplyDelay         = 900 * time.Millisecond
)

// Addr returns host:port for the HTTP server.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = "0.0.0.0"
	}
	p := c.Server.Port
	if p == 0 {
		p = 8080
	}
	return fmt.Sprintf("%s:%d", addr, p)
}

// Load reads a YAML config file. A missing file is an error; callers that
// tolerate absence should check os.IsNotExist themselves.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadEffective merges file, env and defaults: env overrides file values and
// defaults fill whatever remains unset. A missing config file is tolerated
// and yields env+defaults.
func LoadEffective(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		if !strings.Contains(err.Error(), "not found") {
			return nil, err
		}
		cfg = &Config{}
	}
	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

// ParseCommandFlags defines and parses command-line flags and returns their
// values along with a map indicating which flags were explicitly set.
func ParseCommandFlags() (addr string, dbPath string, scriptsDir string, cfgPath string, setFlags map[string]bool) {
	addrPtr := flag.String("addr", ":8080", "HTTP listen address")
	dbPtr := flag.String("db", "./.catalog", "pebble catalog path")
	scriptsPtr := flag.String("scripts", "./scripts", "thread scripts directory")
	cfgPtr := flag.String("config", "./config.yaml", "path to config file")
	flag.Parse()
	setFlags = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return *addrPtr, *dbPtr, *scriptsPtr, *cfgPtr, setFlags
}

// ResolveConfigPath picks the config path: an explicit flag wins over the
// PLAYBACKD_CONFIG env var, which wins over the flag default.
func ResolveConfigPath(flagVal string, flagSet bool) string {
	if flagSet {
		return flagVal
	}
	if v := os.Getenv("PLAYBACKD_CONFIG"); v != "" {
		return v
	}
	return flagVal
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PLAYBACKD_ADDR"); v != "" {
		if h, p, err := net.SplitHostPort(v); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = v
		}
	}
	if v := os.Getenv("PLAYBACKD_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("PLAYBACKD_SEED_FILE"); v != "" {
		cfg.Storage.SeedFile = v
	}
	if v := os.Getenv("PLAYBACKD_SCRIPTS_DIR"); v != "" {
		cfg.Scripts.Dir = v
	}
	if v := os.Getenv("PLAYBACKD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PLAYBACKD_ANIMATE"); v != "" {
		b := strings.EqualFold(v, "1") || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
		cfg.Playback.Animate = &b
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.DBPath == "" {
		cfg.Storage.DBPath = "./.catalog"
	}
	if cfg.Scripts.Dir == "" {
		cfg.Scripts.Dir = "./scripts"
	}
	if cfg.Scripts.MaxFileSize == 0 {
		cfg.Scripts.MaxFileSize = SizeBytes(1 << 20) // 1MB
	}
	p := &cfg.Playback
	if p.TickInterval == 0 {
		p.TickInterval = Duration(DefaultTickInterval)
	}
	if p.CharsPerTick <= 0 {
		p.CharsPerTick = DefaultCharsPerTick
	}
	if p.LoadingGrace == 0 {
		p.LoadingGrace = Duration(DefaultLoadingGrace)
	}
	if p.AdvanceDelay == 0 {
		p.AdvanceDelay = Duration(DefaultAdvanceDelay)
	}
	if p.VisibilityDebounce == 0 {
		p.VisibilityDebounce = Duration(DefaultVisibilityDebounce)
	}
	if p.ReplyDelay == 0 {
		p.ReplyDelay = Duration(DefaultReplyDelay)
	}
	if p.ReplyRate.RPS <= 0 {
		p.ReplyRate.RPS = 1
	}
	if p.ReplyRate.Burst <= 0 {
		p.ReplyRate.Burst = 3
	}
	if cfg.Sweeper.Cron == "" {
		cfg.Sweeper.Cron = "*/5 * * * *"
	}
	if cfg.Sweeper.MaxIdle == 0 {
		cfg.Sweeper.MaxIdle = Duration(30 * time.Minute)
	}
}

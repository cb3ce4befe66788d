// internal/platform/config/config.go
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

type Config struct {
	// App
	ProfileID    string
	APIBaseURL   string
	CatalogPath  string // empty = built-in catalog
	StorePath    string // local snapshot cache (sqlite)
	Watch        bool   // keep the suggestion poller running
	PrintVersion bool
	TimeoutS     int // global timeout in seconds (0 = no timeout)

	// Links policy
	MaxSocialLinks int

	// Timing knobs (milliseconds unless noted)
	DebounceMs      int // idle window before a save is enqueued
	AddDelayMs      int // UX pacing delay before the add re-check
	FastPollS       int // poll interval while the refresh window is armed
	SlowPollS       int // steady-state poll interval
	RefreshWindowS  int // fast-poll window armed after an ingestable save

	// Outputs
	NoTable bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		APIBaseURL: "http://localhost:8080/api",
		StorePath:  "linkdeck.db",
		TimeoutS:   0,

		MaxSocialLinks: 8,

		DebounceMs:     500,
		AddDelayMs:     600,
		FastPollS:      3,
		SlowPollS:      15,
		RefreshWindowS: 20,
	}
}

// Load builds the configuration: defaults, then ENV, then flags (flags win).
func Load() (Config, error) {
	cfg := DefaultConfig()
	loadFromEnv(&cfg)
	loadFromFlags(&cfg)
	normalize(&cfg)
	return cfg, nil
}

func loadFromEnv(cfg *Config) {
	if v := getenv("LINKDECK_PROFILE_ID", ""); v != "" {
		cfg.ProfileID = v
	}
	if v := getenv("LINKDECK_API_URL", ""); v != "" {
		cfg.APIBaseURL = v
	}
	if v := getenv("LINKDECK_CATALOG", ""); v != "" {
		cfg.CatalogPath = v
	}
	if v := getenv("LINKDECK_STORE", ""); v != "" {
		cfg.StorePath = v
	}
	if v := getenv("LINKDECK_WATCH", ""); v != "" {
		cfg.Watch = parseBool(v)
	}
	if v := getenv("LINKDECK_TIMEOUT", ""); v != "" {
		cfg.TimeoutS = parseInt(v, cfg.TimeoutS)
	}
	if v := getenv("LINKDECK_MAX_SOCIAL_LINKS", ""); v != "" {
		cfg.MaxSocialLinks = parseInt(v, cfg.MaxSocialLinks)
	}
	if v := getenv("LINKDECK_DEBOUNCE_MS", ""); v != "" {
		cfg.DebounceMs = parseInt(v, cfg.DebounceMs)
	}
	if v := getenv("LINKDECK_ADD_DELAY_MS", ""); v != "" {
		cfg.AddDelayMs = parseInt(v, cfg.AddDelayMs)
	}
	if v := getenv("LINKDECK_FAST_POLL_S", ""); v != "" {
		cfg.FastPollS = parseInt(v, cfg.FastPollS)
	}
	if v := getenv("LINKDECK_SLOW_POLL_S", ""); v != "" {
		cfg.SlowPollS = parseInt(v, cfg.SlowPollS)
	}
	if v := getenv("LINKDECK_REFRESH_WINDOW_S", ""); v != "" {
		cfg.RefreshWindowS = parseInt(v, cfg.RefreshWindowS)
	}
	if v := getenv("LINKDECK_NO_TABLE", ""); v != "" {
		cfg.NoTable = parseBool(v)
	}
}

func loadFromFlags(cfg *Config) {
	pflag.StringVarP(&cfg.ProfileID, "profile", "p", cfg.ProfileID, "Profile id to manage")
	pflag.StringVar(&cfg.APIBaseURL, "api", cfg.APIBaseURL, "Base URL of the links API")
	pflag.StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "Platform catalog YAML (empty = built-in)")
	pflag.StringVar(&cfg.StorePath, "store", cfg.StorePath, "Local snapshot cache path")
	pflag.BoolVarP(&cfg.Watch, "watch", "w", cfg.Watch, "Keep polling for suggestions")
	pflag.IntVar(&cfg.TimeoutS, "timeout", cfg.TimeoutS, "Global timeout in seconds (0 = none)")
	pflag.IntVar(&cfg.MaxSocialLinks, "max-social", cfg.MaxSocialLinks, "Visible-link cap for the social section")
	pflag.IntVar(&cfg.DebounceMs, "debounce", cfg.DebounceMs, "Save debounce window in milliseconds")
	pflag.BoolVar(&cfg.NoTable, "no-table", cfg.NoTable, "Disable the terminal table output")
	pflag.BoolVarP(&cfg.PrintVersion, "version", "v", false, "Print version and exit")
	pflag.Parse()
}

func normalize(c *Config) {
	c.ProfileID = strings.TrimSpace(c.ProfileID)
	c.APIBaseURL = strings.TrimSuffix(strings.TrimSpace(c.APIBaseURL), "/")
	if c.MaxSocialLinks < 1 {
		c.MaxSocialLinks = 1
	}
	if c.DebounceMs < 0 {
		c.DebounceMs = 0
	}
	if c.AddDelayMs < 0 {
		c.AddDelayMs = 0
	}
	if c.FastPollS < 1 {
		c.FastPollS = 1
	}
	if c.SlowPollS < c.FastPollS {
		c.SlowPollS = c.FastPollS
	}
	if c.RefreshWindowS < 0 {
		c.RefreshWindowS = 0
	}
	if c.TimeoutS < 0 {
		c.TimeoutS = 0
	}
}

// Duration accessors.

func (c Config) Debounce() time.Duration      { return time.Duration(c.DebounceMs) * time.Millisecond }
func (c Config) AddDelay() time.Duration      { return time.Duration(c.AddDelayMs) * time.Millisecond }
func (c Config) FastPoll() time.Duration      { return time.Duration(c.FastPollS) * time.Second }
func (c Config) SlowPoll() time.Duration      { return time.Duration(c.SlowPollS) * time.Second }
func (c Config) RefreshWindow() time.Duration { return time.Duration(c.RefreshWindowS) * time.Second }

// Timeout returns the global timeout, 0 meaning none.
func (c Config) Timeout() time.Duration {
	if c.TimeoutS <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutS) * time.Second
}

// ToJSON serializes the configuration, for debugging.
func (c Config) ToJSON() (string, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Helpers

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok {
		return v
	}
	return def
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}

func parseInt(v string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return i
}

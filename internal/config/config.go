package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"cronexpr"
	"cronexpr/internal/ics"
)

// EnvPrefix prefixes the environment variables that override file values,
// e.g. CRONEXPR_LISTEN or CRONEXPR_TIMEZONE.
const EnvPrefix = "CRONEXPR"

const (
	defaultListen         = "127.0.0.1:8080"
	defaultTimezone       = "UTC"
	defaultHorizonDays    = 7
	defaultMaxHorizonDays = 366
	defaultMaxOccurrences = 1000
	defaultEventMinutes   = 30
)

// ScheduleConfig describes a single named schedule.
type ScheduleConfig struct {
	// Name identifies the schedule in logs, the API and exported calendars.
	Name string `yaml:"name" json:"name"`
	// Expr is the cron expression. Without a trailing timezone it is
	// evaluated in Config.Timezone.
	Expr    string `yaml:"expr" json:"expr"`
	Summary string `yaml:"summary,omitempty" json:"summary,omitempty"`
	// DurationMinutes overrides Config.EventMinutes for this schedule.
	DurationMinutes int `yaml:"duration_minutes,omitempty" json:"duration_minutes,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen" envconfig:"LISTEN"`

	// Timezone is the IANA timezone used for expressions that name none,
	// and for displaying occurrences.
	Timezone string `yaml:"timezone" json:"timezone" envconfig:"TIMEZONE"`

	// HorizonDays is the number of future days to expand.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days" envconfig:"HORIZON_DAYS"`

	// MaxHorizonDays bounds the days a client may ask the API to expand.
	MaxHorizonDays int `yaml:"max_horizon_days" json:"max_horizon_days" envconfig:"MAX_HORIZON_DAYS"`

	// MaxOccurrences caps the occurrences produced per schedule.
	MaxOccurrences int `yaml:"max_occurrences" json:"max_occurrences" envconfig:"MAX_OCCURRENCES"`

	// EventMinutes is the default length of an exported event.
	EventMinutes int `yaml:"event_minutes" json:"event_minutes" envconfig:"EVENT_MINUTES"`

	Schedules []ScheduleConfig `yaml:"schedules" json:"schedules" ignored:"true"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty" ignored:"true"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:         defaultListen,
		Timezone:       defaultTimezone,
		HorizonDays:    defaultHorizonDays,
		MaxHorizonDays: defaultMaxHorizonDays,
		MaxOccurrences: defaultMaxOccurrences,
		EventMinutes:   defaultEventMinutes,
		Schedules: []ScheduleConfig{
			{Name: "nightly", Expr: "0 3 * * *", Summary: "Nightly job"},
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = defaultHorizonDays
	}
	if c.MaxHorizonDays <= 0 {
		c.MaxHorizonDays = defaultMaxHorizonDays
	}
	c.HorizonDays = min(c.HorizonDays, c.MaxHorizonDays)
	if c.MaxOccurrences <= 0 {
		c.MaxOccurrences = defaultMaxOccurrences
	}
	if c.EventMinutes <= 0 {
		c.EventMinutes = defaultEventMinutes
	}
	if c.Schedules == nil {
		c.Schedules = []ScheduleConfig{}
	}
	for i := range c.Schedules {
		c.Schedules[i].Expr = cronexpr.Normalize(c.Schedules[i].Expr)
	}
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Entries parses every schedule. It fails on the first invalid expression,
// naming the schedule, and on duplicate or empty names.
func (c *Config) Entries() ([]ics.Entry, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(c.Schedules))
	entries := make([]ics.Entry, 0, len(c.Schedules))
	for i, sc := range c.Schedules {
		if sc.Name == "" {
			return nil, fmt.Errorf("schedule #%d has no name", i+1)
		}
		if seen[sc.Name] {
			return nil, fmt.Errorf("schedule %q is defined more than once", sc.Name)
		}
		seen[sc.Name] = true

		s, err := cronexpr.ParseInLocation(sc.Expr, loc)
		if err != nil {
			return nil, fmt.Errorf("schedule %q: %w", sc.Name, err)
		}
		minutes := sc.DurationMinutes
		if minutes <= 0 {
			minutes = c.EventMinutes
		}
		entries = append(entries, ics.Entry{
			Name:     sc.Name,
			Summary:  sc.Summary,
			Duration: time.Duration(minutes) * time.Minute,
			Schedule: s,
		})
	}
	return entries, nil
}

// Load loads configuration from the given YAML path, then applies
// CRONEXPR_* environment overrides.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, applyEnv(cfg)
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}
	cfg.Normalize()
	return nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".cronexpr-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

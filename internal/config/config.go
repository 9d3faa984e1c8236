// Package config loads and validates the daemon configuration.
//
// Precedence is ENV > file > defaults. The calendar list is ordered and the
// order is load-bearing: the position of a calendar name determines the
// addresses of its nodes on the ISY. Reordering the list changes node
// identity and forces the affected nodes to be regenerated.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultPollInterval is the number of seconds between refresh cycles.
	DefaultPollInterval = 60

	// DefaultListen is the admin HTTP listen address.
	DefaultListen = ":8099"
)

// ISY holds the connection settings for the ISY controller.
type ISY struct {
	BaseURL  string `yaml:"base_url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// Profile is the node-server slot on the ISY (1-25).
	Profile int `yaml:"profile"`
}

// Config holds the daemon configuration.
type Config struct {
	// Calendars is the ordered list of Google calendar names to watch.
	Calendars []string `yaml:"calendars"`

	// PollInterval is the refresh period in seconds.
	PollInterval int `yaml:"poll_interval"`

	// AuthCode is the one-time OAuth authorization code pasted by the user
	// after visiting the authentication link. It is consumed (exchanged for
	// a token) the next time the config file is read.
	AuthCode string `yaml:"auth_code"`

	ISY ISY `yaml:"isy"`

	Listen     string `yaml:"listen"`
	LogLevel   string `yaml:"log_level"`
	LogService string `yaml:"log_service"`

	// DataDir is where credentials, token and roster state live. Not part
	// of the file; it is resolved from flag/env before loading.
	DataDir string `yaml:"-"`
}

// Load reads the config file at path (optional), applies environment
// overrides and defaults, and validates the result.
func Load(path, dataDir string) (*Config, error) {
	cfg := &Config{
		PollInterval: DefaultPollInterval,
		Listen:       DefaultListen,
		LogLevel:     "info",
		LogService:   "holidaysd",
		ISY:          ISY{Profile: 1},
		DataDir:      dataDir,
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("os.ReadFile(%s): %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("yaml.Unmarshal: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays HOLIDAYS_* environment variables on cfg.
func applyEnv(cfg *Config) {
	if v := os.Getenv("HOLIDAYS_CALENDARS"); v != "" {
		names := strings.Split(v, ",")
		cfg.Calendars = cfg.Calendars[:0]
		for _, n := range names {
			if n = strings.TrimSpace(n); n != "" {
				cfg.Calendars = append(cfg.Calendars, n)
			}
		}
	}
	if v := os.Getenv("HOLIDAYS_POLL_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PollInterval = n
		}
	}
	if v := os.Getenv("HOLIDAYS_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("HOLIDAYS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("HOLIDAYS_ISY_URL"); v != "" {
		cfg.ISY.BaseURL = v
	}
	if v := os.Getenv("HOLIDAYS_ISY_USERNAME"); v != "" {
		cfg.ISY.Username = v
	}
	if v := os.Getenv("HOLIDAYS_ISY_PASSWORD"); v != "" {
		cfg.ISY.Password = v
	}
	if v := os.Getenv("HOLIDAYS_ISY_PROFILE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ISY.Profile = n
		}
	}
}

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Calendars) == 0 {
		errs = append(errs, errors.New("config: at least one calendar name is required"))
	}
	for i, name := range c.Calendars {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, fmt.Errorf("config: calendar %d is empty", i))
		}
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("config: poll_interval must be positive, got %d", c.PollInterval))
	}
	if c.ISY.BaseURL == "" {
		errs = append(errs, errors.New("config: isy.base_url is required"))
	} else if u, err := url.Parse(c.ISY.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("config: isy.base_url %q is not a valid URL", c.ISY.BaseURL))
	}
	if c.ISY.Profile < 1 || c.ISY.Profile > 25 {
		errs = append(errs, fmt.Errorf("config: isy.profile must be 1-25, got %d", c.ISY.Profile))
	}
	return errors.Join(errs...)
}

// DataDirFromEnv resolves the data directory: HOLIDAYS_DATA, or
// ~/.holidays-google as the fallback.
func DataDirFromEnv() (string, error) {
	if v := os.Getenv("HOLIDAYS_DATA"); v != "" {
		return v, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("unable to find user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".holidays-google"), nil
}

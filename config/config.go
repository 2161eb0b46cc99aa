package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/perbu/hobbes/dateparse"
)

// CalendarConfig describes one ICS-file calendar and the presentation
// attributes its events inherit.
type CalendarConfig struct {
	Name  string `yaml:"name"`
	Path  string `yaml:"path"`
	Color string `yaml:"color"`
}

// GoogleConfig describes an optional Google Calendar source. The
// OAuth credentials and token live next to the config file and are
// loaded through the Loader.
type GoogleConfig struct {
	CalendarID string `yaml:"calendar_id"`
	Name       string `yaml:"name"`
	Color      string `yaml:"color"`
}

// LocaleConfig holds the date and time conventions. Formats use Go
// reference-time layouts. FirstWeekday counts 0 = Monday .. 6 = Sunday.
type LocaleConfig struct {
	Timezone       string `yaml:"timezone"`
	DateFormat     string `yaml:"dateformat"`
	TimeFormat     string `yaml:"timeformat"`
	LongDateFormat string `yaml:"longdateformat"`
	FirstWeekday   int    `yaml:"firstweekday"`
}

// ViewConfig holds rendering settings.
type ViewConfig struct {
	// EventFormat is the template every event is rendered through.
	EventFormat string `yaml:"event_format"`
	// BoldForLightColor renders "light" colors as bold base colors,
	// which reads better on 8-color terminals.
	BoldForLightColor *bool `yaml:"bold_for_light_color"`
	// WeekNumbers adds ISO week numbers to the calendar pane.
	WeekNumbers bool `yaml:"weeknumbers"`
	// HighlightEventDays marks days with events in the calendar pane.
	HighlightEventDays bool `yaml:"highlight_event_days"`
}

// DefaultConfig holds fallback behavior.
type DefaultConfig struct {
	// Timedelta stretches an empty list range beyond one day, e.g. "2d".
	Timedelta string `yaml:"timedelta"`
}

// Config is the top-level application configuration.
type Config struct {
	Locale    LocaleConfig     `yaml:"locale"`
	View      ViewConfig       `yaml:"view"`
	Default   DefaultConfig    `yaml:"default"`
	Calendars []CalendarConfig `yaml:"calendars"`
	Google    *GoogleConfig    `yaml:"google"`
}

// Loader defines methods to load configuration, credentials, and token.
type Loader interface {
	LoadConfig() (*Config, error)
	LoadCredentials() ([]byte, error)
	LoadToken() ([]byte, error)
	SaveToken(token []byte) error
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Locale: LocaleConfig{
			DateFormat:     "02.01.2006",
			TimeFormat:     "15:04",
			LongDateFormat: "Monday, 02 January 2006",
		},
		View: ViewConfig{
			EventFormat: "{start-end-time-style} {title}",
		},
	}
}

// applyDefaults fills zero values with the defaults so a sparse config
// file stays valid.
func (c *Config) applyDefaults() {
	d := Default()
	if c.Locale.DateFormat == "" {
		c.Locale.DateFormat = d.Locale.DateFormat
	}
	if c.Locale.TimeFormat == "" {
		c.Locale.TimeFormat = d.Locale.TimeFormat
	}
	if c.Locale.LongDateFormat == "" {
		c.Locale.LongDateFormat = d.Locale.LongDateFormat
	}
	if c.View.EventFormat == "" {
		c.View.EventFormat = d.View.EventFormat
	}
}

// BoldForLight resolves the tri-state flag, defaulting to on.
func (c *Config) BoldForLight() bool {
	if c.View.BoldForLightColor == nil {
		return true
	}
	return *c.View.BoldForLightColor
}

// BuildLocale resolves the locale block into the parse/render
// conventions threaded through the pipeline. An empty timezone means
// the system zone.
func (c *Config) BuildLocale() (*dateparse.Locale, error) {
	loc := time.Local
	if c.Locale.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(c.Locale.Timezone)
		if err != nil {
			return nil, fmt.Errorf("config.BuildLocale: timezone %q: %w", c.Locale.Timezone, err)
		}
	}
	if c.Locale.FirstWeekday < 0 || c.Locale.FirstWeekday > 6 {
		return nil, fmt.Errorf("config.BuildLocale: firstweekday %d out of range 0..6", c.Locale.FirstWeekday)
	}
	return &dateparse.Locale{
		Location:       loc,
		DateFormat:     c.Locale.DateFormat,
		TimeFormat:     c.Locale.TimeFormat,
		LongDateFormat: c.Locale.LongDateFormat,
		FirstWeekday:   c.Locale.FirstWeekday,
	}, nil
}

// DefaultSpan parses the configured default timedelta, nil when unset.
func (c *Config) DefaultSpan() (*time.Duration, error) {
	if c.Default.Timedelta == "" {
		return nil, nil
	}
	d, err := dateparse.ParseDuration(c.Default.Timedelta)
	if err != nil {
		return nil, fmt.Errorf("config.DefaultSpan: %w", err)
	}
	return &d, nil
}

// FileLoader implements Loader by reading from the filesystem.
type FileLoader struct {
	configDir string
}

// NewFileLoader initializes a FileLoader with the config directory path.
func NewFileLoader() (*FileLoader, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("unable to find user home directory: %w", err)
	}
	return &FileLoader{configDir: filepath.Join(homeDir, ".hobbes")}, nil
}

// LoadConfig reads config.yaml. A missing file yields the defaults; a
// file that exists but cannot be parsed is an error.
func (f *FileLoader) LoadConfig() (*Config, error) {
	configPath := filepath.Join(f.configDir, "config.yaml")
	b, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile(%s): %w", configPath, err)
	}

	var config Config
	if err := yaml.Unmarshal(b, &config); err != nil {
		return nil, fmt.Errorf("yaml.Unmarshal: %w", err)
	}
	config.applyDefaults()
	return &config, nil
}

// LoadCredentials reads the credentials.json file.
func (f *FileLoader) LoadCredentials() ([]byte, error) {
	credentialsPath := filepath.Join(f.configDir, "credentials.json")
	bytes, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile(%s): %w", credentialsPath, err)
	}
	return bytes, nil
}

// LoadToken reads the token.json file.
func (f *FileLoader) LoadToken() ([]byte, error) {
	tokenPath := filepath.Join(f.configDir, "token.json")
	bytes, err := os.ReadFile(tokenPath)
	if err != nil {
		return nil, err
	}
	return bytes, nil
}

// SaveToken writes the token.json file.
func (f *FileLoader) SaveToken(token []byte) error {
	tokenPath := filepath.Join(f.configDir, "token.json")
	if err := os.MkdirAll(f.configDir, 0o700); err != nil {
		return fmt.Errorf("unable to create config directory: %w", err)
	}
	if err := os.WriteFile(tokenPath, token, 0o600); err != nil {
		return fmt.Errorf("unable to save token: %w", err)
	}
	return nil
}

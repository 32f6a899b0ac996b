// Package config loads the dashboard configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spektr-org/crossdash/chart"
	"github.com/spektr-org/crossdash/engine"
	"github.com/spektr-org/crossdash/logger"
)

// Config is the dashboard configuration.
type Config struct {
	Title     string                   `yaml:"title"`
	Data      string                   `yaml:"data"`
	Output    string                   `yaml:"output"`
	Log       logger.Config            `yaml:"log"`
	Defaults  ChartSettings            `yaml:"defaults"`
	Charts    map[string]ChartSettings `yaml:"charts,omitempty"`
	Selection engine.Filters           `yaml:"selection,omitempty"`
}

// ChartSettings are the layout settings of one chart. Zero fields in a
// per-chart entry inherit the defaults.
type ChartSettings struct {
	Title      string         `yaml:"title,omitempty"`
	Width      int            `yaml:"width,omitempty"`
	Height     int            `yaml:"height,omitempty"`
	Margins    *chart.Margins `yaml:"margins,omitempty"`
	Transition time.Duration  `yaml:"transition,omitempty"`
	YTicks     int            `yaml:"y_ticks,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	margins := chart.DefaultMargins
	return Config{
		Title:  "Academic Salaries",
		Data:   "data/Salaries.csv",
		Output: "dashboard.html",
		Log:    logger.DefaultConfig(),
		Defaults: ChartSettings{
			Width:      chart.DefaultWidth,
			Height:     chart.DefaultHeight,
			Margins:    &margins,
			Transition: chart.DefaultTransition,
		},
	}
}

// Load reads a YAML file over the defaults. ${VAR} references are replaced
// with environment values before parsing.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path) //nolint:gosec // path is supplied by the operator
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	content := substituteEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks sizes and durations.
func (c Config) Validate() error {
	var errs []error
	if c.Data == "" {
		errs = append(errs, errors.New("data path is required"))
	}
	if err := c.Defaults.validate("defaults"); err != nil {
		errs = append(errs, err)
	}
	for id, s := range c.Charts {
		if err := s.validate("charts." + id); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (s ChartSettings) validate(path string) error {
	var errs []error
	if s.Width < 0 || s.Height < 0 {
		errs = append(errs, fmt.Errorf("%s: size must not be negative", path))
	}
	if s.Transition < 0 {
		errs = append(errs, fmt.Errorf("%s: transition must not be negative", path))
	}
	if s.YTicks < 0 {
		errs = append(errs, fmt.Errorf("%s: y_ticks must not be negative", path))
	}
	if m := s.Margins; m != nil && (m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0) {
		errs = append(errs, fmt.Errorf("%s: margins must not be negative", path))
	}
	return errors.Join(errs...)
}

// Chart returns the settings for chart id with per-chart overrides
// applied over the defaults.
func (c Config) Chart(id string) ChartSettings {
	out := c.Defaults
	override, ok := c.Charts[id]
	if !ok {
		return out
	}
	if override.Title != "" {
		out.Title = override.Title
	}
	if override.Width > 0 {
		out.Width = override.Width
	}
	if override.Height > 0 {
		out.Height = override.Height
	}
	if override.Margins != nil {
		out.Margins = override.Margins
	}
	if override.Transition > 0 {
		out.Transition = override.Transition
	}
	if override.YTicks > 0 {
		out.YTicks = override.YTicks
	}
	return out
}

// Options converts the settings to widget options.
func (s ChartSettings) Options() []chart.Option {
	opts := []chart.Option{chart.WithSize(s.Width, s.Height)}
	if s.Title != "" {
		opts = append(opts, chart.WithTitle(s.Title))
	}
	if s.Margins != nil {
		opts = append(opts, chart.WithMargins(*s.Margins))
	}
	if s.Transition > 0 {
		opts = append(opts, chart.WithTransition(s.Transition))
	}
	if s.YTicks > 0 {
		opts = append(opts, chart.WithYTicks(s.YTicks))
	}
	return opts
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
// Substituted values are not scanned again.
func substituteEnvVars(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		b.WriteString(content[:start])
		b.WriteString(os.Getenv(content[start+2 : end]))
		content = content[end+1:]
	}
	b.WriteString(content)
	return b.String()
}

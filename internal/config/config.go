// Package config loads the analyzer configuration from a YAML file, a .env
// file and environment variables, and converts it to a pipeline.Config.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/visual-field-mcp/internal/interpret"
	"github.com/ironsheep/visual-field-mcp/internal/measure"
	"github.com/ironsheep/visual-field-mcp/internal/ocr"
	"github.com/ironsheep/visual-field-mcp/internal/pipeline"
	"github.com/ironsheep/visual-field-mcp/internal/segment"
)

// DefaultPath is read when VISUAL_FIELD_CONFIG is not set.
const DefaultPath = "visual-field.yaml"

// Environment variables that override file values.
const (
	EnvConfigPath = "VISUAL_FIELD_CONFIG"
	EnvLogLevel   = "VISUAL_FIELD_LOG_LEVEL"
	EnvLogFormat  = "VISUAL_FIELD_LOG_FORMAT"
	EnvHTTPAddr   = "VISUAL_FIELD_HTTP_ADDR"
	EnvTelegram   = "TELEGRAM_TOKEN"
	EnvSentryDSN  = "SENTRY_DSN"
	EnvGinMode    = "GIN_MODE"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Analysis parameters
	Analysis struct {
		// Preset names the colour rule ("any", "red", ...). Ignored when
		// Bands is set.
		Preset string `yaml:"preset"`

		// Bands is an explicit list of accepted hue intervals.
		Bands []segment.HueBand `yaml:"bands,omitempty"`

		// MinSaturation and MinValue are the selection floors in [0,1]
		MinSaturation float64 `yaml:"minSaturation"`
		MinValue      float64 `yaml:"minValue"`

		// MedianSize is the odd side of the median window, 0 disables it
		MedianSize int `yaml:"medianSize"`

		// DilateRadius reconnects broken lines, 0 disables it
		DilateRadius int `yaml:"dilateRadius"`

		MinArea            float64 `yaml:"minArea"`
		MinCircularity     float64 `yaml:"minCircularity"`
		CheckAspect        bool    `yaml:"checkAspect"`
		MinAspect          float64 `yaml:"minAspect"`
		MaxAspect          float64 `yaml:"maxAspect"`
		MaxDistanceDegrees float64 `yaml:"maxDistanceDegrees"`
		MaxDistancePixels  float64 `yaml:"maxDistancePixels"`

		// RadiusMode is "boundary" or "centroid"
		RadiusMode string `yaml:"radiusMode"`

		// MaskLabels clears OCR-detected chart labels from the mask
		MaskLabels bool `yaml:"maskLabels"`

		// Backend is "native" or "opencv"
		Backend string `yaml:"backend"`
	} `yaml:"analysis"`

	// Classification thresholds
	Thresholds interpret.Thresholds `yaml:"thresholds"`

	// OCR settings for label masking
	OCR ocr.Options `yaml:"ocr"`

	// Logging parameters
	Logging struct {
		// Level is debug, info, warn or error
		Level string `yaml:"level"`

		// Format is text or json
		Format string `yaml:"format"`
	} `yaml:"logging"`

	// HTTP front-end parameters
	HTTP struct {
		Addr string `yaml:"addr"`

		// Mode is the gin mode: debug, release or test
		Mode string `yaml:"mode"`

		// MaxUploadMB caps the multipart body size
		MaxUploadMB int `yaml:"maxUploadMB"`

		// SentryDSN enables error reporting when set
		SentryDSN string `yaml:"sentryDSN"`
	} `yaml:"http"`

	// Telegram bot parameters
	Telegram struct {
		Token string `yaml:"token"`
		Debug bool   `yaml:"debug"`
	} `yaml:"telegram"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}
	p := pipeline.DefaultConfig()

	cfg.Analysis.Preset = "any"
	cfg.Analysis.MinSaturation = p.Segment.Rule.MinSaturation
	cfg.Analysis.MinValue = p.Segment.Rule.MinValue
	cfg.Analysis.MedianSize = p.Segment.MedianSize
	cfg.Analysis.DilateRadius = p.Segment.DilateRadius
	cfg.Analysis.MinArea = p.Filter.MinArea
	cfg.Analysis.MinCircularity = p.Filter.MinCircularity
	cfg.Analysis.CheckAspect = p.Filter.CheckAspect
	cfg.Analysis.MinAspect = p.Filter.MinAspect
	cfg.Analysis.MaxAspect = p.Filter.MaxAspect
	cfg.Analysis.RadiusMode = string(p.RadiusMode)
	cfg.Analysis.Backend = string(p.Backend)

	cfg.Thresholds = p.Thresholds
	cfg.OCR = p.OCR

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"

	cfg.HTTP.Addr = ":8080"
	cfg.HTTP.Mode = "release"
	cfg.HTTP.MaxUploadMB = 20

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// Load reads .env (when present), then the YAML file named by
// VISUAL_FIELD_CONFIG or DefaultPath, then applies environment overrides.
func Load() (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	path := os.Getenv(EnvConfigPath)
	if path == "" {
		path = DefaultPath
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// ApplyEnv overrides file values with non-empty environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Logging.Level, EnvLogLevel)
	set(&c.Logging.Format, EnvLogFormat)
	set(&c.HTTP.Addr, EnvHTTPAddr)
	set(&c.HTTP.Mode, EnvGinMode)
	set(&c.HTTP.SentryDSN, EnvSentryDSN)
	set(&c.Telegram.Token, EnvTelegram)
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// Pipeline converts the analysis section into a validated pipeline.Config.
func (c *Config) Pipeline() (pipeline.Config, error) {
	a := c.Analysis

	rule := segment.DefaultColorRule()
	if len(a.Bands) > 0 {
		rule.Bands = append([]segment.HueBand(nil), a.Bands...)
	} else {
		preset := a.Preset
		if preset == "" {
			preset = "any"
		}
		p, ok := segment.Preset(preset)
		if !ok {
			return pipeline.Config{}, fmt.Errorf("unknown colour preset %q (available: %s)",
				preset, strings.Join(segment.PresetNames(), ", "))
		}
		rule = p
	}
	rule.MinSaturation = a.MinSaturation
	rule.MinValue = a.MinValue

	mode, err := measure.ParseRadiusMode(a.RadiusMode)
	if err != nil {
		return pipeline.Config{}, err
	}
	backend := pipeline.Backend(strings.ToLower(a.Backend))
	if backend == "" {
		backend = pipeline.BackendNative
	}

	pc := pipeline.Config{
		Segment: segment.Options{
			Rule:         rule,
			MedianSize:   a.MedianSize,
			DilateRadius: a.DilateRadius,
		},
		Filter: pipeline.FilterConfig{
			MinArea:            a.MinArea,
			MinCircularity:     a.MinCircularity,
			CheckAspect:        a.CheckAspect,
			MinAspect:          a.MinAspect,
			MaxAspect:          a.MaxAspect,
			MaxDistanceDegrees: a.MaxDistanceDegrees,
			MaxDistancePixels:  a.MaxDistancePixels,
		},
		RadiusMode: mode,
		Thresholds: c.Thresholds,
		MaskLabels: a.MaskLabels,
		OCR:        c.OCR,
		Backend:    backend,
	}
	if err := pc.Validate(); err != nil {
		return pipeline.Config{}, err
	}
	return pc, nil
}

package pipeline

import (
	"fmt"

	"github.com/ironsheep/visual-field-mcp/internal/detection"
	"github.com/ironsheep/visual-field-mcp/internal/interpret"
	"github.com/ironsheep/visual-field-mcp/internal/measure"
	"github.com/ironsheep/visual-field-mcp/internal/ocr"
	"github.com/ironsheep/visual-field-mcp/internal/segment"
)

// Backend selects the contour extractor.
type Backend string

const (
	BackendNative Backend = "native"
	BackendOpenCV Backend = "opencv"
)

// FilterConfig holds the shape acceptance thresholds.
//
// The distance cutoff has one value per unit: MaxDistanceDegrees applies to
// calibrated runs, MaxDistancePixels to uncalibrated ones. 0 disables it.
type FilterConfig struct {
	MinArea            float64 `json:"min_area" yaml:"minArea"`
	MinCircularity     float64 `json:"min_circularity" yaml:"minCircularity"`
	CheckAspect        bool    `json:"check_aspect" yaml:"checkAspect"`
	MinAspect          float64 `json:"min_aspect" yaml:"minAspect"`
	MaxAspect          float64 `json:"max_aspect" yaml:"maxAspect"`
	MaxDistanceDegrees float64 `json:"max_distance_degrees" yaml:"maxDistanceDegrees"`
	MaxDistancePixels  float64 `json:"max_distance_pixels" yaml:"maxDistancePixels"`
}

// Config is the read-only configuration shared by every analysis.
type Config struct {
	Segment    segment.Options      `json:"segment" yaml:"segment"`
	Filter     FilterConfig         `json:"filter" yaml:"filter"`
	RadiusMode measure.RadiusMode   `json:"radius_mode" yaml:"radiusMode"`
	Thresholds interpret.Thresholds `json:"thresholds" yaml:"thresholds"`

	// MaskLabels clears printed words found by OCR from the mask before
	// contour extraction.
	MaskLabels bool        `json:"mask_labels" yaml:"maskLabels"`
	OCR        ocr.Options `json:"ocr" yaml:"ocr"`

	Backend Backend `json:"backend" yaml:"backend"`
}

// DefaultConfig returns the documented defaults: any saturated colour, 5×5
// median, area > 100 px², circularity > 0.3, aspect in (0.2, 5), no distance
// cutoff, boundary radius, classifier thresholds 0.4 / 40° / 0.3, no label
// masking, native extractor.
func DefaultConfig() Config {
	fo := detection.DefaultFilterOptions()
	return Config{
		Segment: segment.DefaultOptions(),
		Filter: FilterConfig{
			MinArea:        fo.MinArea,
			MinCircularity: fo.MinCircularity,
			CheckAspect:    fo.CheckAspect,
			MinAspect:      fo.MinAspect,
			MaxAspect:      fo.MaxAspect,
		},
		RadiusMode: measure.RadiusBoundary,
		Thresholds: interpret.DefaultThresholds(),
		OCR:        ocr.DefaultOptions(),
		Backend:    BackendNative,
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Segment.Validate(); err != nil {
		return fmt.Errorf("segment: %w", err)
	}
	if err := c.filterOptions().Validate(); err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	if c.Filter.MaxDistanceDegrees < 0 || c.Filter.MaxDistancePixels < 0 {
		return fmt.Errorf("filter: max distance must be >= 0")
	}
	if _, err := measure.ParseRadiusMode(string(c.RadiusMode)); err != nil {
		return err
	}
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}
	switch c.Backend {
	case "", BackendNative, BackendOpenCV:
	default:
		return fmt.Errorf("unknown backend %q (want native or opencv)", c.Backend)
	}
	return nil
}

// filterOptions converts the thresholds; the distance check is filled in per
// analysis once the unit is known.
func (c Config) filterOptions() detection.FilterOptions {
	return detection.FilterOptions{
		MinArea:        c.Filter.MinArea,
		MinCircularity: c.Filter.MinCircularity,
		CheckAspect:    c.Filter.CheckAspect,
		MinAspect:      c.Filter.MinAspect,
		MaxAspect:      c.Filter.MaxAspect,
	}
}

// Package interpret maps aggregated isoptère statistics to a diagnostic
// category with fixed thresholds.
//
// Rules are evaluated in order and the first match wins:
//
//  1. ConcentricConstriction: mean < limit, where limit is
//     PixelFraction × max(width, height) in pixel units or DegreeLimit in
//     degrees. The two limits are not equivalent and are kept separate.
//  2. AsymmetricField: std > AsymmetryRatio × mean.
//  3. NormalField otherwise.
//
// The classifier carries no medical validation.
package interpret

import (
	"fmt"

	"github.com/ironsheep/visual-field-mcp/internal/measure"
)

// Category is a diagnostic outcome.
type Category string

const (
	ConcentricConstriction Category = "concentric_constriction"
	AsymmetricField        Category = "asymmetric_field"
	NormalField            Category = "normal_field"
)

// Interpretation returns the sentence shown to users for c.
func (c Category) Interpretation() string {
	switch c {
	case ConcentricConstriction:
		return "Concentric constriction of the visual field suspected."
	case AsymmetricField:
		return "Isoptère asymmetry: possible scotoma or hemianopia."
	case NormalField:
		return "Visual field globally normal."
	}
	return ""
}

// Default thresholds.
const (
	DefaultPixelFraction  = 0.4
	DefaultDegreeLimit    = 40.0
	DefaultAsymmetryRatio = 0.3
)

// Thresholds configures Classify.
type Thresholds struct {
	PixelFraction  float64 `json:"pixel_fraction" yaml:"pixelFraction"`
	DegreeLimit    float64 `json:"degree_limit" yaml:"degreeLimit"`
	AsymmetryRatio float64 `json:"asymmetry_ratio" yaml:"asymmetryRatio"`
}

// DefaultThresholds returns 0.4 × max dimension, 40° and 0.3.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PixelFraction:  DefaultPixelFraction,
		DegreeLimit:    DefaultDegreeLimit,
		AsymmetryRatio: DefaultAsymmetryRatio,
	}
}

// Validate rejects negative thresholds.
func (t Thresholds) Validate() error {
	if t.PixelFraction < 0 || t.DegreeLimit < 0 || t.AsymmetryRatio < 0 {
		return fmt.Errorf("thresholds must be >= 0, got %+v", t)
	}
	return nil
}

// ConcentricLimit returns the mean radius below which the field is
// classified as constricted, in the given unit.
func (t Thresholds) ConcentricLimit(unit measure.Unit, width, height int) float64 {
	if unit == measure.UnitDegrees {
		return t.DegreeLimit
	}
	return t.PixelFraction * float64(max(width, height))
}

// Classify applies the rules to a mean and standard deviation measured in
// unit on an image of width × height pixels.
func Classify(mean, std float64, unit measure.Unit, width, height int, t Thresholds) Category {
	if mean < t.ConcentricLimit(unit, width, height) {
		return ConcentricConstriction
	}
	if std > t.AsymmetryRatio*mean {
		return AsymmetricField
	}
	return NormalField
}

// ClassifyStats is Classify on aggregated statistics.
func ClassifyStats(s measure.Stats, width, height int, t Thresholds) Category {
	return Classify(s.MeanRadius, s.StdRadius, s.Unit, width, height, t)
}

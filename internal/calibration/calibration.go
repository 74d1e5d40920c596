// Package calibration converts pixel distances on a perimetry chart into
// degrees of visual angle.
//
// A chart is calibrated from two points picked on the image: the fixation
// centre (0°) and any point on the printed 90° ring. The pixel distance
// between them spans exactly ReferenceDegrees.
package calibration

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// ReferenceDegrees is the visual angle between the fixation centre and the
// reference ring.
const ReferenceDegrees = 90.0

// ErrDegenerateCalibration is returned when the two calibration points
// coincide. Callers fall back to pixel units.
var ErrDegenerateCalibration = errors.New("degenerate calibration: center and reference point coincide")

// Points is one pair of calibration clicks, in image pixel coordinates.
type Points struct {
	Center    image.Point `json:"center"`
	Reference image.Point `json:"reference"`
}

// Distance is the Euclidean pixel distance between the two points.
func (p Points) Distance() float64 {
	d := p.Reference.Sub(p.Center)
	return math.Hypot(float64(d.X), float64(d.Y))
}

// Scale is a calibrated degrees-per-pixel factor. The zero value is not
// usable; obtain one from Calibrate or NewScale.
type Scale struct {
	degreesPerPixel float64
}

// Calibrate returns the scale implied by center and ref.
//
// No upper bound is applied: points one pixel apart give 90°/px.
func Calibrate(center, ref image.Point) (Scale, error) {
	return Points{Center: center, Reference: ref}.Scale()
}

// Scale is Calibrate on the receiver's points.
func (p Points) Scale() (Scale, error) {
	dist := p.Distance()
	if dist == 0 {
		return Scale{}, ErrDegenerateCalibration
	}
	return Scale{degreesPerPixel: ReferenceDegrees / dist}, nil
}

// NewScale wraps a known degrees-per-pixel factor, which must be positive
// and finite.
func NewScale(degreesPerPixel float64) (Scale, error) {
	if !(degreesPerPixel > 0) || math.IsInf(degreesPerPixel, 1) {
		return Scale{}, fmt.Errorf("degrees per pixel must be positive and finite, got %v", degreesPerPixel)
	}
	return Scale{degreesPerPixel: degreesPerPixel}, nil
}

// DegreesPerPixel returns the factor.
func (s Scale) DegreesPerPixel() float64 { return s.degreesPerPixel }

// Degrees converts a pixel length to degrees.
func (s Scale) Degrees(px float64) float64 { return px * s.degreesPerPixel }

// Pixels converts an angle in degrees to a pixel length.
func (s Scale) Pixels(deg float64) float64 {
	if s.degreesPerPixel == 0 {
		return 0
	}
	return deg / s.degreesPerPixel
}

// Valid reports whether s came from a successful calibration.
func (s Scale) Valid() bool { return s.degreesPerPixel > 0 }

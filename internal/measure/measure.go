// Package measure turns accepted boundary curves into isoptères with a
// radius about the field centre, and reduces them to summary statistics.
package measure

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/visual-field-mcp/internal/calibration"
	"github.com/ironsheep/visual-field-mcp/internal/detection"
)

// Unit tags every radius and statistic.
type Unit string

const (
	UnitPixels  Unit = "pixels"
	UnitDegrees Unit = "degrees"
)

// RadiusMode selects how a curve's radius about the centre is measured.
type RadiusMode string

const (
	// RadiusBoundary averages the distance of the curve's edge from the
	// centre, weighted by arc length. A ring centred on fixation measures
	// its own radius.
	RadiusBoundary RadiusMode = "boundary"

	// RadiusCentroid is the distance from the curve's area-weighted
	// centroid to the centre. A ring centred on fixation measures ~0; this
	// measures how far an isoptère is displaced.
	RadiusCentroid RadiusMode = "centroid"
)

// ParseRadiusMode accepts "boundary" or "centroid" (case-insensitive).
// An empty string selects RadiusBoundary.
func ParseRadiusMode(s string) (RadiusMode, error) {
	switch RadiusMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", RadiusBoundary:
		return RadiusBoundary, nil
	case RadiusCentroid:
		return RadiusCentroid, nil
	}
	return "", fmt.Errorf("unknown radius mode %q (want boundary or centroid)", s)
}

// PointF is a sub-pixel image coordinate.
type PointF struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Isoptere is an accepted curve annotated with its position relative to the
// analysis centre. Distances are in Unit.
type Isoptere struct {
	Centroid       PointF            `json:"centroid"`
	CentroidOffset float64           `json:"centroid_offset"`
	Radius         float64           `json:"radius"`
	Unit           Unit              `json:"unit"`
	Area           float64           `json:"area_px"`
	Perimeter      float64           `json:"perimeter_px"`
	Circularity    float64           `json:"circularity"`
	Points         []detection.Point `json:"points,omitempty"`
}

// Measure annotates each curve. Radii are converted to degrees when scale is
// non-nil and valid, otherwise they stay in pixels.
//
// Curves with zero enclosed area have no centroid and are skipped. The
// output keeps the input order.
func Measure(curves []detection.Curve, center r2.Vec, scale *calibration.Scale, mode RadiusMode) []Isoptere {
	unit := UnitPixels
	conv := func(px float64) float64 { return px }
	if scale != nil && scale.Valid() {
		unit = UnitDegrees
		conv = scale.Degrees
	}

	out := make([]Isoptere, 0, len(curves))
	for _, c := range curves {
		centroid, ok := c.Centroid()
		if !ok {
			continue
		}
		offset := r2.Norm(r2.Sub(centroid, center))

		radius := offset
		if mode != RadiusCentroid {
			if d, ok := c.MeanBoundaryDistance(center); ok {
				radius = d
			}
		}

		out = append(out, Isoptere{
			Centroid:       PointF{X: centroid.X, Y: centroid.Y},
			CentroidOffset: conv(offset),
			Radius:         conv(radius),
			Unit:           unit,
			Area:           c.Area,
			Perimeter:      c.Perimeter,
			Circularity:    c.Circularity,
			Points:         c.Points,
		})
	}
	return out
}

// Stats summarises the radii of a set of isoptères.
type Stats struct {
	Unit       Unit    `json:"unit"`
	MeanRadius float64 `json:"mean_radius"`
	StdRadius  float64 `json:"std_radius"`
	Count      int     `json:"count"`
}

// Aggregate returns the mean and population standard deviation (divisor n)
// of the radii. ok is false when isos is empty; Stats is then zero and must
// be reported as "no isoptères detected", never as NaN.
//
// Mixing units is a programming error and panics.
func Aggregate(isos []Isoptere) (Stats, bool) {
	if len(isos) == 0 {
		return Stats{}, false
	}
	unit := isos[0].Unit
	radii := make([]float64, len(isos))
	for i, iso := range isos {
		if iso.Unit != unit {
			panic(fmt.Sprintf("measure: mixed units %s and %s", unit, iso.Unit))
		}
		radii[i] = iso.Radius
	}

	mean, std := stat.PopMeanStdDev(radii, nil)
	if math.IsNaN(std) {
		std = 0
	}
	return Stats{Unit: unit, MeanRadius: mean, StdRadius: std, Count: len(isos)}, true
}

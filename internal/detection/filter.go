package detection

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// Default acceptance thresholds for isoptère rings.
const (
	DefaultMinArea        = 100.0
	DefaultMinCircularity = 0.3
	DefaultMinAspect      = 0.2
	DefaultMaxAspect      = 5.0
)

// FilterOptions holds the acceptance predicate for candidate curves.
// Every enabled check must pass; comparisons are strict.
type FilterOptions struct {
	// MinArea rejects speckle and thin text strokes (square pixels).
	MinArea float64 `json:"min_area" yaml:"minArea"`

	// MinCircularity rejects axis lines and irregular artefacts.
	MinCircularity float64 `json:"min_circularity" yaml:"minCircularity"`

	// CheckAspect enables the bounding-box aspect ratio check.
	CheckAspect bool `json:"check_aspect" yaml:"checkAspect"`

	// MinAspect and MaxAspect bound width/height (exclusive).
	MinAspect float64 `json:"min_aspect" yaml:"minAspect"`
	MaxAspect float64 `json:"max_aspect" yaml:"maxAspect"`

	// Center and MaxDistance reject curves whose centroid lies MaxDistance
	// pixels or more away from Center. Disabled when Center is nil or
	// MaxDistance <= 0.
	Center      *r2.Vec `json:"-" yaml:"-"`
	MaxDistance float64 `json:"max_distance,omitempty" yaml:"-"`
}

// DefaultFilterOptions returns the documented defaults.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{
		MinArea:        DefaultMinArea,
		MinCircularity: DefaultMinCircularity,
		CheckAspect:    true,
		MinAspect:      DefaultMinAspect,
		MaxAspect:      DefaultMaxAspect,
	}
}

// Validate checks the thresholds.
func (o FilterOptions) Validate() error {
	if o.MinArea < 0 {
		return fmt.Errorf("min area must be >= 0, got %.1f", o.MinArea)
	}
	if o.MinCircularity < 0 {
		return fmt.Errorf("min circularity must be >= 0, got %.3f", o.MinCircularity)
	}
	if o.CheckAspect && (o.MinAspect < 0 || o.MaxAspect <= o.MinAspect) {
		return fmt.Errorf("aspect bounds (%.2f, %.2f) are not a valid interval", o.MinAspect, o.MaxAspect)
	}
	return nil
}

// Rejection names the first failed check for a curve. Empty means accepted.
type Rejection string

const (
	Accepted       Rejection = ""
	RejectArea     Rejection = "area"
	RejectRound    Rejection = "circularity"
	RejectAspect   Rejection = "aspect_ratio"
	RejectDistance Rejection = "distance"
)

// Check evaluates the acceptance predicate for one curve.
func (o FilterOptions) Check(c Curve) Rejection {
	if !(c.Area > o.MinArea) {
		return RejectArea
	}
	if !(c.Circularity > o.MinCircularity) {
		return RejectRound
	}
	if o.CheckAspect {
		ar := c.AspectRatio()
		if !(ar > o.MinAspect && ar < o.MaxAspect) {
			return RejectAspect
		}
	}
	if o.Center != nil && o.MaxDistance > 0 {
		centroid, ok := c.Centroid()
		if !ok || !(r2.Norm(r2.Sub(centroid, *o.Center)) < o.MaxDistance) {
			return RejectDistance
		}
	}
	return Accepted
}

// FilterCurves keeps the curves that pass every check, preserving order.
func FilterCurves(curves []Curve, opts FilterOptions) []Curve {
	kept := make([]Curve, 0, len(curves))
	for _, c := range curves {
		if opts.Check(c) == Accepted {
			kept = append(kept, c)
		}
	}
	return kept
}

package pipeline

import (
	"image"

	"github.com/ironsheep/visual-field-mcp/internal/calibration"
	"github.com/ironsheep/visual-field-mcp/internal/imaging"
	"github.com/ironsheep/visual-field-mcp/internal/interpret"
	"github.com/ironsheep/visual-field-mcp/internal/measure"
)

// Status tells apart a classified field from an empty one.
type Status string

const (
	StatusAnalyzed    Status = "analyzed"
	StatusNoIsopteres Status = "no_isopteres_detected"
)

// Result is the outcome of one analysis.
//
// With StatusNoIsopteres the statistics are zero, Count is 0 and Category
// is empty.
type Result struct {
	Status         Status             `json:"status"`
	Unit           measure.Unit       `json:"unit"`
	MeanRadius     float64            `json:"mean_radius"`
	StdRadius      float64            `json:"std_radius"`
	Count          int                `json:"count"`
	Category       interpret.Category `json:"category,omitempty"`
	Interpretation string             `json:"interpretation,omitempty"`

	// Center is the analysis center in image coordinates.
	Center image.Point `json:"center"`

	// DegreesPerPixel is 0 in pixel mode.
	DegreesPerPixel float64 `json:"degrees_per_pixel,omitempty"`

	Isopteres []measure.Isoptere `json:"isopteres"`

	// Diagnostics.
	RawCurves    int      `json:"raw_curves"`
	MaskPixels   int      `json:"mask_pixels"`
	LabelsMasked int      `json:"labels_masked,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
	Width        int      `json:"width"`
	Height       int      `json:"height"`
}

// Stats returns the aggregated statistics.
func (r *Result) Stats() measure.Stats {
	return measure.Stats{Unit: r.Unit, MeanRadius: r.MeanRadius, StdRadius: r.StdRadius, Count: r.Count}
}

// WithoutPoints returns a shallow copy whose isoptères carry no polygon
// vertices, for compact responses.
func (r *Result) WithoutPoints() *Result {
	c := *r
	c.Isopteres = make([]measure.Isoptere, len(r.Isopteres))
	for i, iso := range r.Isopteres {
		iso.Points = nil
		c.Isopteres[i] = iso
	}
	return &c
}

// Overlay describes the annotation for this result: accepted isoptères,
// the center and, when calibrated, the 90° reference circle.
func (r *Result) Overlay() imaging.Overlay {
	curves := make([][]image.Point, len(r.Isopteres))
	for i, iso := range r.Isopteres {
		pts := make([]image.Point, len(iso.Points))
		for j, p := range iso.Points {
			pts[j] = image.Pt(p.X, p.Y)
		}
		curves[i] = pts
	}

	center := r.Center
	stats := r.Stats()
	o := imaging.Overlay{
		Curves: curves,
		Center: &center,
		Label:  imaging.FormatLabel(string(r.Category), stats.MeanRadius, stats.StdRadius, string(stats.Unit), stats.Count),
	}
	if scale, err := calibration.NewScale(r.DegreesPerPixel); err == nil {
		o.ReferenceRadius = scale.Pixels(calibration.ReferenceDegrees)
	}
	return o
}

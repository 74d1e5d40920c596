// Package pipeline runs the chart analysis end to end: colour segmentation,
// optional label masking, contour extraction, shape filtering, radial
// measurement, aggregation and classification.
//
// An Analyzer holds only read-only configuration and collaborators, so one
// instance may serve concurrent requests. Every call is independent and
// deterministic for the same input.
package pipeline

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ironsheep/visual-field-mcp/internal/calibration"
	"github.com/ironsheep/visual-field-mcp/internal/detection"
	"github.com/ironsheep/visual-field-mcp/internal/interpret"
	"github.com/ironsheep/visual-field-mcp/internal/measure"
	"github.com/ironsheep/visual-field-mcp/internal/ocr"
	"github.com/ironsheep/visual-field-mcp/internal/segment"
)

// ErrMalformedImage is returned for a nil image or one with zero width or
// height. No stage runs in that case.
var ErrMalformedImage = errors.New("malformed image: zero width or height")

// Input is one analysis request.
//
// All coordinates are relative to the top-left corner of Image, whatever
// its bounds' Min.
type Input struct {
	Image image.Image

	// Calibration switches to degree units. Its Center is also the
	// analysis center.
	Calibration *calibration.Points

	// Center is used when Calibration is nil. Defaults to (w/2, h/2).
	Center *image.Point
}

// Analyzer runs the pipeline with a fixed configuration.
type Analyzer struct {
	cfg       Config
	extractor detection.Extractor
	labeler   ocr.Labeler
	log       logrus.FieldLogger

	// notes are backend fallbacks decided at construction, reported as
	// warnings on every result.
	notes []string
}

// Option customises an Analyzer.
type Option func(*Analyzer)

// WithExtractor replaces the contour extractor chosen from Config.Backend.
func WithExtractor(e detection.Extractor) Option {
	return func(a *Analyzer) { a.extractor = e }
}

// WithLabeler sets the OCR labeler used when Config.MaskLabels is true.
func WithLabeler(l ocr.Labeler) Option {
	return func(a *Analyzer) { a.labeler = l }
}

// WithLogger sets the logger for stage summaries. The default discards.
func WithLogger(l logrus.FieldLogger) Option {
	return func(a *Analyzer) { a.log = l }
}

// New validates cfg and builds an Analyzer.
//
// Optional backends that are not compiled in are replaced: OpenCV falls
// back to the native tracer and missing OCR disables label masking. Both
// are logged and reported as result warnings.
func New(cfg Config, opts ...Option) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	if cfg.RadiusMode == "" {
		cfg.RadiusMode = measure.RadiusBoundary
	}

	quiet := logrus.New()
	quiet.Out = io.Discard
	a := &Analyzer{cfg: cfg, log: quiet}
	for _, opt := range opts {
		opt(a)
	}
	log := a.log.WithField("component", "pipeline")

	if a.extractor == nil {
		a.extractor = detection.NativeExtractor{}
		if cfg.Backend == BackendOpenCV {
			cv, err := detection.NewOpenCVExtractor()
			if err != nil {
				log.WithError(err).Warn("OpenCV backend unavailable, using native contour tracer")
				a.notes = append(a.notes, "opencv backend unavailable; native contour tracer used")
			} else {
				a.extractor = cv
			}
		}
	}

	if cfg.MaskLabels && a.labeler == nil {
		tess, err := ocr.NewTesseract(cfg.OCR)
		if err != nil {
			log.WithError(err).Warn("OCR unavailable, label masking disabled")
			a.notes = append(a.notes, "label masking unavailable: "+err.Error())
		} else {
			a.labeler = tess
		}
	}

	return a, nil
}

// Config returns a copy of the configuration.
func (a *Analyzer) Config() Config { return a.cfg }

// Mask returns the cleaned colour mask for in.Image, after label masking.
// Useful to tune the colour rule.
func (a *Analyzer) Mask(in Input) (*segment.Mask, error) {
	if err := checkImage(in.Image); err != nil {
		return nil, err
	}
	mask, _, _ := a.mask(in.Image)
	return mask, nil
}

// Analyze runs the full pipeline.
//
// Only ErrMalformedImage and extractor failures are returned as errors. A
// degenerate calibration is reported as a warning and the analysis continues
// in pixels; finding no isoptères yields Status StatusNoIsopteres.
func (a *Analyzer) Analyze(in Input) (*Result, error) {
	if err := checkImage(in.Image); err != nil {
		return nil, err
	}
	log := a.log.WithField("component", "pipeline")
	b := in.Image.Bounds()
	w, h := b.Dx(), b.Dy()

	res := &Result{
		Width:    w,
		Height:   h,
		Unit:     measure.UnitPixels,
		Warnings: append([]string{}, a.notes...),
	}

	var scale *calibration.Scale
	if in.Calibration != nil {
		s, err := in.Calibration.Scale()
		if err != nil {
			log.WithError(err).Warn("calibration rejected, reporting in pixels")
			res.Warnings = append(res.Warnings, err.Error()+"; falling back to pixel units")
		} else {
			scale = &s
			res.Unit = measure.UnitDegrees
			res.DegreesPerPixel = s.DegreesPerPixel()
		}
	}

	res.Center = image.Pt(w/2, h/2)
	switch {
	case in.Calibration != nil:
		res.Center = in.Calibration.Center
	case in.Center != nil:
		res.Center = *in.Center
	}
	center := r2.Vec{X: float64(res.Center.X), Y: float64(res.Center.Y)}

	mask, masked, warn := a.mask(in.Image)
	if warn != "" {
		res.Warnings = append(res.Warnings, warn)
	}
	res.MaskPixels = mask.Count()
	res.LabelsMasked = masked

	curves, err := a.extractor.Extract(mask)
	if err != nil {
		return nil, fmt.Errorf("contour extraction failed: %w", err)
	}
	res.RawCurves = len(curves)

	fo := a.cfg.filterOptions()
	fo.Center = &center
	if scale != nil {
		if a.cfg.Filter.MaxDistanceDegrees > 0 {
			fo.MaxDistance = scale.Pixels(a.cfg.Filter.MaxDistanceDegrees)
		}
	} else {
		fo.MaxDistance = a.cfg.Filter.MaxDistancePixels
	}
	accepted := detection.FilterCurves(curves, fo)

	res.Isopteres = measure.Measure(accepted, center, scale, a.cfg.RadiusMode)
	stats, ok := measure.Aggregate(res.Isopteres)

	log.WithFields(logrus.Fields{
		"mask_pixels": res.MaskPixels,
		"curves":      res.RawCurves,
		"accepted":    len(accepted),
		"unit":        res.Unit,
	}).Debug("analysis stages complete")

	if !ok {
		res.Status = StatusNoIsopteres
		return res, nil
	}

	res.Status = StatusAnalyzed
	res.MeanRadius = stats.MeanRadius
	res.StdRadius = stats.StdRadius
	res.Count = stats.Count
	res.Category = interpret.ClassifyStats(stats, w, h, a.cfg.Thresholds)
	res.Interpretation = res.Category.Interpretation()
	return res, nil
}

// mask segments img and clears OCR word boxes. It returns the mask, the
// number of boxes cleared and a warning when OCR failed.
func (a *Analyzer) mask(img image.Image) (*segment.Mask, int, string) {
	mask := segment.Segment(img, a.cfg.Segment)
	if !a.cfg.MaskLabels || a.labeler == nil || mask.Empty() {
		return mask, 0, ""
	}

	regions, err := a.labeler.Labels(img)
	if err != nil {
		a.log.WithField("component", "pipeline").WithError(err).Warn("label detection failed")
		return mask, 0, "label masking skipped: " + err.Error()
	}

	b := img.Bounds()
	rects := ocr.Rects(regions, a.cfg.OCR.MinConfidence, a.cfg.OCR.Padding, b)
	for _, r := range rects {
		mask = mask.ClearRect(r.Sub(b.Min))
	}
	return mask, len(rects), ""
}

func checkImage(img image.Image) error {
	if img == nil {
		return ErrMalformedImage
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return fmt.Errorf("%w (got %dx%d)", ErrMalformedImage, b.Dx(), b.Dy())
	}
	return nil
}

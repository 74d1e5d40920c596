package pipeline

import (
	"errors"
	"image"
	"image/color"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/visual-field-mcp/internal/calibration"
	"github.com/ironsheep/visual-field-mcp/internal/detection"
	"github.com/ironsheep/visual-field-mcp/internal/interpret"
	"github.com/ironsheep/visual-field-mcp/internal/measure"
	"github.com/ironsheep/visual-field-mcp/internal/ocr"
	"github.com/ironsheep/visual-field-mcp/internal/segment"
)

var red = color.RGBA{R: 220, G: 20, B: 20, A: 255}

// chart returns a white 400×400 image.
func chart() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 400, 400))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

// ring paints the annulus inner <= d <= outer around (cx, cy).
func ring(img *image.RGBA, cx, cy, inner, outer int) {
	for y := cy - outer; y <= cy+outer; y++ {
		for x := cx - outer; x <= cx+outer; x++ {
			d := math.Hypot(float64(x-cx), float64(y-cy))
			if d >= float64(inner) && d <= float64(outer) {
				img.Set(x, y, red)
			}
		}
	}
}

// centred calibration: (200,200) → (380,200) is 180 px for 90°, 0.5°/px.
func centred() *calibration.Points {
	return &calibration.Points{Center: image.Pt(200, 200), Reference: image.Pt(380, 200)}
}

func newAnalyzer(t *testing.T, cfg Config, opts ...Option) *Analyzer {
	t.Helper()
	a, err := New(cfg, opts...)
	require.NoError(t, err)
	return a
}

func TestAnalyze_TwoRingsAsymmetric(t *testing.T) {
	img := chart()
	ring(img, 200, 200, 36, 44)   // ~22°
	ring(img, 200, 200, 156, 164) // ~82°

	res, err := newAnalyzer(t, DefaultConfig()).Analyze(Input{Image: img, Calibration: centred()})
	require.NoError(t, err)

	assert.Equal(t, StatusAnalyzed, res.Status)
	assert.Equal(t, measure.UnitDegrees, res.Unit)
	assert.InDelta(t, 0.5, res.DegreesPerPixel, 1e-9)
	require.Equal(t, 2, res.Count)
	require.Len(t, res.Isopteres, 2)

	// Outer ring first in discovery order.
	assert.InDelta(t, 82, res.Isopteres[0].Radius, 2)
	assert.InDelta(t, 22, res.Isopteres[1].Radius, 2)
	assert.InDelta(t, 52, res.MeanRadius, 2)
	assert.InDelta(t, 30, res.StdRadius, 1)
	assert.Equal(t, interpret.AsymmetricField, res.Category)
	assert.NotEmpty(t, res.Interpretation)
	assert.Empty(t, res.Warnings)
}

func TestAnalyze_SmallRingConcentric(t *testing.T) {
	img := chart()
	ring(img, 200, 200, 36, 44)

	res, err := newAnalyzer(t, DefaultConfig()).Analyze(Input{Image: img, Calibration: centred()})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Count)
	assert.InDelta(t, 22, res.MeanRadius, 2)
	assert.Zero(t, res.StdRadius)
	assert.Equal(t, interpret.ConcentricConstriction, res.Category)
}

func TestAnalyze_WideRingNormal(t *testing.T) {
	img := chart()
	ring(img, 200, 200, 116, 124) // ~62°

	res, err := newAnalyzer(t, DefaultConfig()).Analyze(Input{Image: img, Calibration: centred()})
	require.NoError(t, err)

	assert.InDelta(t, 62, res.MeanRadius, 2)
	assert.Equal(t, interpret.NormalField, res.Category)
}

func TestAnalyze_PixelMode(t *testing.T) {
	a := newAnalyzer(t, DefaultConfig())

	// Concentric limit in pixels: 0.4 × 400 = 160.
	small := chart()
	ring(small, 200, 200, 116, 124)
	res, err := a.Analyze(Input{Image: small})
	require.NoError(t, err)
	assert.Equal(t, measure.UnitPixels, res.Unit)
	assert.Zero(t, res.DegreesPerPixel)
	assert.InDelta(t, 123, res.MeanRadius, 3)
	assert.Equal(t, interpret.ConcentricConstriction, res.Category)

	large := chart()
	ring(large, 200, 200, 166, 174)
	res, err = a.Analyze(Input{Image: large})
	require.NoError(t, err)
	assert.InDelta(t, 173, res.MeanRadius, 3)
	assert.Equal(t, interpret.NormalField, res.Category)
}

func TestAnalyze_NoIsopteres(t *testing.T) {
	res, err := newAnalyzer(t, DefaultConfig()).Analyze(Input{Image: chart(), Calibration: centred()})
	require.NoError(t, err)

	assert.Equal(t, StatusNoIsopteres, res.Status)
	assert.Zero(t, res.Count)
	assert.Empty(t, res.Category)
	assert.Empty(t, res.Interpretation)
	assert.False(t, math.IsNaN(res.MeanRadius))
	assert.False(t, math.IsNaN(res.StdRadius))
	assert.Equal(t, measure.UnitDegrees, res.Unit)
	assert.NotNil(t, res.Isopteres)
}

func TestAnalyze_MalformedImage(t *testing.T) {
	a := newAnalyzer(t, DefaultConfig())

	_, err := a.Analyze(Input{})
	assert.ErrorIs(t, err, ErrMalformedImage)

	_, err = a.Analyze(Input{Image: image.NewRGBA(image.Rect(0, 0, 0, 10))})
	assert.ErrorIs(t, err, ErrMalformedImage)

	_, err = a.Mask(Input{Image: image.NewRGBA(image.Rect(0, 0, 10, 0))})
	assert.ErrorIs(t, err, ErrMalformedImage)
}

func TestAnalyze_DegenerateCalibrationFallsBackToPixels(t *testing.T) {
	img := chart()
	ring(img, 200, 200, 116, 124)

	res, err := newAnalyzer(t, DefaultConfig()).Analyze(Input{
		Image:       img,
		Calibration: &calibration.Points{Center: image.Pt(200, 200), Reference: image.Pt(200, 200)},
	})
	require.NoError(t, err)

	assert.Equal(t, measure.UnitPixels, res.Unit)
	assert.Zero(t, res.DegreesPerPixel)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "pixel")
	assert.Equal(t, image.Pt(200, 200), res.Center)
	assert.InDelta(t, 123, res.MeanRadius, 3)
}

func TestAnalyze_CenterPrecedence(t *testing.T) {
	img := chart()
	ring(img, 200, 200, 116, 124)
	a := newAnalyzer(t, DefaultConfig())
	explicit := image.Pt(150, 160)

	res, err := a.Analyze(Input{Image: img})
	require.NoError(t, err)
	assert.Equal(t, image.Pt(200, 200), res.Center)

	res, err = a.Analyze(Input{Image: img, Center: &explicit})
	require.NoError(t, err)
	assert.Equal(t, explicit, res.Center)

	cal := &calibration.Points{Center: image.Pt(210, 200), Reference: image.Pt(390, 200)}
	res, err = a.Analyze(Input{Image: img, Center: &explicit, Calibration: cal})
	require.NoError(t, err)
	assert.Equal(t, image.Pt(210, 200), res.Center)
}

func TestAnalyze_MaxDistanceDropsStrayMarks(t *testing.T) {
	img := chart()
	ring(img, 200, 200, 116, 124)
	ring(img, 30, 30, 0, 15) // blob ~240 px (120°) from centre

	res, err := newAnalyzer(t, DefaultConfig()).Analyze(Input{Image: img, Calibration: centred()})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)

	cfg := DefaultConfig()
	cfg.Filter.MaxDistanceDegrees = 90
	res, err = newAnalyzer(t, cfg).Analyze(Input{Image: img, Calibration: centred()})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, 2, res.RawCurves)
}

func TestAnalyze_CentroidRadiusMode(t *testing.T) {
	img := chart()
	ring(img, 200, 200, 116, 124)

	cfg := DefaultConfig()
	cfg.RadiusMode = measure.RadiusCentroid
	res, err := newAnalyzer(t, cfg).Analyze(Input{Image: img, Calibration: centred()})
	require.NoError(t, err)

	require.Equal(t, 1, res.Count)
	assert.Less(t, res.MeanRadius, 1.0)
	assert.Equal(t, interpret.ConcentricConstriction, res.Category)
}

type fakeLabeler struct {
	regions []ocr.Region
	err     error
	calls   int
}

func (f *fakeLabeler) Labels(image.Image) ([]ocr.Region, error) {
	f.calls++
	return f.regions, f.err
}

func TestAnalyze_LabelMaskingClearsWords(t *testing.T) {
	img := chart()
	ring(img, 200, 200, 156, 164)
	ring(img, 200, 200, 36, 44)

	cfg := DefaultConfig()
	cfg.MaskLabels = true
	lab := &fakeLabeler{regions: []ocr.Region{
		{Text: "V4e", Confidence: 0.9, Bounds: image.Rect(150, 150, 251, 251)},
		{Text: "??", Confidence: 0.1, Bounds: image.Rect(0, 0, 400, 400)},
	}}

	res, err := newAnalyzer(t, cfg, WithLabeler(lab)).Analyze(Input{Image: img, Calibration: centred()})
	require.NoError(t, err)

	assert.Equal(t, 1, lab.calls)
	assert.Equal(t, 1, res.LabelsMasked)
	require.Equal(t, 1, res.Count)
	assert.InDelta(t, 82, res.MeanRadius, 2)
}

func TestAnalyze_LabelerFailureIsWarning(t *testing.T) {
	img := chart()
	ring(img, 200, 200, 116, 124)

	cfg := DefaultConfig()
	cfg.MaskLabels = true
	lab := &fakeLabeler{err: errors.New("tesseract crashed")}

	res, err := newAnalyzer(t, cfg, WithLabeler(lab)).Analyze(Input{Image: img})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "tesseract crashed")
}

func TestAnalyze_LabelerNotCalledWhenDisabled(t *testing.T) {
	img := chart()
	ring(img, 200, 200, 116, 124)
	lab := &fakeLabeler{}

	_, err := newAnalyzer(t, DefaultConfig(), WithLabeler(lab)).Analyze(Input{Image: img})
	require.NoError(t, err)
	assert.Zero(t, lab.calls)
}

type failingExtractor struct{}

func (failingExtractor) Extract(*segment.Mask) ([]detection.Curve, error) {
	return nil, errors.New("boom")
}

func TestAnalyze_ExtractorErrorIsReturned(t *testing.T) {
	img := chart()
	ring(img, 200, 200, 116, 124)

	_, err := newAnalyzer(t, DefaultConfig(), WithExtractor(failingExtractor{})).Analyze(Input{Image: img})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestAnalyze_DeterministicAndConcurrent(t *testing.T) {
	img := chart()
	ring(img, 200, 200, 36, 44)
	ring(img, 200, 200, 156, 164)
	before := append([]uint8(nil), img.Pix...)
	a := newAnalyzer(t, DefaultConfig())

	want, err := a.Analyze(Input{Image: img, Calibration: centred()})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = a.Analyze(Input{Image: img, Calibration: centred()})
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
	assert.Equal(t, before, img.Pix, "input image must not be modified")
}

func TestAnalyze_ShiftedBoundsUseLocalCoordinates(t *testing.T) {
	img := chart()
	ring(img, 200, 200, 116, 124)
	sub := img.SubImage(image.Rect(50, 50, 350, 350))

	res, err := newAnalyzer(t, DefaultConfig()).Analyze(Input{Image: sub})
	require.NoError(t, err)
	assert.Equal(t, 300, res.Width)
	assert.Equal(t, image.Pt(150, 150), res.Center)
	assert.InDelta(t, 123, res.MeanRadius, 3)
}

func TestMask(t *testing.T) {
	img := chart()
	ring(img, 200, 200, 116, 124)

	m, err := newAnalyzer(t, DefaultConfig()).Mask(Input{Image: img})
	require.NoError(t, err)
	assert.Equal(t, 400, m.Width)
	assert.True(t, m.At(200, 80))
	assert.False(t, m.At(200, 200))
}

func TestNew_OpenCVBackendFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = BackendOpenCV
	a := newAnalyzer(t, cfg)

	if _, err := detection.NewOpenCVExtractor(); err == nil {
		t.Skip("built with OpenCV support")
	}
	img := chart()
	ring(img, 200, 200, 116, 124)
	res, err := a.Analyze(Input{Image: img})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "opencv")
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = "gpu"
	_, err := New(cfg)
	assert.Error(t, err)
}

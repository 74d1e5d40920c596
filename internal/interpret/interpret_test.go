package interpret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/visual-field-mcp/internal/measure"
)

func TestClassify_Degrees(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name string
		mean float64
		std  float64
		want Category
	}{
		{"well inside", 20, 0, ConcentricConstriction},
		{"just below limit", 39.999, 0, ConcentricConstriction},
		{"exactly at limit", 40, 0, NormalField},
		{"just above limit", 40.001, 0, NormalField},
		{"constriction wins over asymmetry", 20, 19, ConcentricConstriction},
		{"asymmetric", 50, 30, AsymmetricField},
		{"std exactly at ratio", 50, 15, NormalField},
		{"std just above ratio", 50, 15.001, AsymmetricField},
		{"normal", 70, 5, NormalField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Image size must not matter in degree mode.
			got := Classify(tt.mean, tt.std, measure.UnitDegrees, 10, 10, th)
			assert.Equal(t, tt.want, got)
			got = Classify(tt.mean, tt.std, measure.UnitDegrees, 4000, 3000, th)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_Pixels(t *testing.T) {
	th := DefaultThresholds()
	// Limit is 0.4 × 500 = 200 for a 500×300 image.
	const w, h = 500, 300

	tests := []struct {
		name string
		mean float64
		std  float64
		want Category
	}{
		{"below limit", 199, 0, ConcentricConstriction},
		{"at limit", 200, 0, NormalField},
		{"40 pixels is small", 40, 0, ConcentricConstriction},
		{"asymmetric", 250, 100, AsymmetricField},
		{"normal", 250, 10, NormalField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.mean, tt.std, measure.UnitPixels, w, h, th))
		})
	}
}

func TestClassify_PixelLimitUsesLongerSide(t *testing.T) {
	th := DefaultThresholds()
	assert.Equal(t, 200.0, th.ConcentricLimit(measure.UnitPixels, 300, 500))
	assert.Equal(t, 200.0, th.ConcentricLimit(measure.UnitPixels, 500, 300))
	assert.Equal(t, 40.0, th.ConcentricLimit(measure.UnitDegrees, 500, 300))
}

func TestClassifyStats(t *testing.T) {
	s := measure.Stats{Unit: measure.UnitDegrees, MeanRadius: 50, StdRadius: 30, Count: 2}
	assert.Equal(t, AsymmetricField, ClassifyStats(s, 400, 400, DefaultThresholds()))
}

func TestCategory_Interpretation(t *testing.T) {
	for _, c := range []Category{ConcentricConstriction, AsymmetricField, NormalField} {
		assert.NotEmpty(t, c.Interpretation(), string(c))
	}
	assert.Empty(t, Category("").Interpretation())
}

func TestThresholds_Validate(t *testing.T) {
	require.NoError(t, DefaultThresholds().Validate())

	bad := DefaultThresholds()
	bad.AsymmetryRatio = -0.1
	assert.Error(t, bad.Validate())
}

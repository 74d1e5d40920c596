//go:build gocv
// +build gocv

package detection

import (
	"testing"

	"github.com/ironsheep/visual-field-mcp/internal/segment"
)

func TestOpenCVExtractor_NestedRingsAreSeparateRegions(t *testing.T) {
	m := segment.NewMask(200, 200)
	fillRing(m, 100, 100, 78, 82)
	fillRing(m, 100, 100, 28, 32)

	e, err := NewOpenCVExtractor()
	if err != nil {
		t.Fatalf("NewOpenCVExtractor: %v", err)
	}
	curves, err := e.Extract(m)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(curves) != 2 {
		t.Fatalf("Two disjoint rings should give 2 curves, got %d", len(curves))
	}
	if curves[0].Area <= curves[1].Area {
		t.Errorf("Expected outer ring first: areas %.1f, %.1f", curves[0].Area, curves[1].Area)
	}
}

func TestOpenCVExtractor_MatchesNativeTracer(t *testing.T) {
	m := segment.NewMask(200, 200)
	fillRing(m, 100, 100, 78, 82)
	fillRing(m, 100, 100, 28, 32)
	fillRect(m, 5, 5, 20, 20)

	native := FindCurves(m)
	e, _ := NewOpenCVExtractor()
	cv, err := e.Extract(m)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(cv) != len(native) {
		t.Fatalf("OpenCV found %d curves, native %d", len(cv), len(native))
	}
	for i := range native {
		if diff := cv[i].Area - native[i].Area; diff > 0.02*native[i].Area || diff < -0.02*native[i].Area {
			t.Errorf("curve %d: area %.1f (OpenCV) vs %.1f (native)", i, cv[i].Area, native[i].Area)
		}
	}
}

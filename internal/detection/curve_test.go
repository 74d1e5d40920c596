package detection

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func square(x, y, side int) []Point {
	return []Point{{x, y}, {x + side, y}, {x + side, y + side}, {x, y + side}}
}

func TestNewCurve_Square(t *testing.T) {
	c := NewCurve(square(0, 0, 10))

	if c.Area != 100 {
		t.Errorf("Area: got %.2f, want 100", c.Area)
	}
	if c.Perimeter != 40 {
		t.Errorf("Perimeter: got %.2f, want 40", c.Perimeter)
	}
	if want := math.Pi / 4; math.Abs(c.Circularity-want) > 1e-12 {
		t.Errorf("Circularity: got %.4f, want %.4f", c.Circularity, want)
	}
	if c.AspectRatio() != 1 {
		t.Errorf("AspectRatio: got %.2f, want 1", c.AspectRatio())
	}

	centroid, ok := c.Centroid()
	if !ok {
		t.Fatal("Square should have a centroid")
	}
	if math.Abs(centroid.X-5) > 1e-9 || math.Abs(centroid.Y-5) > 1e-9 {
		t.Errorf("Centroid: got (%.3f, %.3f), want (5, 5)", centroid.X, centroid.Y)
	}
}

func TestNewCurve_Empty(t *testing.T) {
	c := NewCurve(nil)
	if c.Area != 0 || c.Perimeter != 0 || c.Circularity != 0 {
		t.Errorf("Empty curve should have zero geometry, got %+v", c)
	}
	if c.AspectRatio() != 0 {
		t.Errorf("Empty curve aspect ratio: got %.2f, want 0", c.AspectRatio())
	}
	if _, ok := c.MeanBoundaryDistance(r2.Vec{}); ok {
		t.Error("Empty curve should have no boundary distance")
	}
}

func TestCentroid_OrientationIndependent(t *testing.T) {
	pts := []Point{{0, 0}, {30, 0}, {30, 10}, {10, 10}, {10, 30}, {0, 30}}
	rev := make([]Point, len(pts))
	for i, p := range pts {
		rev[len(pts)-1-i] = p
	}

	a, okA := NewCurve(pts).Centroid()
	b, okB := NewCurve(rev).Centroid()
	if !okA || !okB {
		t.Fatal("L-shape should have a centroid in both orientations")
	}
	if math.Abs(a.X-b.X) > 1e-9 || math.Abs(a.Y-b.Y) > 1e-9 {
		t.Errorf("Centroid depends on orientation: %v vs %v", a, b)
	}
	if NewCurve(pts).Area != NewCurve(rev).Area {
		t.Error("Area depends on orientation")
	}
}

func TestCircularity_Invariance(t *testing.T) {
	// An octagon-ish blob traced from a rasterized disk.
	base := []Point{{10, 0}, {17, 3}, {20, 10}, {17, 17}, {10, 20}, {3, 17}, {0, 10}, {3, 3}}
	ref := NewCurve(base)

	t.Run("translation", func(t *testing.T) {
		moved := make([]Point, len(base))
		for i, p := range base {
			moved[i] = Point{p.X + 137, p.Y + 42}
		}
		c := NewCurve(moved)
		if math.Abs(c.Circularity-ref.Circularity) > 1e-9 {
			t.Errorf("Circularity changed under translation: %.6f vs %.6f", c.Circularity, ref.Circularity)
		}
		a, _ := ref.Centroid()
		b, _ := c.Centroid()
		if math.Abs(b.X-a.X-137) > 1e-9 || math.Abs(b.Y-a.Y-42) > 1e-9 {
			t.Errorf("Centroid did not follow translation: %v -> %v", a, b)
		}
	})

	t.Run("quarter rotation", func(t *testing.T) {
		rotated := make([]Point, len(base))
		for i, p := range base {
			rotated[i] = Point{-p.Y, p.X}
		}
		c := NewCurve(rotated)
		if math.Abs(c.Circularity-ref.Circularity) > 1e-9 {
			t.Errorf("Circularity changed under rotation: %.6f vs %.6f", c.Circularity, ref.Circularity)
		}
		if math.Abs(c.Area-ref.Area) > 1e-9 {
			t.Errorf("Area changed under rotation: %.3f vs %.3f", c.Area, ref.Area)
		}
	})
}

func TestCircularity(t *testing.T) {
	tests := []struct {
		name      string
		area      float64
		perimeter float64
		want      float64
	}{
		{"zero perimeter", 10, 0, 0},
		{"zero area", 0, 10, 0},
		{"unit circle", math.Pi, 2 * math.Pi, 1},
		{"square", 100, 40, math.Pi / 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Circularity(tt.area, tt.perimeter); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Circularity(%.2f, %.2f) = %.6f, want %.6f", tt.area, tt.perimeter, got, tt.want)
			}
		})
	}
}

func TestMeanBoundaryDistance(t *testing.T) {
	c := NewCurve(square(0, 0, 10))

	d, ok := c.MeanBoundaryDistance(r2.Vec{X: 5, Y: 5})
	if !ok {
		t.Fatal("Expected a boundary distance")
	}
	if math.Abs(d-5) > 1e-9 {
		t.Errorf("Mean boundary distance from centre: got %.3f, want 5", d)
	}

	// Edge midpoints sit between 95 and 105 px from a point far below.
	far, _ := c.MeanBoundaryDistance(r2.Vec{X: 5, Y: 105})
	if far < 95 || far > 106 {
		t.Errorf("Distance from an off-centre point: got %.2f, want about 100", far)
	}
}

func TestBounds(t *testing.T) {
	b := Bounds{X1: 5, Y1: 5, X2: 5, Y2: 5}
	if b.Width() != 1 || b.Height() != 1 {
		t.Errorf("Single pixel bounds: got %dx%d, want 1x1", b.Width(), b.Height())
	}

	c := NewCurve([]Point{{2, 3}, {12, 3}, {12, 8}, {2, 8}})
	want := Bounds{X1: 2, Y1: 3, X2: 12, Y2: 8}
	if c.Bounds != want {
		t.Errorf("Bounds: got %+v, want %+v", c.Bounds, want)
	}
	if got := c.AspectRatio(); math.Abs(got-11.0/6.0) > 1e-12 {
		t.Errorf("AspectRatio: got %.4f, want %.4f", got, 11.0/6.0)
	}
}

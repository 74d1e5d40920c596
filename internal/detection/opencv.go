//go:build gocv
// +build gocv

package detection

import (
	"fmt"
	"sort"

	"gocv.io/x/gocv"

	"github.com/ironsheep/visual-field-mcp/internal/segment"
)

// OpenCVExtractor extracts region boundaries with OpenCV's findContours.
type OpenCVExtractor struct{}

// NewOpenCVExtractor returns the OpenCV-backed extractor.
func NewOpenCVExtractor() (*OpenCVExtractor, error) {
	return &OpenCVExtractor{}, nil
}

// Extract implements Extractor.
//
// RetrievalCComp puts every outer boundary at the top of the hierarchy,
// including regions that sit inside another region's hole, and hole
// boundaries one level below. Only the top level is kept, which matches
// the native tracer: one curve per 8-connected region, nested rings
// included. Curves are returned in raster order of their top-left pixel.
func (e *OpenCVExtractor) Extract(mask *segment.Mask) ([]Curve, error) {
	if mask == nil || mask.Width == 0 || mask.Height == 0 {
		return nil, nil
	}

	data := mask.Gray().Pix
	mat, err := gocv.NewMatFromBytes(mask.Height, mask.Width, gocv.MatTypeCV8U, data)
	if err != nil {
		return nil, fmt.Errorf("failed to build mask matrix: %w", err)
	}
	defer mat.Close()

	hierarchy := gocv.NewMat()
	defer hierarchy.Close()

	contours := gocv.FindContoursWithParams(mat, &hierarchy, gocv.RetrievalCComp, gocv.ChainApproxSimple)
	defer contours.Close()

	type found struct {
		start Point
		curve Curve
	}
	outer := make([]found, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		// Each hierarchy entry is [next, previous, first child, parent].
		if parent := hierarchy.GetVeciAt(0, i)[3]; parent >= 0 {
			continue
		}
		pts := contours.At(i).ToPoints()
		if len(pts) == 0 {
			continue
		}
		points := make([]Point, len(pts))
		start := Point{X: pts[0].X, Y: pts[0].Y}
		for j, p := range pts {
			points[j] = Point{X: p.X, Y: p.Y}
			if p.Y < start.Y || (p.Y == start.Y && p.X < start.X) {
				start = points[j]
			}
		}
		outer = append(outer, found{start: start, curve: NewCurve(points)})
	}

	sort.SliceStable(outer, func(a, b int) bool {
		if outer[a].start.Y != outer[b].start.Y {
			return outer[a].start.Y < outer[b].start.Y
		}
		return outer[a].start.X < outer[b].start.X
	})

	curves := make([]Curve, len(outer))
	for i, f := range outer {
		curves[i] = f.curve
	}
	return curves, nil
}

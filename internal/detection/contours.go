package detection

import (
	"errors"

	"github.com/ironsheep/visual-field-mcp/internal/segment"
)

// ErrOpenCVUnavailable is returned by the OpenCV extractor when the binary
// was built without the gocv build tag.
var ErrOpenCVUnavailable = errors.New("gocv build tag is not enabled")

// Extractor turns a mask into the outer boundary curves of its connected
// regions. Implementations must be deterministic for a fixed mask.
type Extractor interface {
	Extract(mask *segment.Mask) ([]Curve, error)
}

// NativeExtractor traces external contours in pure Go.
type NativeExtractor struct{}

// Extract implements Extractor. It never fails.
func (NativeExtractor) Extract(mask *segment.Mask) ([]Curve, error) {
	return FindCurves(mask), nil
}

// moore lists the 8 neighbour offsets clockwise (y grows downward),
// starting from west.
var moore = [8]Point{
	{X: -1, Y: 0},  // W
	{X: -1, Y: -1}, // NW
	{X: 0, Y: -1},  // N
	{X: 1, Y: -1},  // NE
	{X: 1, Y: 0},   // E
	{X: 1, Y: 1},   // SE
	{X: 0, Y: 1},   // S
	{X: -1, Y: 1},  // SW
}

func mooreIndex(dx, dy int) int {
	for i, d := range moore {
		if d.X == dx && d.Y == dy {
			return i
		}
	}
	return 0
}

// FindCurves extracts the external contour of every 8-connected region of
// the mask, in raster discovery order (top-to-bottom, left-to-right by each
// region's first pixel). Holes inside a region are not traced.
//
// # Algorithm
//
//  1. Raster scan for an unvisited selected pixel; it is the top-left pixel
//     of a new region, so its west neighbour is background.
//  2. Moore-neighbour boundary following from that pixel, stopping when the
//     start pixel is left in the same direction as the first move (Jacob's
//     criterion).
//  3. Flood-fill the whole region as visited so inner pixels and holes are
//     never picked up as new regions.
//  4. Drop collinear vertices (chain compression); this changes neither area
//     nor perimeter.
func FindCurves(mask *segment.Mask) []Curve {
	if mask == nil || mask.Width == 0 || mask.Height == 0 {
		return nil
	}
	visited := make([]bool, len(mask.Pix))
	curves := make([]Curve, 0)

	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			i := y*mask.Width + x
			if !mask.Pix[i] || visited[i] {
				continue
			}
			boundary := traceBoundary(mask, x, y)
			floodFill(mask, visited, x, y)
			curves = append(curves, NewCurve(compressChain(boundary)))
		}
	}
	return curves
}

// traceBoundary follows the outer boundary of the region containing
// (sx, sy), which must be the region's first pixel in raster order.
func traceBoundary(mask *segment.Mask, sx, sy int) []Point {
	start := Point{X: sx, Y: sy}
	points := []Point{start}

	p := start
	back := 0 // direction from p to the last background pixel examined (west)
	first := -1
	limit := 4*len(mask.Pix) + 8

	for steps := 0; steps < limit; steps++ {
		found := -1
		for i := 1; i <= 8; i++ {
			d := (back + i) % 8
			if mask.At(p.X+moore[d].X, p.Y+moore[d].Y) {
				found = d
				break
			}
		}
		if found < 0 {
			// Isolated pixel.
			return points
		}
		if p == start {
			if first < 0 {
				first = found
			} else if found == first {
				break
			}
		}

		prev := (found + 7) % 8
		next := Point{X: p.X + moore[found].X, Y: p.Y + moore[found].Y}
		bx := p.X + moore[prev].X - next.X
		by := p.Y + moore[prev].Y - next.Y
		back = mooreIndex(bx, by)
		p = next
		points = append(points, p)
	}

	if n := len(points); n > 1 && points[n-1] == start {
		points = points[:n-1]
	}
	return points
}

// floodFill marks every pixel 8-connected to (startX, startY) as visited.
//
// Uses an explicit stack (not recursion) so large rings cannot overflow the
// goroutine stack.
func floodFill(mask *segment.Mask, visited []bool, startX, startY int) {
	stack := []Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !mask.At(p.X, p.Y) {
			continue
		}
		i := p.Y*mask.Width + p.X
		if visited[i] {
			continue
		}
		visited[i] = true

		for _, d := range moore {
			stack = append(stack, Point{X: p.X + d.X, Y: p.Y + d.Y})
		}
	}
}

// compressChain removes vertices lying on a straight run between their
// neighbours, keeping only direction changes.
func compressChain(points []Point) []Point {
	n := len(points)
	if n < 3 {
		return points
	}
	out := make([]Point, 0, n)
	for i, p := range points {
		prev := points[(i+n-1)%n]
		next := points[(i+1)%n]
		dx1, dy1 := p.X-prev.X, p.Y-prev.Y
		dx2, dy2 := next.X-p.X, next.Y-p.Y
		if dx1 == dx2 && dy1 == dy2 {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return points
	}
	return out
}

package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Default overlay colors.
const (
	DefaultCurveColor  = "#FF0000"
	DefaultCenterColor = "#00A0FF"
	DefaultRingColor   = "#00C050"
)

// Overlay describes what to draw on top of an analysed chart.
type Overlay struct {
	// Curves are closed polylines (accepted isoptères), drawn in CurveColor.
	Curves [][]image.Point

	// Center, when set, is marked with a cross.
	Center *image.Point

	// ReferenceRadius, when > 0, draws the calibrated 90° circle around
	// Center with this pixel radius.
	ReferenceRadius float64

	// Label is printed in the top-left corner (ASCII only).
	Label string

	// CurveColor is a "#RRGGBB" hex color; empty or invalid uses
	// DefaultCurveColor.
	CurveColor string

	// Thickness is the line width in pixels; <= 0 uses 2.
	Thickness int
}

// RenderOverlay returns an annotated copy of img. The input is never
// modified; the copy is an output artifact only.
//
// The result has its origin at (0,0), so overlay coordinates must be
// relative to the top-left corner of img.
func RenderOverlay(img image.Image, o Overlay) *image.NRGBA {
	out := imaging.Clone(img)

	thickness := o.Thickness
	if thickness <= 0 {
		thickness = 2
	}
	curveColor := parseColor(o.CurveColor, DefaultCurveColor)

	for _, curve := range o.Curves {
		drawPolyline(out, curve, true, curveColor, thickness)
	}

	if o.Center != nil {
		centerColor := parseColor(DefaultCenterColor, DefaultCenterColor)
		c := *o.Center
		arm := 6 + 2*thickness
		if c.In(out.Bounds().Inset(-arm - thickness)) {
			drawLine(out, c.Add(image.Pt(-arm, 0)), c.Add(image.Pt(arm, 0)), centerColor, thickness)
			drawLine(out, c.Add(image.Pt(0, -arm)), c.Add(image.Pt(0, arm)), centerColor, thickness)
		}

		if o.ReferenceRadius > 0 {
			drawCircle(out, c, o.ReferenceRadius, parseColor(DefaultRingColor, DefaultRingColor))
		}
	}

	if o.Label != "" {
		drawLabel(out, 4, 4, o.Label, color.NRGBA{255, 255, 255, 255}, color.NRGBA{0, 0, 0, 180})
	}

	return out
}

// parseColor converts a "#RRGGBB" hex string, falling back to def.
func parseColor(hex, def string) color.NRGBA {
	c, err := colorful.Hex(hex)
	if err != nil {
		c, _ = colorful.Hex(def)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// drawCircle paints the one-pixel-wide ring of radius r around c. Only
// pixels of img are visited, so the cost does not depend on r.
func drawCircle(img *image.NRGBA, c image.Point, r float64, col color.NRGBA) {
	b := img.Bounds()
	cx, cy := float64(c.X), float64(c.Y)
	minX := int(math.Max(float64(b.Min.X), math.Floor(cx-r-1)))
	maxX := int(math.Min(float64(b.Max.X), math.Ceil(cx+r+2)))
	minY := int(math.Max(float64(b.Min.Y), math.Floor(cy-r-1)))
	maxY := int(math.Min(float64(b.Max.Y), math.Ceil(cy+r+2)))
	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			if math.Abs(d-r) <= 0.5 {
				img.SetNRGBA(x, y, col)
			}
		}
	}
}

func drawPolyline(img *image.NRGBA, pts []image.Point, closed bool, c color.NRGBA, thickness int) {
	if len(pts) == 1 {
		drawDot(img, pts[0], c, thickness)
		return
	}
	for i := 0; i+1 < len(pts); i++ {
		drawLine(img, pts[i], pts[i+1], c, thickness)
	}
	if closed && len(pts) > 2 {
		drawLine(img, pts[len(pts)-1], pts[0], c, thickness)
	}
}

// drawLine draws a Bresenham line with a square brush of side thickness.
func drawLine(img *image.NRGBA, a, b image.Point, c color.NRGBA, thickness int) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	e := dx + dy
	p := a
	for {
		drawDot(img, p, c, thickness)
		if p == b {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			p.X += sx
		}
		if e2 <= dx {
			e += dx
			p.Y += sy
		}
	}
}

func drawDot(img *image.NRGBA, p image.Point, c color.NRGBA, thickness int) {
	lo := -(thickness - 1) / 2
	hi := thickness / 2
	bounds := img.Bounds()
	for y := p.Y + lo; y <= p.Y+hi; y++ {
		for x := p.X + lo; x <= p.X+hi; x++ {
			if image.Pt(x, y).In(bounds) {
				img.SetNRGBA(x, y, c)
			}
		}
	}
}

// drawLabel prints text with basicfont on a translucent background box
// whose top-left corner is (x, y).
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.NRGBA) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	box := image.Rect(x, y, x+width+4, y+face.Height+4).Intersect(img.Bounds())
	draw.Draw(img, box, image.NewUniform(bg), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(x+2, y+2+face.Ascent),
	}
	d.DrawString(text)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// FormatLabel builds the one-line overlay caption for an analysis.
func FormatLabel(category string, mean, std float64, unit string, count int) string {
	if count == 0 {
		return "no isopteres detected"
	}
	return fmt.Sprintf("%s  mean=%.1f std=%.1f %s  n=%d", category, mean, std, unit, count)
}

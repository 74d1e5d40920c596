package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/visual-field-mcp/internal/segment"
)

// RGBColor represents a color in the RGB color space with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// HSVColor is the representation the segmenter selects on.
type HSVColor struct {
	H float64 `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S float64 `json:"s"` // Saturation: 0-1 (0=gray)
	V float64 `json:"v"` // Value: 0-1 (0=black)
}

// ColorResult contains a sampled pixel and how the segmenter sees it.
type ColorResult struct {
	Hex   string   `json:"hex"`   // Hex format "#RRGGBB" (no alpha)
	RGB   RGBColor `json:"rgb"`   // Straight (non-premultiplied) RGB
	Alpha uint8    `json:"alpha"` // Opacity (0-255)
	HSV   HSVColor `json:"hsv"`   // HSV representation

	// Presets lists the colour presets whose rule selects this pixel, in
	// alphabetical order. Empty for grey, black, white or transparent ink.
	Presets []string `json:"presets"`
}

// SampleColor returns the color of the pixel at (x, y).
//
// Use it on a point of an isoptère line to pick the hue band that isolates
// that line.
//
// # Errors
//
// Returns an error if the coordinates fall outside the image bounds.
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	bounds := img.Bounds()
	if !image.Pt(x, y).In(bounds) {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	nc := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	c := colorful.Color{R: float64(nc.R) / 255, G: float64(nc.G) / 255, B: float64(nc.B) / 255}
	h, s, v := c.Hsv()

	presets := make([]string, 0)
	if nc.A > 0 {
		for _, name := range segment.PresetNames() {
			rule, _ := segment.Preset(name)
			if rule.Match(h, s, v) {
				presets = append(presets, name)
			}
		}
	}

	return &ColorResult{
		Hex:     strings.ToUpper(c.Hex()),
		RGB:     RGBColor{R: nc.R, G: nc.G, B: nc.B},
		Alpha:   nc.A,
		HSV:     HSVColor{H: round(h, 1), S: round(s, 3), V: round(v, 3)},
		Presets: presets,
	}, nil
}

// LabeledPoint represents a coordinate with an optional descriptive label.
type LabeledPoint struct {
	X     int    // X coordinate (0-based)
	Y     int    // Y coordinate (0-based)
	Label string // Optional descriptive label for this point
}

// LabeledColorResult contains a color sample along with its location and label.
type LabeledColorResult struct {
	Label string      `json:"label,omitempty"`
	X     int         `json:"x"`
	Y     int         `json:"y"`
	Color ColorResult `json:"color"`
}

// SampleColorsMulti samples several points at once, in input order.
//
// If any point is out of bounds, the function returns an error immediately
// without returning partial results.
func SampleColorsMulti(img image.Image, points []LabeledPoint) ([]LabeledColorResult, error) {
	results := make([]LabeledColorResult, 0, len(points))

	for _, p := range points {
		c, err := SampleColor(img, p.X, p.Y)
		if err != nil {
			return nil, fmt.Errorf("failed to sample point (%d,%d): %w", p.X, p.Y, err)
		}
		results = append(results, LabeledColorResult{
			Label: p.Label,
			X:     p.X,
			Y:     p.Y,
			Color: *c,
		})
	}

	return results, nil
}

// HueBinWidth is the width in degrees of a DominantHues bin.
const HueBinWidth = 10

// HueBin is one hue histogram bucket.
type HueBin struct {
	Low        float64  `json:"low"`        // Inclusive start (degrees)
	High       float64  `json:"high"`       // Exclusive end (degrees)
	Pixels     int      `json:"pixels"`     // Saturated pixels in the bin
	Percentage float64  `json:"percentage"` // Share of all saturated pixels (0-100)
	Presets    []string `json:"presets"`    // Presets whose band contains the bin centre
}

// DominantHuesResult summarises the ink colours of a chart.
type DominantHuesResult struct {
	// SaturatedPixels is the number of pixels passing the saturation and
	// value floors of floors.
	SaturatedPixels int `json:"saturated_pixels"`

	// Bins are the most populated hue bins, largest first.
	Bins []HueBin `json:"bins"`
}

// DominantHues builds a hue histogram of the saturated pixels in region (the
// whole image when region is nil) and returns the count largest bins.
//
// Only the MinSaturation and MinValue floors of floors are applied; its hue
// bands are ignored. Ties are broken by hue so the output is deterministic.
func DominantHues(img image.Image, count int, region *image.Rectangle, floors segment.ColorRule) (*DominantHuesResult, error) {
	bounds := img.Bounds()
	if region != nil {
		if region.Empty() || !region.In(bounds) {
			return nil, fmt.Errorf("region %v outside image bounds %v", *region, bounds)
		}
		bounds = *region
	}
	if count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", count)
	}

	floors.Bands = nil
	var hist [360 / HueBinWidth]int
	total := 0

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			h, s, v := c.Hsv()
			if !floors.Match(h, s, v) {
				continue
			}
			hist[int(h)/HueBinWidth%len(hist)]++
			total++
		}
	}

	bins := make([]HueBin, 0, len(hist))
	for i, n := range hist {
		if n == 0 {
			continue
		}
		low := float64(i * HueBinWidth)
		bins = append(bins, HueBin{
			Low:        low,
			High:       low + HueBinWidth,
			Pixels:     n,
			Percentage: round(float64(n)/float64(total)*100, 1),
			Presets:    presetsForHue(low + HueBinWidth/2.0),
		})
	}

	sort.SliceStable(bins, func(i, j int) bool {
		return bins[i].Pixels > bins[j].Pixels
	})
	if len(bins) > count {
		bins = bins[:count]
	}

	return &DominantHuesResult{SaturatedPixels: total, Bins: bins}, nil
}

func presetsForHue(h float64) []string {
	names := make([]string, 0)
	for _, name := range segment.PresetNames() {
		rule, _ := segment.Preset(name)
		if len(rule.Bands) == 0 {
			continue
		}
		for _, b := range rule.Bands {
			if b.Contains(h) {
				names = append(names, name)
				break
			}
		}
	}
	return names
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

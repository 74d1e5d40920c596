package imaging

import (
	"image"
	"image/color"
	"reflect"
	"testing"

	"github.com/ironsheep/visual-field-mcp/internal/segment"
)

// createInMemoryImage creates an in-memory test image
func createInMemoryImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestSampleColor(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 128, 64, 255})

	result, err := SampleColor(img, 50, 50)
	if err != nil {
		t.Fatalf("SampleColor failed: %v", err)
	}

	if result.Hex != "#FF8040" {
		t.Errorf("Hex: got %s, want #FF8040", result.Hex)
	}
	if result.RGB != (RGBColor{255, 128, 64}) {
		t.Errorf("RGB: got %+v, want (255,128,64)", result.RGB)
	}
	if result.Alpha != 255 {
		t.Errorf("Alpha: got %d, want 255", result.Alpha)
	}
	if result.HSV.H < 19 || result.HSV.H > 21 {
		t.Errorf("Hue: got %.1f, want about 20", result.HSV.H)
	}
	if !reflect.DeepEqual(result.Presets, []string{"any", "orange"}) {
		t.Errorf("Presets: got %v, want [any orange]", result.Presets)
	}
}

func TestSampleColor_KnownColors(t *testing.T) {
	tests := []struct {
		name        string
		color       color.RGBA
		wantHex     string
		wantHue     float64
		wantPresets []string
	}{
		{"pure red", color.RGBA{255, 0, 0, 255}, "#FF0000", 0, []string{"any", "red"}},
		{"pure green", color.RGBA{0, 255, 0, 255}, "#00FF00", 120, []string{"any", "green"}},
		{"pure blue", color.RGBA{0, 0, 255, 255}, "#0000FF", 240, []string{"any", "blue"}},
		{"white", color.RGBA{255, 255, 255, 255}, "#FFFFFF", 0, []string{}},
		{"black", color.RGBA{0, 0, 0, 255}, "#000000", 0, []string{}},
		{"gray", color.RGBA{128, 128, 128, 255}, "#808080", 0, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := createInMemoryImage(10, 10, tt.color)
			result, err := SampleColor(img, 5, 5)
			if err != nil {
				t.Fatalf("SampleColor failed: %v", err)
			}
			if result.Hex != tt.wantHex {
				t.Errorf("Hex: got %s, want %s", result.Hex, tt.wantHex)
			}
			if result.HSV.H < tt.wantHue-1 || result.HSV.H > tt.wantHue+1 {
				t.Errorf("Hue: got %.1f, want %.0f", result.HSV.H, tt.wantHue)
			}
			if !reflect.DeepEqual(result.Presets, tt.wantPresets) {
				t.Errorf("Presets: got %v, want %v", result.Presets, tt.wantPresets)
			}
		})
	}
}

func TestSampleColor_Transparent(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(1, 1, color.NRGBA{R: 255, A: 0})

	result, err := SampleColor(img, 1, 1)
	if err != nil {
		t.Fatalf("SampleColor failed: %v", err)
	}
	if result.Alpha != 0 {
		t.Errorf("Alpha: got %d, want 0", result.Alpha)
	}
	if len(result.Presets) != 0 {
		t.Errorf("Transparent pixels match no preset, got %v", result.Presets)
	}
}

func TestSampleColor_OutOfBounds(t *testing.T) {
	img := createInMemoryImage(100, 100, color.White)

	tests := []struct {
		name string
		x, y int
	}{
		{"negative x", -1, 50},
		{"negative y", 50, -1},
		{"x too large", 100, 50},
		{"y too large", 50, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SampleColor(img, tt.x, tt.y); err == nil {
				t.Errorf("SampleColor(%d, %d) should fail", tt.x, tt.y)
			}
		})
	}
}

func TestSampleColorsMulti(t *testing.T) {
	img := createInMemoryImage(100, 100, color.White)
	img.Set(10, 10, color.RGBA{255, 0, 0, 255})
	img.Set(90, 90, color.RGBA{0, 0, 255, 255})

	points := []LabeledPoint{
		{X: 10, Y: 10, Label: "inner isoptère"},
		{X: 90, Y: 90, Label: "outer isoptère"},
		{X: 50, Y: 50},
	}

	results, err := SampleColorsMulti(img, points)
	if err != nil {
		t.Fatalf("SampleColorsMulti failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(results))
	}
	if results[0].Label != "inner isoptère" || results[0].Color.Hex != "#FF0000" {
		t.Errorf("sample 0: got %+v", results[0])
	}
	if results[1].Color.Hex != "#0000FF" {
		t.Errorf("sample 1: got %s, want #0000FF", results[1].Color.Hex)
	}
	if results[2].Label != "" {
		t.Errorf("sample 2 should have no label, got %q", results[2].Label)
	}
}

func TestSampleColorsMulti_OutOfBounds(t *testing.T) {
	img := createInMemoryImage(10, 10, color.White)
	points := []LabeledPoint{{X: 1, Y: 1}, {X: 20, Y: 1}}

	if _, err := SampleColorsMulti(img, points); err == nil {
		t.Error("SampleColorsMulti should fail when any point is out of bounds")
	}
}

func TestDominantHues(t *testing.T) {
	// 60% red, 30% blue, 10% white.
	img := image.NewRGBA(image.Rect(0, 0, 100, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 100; x++ {
			switch {
			case x < 60:
				img.Set(x, y, color.RGBA{230, 10, 10, 255})
			case x < 90:
				img.Set(x, y, color.RGBA{10, 10, 230, 255})
			default:
				img.Set(x, y, color.White)
			}
		}
	}

	result, err := DominantHues(img, 5, nil, segment.DefaultColorRule())
	if err != nil {
		t.Fatalf("DominantHues failed: %v", err)
	}

	if result.SaturatedPixels != 900 {
		t.Errorf("SaturatedPixels: got %d, want 900", result.SaturatedPixels)
	}
	if len(result.Bins) != 2 {
		t.Fatalf("expected 2 bins, got %d: %+v", len(result.Bins), result.Bins)
	}
	if result.Bins[0].Low != 0 || result.Bins[0].Pixels != 600 {
		t.Errorf("first bin: got %+v, want red 0-10 with 600 pixels", result.Bins[0])
	}
	if !reflect.DeepEqual(result.Bins[0].Presets, []string{"red"}) {
		t.Errorf("red bin presets: got %v", result.Bins[0].Presets)
	}
	if result.Bins[1].Low != 240 || result.Bins[1].Percentage != 33.3 {
		t.Errorf("second bin: got %+v, want 240-250 at 33.3%%", result.Bins[1])
	}
}

func TestDominantHues_Region(t *testing.T) {
	img := createInMemoryImage(100, 100, color.White)
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			img.Set(x, y, color.RGBA{0, 200, 0, 255})
		}
	}

	region := image.Rect(0, 0, 50, 50)
	result, err := DominantHues(img, 3, &region, segment.DefaultColorRule())
	if err != nil {
		t.Fatalf("DominantHues failed: %v", err)
	}
	if len(result.Bins) != 1 || result.Bins[0].Percentage != 100 {
		t.Errorf("expected a single 100%% bin, got %+v", result.Bins)
	}

	outside := image.Rect(50, 50, 150, 150)
	if _, err := DominantHues(img, 3, &outside, segment.DefaultColorRule()); err == nil {
		t.Error("DominantHues should fail for a region outside the image")
	}
}

func TestDominantHues_GreyImage(t *testing.T) {
	img := createInMemoryImage(20, 20, color.RGBA{128, 128, 128, 255})
	result, err := DominantHues(img, 3, nil, segment.DefaultColorRule())
	if err != nil {
		t.Fatalf("DominantHues failed: %v", err)
	}
	if result.SaturatedPixels != 0 || len(result.Bins) != 0 {
		t.Errorf("grey image should have no saturated pixels, got %+v", result)
	}

	if _, err := DominantHues(img, 0, nil, segment.DefaultColorRule()); err == nil {
		t.Error("DominantHues should reject a zero count")
	}
}

package ocr

import (
	"errors"
	"image"
	"strings"
)

// ErrUnavailable is returned when the binary was built without OCR support.
var ErrUnavailable = errors.New("ocr support not compiled in (build with -tags ocr)")

// Region is one recognised word and its box in image coordinates.
type Region struct {
	// Text is the recognised word.
	Text string `json:"text"`

	// Confidence is the recognition confidence (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Bounds is the word box; Max is exclusive.
	Bounds image.Rectangle `json:"bounds"`
}

// Labeler finds printed words in an image.
//
// Implementations must not modify img.
type Labeler interface {
	Labels(img image.Image) ([]Region, error)
}

// Options configures the Tesseract labeler and label masking.
type Options struct {
	// Language is the Tesseract language code, e.g. "eng" or "fra".
	Language string `json:"language" yaml:"language"`

	// TessdataPrefix overrides the language data directory. Empty uses
	// the system default.
	TessdataPrefix string `json:"tessdata_prefix,omitempty" yaml:"tessdataPrefix,omitempty"`

	// MinConfidence drops words recognised with lower confidence.
	MinConfidence float64 `json:"min_confidence" yaml:"minConfidence"`

	// Padding grows each word box by this many pixels on every side.
	Padding int `json:"padding" yaml:"padding"`
}

// DefaultOptions returns English, 0.5 confidence and 2 px padding.
func DefaultOptions() Options {
	return Options{
		Language:      "eng",
		MinConfidence: 0.5,
		Padding:       2,
	}
}

// Rects converts recognised words into the rectangles to clear from a mask.
// Blank words and words under minConfidence are skipped; boxes are padded by
// pad pixels and clipped to bounds.
func Rects(regions []Region, minConfidence float64, pad int, bounds image.Rectangle) []image.Rectangle {
	rects := make([]image.Rectangle, 0, len(regions))
	for _, r := range regions {
		if strings.TrimSpace(r.Text) == "" || r.Confidence < minConfidence {
			continue
		}
		box := r.Bounds.Inset(-pad).Intersect(bounds)
		if box.Empty() {
			continue
		}
		rects = append(rects, box)
	}
	return rects
}

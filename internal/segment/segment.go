package segment

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/effect"
	bildsegment "github.com/anthonynsimon/bild/segment"
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultMedianSize is the side of the median window.
const DefaultMedianSize = 5

// Options configures Segment.
type Options struct {
	// Rule selects boundary-coloured pixels.
	Rule ColorRule `json:"rule" yaml:"rule"`

	// MedianSize is the odd side length of the median window.
	// 0 or 1 disables the median pass.
	MedianSize int `json:"median_size" yaml:"medianSize"`

	// DilateRadius grows the selection before the median pass so thin,
	// broken lines reconnect. 0 disables dilation.
	DilateRadius int `json:"dilate_radius" yaml:"dilateRadius"`
}

// DefaultOptions mirrors the reference chart reader: any saturated colour,
// 5×5 median, no dilation.
func DefaultOptions() Options {
	return Options{
		Rule:       DefaultColorRule(),
		MedianSize: DefaultMedianSize,
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	if err := o.Rule.Validate(); err != nil {
		return err
	}
	if o.MedianSize < 0 || (o.MedianSize > 1 && o.MedianSize%2 == 0) {
		return fmt.Errorf("median size must be 0, 1 or an odd number, got %d", o.MedianSize)
	}
	if o.DilateRadius < 0 {
		return fmt.Errorf("dilate radius must be >= 0, got %d", o.DilateRadius)
	}
	return nil
}

// Select applies the colour rule alone, without any clean-up pass.
//
// Fully transparent pixels are never selected.
func Select(img image.Image, rule ColorRule) *Mask {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c, ok := colorful.MakeColor(img.At(x+b.Min.X, y+b.Min.Y))
			if !ok {
				continue
			}
			h, s, v := c.Hsv()
			if rule.Match(h, s, v) {
				m.Pix[y*m.Width+x] = true
			}
		}
	}
	return m
}

// Segment converts img into a mask of boundary-coloured pixels.
//
// Steps:
//  1. HSV selection with opts.Rule
//  2. Optional dilation (opts.DilateRadius)
//  3. Median filter (opts.MedianSize)
//  4. Re-binarisation at half intensity
//
// The input image is not modified.
func Segment(img image.Image, opts Options) *Mask {
	m := Select(img, opts.Rule)
	if m.Empty() || (opts.DilateRadius <= 0 && opts.MedianSize <= 1) {
		return m
	}

	var work image.Image = m.Gray()
	if opts.DilateRadius > 0 {
		work = effect.Dilate(work, float64(opts.DilateRadius))
	}
	if opts.MedianSize > 1 {
		work = effect.Median(work, float64(opts.MedianSize-1)/2)
	}
	return MaskFromImage(bildsegment.Threshold(work, 128))
}

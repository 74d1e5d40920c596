package segment

import (
	"image"
	"image/color"
)

// Mask is a binary image with the same dimensions as the analysed chart.
// Coordinates are 0-based with the origin at the top-left corner.
type Mask struct {
	Width  int
	Height int
	Pix    []bool // row-major, len == Width*Height
}

// NewMask allocates an empty mask.
func NewMask(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{Width: width, Height: height, Pix: make([]bool, width*height)}
}

// At reports whether (x, y) is selected. Out-of-range coordinates are false.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x]
}

// Set marks or clears (x, y). Out-of-range coordinates are ignored.
func (m *Mask) Set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Pix[y*m.Width+x] = v
}

// Count returns the number of selected pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v {
			n++
		}
	}
	return n
}

// Empty reports whether no pixel is selected.
func (m *Mask) Empty() bool {
	for _, v := range m.Pix {
		if v {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (m *Mask) Clone() *Mask {
	c := &Mask{Width: m.Width, Height: m.Height, Pix: make([]bool, len(m.Pix))}
	copy(c.Pix, m.Pix)
	return c
}

// ClearRect returns a copy of the mask with every pixel inside r cleared.
func (m *Mask) ClearRect(r image.Rectangle) *Mask {
	c := m.Clone()
	r = r.Intersect(image.Rect(0, 0, m.Width, m.Height))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c.Pix[y*c.Width+x] = false
		}
	}
	return c
}

// Gray renders the mask as a black image with selected pixels in white.
func (m *Mask) Gray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, v := range m.Pix {
		if v {
			g.Pix[i] = 0xFF
		}
	}
	return g
}

// MaskFromImage thresholds any image at half intensity.
func MaskFromImage(img image.Image) *Mask {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			g := color.GrayModel.Convert(img.At(x+b.Min.X, y+b.Min.Y)).(color.Gray)
			m.Pix[y*m.Width+x] = g.Y >= 128
		}
	}
	return m
}

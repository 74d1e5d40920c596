package segment

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMask_AtSet(t *testing.T) {
	m := NewMask(10, 5)
	m.Set(3, 2, true)
	m.Set(-1, 0, true)
	m.Set(10, 0, true)

	assert.True(t, m.At(3, 2))
	assert.False(t, m.At(2, 3))
	assert.False(t, m.At(-1, 0))
	assert.False(t, m.At(10, 4))
	assert.Equal(t, 1, m.Count())
	assert.False(t, m.Empty())
}

func TestNewMask_NegativeSize(t *testing.T) {
	m := NewMask(-4, 3)
	assert.Equal(t, 0, m.Width)
	assert.Empty(t, m.Pix)
	assert.True(t, m.Empty())
}

func TestMask_ClearRect(t *testing.T) {
	m := NewMask(20, 20)
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			m.Set(x, y, true)
		}
	}

	cleared := m.ClearRect(image.Rect(15, 15, 40, 40))

	assert.Equal(t, 400, m.Count(), "original must be untouched")
	assert.Equal(t, 400-25, cleared.Count())
	assert.False(t, cleared.At(19, 19))
	assert.True(t, cleared.At(14, 14))
}

func TestMask_GrayRoundTrip(t *testing.T) {
	m := NewMask(8, 8)
	m.Set(1, 1, true)
	m.Set(6, 3, true)

	g := m.Gray()
	assert.Equal(t, uint8(0xFF), g.GrayAt(1, 1).Y)
	assert.Equal(t, uint8(0), g.GrayAt(0, 0).Y)

	back := MaskFromImage(g)
	assert.Equal(t, m.Pix, back.Pix)
}

func TestMaskFromImage_Threshold(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 3, 1))
	g.SetGray(0, 0, color.Gray{Y: 127})
	g.SetGray(1, 0, color.Gray{Y: 128})
	g.SetGray(2, 0, color.Gray{Y: 255})

	m := MaskFromImage(g)
	require.Equal(t, 3, m.Width)
	assert.Equal(t, []bool{false, true, true}, m.Pix)
}

func TestMask_Clone(t *testing.T) {
	m := NewMask(4, 4)
	m.Set(0, 0, true)
	c := m.Clone()
	c.Set(1, 1, true)

	assert.Equal(t, 1, m.Count())
	assert.Equal(t, 2, c.Count())
}

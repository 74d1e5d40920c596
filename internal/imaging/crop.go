package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// Eye selects which half of a Goldmann sheet to analyse. Sheets usually
// print both eyes side by side with their own fixation point each.
type Eye string

const (
	EyeFull  Eye = "full"
	EyeLeft  Eye = "left"
	EyeRight Eye = "right"
)

// ParseEye accepts "full", "left" or "right" (case-insensitive). An empty
// string selects EyeFull.
func ParseEye(s string) (Eye, error) {
	switch e := Eye(strings.ToLower(strings.TrimSpace(s))); e {
	case "":
		return EyeFull, nil
	case EyeFull, EyeLeft, EyeRight:
		return e, nil
	}
	return "", fmt.Errorf("unknown eye %q (want full, left or right)", s)
}

// Rect returns the part of bounds covered by e. Odd widths give the extra
// column to the right half.
func (e Eye) Rect(bounds image.Rectangle) image.Rectangle {
	midX := bounds.Min.X + bounds.Dx()/2
	switch e {
	case EyeLeft:
		return image.Rect(bounds.Min.X, bounds.Min.Y, midX, bounds.Max.Y)
	case EyeRight:
		return image.Rect(midX, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	return bounds
}

// SelectEye crops img to the half chosen by eye.
//
// The returned image has its origin at (0,0); offset is the position of
// that origin in img, so a point p picked on img maps to p.Sub(offset).
// EyeFull returns img itself with a zero offset.
func SelectEye(img image.Image, eye Eye) (image.Image, image.Point, error) {
	if eye == "" || eye == EyeFull {
		return img, image.Point{}, nil
	}
	if eye != EyeLeft && eye != EyeRight {
		return nil, image.Point{}, fmt.Errorf("unknown eye %q", eye)
	}

	r := eye.Rect(img.Bounds())
	if r.Empty() {
		return nil, image.Point{}, fmt.Errorf("image too narrow to split (width %d)", img.Bounds().Dx())
	}
	return imaging.Crop(img, r), r.Min.Sub(img.Bounds().Min), nil
}

// EncodedImage contains an image as base64 PNG.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// PNGBytes encodes img as PNG.
func PNGBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodePNG encodes img as a base64 PNG.
func EncodePNG(img image.Image) (*EncodedImage, error) {
	data, err := PNGBytes(img)
	if err != nil {
		return nil, err
	}

	return &EncodedImage{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "image/png",
	}, nil
}

// Preview shrinks img so that neither side exceeds maxSide, keeping the
// aspect ratio. Smaller images and maxSide <= 0 return an unscaled copy.
func Preview(img image.Image, maxSide int) *image.NRGBA {
	b := img.Bounds()
	if maxSide <= 0 || (b.Dx() <= maxSide && b.Dy() <= maxSide) {
		return imaging.Clone(img)
	}
	return imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
}

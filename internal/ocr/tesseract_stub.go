//go:build !ocr
// +build !ocr

package ocr

import "image"

// Tesseract is a placeholder when OCR support is not compiled in.
type Tesseract struct{}

// NewTesseract always fails without the ocr build tag.
func NewTesseract(opts Options) (*Tesseract, error) {
	_ = opts
	return nil, ErrUnavailable
}

// Labels always fails without the ocr build tag.
func (t *Tesseract) Labels(img image.Image) ([]Region, error) {
	_ = img
	return nil, ErrUnavailable
}

// Version is empty without the ocr build tag.
func Version() string { return "" }

//go:build ocr
// +build ocr

package ocr

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Tesseract is a Labeler backed by libtesseract.
//
// A new client is created per call, so one Tesseract may be shared between
// goroutines.
type Tesseract struct {
	opts Options
}

// NewTesseract checks that the engine loads with opts.
func NewTesseract(opts Options) (*Tesseract, error) {
	if opts.Language == "" {
		opts.Language = DefaultOptions().Language
	}
	client, err := newClient(opts)
	if err != nil {
		return nil, err
	}
	client.Close()
	return &Tesseract{opts: opts}, nil
}

func newClient(opts Options) (*gosseract.Client, error) {
	client := gosseract.NewClient()
	if opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(opts.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(opts.Language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	return client, nil
}

// Labels implements Labeler with word-level (RIL_WORD) boxes.
func (t *Tesseract) Labels(img image.Image) ([]Region, error) {
	client, err := newClient(t.opts)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image for OCR: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	// Tesseract reports boxes relative to the encoded image, whose origin
	// is (0,0).
	off := img.Bounds().Min
	regions := make([]Region, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		regions = append(regions, Region{
			Text:       box.Word,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds:     box.Box.Add(off),
		})
	}
	return regions, nil
}

// Version returns the linked Tesseract version.
func Version() string {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version()
}

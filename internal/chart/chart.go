// Package chart runs one front-end analysis request: eye-half selection,
// coordinate translation, the pipeline itself and the optional overlay and
// mask renderings.
//
// The MCP server, the HTTP API, the Telegram bot and the CLI all go through
// Run, so they report identical results for the same input.
package chart

import (
	"fmt"
	"image"

	"github.com/ironsheep/visual-field-mcp/internal/calibration"
	"github.com/ironsheep/visual-field-mcp/internal/imaging"
	"github.com/ironsheep/visual-field-mcp/internal/pipeline"
)

// DefaultPreviewSide bounds the longest side of returned renderings.
const DefaultPreviewSide = 1600

// Request is one analysis as asked for by a user.
//
// Calibration and Center are in the coordinates of the full Image; Run
// translates them into the selected half.
type Request struct {
	Image       image.Image
	Eye         imaging.Eye
	Calibration *calibration.Points
	Center      *image.Point

	// Overlay and Mask request renderings of the analysed area.
	Overlay bool
	Mask    bool

	// PreviewSide bounds renderings; 0 means DefaultPreviewSide, < 0 keeps
	// full size.
	PreviewSide int

	// IncludePoints keeps isoptère polygons in the result.
	IncludePoints bool
}

// Report is the result of Run.
type Report struct {
	*pipeline.Result

	Eye imaging.Eye `json:"eye"`

	// Offset is the position of the analysed half in the full image. Add
	// it to result coordinates to map them back.
	Offset image.Point `json:"offset"`

	Overlay *imaging.EncodedImage `json:"overlay,omitempty"`
	Mask    *imaging.EncodedImage `json:"mask,omitempty"`

	// OverlayImage and MaskImage are the renderings before encoding.
	OverlayImage image.Image `json:"-"`
	MaskImage    image.Image `json:"-"`
}

// Run analyses req.Image with a.
func Run(a *pipeline.Analyzer, req Request) (*Report, error) {
	if req.Image == nil {
		return nil, pipeline.ErrMalformedImage
	}
	if b := req.Image.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, pipeline.ErrMalformedImage
	}

	eye := req.Eye
	if eye == "" {
		eye = imaging.EyeFull
	}
	img, offset, err := imaging.SelectEye(req.Image, eye)
	if err != nil {
		return nil, err
	}

	in := pipeline.Input{Image: img}
	if req.Calibration != nil {
		in.Calibration = &calibration.Points{
			Center:    req.Calibration.Center.Sub(offset),
			Reference: req.Calibration.Reference.Sub(offset),
		}
	}
	if req.Center != nil {
		c := req.Center.Sub(offset)
		in.Center = &c
	}

	res, err := a.Analyze(in)
	if err != nil {
		return nil, err
	}
	rep := &Report{Result: res, Eye: eye, Offset: offset}

	side := req.PreviewSide
	if side == 0 {
		side = DefaultPreviewSide
	}

	if req.Overlay {
		rendered := imaging.Preview(imaging.RenderOverlay(img, res.Overlay()), side)
		rep.OverlayImage = rendered
		if rep.Overlay, err = imaging.EncodePNG(rendered); err != nil {
			return nil, fmt.Errorf("overlay: %w", err)
		}
	}
	if req.Mask {
		mask, err := a.Mask(in)
		if err != nil {
			return nil, err
		}
		rendered := imaging.Preview(mask.Gray(), side)
		rep.MaskImage = rendered
		if rep.Mask, err = imaging.EncodePNG(rendered); err != nil {
			return nil, fmt.Errorf("mask: %w", err)
		}
	}

	if !req.IncludePoints {
		rep.Result = res.WithoutPoints()
	}
	return rep, nil
}

// ParsePoint parses "x,y".
func ParsePoint(s string) (image.Point, error) {
	var p image.Point
	if _, err := fmt.Sscanf(s, "%d,%d", &p.X, &p.Y); err != nil {
		return image.Point{}, fmt.Errorf("invalid point %q (want x,y): %w", s, err)
	}
	return p, nil
}

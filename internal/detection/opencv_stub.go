//go:build !gocv
// +build !gocv

package detection

import (
	"github.com/ironsheep/visual-field-mcp/internal/segment"
)

// OpenCVExtractor is a placeholder when OpenCV support is not compiled in.
type OpenCVExtractor struct{}

// NewOpenCVExtractor always fails without the gocv build tag.
func NewOpenCVExtractor() (*OpenCVExtractor, error) {
	return nil, ErrOpenCVUnavailable
}

// Extract always fails without the gocv build tag.
func (e *OpenCVExtractor) Extract(mask *segment.Mask) ([]Curve, error) {
	_ = mask
	return nil, ErrOpenCVUnavailable
}

// Package ocr finds printed text on a chart so it can be removed from the
// colour mask before shape filtering.
//
// Goldmann sheets carry degree labels (10, 30, 60, 90), eye markers and
// patient fields. Printed in colour they would survive segmentation as small
// blobs; the area filter removes most of them, and masking their word boxes
// removes the rest.
//
// # Backends
//
// The Tesseract labeler is compiled only with the ocr build tag:
//
//	go build -tags ocr ./...
//
// It needs libtesseract and the language data installed on the system:
//   - Ubuntu/Debian: apt-get install libtesseract-dev tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Without the tag NewTesseract returns ErrUnavailable and callers skip label
// masking.
package ocr

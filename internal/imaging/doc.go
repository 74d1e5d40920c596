// Package imaging handles chart images around the analysis core: decoding,
// caching, eye-half selection, colour sampling, distance measurement and
// the annotated overlay.
//
// All operations work with standard Go image.Image types and use a coordinate
// system where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, Min is inclusive (top-left) and Max is exclusive
//     (bottom-right), as with image.Rectangle
//
// SelectEye returns a cropped image re-based at (0,0) together with the
// offset of its origin, so calibration points picked on the full sheet can
// be translated.
//
// # Formats
//
// DecodeBytes and ImageCache accept PNG, JPEG, GIF, TIFF, BMP and WebP.
// EXIF orientation is applied on decode.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Individual image operations
// are stateless and never modify their input; RenderOverlay draws on a copy.
package imaging

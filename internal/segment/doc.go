// Package segment turns a perimetry chart raster into a binary mask of
// boundary-coloured pixels.
//
// # Colour Selection
//
// Every pixel is converted to HSV (hue in degrees, saturation and value in
// [0,1]). Isoptère lines are printed in saturated inks while axes, grid and
// background are black, grey or white, so the selection predicate is:
//
//	S >= MinSaturation && V >= MinValue && hue inside one of the bands
//
// An empty band list accepts any hue. A band whose Low is greater than its
// High wraps through 0°, which is how red (for example 340°→20°) is
// expressed.
//
// # Noise Suppression
//
// After selection the mask may be dilated (to reconnect thin, broken lines)
// and is then median filtered (5×5 by default) to drop isolated speckles
// without eroding the rings. Both passes reuse bild's spatial filters.
//
// The package is pure: inputs are never mutated and an image with no
// coloured pixel yields an empty mask, not an error.
package segment

// Package detection extracts closed boundary curves from a colour mask and
// keeps the ones that are plausible isoptère rings.
//
// # Contour Extraction
//
// FindCurves traces the external boundary of every 8-connected mask region
// with Moore-neighbour following. Holes are not tracked, so a printed ring
// (an annulus in the mask) produces one curve: its outer edge. Discovery
// order is raster order of each region's top-left pixel and is identical on
// every run for the same mask.
//
// Builds with the gocv tag can use OpenCVExtractor instead. It calls
// findContours in two-level mode and keeps the top level, so rings nested in
// another ring's hole are found too, and it returns the same raster order.
//
// # Geometry
//
// Each Curve carries, computed on pixel centres:
//   - Area: shoelace polygon area
//   - Perimeter: closed polyline length
//   - Circularity: 4πA/P² (1.0 for a circle, 0 when P == 0)
//   - Bounds: inclusive bounding box, giving the aspect ratio w/h
//   - Centroid: area-weighted centre from the polygon moments
//
// # Filtering
//
// FilterCurves applies FilterOptions: area and circularity floors, an
// optional aspect-ratio window and an optional maximum centroid distance
// from a center. Straight axis lines have zero area, label text is small or
// elongated, so both fall out. The surviving curves keep discovery order.
package detection

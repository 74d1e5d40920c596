package imaging

import (
	"image"
	"math"

	"github.com/ironsheep/visual-field-mcp/internal/calibration"
)

// DistanceResult contains the distance between two points on a chart.
type DistanceResult struct {
	// DistancePixels is the Euclidean distance, rounded to 2 decimal places.
	DistancePixels float64 `json:"distance_pixels"`

	// DistanceDegrees is the distance in degrees of visual angle, rounded to
	// 2 decimal places. Present only when a calibration scale is given.
	DistanceDegrees *float64 `json:"distance_degrees,omitempty"`

	// DeltaX is the horizontal displacement (x2 - x1).
	DeltaX int `json:"delta_x"`

	// DeltaY is the vertical displacement (y2 - y1). Positive means downward.
	DeltaY int `json:"delta_y"`

	// AngleDegrees is the direction from point 1 to point 2, in degrees.
	// 0° points right and 90° points down (screen coordinates).
	AngleDegrees float64 `json:"angle_degrees"`

	// DistancePercentWidth is the distance as a percentage of image width.
	DistancePercentWidth float64 `json:"distance_percent_width"`

	// DistancePercentHeight is the distance as a percentage of image height.
	DistancePercentHeight float64 `json:"distance_percent_height"`
}

// MeasureDistance measures from (x1, y1) to (x2, y2).
//
// With a valid scale the distance is also reported in degrees; measuring
// from the fixation point to a point on an isoptère gives that point's
// eccentricity. Points may lie outside the image.
func MeasureDistance(img image.Image, x1, y1, x2, y2 int, scale *calibration.Scale) (*DistanceResult, error) {
	bounds := img.Bounds()
	width := float64(bounds.Dx())
	height := float64(bounds.Dy())

	deltaX := x2 - x1
	deltaY := y2 - y1
	distance := math.Hypot(float64(deltaX), float64(deltaY))
	angle := math.Atan2(float64(deltaY), float64(deltaX)) * 180 / math.Pi

	result := &DistanceResult{
		DistancePixels:        math.Round(distance*100) / 100,
		DeltaX:                deltaX,
		DeltaY:                deltaY,
		AngleDegrees:          math.Round(angle*10) / 10,
		DistancePercentWidth:  math.Round(distance/width*1000) / 10,
		DistancePercentHeight: math.Round(distance/height*1000) / 10,
	}
	if scale != nil && scale.Valid() {
		deg := math.Round(scale.Degrees(distance)*100) / 100
		result.DistanceDegrees = &deg
	}
	return result, nil
}

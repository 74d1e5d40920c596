package server

import "github.com/ironsheep/visual-field-mcp/internal/segment"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the chart image (PNG, JPEG, GIF, TIFF, BMP or WebP)",
}

var eyeProperty = map[string]interface{}{
	"type":        "string",
	"enum":        []string{"full", "left", "right"},
	"description": "Half of the sheet to analyse when both eyes are printed side by side. Default full",
	"default":     "full",
}

// colorProperties are the colour rule overrides shared by perimetry tools.
func colorProperties() map[string]interface{} {
	return map[string]interface{}{
		"preset": map[string]interface{}{
			"type":        "string",
			"enum":        segment.PresetNames(),
			"description": "Named colour rule for the isoptère ink. Default any saturated colour",
		},
		"bands": map[string]interface{}{
			"type":        "array",
			"description": "Explicit hue bands in degrees; low > high wraps through 0 (e.g. red 340-20)",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"low":  map[string]interface{}{"type": "number", "minimum": 0, "maximum": 360},
					"high": map[string]interface{}{"type": "number", "minimum": 0, "maximum": 360},
				},
				"required": []string{"low", "high"},
			},
		},
		"min_saturation": map[string]interface{}{
			"type":        "number",
			"description": "Saturation floor in [0,1]. Default 0.235",
		},
		"min_value": map[string]interface{}{
			"type":        "number",
			"description": "Brightness floor in [0,1]. Default 0.196",
		},
	}
}

func withProperties(base map[string]interface{}, extra map[string]interface{}) map[string]interface{} {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image Inspection
		{
			Name:        "image_load",
			Description: "Load a chart image and return its dimensions, format and default center. Cached for subsequent operations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_sample_color",
			Description: "Get the exact color at a pixel, with its HSV values and the colour presets that would select it. Use it on an isoptère line to choose a preset or hue band.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based, from left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based, from top)",
					},
				},
				"required": []string{"path", "x", "y"},
			},
		},
		{
			Name:        "image_sample_colors_multi",
			Description: "Sample colors at several labeled points in one call, e.g. one point per isoptère.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"points": map[string]interface{}{
						"type":        "array",
						"description": "Points to sample",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x":     map[string]interface{}{"type": "integer"},
								"y":     map[string]interface{}{"type": "integer"},
								"label": map[string]interface{}{"type": "string"},
							},
							"required": []string{"x", "y"},
						},
					},
				},
				"required": []string{"path", "points"},
			},
		},
		{
			Name:        "image_measure_distance",
			Description: "Measure the distance between two points in pixels, and in degrees of visual field once the image is calibrated.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"x1":   map[string]interface{}{"type": "integer", "description": "First point X"},
					"y1":   map[string]interface{}{"type": "integer", "description": "First point Y"},
					"x2":   map[string]interface{}{"type": "integer", "description": "Second point X"},
					"y2":   map[string]interface{}{"type": "integer", "description": "Second point Y"},
				},
				"required": []string{"path", "x1", "y1", "x2", "y2"},
			},
		},

		// Perimetry
		{
			Name:        "perimetry_calibrate",
			Description: "Calibrate a chart from the fixation point and a point on the printed 90° circle. Stored for the image and used by perimetry_analyze and image_measure_distance.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty,
					"center_x": map[string]interface{}{"type": "integer", "description": "Fixation point X"},
					"center_y": map[string]interface{}{"type": "integer", "description": "Fixation point Y"},
					"ref_x":    map[string]interface{}{"type": "integer", "description": "X of a point on the 90° circle"},
					"ref_y":    map[string]interface{}{"type": "integer", "description": "Y of a point on the 90° circle"},
				},
				"required": []string{"path", "center_x", "center_y", "ref_x", "ref_y"},
			},
		},
		{
			Name:        "perimetry_mask",
			Description: "Return the cleaned colour mask as a black and white PNG, to check which pixels the colour rule selects before analysing.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(map[string]interface{}{
					"path": pathProperty,
					"eye":  eyeProperty,
					"max_side": map[string]interface{}{
						"type":        "integer",
						"description": "Longest side of the returned PNG. Default 1600",
						"default":     1600,
					},
				}, colorProperties()),
				"required": []string{"path"},
			},
		},
		{
			Name:        "perimetry_analyze",
			Description: "Detect isoptère curves on a Goldmann chart, measure their radius about fixation and classify the field (concentric constriction, asymmetric field or normal field). Radii are in degrees when calibrated, pixels otherwise.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(map[string]interface{}{
					"path":     pathProperty,
					"eye":      eyeProperty,
					"center_x": map[string]interface{}{"type": "integer", "description": "Fixation point X. Defaults to the stored calibration, then the image center"},
					"center_y": map[string]interface{}{"type": "integer", "description": "Fixation point Y"},
					"ref_x":    map[string]interface{}{"type": "integer", "description": "X of a point on the 90° circle; requires center_x/center_y"},
					"ref_y":    map[string]interface{}{"type": "integer", "description": "Y of a point on the 90° circle"},
					"min_area": map[string]interface{}{
						"type":        "number",
						"description": "Minimum enclosed area in px². Default 100",
					},
					"min_circularity": map[string]interface{}{
						"type":        "number",
						"description": "Minimum 4πA/P². Default 0.3",
					},
					"max_distance_degrees": map[string]interface{}{
						"type":        "number",
						"description": "Reject curves whose centroid lies farther from fixation (calibrated only). Default off",
					},
					"radius_mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"boundary", "centroid"},
						"description": "boundary: mean distance of the curve from fixation. centroid: distance of the curve's centroid. Default boundary",
					},
					"mask_labels": map[string]interface{}{
						"type":        "boolean",
						"description": "Clear printed labels found by OCR before detection (needs an OCR build)",
					},
					"overlay": map[string]interface{}{
						"type":        "boolean",
						"description": "Include an annotated PNG of the accepted curves",
						"default":     false,
					},
					"include_points": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the polygon vertices of every isoptère",
						"default":     false,
					},
				}, colorProperties()),
				"required": []string{"path"},
			},
		},
		{
			Name:        "perimetry_presets",
			Description: "List the colour presets. With a path, also report the dominant ink hues of the chart and the presets matching them.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Optional chart image to inspect",
					},
					"eye": eyeProperty,
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of hue bins to return. Default 5",
						"default":     5,
					},
				},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}

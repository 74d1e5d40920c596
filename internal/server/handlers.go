package server

import (
	"encoding/json"
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/visual-field-mcp/internal/calibration"
	"github.com/ironsheep/visual-field-mcp/internal/chart"
	"github.com/ironsheep/visual-field-mcp/internal/imaging"
	"github.com/ironsheep/visual-field-mcp/internal/measure"
	"github.com/ironsheep/visual-field-mcp/internal/pipeline"
	"github.com/ironsheep/visual-field-mcp/internal/segment"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "perimetry_analyze").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	log := s.log.WithField("tool", params.Name)
	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		log.WithError(err).Info("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	log.Debug("tool completed")

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads images from cache as needed
//  4. Calls the imaging or pipeline function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Image Inspection
	case "image_load":
		return s.handleImageLoad(args)
	case "image_sample_color":
		return s.handleImageSampleColor(args)
	case "image_sample_colors_multi":
		return s.handleImageSampleColorsMulti(args)
	case "image_measure_distance":
		return s.handleImageMeasureDistance(args)

	// Perimetry
	case "perimetry_calibrate":
		return s.handlePerimetryCalibrate(args)
	case "perimetry_mask":
		return s.handlePerimetryMask(args)
	case "perimetry_analyze":
		return s.handlePerimetryAnalyze(args)
	case "perimetry_presets":
		return s.handlePerimetryPresets(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Image Inspection Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type imageSampleColorArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handleImageSampleColor(args json.RawMessage) (interface{}, error) {
	var a imageSampleColorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	dec, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SampleColor(dec.Image, a.X, a.Y)
}

type imageSampleColorsMultiArgs struct {
	Path   string `json:"path"`
	Points []struct {
		X     int    `json:"x"`
		Y     int    `json:"y"`
		Label string `json:"label,omitempty"`
	} `json:"points"`
}

func (s *Server) handleImageSampleColorsMulti(args json.RawMessage) (interface{}, error) {
	var a imageSampleColorsMultiArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	dec, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	points := make([]imaging.LabeledPoint, len(a.Points))
	for i, p := range a.Points {
		points[i] = imaging.LabeledPoint{X: p.X, Y: p.Y, Label: p.Label}
	}
	return imaging.SampleColorsMulti(dec.Image, points)
}

type imageMeasureDistanceArgs struct {
	Path string `json:"path"`
	X1   int    `json:"x1"`
	Y1   int    `json:"y1"`
	X2   int    `json:"x2"`
	Y2   int    `json:"y2"`
}

// handleImageMeasureDistance reports degrees too once the image has been
// calibrated with perimetry_calibrate.
func (s *Server) handleImageMeasureDistance(args json.RawMessage) (interface{}, error) {
	var a imageMeasureDistanceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	dec, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	var scale *calibration.Scale
	if p, ok := s.calibrationFor(a.Path); ok {
		if sc, err := p.Scale(); err == nil {
			scale = &sc
		}
	}
	return imaging.MeasureDistance(dec.Image, a.X1, a.Y1, a.X2, a.Y2, scale)
}

// === Perimetry Handlers ===

type perimetryCalibrateArgs struct {
	Path    string `json:"path"`
	CenterX int    `json:"center_x"`
	CenterY int    `json:"center_y"`
	RefX    int    `json:"ref_x"`
	RefY    int    `json:"ref_y"`
}

// CalibrationResult describes a stored calibration.
type CalibrationResult struct {
	Path            string      `json:"path"`
	Center          image.Point `json:"center"`
	Reference       image.Point `json:"reference"`
	DistancePixels  float64     `json:"distance_pixels"`
	DegreesPerPixel float64     `json:"degrees_per_pixel"`
	PixelsPerDegree float64     `json:"pixels_per_degree"`
}

func (s *Server) handlePerimetryCalibrate(args json.RawMessage) (interface{}, error) {
	var a perimetryCalibrateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	dec, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	p := calibration.Points{Center: image.Pt(a.CenterX, a.CenterY), Reference: image.Pt(a.RefX, a.RefY)}
	if !p.Center.In(dec.Image.Bounds()) {
		return nil, fmt.Errorf("center (%d, %d) is outside the image", a.CenterX, a.CenterY)
	}
	scale, err := p.Scale()
	if err != nil {
		return nil, err
	}
	s.setCalibration(a.Path, p)

	return &CalibrationResult{
		Path:            a.Path,
		Center:          p.Center,
		Reference:       p.Reference,
		DistancePixels:  p.Distance(),
		DegreesPerPixel: scale.DegreesPerPixel(),
		PixelsPerDegree: 1 / scale.DegreesPerPixel(),
	}, nil
}

// colorArgs are the colour rule overrides shared by the perimetry tools.
type colorArgs struct {
	Preset        string            `json:"preset"`
	Bands         []segment.HueBand `json:"bands"`
	MinSaturation *float64          `json:"min_saturation"`
	MinValue      *float64          `json:"min_value"`
}

func (c colorArgs) empty() bool {
	return c.Preset == "" && len(c.Bands) == 0 && c.MinSaturation == nil && c.MinValue == nil
}

func (c colorArgs) apply(rule segment.ColorRule) (segment.ColorRule, error) {
	rule, err := chart.WithPreset(rule, c.Preset)
	if err != nil {
		return rule, err
	}
	if len(c.Bands) > 0 {
		rule.Bands = c.Bands
	}
	if c.MinSaturation != nil {
		rule.MinSaturation = *c.MinSaturation
	}
	if c.MinValue != nil {
		rule.MinValue = *c.MinValue
	}
	return rule, nil
}

type perimetryMaskArgs struct {
	Path string `json:"path"`
	Eye  string `json:"eye"`
	colorArgs
	MaxSide int `json:"max_side"`
}

// MaskResult is the colour mask of a chart as a black and white PNG.
type MaskResult struct {
	MaskPixels int                   `json:"mask_pixels"`
	Coverage   float64               `json:"coverage_percent"`
	Eye        imaging.Eye           `json:"eye"`
	Offset     image.Point           `json:"offset"`
	Image      *imaging.EncodedImage `json:"image"`
}

func (s *Server) handlePerimetryMask(args json.RawMessage) (interface{}, error) {
	var a perimetryMaskArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	eye, err := imaging.ParseEye(a.Eye)
	if err != nil {
		return nil, err
	}
	dec, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	analyzer, err := s.analyzerFor(a.colorArgs, analysisArgs{})
	if err != nil {
		return nil, err
	}

	img, offset, err := imaging.SelectEye(dec.Image, eye)
	if err != nil {
		return nil, err
	}
	mask, err := analyzer.Mask(pipeline.Input{Image: img})
	if err != nil {
		return nil, err
	}
	if a.MaxSide == 0 {
		a.MaxSide = chart.DefaultPreviewSide
	}
	enc, err := imaging.EncodePNG(imaging.Preview(mask.Gray(), a.MaxSide))
	if err != nil {
		return nil, err
	}

	count := mask.Count()
	return &MaskResult{
		MaskPixels: count,
		Coverage:   math.Round(float64(count)/float64(len(mask.Pix))*10000) / 100,
		Eye:        eye,
		Offset:     offset,
		Image:      enc,
	}, nil
}

// analysisArgs are the pipeline overrides accepted by perimetry_analyze.
type analysisArgs struct {
	MinArea            *float64 `json:"min_area"`
	MinCircularity     *float64 `json:"min_circularity"`
	MaxDistanceDegrees *float64 `json:"max_distance_degrees"`
	RadiusMode         string   `json:"radius_mode"`
	MaskLabels         *bool    `json:"mask_labels"`
}

func (a analysisArgs) empty() bool {
	return a.MinArea == nil && a.MinCircularity == nil && a.MaxDistanceDegrees == nil &&
		a.RadiusMode == "" && a.MaskLabels == nil
}

// analyzerFor returns the shared analyzer, or a new one when the call
// overrides any setting.
func (s *Server) analyzerFor(c colorArgs, o analysisArgs) (*pipeline.Analyzer, error) {
	if c.empty() && o.empty() {
		return s.analyzer, nil
	}
	cfg := s.cfg

	rule, err := c.apply(cfg.Segment.Rule)
	if err != nil {
		return nil, err
	}
	cfg.Segment.Rule = rule

	if o.MinArea != nil {
		cfg.Filter.MinArea = *o.MinArea
	}
	if o.MinCircularity != nil {
		cfg.Filter.MinCircularity = *o.MinCircularity
	}
	if o.MaxDistanceDegrees != nil {
		cfg.Filter.MaxDistanceDegrees = *o.MaxDistanceDegrees
	}
	if o.RadiusMode != "" {
		mode, err := measure.ParseRadiusMode(o.RadiusMode)
		if err != nil {
			return nil, err
		}
		cfg.RadiusMode = mode
	}
	if o.MaskLabels != nil {
		cfg.MaskLabels = *o.MaskLabels
	}
	return pipeline.New(cfg, pipeline.WithLogger(s.log))
}

type perimetryAnalyzeArgs struct {
	Path    string `json:"path"`
	Eye     string `json:"eye"`
	CenterX *int   `json:"center_x"`
	CenterY *int   `json:"center_y"`
	RefX    *int   `json:"ref_x"`
	RefY    *int   `json:"ref_y"`
	colorArgs
	analysisArgs
	Overlay       bool `json:"overlay"`
	IncludePoints bool `json:"include_points"`
}

func (s *Server) handlePerimetryAnalyze(args json.RawMessage) (interface{}, error) {
	var a perimetryAnalyzeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	eye, err := imaging.ParseEye(a.Eye)
	if err != nil {
		return nil, err
	}
	dec, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	analyzer, err := s.analyzerFor(a.colorArgs, a.analysisArgs)
	if err != nil {
		return nil, err
	}

	req := chart.Request{
		Image:         dec.Image,
		Eye:           eye,
		Overlay:       a.Overlay,
		IncludePoints: a.IncludePoints,
	}

	// An explicit calibration wins over the stored one; a lone center is
	// used when neither exists.
	switch {
	case a.CenterX != nil && a.CenterY != nil && a.RefX != nil && a.RefY != nil:
		req.Calibration = &calibration.Points{
			Center:    image.Pt(*a.CenterX, *a.CenterY),
			Reference: image.Pt(*a.RefX, *a.RefY),
		}
	case a.RefX != nil || a.RefY != nil:
		return nil, fmt.Errorf("ref_x and ref_y need center_x and center_y")
	default:
		if p, ok := s.calibrationFor(a.Path); ok {
			req.Calibration = &p
		} else if a.CenterX != nil && a.CenterY != nil {
			c := image.Pt(*a.CenterX, *a.CenterY)
			req.Center = &c
		}
	}

	return chart.Run(analyzer, req)
}

type perimetryPresetsArgs struct {
	Path  string `json:"path"`
	Eye   string `json:"eye"`
	Count int    `json:"count"`
}

// PresetsResult lists the presets and, for an image, its dominant hues.
type PresetsResult struct {
	Presets []chart.PresetInfo          `json:"presets"`
	Hues    *imaging.DominantHuesResult `json:"dominant_hues,omitempty"`
}

func (s *Server) handlePerimetryPresets(args json.RawMessage) (interface{}, error) {
	var a perimetryPresetsArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, err
		}
	}

	result := &PresetsResult{Presets: chart.Presets()}
	if a.Path == "" {
		return result, nil
	}

	eye, err := imaging.ParseEye(a.Eye)
	if err != nil {
		return nil, err
	}
	if a.Count == 0 {
		a.Count = 5
	}
	dec, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	img, _, err := imaging.SelectEye(dec.Image, eye)
	if err != nil {
		return nil, err
	}
	result.Hues, err = imaging.DominantHues(img, a.Count, nil, s.cfg.Segment.Rule)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Package server implements the MCP (Model Context Protocol) server for
// Goldmann visual-field chart analysis.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image Inspection:
//   - image_load: Load a chart and get its metadata
//   - image_sample_color: Get color and HSV at a pixel, with matching presets
//   - image_sample_colors_multi: Sample several labeled points
//   - image_measure_distance: Measure between points, in degrees once calibrated
//
// Perimetry:
//   - perimetry_calibrate: Store the fixation point and a 90° circle point
//   - perimetry_mask: Preview the colour mask
//   - perimetry_analyze: Detect isoptères, measure and classify the field
//   - perimetry_presets: List colour presets and the chart's dominant hues
//
// A typical session loads a chart, samples an isoptère line to pick a
// preset, calibrates, then analyses each eye.
//
// # State
//
// Decoded images are cached by path for the lifetime of the process.
// Calibrations set with perimetry_calibrate are kept per path and reused by
// later calls on the same path until replaced. Analyses themselves are
// stateless.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// A chart without isoptères is not an error: perimetry_analyze returns
// status "no_isopteres_detected". A degenerate calibration is reported as a
// warning and the analysis continues in pixels.
//
// # Usage
//
//	srv, err := server.New(pipeline.DefaultConfig(), logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server

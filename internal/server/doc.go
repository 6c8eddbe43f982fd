// Package server exposes the grading pipeline as an MCP (Model Context
// Protocol) tool server.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods: initialize, tools/list, tools/call and ping.
//
// # Available Tools
//
// Grading:
//   - omr_grade_sheet: Grade a photo (or rectified image) against a template and optional key
//   - omr_sheet_results: Look up graded sheets in the results database
//
// Geometry:
//   - omr_locate_fiducials: Find the four corner markers
//   - omr_align_sheet: Rectify a photo onto the canonical canvas
//   - omr_detect_bubbles: Find circular marks, to help author templates
//
// Authoring and identification:
//   - omr_generate_template: Build a template from four reference points
//   - omr_read_header: OCR the sheet identifier box
//
// # Image Caching
//
// Photos are decoded once and cached by path for the lifetime of the
// process, so locating, aligning and grading the same photo in successive
// calls reads it from disk once.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with
// code -32000 and the Go error string as data. Grading failures name the
// pipeline stage that failed, for example "fiducials: expected 4
// fiducials, found 3".
package server

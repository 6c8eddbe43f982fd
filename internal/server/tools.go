package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": desc,
	}
}

func pointProperty(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": desc,
		"properties": map[string]interface{}{
			"x": map[string]interface{}{"type": "number"},
			"y": map[string]interface{}{"type": "number"},
		},
		"required": []string{"x", "y"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Grading
		{
			Name:        "omr_grade_sheet",
			Description: "Grade an answer sheet photo: locate the four corner markers, rectify the sheet, measure every bubble of the template and score the answers against the key. Returns per-question selections (an option label, BLANK or AMBIG), fill scores and the score.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty("Absolute path to the sheet photo"),
					"template": pathProperty("Absolute path to the template JSON ({\"Q1\": {\"A\": [x, y, r], ...}, ...})"),
					"key":      pathProperty("Optional absolute path to the answer key JSON ({\"Q1\": \"A\", ...}). Without a key the sheet is read but not scored."),
					"rectified": map[string]interface{}{
						"type":        "boolean",
						"description": "Set when the image is already in canonical sheet coordinates; alignment is skipped. Default false",
						"default":     false,
					},
					"overlay_dir": pathProperty("Optional directory to write an annotated overlay PNG into"),
				},
				"required": []string{"path", "template"},
			},
		},
		{
			Name:        "omr_sheet_results",
			Description: "Look up graded sheets in the results database. With a path, returns the latest record for that photo including per-question answers; without, lists the most recent records.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Optional absolute path of a graded photo"),
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum records to list. Default 20",
						"default":     20,
					},
				},
			},
		},

		// Geometry
		{
			Name:        "omr_locate_fiducials",
			Description: "Find the square corner markers on a sheet photo. Reports every candidate with its center, area and outline, and the corner roles when exactly four are found.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the sheet photo"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "omr_align_sheet",
			Description: "Rectify a sheet photo onto the canonical canvas using its four corner markers. Returns the marker positions, the transform and a PNG preview of the rectified sheet.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty("Absolute path to the sheet photo"),
					"output": pathProperty("Optional path to save the full-size rectified sheet (format from extension)"),
					"max_width": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum preview width in pixels; 0 omits the preview. Default 800",
						"default":     800,
					},
					"grid_spacing": map[string]interface{}{
						"type":        "integer",
						"description": "Draw a labelled coordinate grid every N canonical pixels on the preview, for reading off template reference points. Default 0 (no grid)",
						"default":     0,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "omr_detect_bubbles",
			Description: "Find filled or outlined circles on a sheet. Useful for locating bubble centers when authoring a template; coordinates are canonical when align is true.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the sheet image"),
					"align": map[string]interface{}{
						"type":        "boolean",
						"description": "Rectify the photo before detecting. Default true",
						"default":     true,
					},
					"min_area": map[string]interface{}{
						"type":        "number",
						"description": "Exclusive minimum contour area. Default 200",
						"default":     200,
					},
					"max_area": map[string]interface{}{
						"type":        "number",
						"description": "Exclusive maximum contour area. Default 2000",
						"default":     2000,
					},
					"min_circularity": map[string]interface{}{
						"type":        "number",
						"description": "Minimum 4*pi*area/perimeter^2. Default 0.6",
						"default":     0.6,
					},
				},
				"required": []string{"path"},
			},
		},

		// Authoring and identification
		{
			Name:        "omr_generate_template",
			Description: "Build a template for a regular bubble grid from four reference points in canonical coordinates: the first and second option of the first question, the first option of the second question and the first option of the first question in the next column.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"first_option":  pointProperty("Center of option 1 of the first question"),
					"second_option": pointProperty("Center of option 2 of the first question"),
					"next_question": pointProperty("Center of option 1 of the second question"),
					"next_column":   pointProperty("Center of option 1 of the first question in the second column"),
					"radius": map[string]interface{}{
						"type":        "number",
						"description": "Bubble radius. Default 18",
					},
					"columns": map[string]interface{}{
						"type":        "integer",
						"description": "Number of question columns. Default 4",
					},
					"rows_per_column": map[string]interface{}{
						"type":        "integer",
						"description": "Questions per column. Default 15",
					},
					"options": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Option labels. Default [A, B, C, D]",
					},
					"question_prefix": map[string]interface{}{
						"type":        "string",
						"description": "Prefix of question ids. Default Q",
					},
					"first_question": map[string]interface{}{
						"type":        "integer",
						"description": "Number of the first question. Default 1",
					},
					"output": pathProperty("Optional path to write the template JSON to"),
				},
				"required": []string{"first_option", "second_option", "next_question", "next_column"},
			},
		},
		{
			Name:        "omr_read_header",
			Description: "Read the sheet identifier from the header box with OCR. The region is in canonical coordinates; the configured header region is used when none is given.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the sheet image"),
					"rectified": map[string]interface{}{
						"type":        "boolean",
						"description": "Set when the image is already in canonical sheet coordinates. Default false",
						"default":     false,
					},
					"region": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"x1": map[string]interface{}{"type": "integer"},
							"y1": map[string]interface{}{"type": "integer"},
							"x2": map[string]interface{}{"type": "integer"},
							"y2": map[string]interface{}{"type": "integer"},
						},
						"required": []string{"x1", "y1", "x2", "y2"},
					},
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language. Default from configuration (eng)",
					},
					"whitelist": map[string]interface{}{
						"type":        "string",
						"description": "Characters Tesseract may return. Default from configuration",
					},
				},
				"required": []string{"path"},
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

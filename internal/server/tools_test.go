package server

import (
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		"omr_grade_sheet",
		"omr_sheet_results",
		"omr_locate_fiducials",
		"omr_align_sheet",
		"omr_detect_bubbles",
		"omr_generate_template",
		"omr_read_header",
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("GetToolDefinitions returned %d tools, want %d", len(tools), len(expectedTools))
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("Tool %s defined twice", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}

			if schemaType := tool.InputSchema["type"]; schemaType != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", schemaType)
			}

			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema properties should be a map")
			}

			// Every required field must be declared.
			required, _ := tool.InputSchema["required"].([]string)
			for _, field := range required {
				if _, ok := props[field]; !ok {
					t.Errorf("Required field %s missing from properties", field)
				}
			}
		})
	}
}

func TestToolDefinitions_AreDispatched(t *testing.T) {
	s := newTestServer(t)

	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			_, err := s.executeTool(t.Context(), tool.Name, nil)
			if err != nil && err.Error() == "unknown tool: "+tool.Name {
				t.Errorf("Tool %s is listed but not dispatched", tool.Name)
			}
		})
	}
}

package grading

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseTemplate(t *testing.T) {
	data := []byte(`{
		"Q10": {"A": [100, 700, 18], "B": [160, 700, 18]},
		"Q2":  {"B": [160, 160, 18], "A": [100, 160, 18.5]}
	}`)

	tmpl, err := ParseTemplate(data)
	if err != nil {
		t.Fatalf("ParseTemplate failed: %v", err)
	}

	if got := tmpl.Questions(); !reflect.DeepEqual(got, []string{"Q2", "Q10"}) {
		t.Errorf("Questions() = %v", got)
	}
	if got := tmpl.Options("Q2"); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("Options(Q2) = %v", got)
	}

	b := tmpl["Q2"]["A"]
	if b.Center.X != 100 || b.Center.Y != 160 || b.Radius != 18.5 {
		t.Errorf("Q2/A = %+v", b)
	}
}

func TestParseTemplate_Invalid(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"not json", `{"Q1":`},
		{"not an object", `["Q1"]`},
		{"empty", `{}`},
		{"question without options", `{"Q1": {}}`},
		{"two numbers", `{"Q1": {"A": [1, 2]}}`},
		{"four numbers", `{"Q1": {"A": [1, 2, 3, 4]}}`},
		{"string coordinate", `{"Q1": {"A": ["1", 2, 3]}}`},
		{"zero radius", `{"Q1": {"A": [10, 10, 0]}}`},
		{"negative radius", `{"Q1": {"A": [10, 10, -4]}}`},
		{"duplicate option", `{"Q1": {"A": [10, 10, 5], "A": [20, 10, 5]}}`},
		{"duplicate question", `{"Q1": {"A": [10, 10, 5]}, "Q1": {"B": [20, 10, 5]}}`},
		{"empty label", `{"Q1": {"": [10, 10, 5]}}`},
		{"trailing data", `{"Q1": {"A": [10, 10, 5]}} {}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTemplate([]byte(tt.json))
			if !errors.Is(err, ErrInvalidTemplate) {
				t.Errorf("expected ErrInvalidTemplate, got %v", err)
			}
		})
	}
}

func TestTemplate_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.json")
	orig := gridTemplate(3)

	if err := orig.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := LoadTemplate(path)
	if err != nil {
		t.Fatalf("LoadTemplate failed: %v", err)
	}
	if !reflect.DeepEqual(loaded, orig) {
		t.Errorf("loaded template differs from saved one")
	}
}

func TestLoadTemplate_MissingFile(t *testing.T) {
	if _, err := LoadTemplate(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

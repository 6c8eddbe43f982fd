package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/omr-grader/internal/geom"
	"github.com/ironsheep/omr-grader/internal/grading"
	"github.com/ironsheep/omr-grader/internal/pipeline"
)

func TestPointFlag(t *testing.T) {
	tests := []struct {
		in      string
		want    geom.SheetPoint
		wantErr bool
	}{
		{"300,900", geom.SheetPoint{X: 300, Y: 900}, false},
		{" 12.5 , 7 ", geom.SheetPoint{X: 12.5, Y: 7}, false},
		{"300", geom.SheetPoint{}, true},
		{"a,b", geom.SheetPoint{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var p geom.SheetPoint
			f := &pointFlag{p: &p}
			err := f.Set(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("Set(%q) failed: %v", tt.in, err)
			}
			if p != tt.want || !f.set {
				t.Errorf("got %v (set=%v), want %v", p, f.set, tt.want)
			}
		})
	}
}

func TestPrintOutcome_Failure(t *testing.T) {
	out := &pipeline.Outcome{
		Path: "/scans/a.jpg",
		Err:  &pipeline.SheetError{Path: "/scans/a.jpg", Stage: pipeline.StageFiducials, Err: errors.New("expected 4 fiducials, found 3")},
	}

	var buf bytes.Buffer
	printOutcome(&buf, out, false)
	if got := buf.String(); got != "/scans/a.jpg\tFAILED (fiducials)\texpected 4 fiducials, found 3\n" {
		t.Errorf("text output: got %q", got)
	}

	buf.Reset()
	printOutcome(&buf, out, true)
	var rec map[string]string
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("json output not valid: %v", err)
	}
	if rec["stage"] != "fiducials" || rec["error"] != "expected 4 fiducials, found 3" {
		t.Errorf("json output: got %v", rec)
	}
}

func TestRunTemplate(t *testing.T) {
	output := filepath.Join(t.TempDir(), "template.json")
	code := runTemplate([]string{
		"-first", "300,900", "-second", "360,900", "-next", "300,960", "-column", "750,900",
		"-columns", "2", "-rows", "3", "-options", "A,B,C", "-o", output,
	})
	if code != 0 {
		t.Fatalf("runTemplate exit code %d", code)
	}

	tmpl, err := grading.LoadTemplate(output)
	if err != nil {
		t.Fatalf("generated template does not load: %v", err)
	}
	if len(tmpl) != 6 {
		t.Errorf("questions: got %d, want 6", len(tmpl))
	}
	if got := strings.Join(tmpl.Options("Q4"), ","); got != "A,B,C" {
		t.Errorf("Q4 options: got %s", got)
	}
}

func TestRunTemplate_MissingPoints(t *testing.T) {
	if code := runTemplate([]string{"-first", "300,900"}); code != 2 {
		t.Errorf("exit code: got %d, want 2", code)
	}
}

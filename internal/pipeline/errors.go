package pipeline

import "fmt"

// Stage names a step of the per-sheet pipeline.
type Stage string

const (
	StageLoad      Stage = "load"
	StageNormalize Stage = "normalize"
	StageFiducials Stage = "fiducials"
	StageCorners   Stage = "corners"
	StageAlign     Stage = "align"
	StageHeader    Stage = "header"
	StageGrade     Stage = "grade"
	StageOverlay   Stage = "overlay"
)

// SheetError reports the stage at which a sheet could not be graded.
type SheetError struct {
	Path  string
	Stage Stage
	Err   error
}

func (e *SheetError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Stage, e.Err)
}

func (e *SheetError) Unwrap() error {
	return e.Err
}

// Reason is the cause without the path and stage prefix.
func (e *SheetError) Reason() string {
	return e.Err.Error()
}

func stageError(path string, stage Stage, err error) *SheetError {
	return &SheetError{Path: path, Stage: stage, Err: err}
}

// Package pipeline runs the grading stages for one sheet and fans a batch of
// sheets out over a bounded worker pool.
//
// # Stages
//
// A photo passes through, strictly in order:
//
//	load → normalize → fiducials → corners → align → header → grade → overlay
//
// The header stage only runs when a header region is configured, and the
// overlay stage only when an overlay directory is. A failure at any stage
// stops that sheet and is reported as a *SheetError naming the stage; other
// sheets of a batch are unaffected.
//
// Images already in canonical sheet coordinates go through GradeRectified,
// which runs only load, header, grade and overlay.
//
// Overlay and diagnostic files are named by SheetName, so photos with the
// same file name in different directories do not overwrite each other.
//
// # Collaborators
//
// Diagnostics, the results store and the logger are optional. The stages
// behave identically whether or not they are attached.
package pipeline

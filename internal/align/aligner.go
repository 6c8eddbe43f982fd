package align

import (
	"fmt"
	"image"

	"github.com/ironsheep/omr-grader/internal/config"
	"github.com/ironsheep/omr-grader/internal/geom"
)

// Aligned is a rectified sheet and the transform that produced it.
type Aligned struct {
	Sheet     *image.Gray
	Transform *Transform
}

// Aligner warps photos onto the canonical canvas.
type Aligner struct {
	cfg config.Align
}

// NewAligner creates an Aligner for the given canvas geometry.
func NewAligner(cfg config.Align) *Aligner {
	return &Aligner{cfg: cfg}
}

// Destination returns where the fiducial centers land on the canvas, in
// corner role order: each one Margin pixels in from both adjacent edges.
func (a *Aligner) Destination() [4]geom.SheetPoint {
	w, h, m := float64(a.cfg.Width), float64(a.cfg.Height), float64(a.cfg.Margin)
	return [4]geom.SheetPoint{
		TopLeft:     {X: m, Y: m},
		TopRight:    {X: w - m, Y: m},
		BottomRight: {X: w - m, Y: h - m},
		BottomLeft:  {X: m, Y: h - m},
	}
}

// Transform fits the photo-to-sheet transform for corners without warping.
func (a *Aligner) Transform(corners Corners) (*Transform, error) {
	return NewTransform(corners, a.Destination())
}

// Align rectifies gray so that corners land on Destination.
//
// Every canvas pixel is mapped back into the photo and sampled bilinearly.
// Canvas pixels whose preimage falls outside the photo are black.
func (a *Aligner) Align(gray *image.Gray, corners Corners) (*Aligned, error) {
	t, err := a.Transform(corners)
	if err != nil {
		return nil, err
	}

	sheet, err := warp(gray, t, a.cfg.Width, a.cfg.Height)
	if err != nil {
		return nil, fmt.Errorf("failed to warp sheet: %w", err)
	}

	return &Aligned{Sheet: sheet, Transform: t}, nil
}

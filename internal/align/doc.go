// Package align rectifies a photographed sheet into canonical coordinates.
//
// Alignment takes the four fiducial centers found by package detection,
// assigns each one its corner role (OrderCorners), fits the perspective
// transform that carries them onto an inset rectangle of the canonical
// canvas (NewTransform) and resamples the photo through it (Aligner.Align).
//
// Transform is the only bridge between geom.Point (photo pixels) and
// geom.SheetPoint (canonical pixels). It is built per image and never shared
// between sheets.
//
// Resampling is pure Go by default. Building with -tags gocv hands the warp
// to OpenCV's warpPerspective with identical semantics: bilinear
// interpolation and black outside the photo.
package align

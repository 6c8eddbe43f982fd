// Package detection finds the printed features of an answer sheet on a
// binary map produced by imaging.Normalize (255 = ink, 0 = paper).
//
// # Contours
//
// FindExternalContours is the building block. It labels 8-connected ink
// components, discards those enclosed by another component, and traces the
// outer boundary of each survivor clockwise. A Contour then answers the
// usual shape questions:
//
//   - Area: shoelace area of the boundary polygon
//   - Perimeter: closed arc length of the boundary polygon
//   - Centroid: first-moment center of mass of the polygon
//   - Approximate: Douglas-Peucker simplification
//
// Boundary points are pixel centers, so a solid n x n square has area
// (n-1)² and perimeter 4(n-1).
//
// Tracing and simplification are pure Go by default. Building with
// -tags gocv hands both to OpenCV's findContours and approxPolyDP.
//
// # Corner Markers
//
// LocateFiducials keeps the contours whose area falls in a configured band
// and whose outline simplifies to a quadrilateral. It succeeds only when
// exactly four remain; otherwise it returns *FiducialCountError so the caller
// can report how many were seen.
//
// # Bubbles
//
// DetectBubbles lists round outlines by area and circularity. It is used when
// authoring templates and never decides whether a bubble is filled.
//
// # Coordinate System
//
// Results are in the pixel coordinates of the input image as geom.Point,
// with X increasing rightward and Y increasing downward.
package detection

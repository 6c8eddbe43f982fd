// Package imaging turns a decoded sheet photo into the maps the rest of the
// grader works on.
//
// Every function here returns a freshly allocated image and leaves its input
// untouched, so intermediate maps can be handed to diagnostics or to other
// goroutines without copying.
//
// # Maps
//
//   - Gray: 8-bit luminance, 0 = black, 255 = white
//   - Binary: 8-bit mask, 255 = ink (foreground), 0 = paper
//
// Both are *image.Gray with their origin at (0,0).
//
// # Coordinate System
//
// Pixel coordinates are 0-based with X increasing rightward and Y increasing
// downward. Regions use an inclusive top-left and exclusive bottom-right.
//
// # OpenCV
//
// Building with -tags gocv replaces the adaptive threshold and CLAHE with
// their OpenCV counterparts. Everything else is unaffected.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. All other functions are stateless.
//
// # Error Handling
//
// Decoding failures are reported as *LoadError, which carries the file path.
// Normalization itself cannot fail.
package imaging

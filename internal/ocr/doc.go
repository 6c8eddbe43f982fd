// Package ocr reads the printed or handwritten sheet identifier from the
// header box of a rectified answer sheet using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2). Because
// the header lives at a fixed place on the canonical canvas, recognition
// runs on that crop only, in single-line mode and restricted to a character
// whitelist. That keeps it fast and stops stray bubble outlines from being
// read as the letter O.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Set TESSDATA_PREFIX when the language data lives outside the default
// location.
//
// # Error Handling
//
// Reading an unconfigured header returns ErrHeaderDisabled. Crop, encoding
// and Tesseract failures are wrapped with context.
package ocr

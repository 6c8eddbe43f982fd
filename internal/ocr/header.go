package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
	"unicode"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/omr-grader/internal/config"
	"github.com/ironsheep/omr-grader/internal/imaging"
)

// ErrHeaderDisabled is returned when no header region is configured.
var ErrHeaderDisabled = errors.New("sheet header region is not configured")

// HeaderText is the result of reading the header box.
type HeaderText struct {
	// Text is the recognized identifier with all whitespace removed.
	Text string `json:"text"`

	// Raw is the text exactly as Tesseract returned it.
	Raw string `json:"raw"`

	// Confidence is the mean line confidence (0.0 to 1.0), zero when
	// Tesseract reports no line boxes.
	Confidence float64 `json:"confidence"`

	// Region is the crop that was read, in sheet coordinates.
	Region imaging.Region `json:"region"`
}

// HeaderReader reads the identifier box of rectified sheets.
//
// Each Read creates its own Tesseract client, so one HeaderReader may be
// shared by concurrent workers.
type HeaderReader struct {
	cfg config.Header
}

// NewHeaderReader creates a reader for the configured header region.
func NewHeaderReader(cfg config.Header) *HeaderReader {
	return &HeaderReader{cfg: cfg}
}

// Enabled reports whether a header region has been configured.
func (r *HeaderReader) Enabled() bool {
	return r.cfg.Enabled()
}

// Region returns the configured header box.
func (r *HeaderReader) Region() imaging.Region {
	return imaging.Region{X1: r.cfg.X1, Y1: r.cfg.Y1, X2: r.cfg.X2, Y2: r.cfg.Y2}
}

// Read crops the header box out of a rectified sheet and recognizes it as a
// single line of text.
func (r *HeaderReader) Read(sheet image.Image) (*HeaderText, error) {
	if !r.Enabled() {
		return nil, ErrHeaderDisabled
	}
	return ReadRegion(sheet, r.Region(), r.cfg.Language, r.cfg.Whitelist)
}

// ReadRegion recognizes one line of text inside region of img.
//
// An empty whitelist allows every character Tesseract knows.
func ReadRegion(img image.Image, region imaging.Region, language, whitelist string) (*HeaderText, error) {
	cropped, err := imaging.Crop(img, region)
	if err != nil {
		return nil, fmt.Errorf("failed to crop header: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return nil, fmt.Errorf("failed to encode header crop: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if whitelist != "" {
		if err := client.SetWhitelist(whitelist); err != nil {
			return nil, fmt.Errorf("failed to set whitelist: %w", err)
		}
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	raw, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	result := &HeaderText{
		Text:   cleanText(raw),
		Raw:    raw,
		Region: region,
	}

	// Confidence is informative only; keep the text if boxes are unavailable.
	if boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE); err == nil && len(boxes) > 0 {
		var sum float64
		for _, b := range boxes {
			sum += b.Confidence
		}
		result.Confidence = sum / float64(len(boxes)) / 100.0
	}

	return result, nil
}

// cleanText drops every whitespace rune, joining a line that Tesseract
// split into words back into one identifier.
func cleanText(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Info describes the OCR backend.
type Info struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Backend   string `json:"backend"`
}

// BackendInfo returns information about the Tesseract installation.
func BackendInfo() Info {
	client := gosseract.NewClient()
	defer client.Close()

	version := client.Version()
	return Info{
		Available: version != "",
		Version:   version,
		Backend:   "gosseract",
	}
}

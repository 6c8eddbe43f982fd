// Package config holds every tunable of the grading pipeline.
//
// Values default to the calibration used for the reference sheet (A4 at
// roughly 200 DPI, 2000x2800 canonical canvas). Any field can be overridden
// from the environment; a .env file in the working directory is read first.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Normalize configures grayscale conversion and binarization.
type Normalize struct {
	BlurKernel    int     // odd Gaussian kernel size used before thresholding
	EqualizeCLAHE bool    // apply tile-based histogram equalization
	ClipLimit     float64 // CLAHE clip limit, relative to the mean bin height
	TileGrid      int     // CLAHE tiles per axis
	BlockSize     int     // odd adaptive threshold window in pixels
	Bias          float64 // constant subtracted from the local mean
}

// Fiducials configures corner marker detection.
type Fiducials struct {
	MinArea        float64 // exclusive lower bound of marker contour area (px²)
	MaxArea        float64 // exclusive upper bound of marker contour area (px²)
	EpsilonPercent float64 // polygon simplification tolerance as a fraction of perimeter
}

// Align configures the canonical sheet geometry.
type Align struct {
	Width  int // canonical canvas width
	Height int // canonical canvas height
	Margin int // inset of the marker centers from each canvas edge
}

// Scoring configures fill measurement and row resolution.
type Scoring struct {
	InnerScale float64 // fraction of the bubble radius that is sampled
	MinFill    float64 // fill below which a row is BLANK
	Margin     float64 // minimum lead of the top option over the runner-up
}

// Header configures the optional OCR read of the sheet identifier box.
// A zero-area region disables it.
type Header struct {
	X1, Y1, X2, Y2 int
	Language       string
	Whitelist      string
}

// Enabled reports whether a header region has been configured.
func (h Header) Enabled() bool {
	return h.X2 > h.X1 && h.Y2 > h.Y1
}

// Config is the complete pipeline configuration.
type Config struct {
	Normalize Normalize
	Fiducials Fiducials
	Align     Align
	Scoring   Scoring
	Header    Header

	Workers    int    // concurrent sheets in batch mode
	OverlayDir string // where graded overlays are written; empty disables
	DebugDir   string // where diagnostic PNGs are written; empty disables
	ResultsDB  string // SQLite ledger path; empty disables
	LogLevel   string
	LogDir     string
}

// Default returns the reference calibration.
func Default() *Config {
	return &Config{
		Normalize: Normalize{
			BlurKernel:    5,
			EqualizeCLAHE: true,
			ClipLimit:     2.0,
			TileGrid:      8,
			BlockSize:     25,
			Bias:          15,
		},
		Fiducials: Fiducials{
			MinArea:        300,
			MaxArea:        3000,
			EpsilonPercent: 0.02,
		},
		Align: Align{
			Width:  2000,
			Height: 2800,
			Margin: 100,
		},
		Scoring: Scoring{
			InnerScale: 0.80,
			MinFill:    0.32,
			Margin:     0.06,
		},
		Header: Header{
			Language:  "eng",
			Whitelist: "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ-",
		},
		Workers:  4,
		LogLevel: "info",
	}
}

// Load reads an optional .env file and then overlays OMR_* environment
// variables on top of Default.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := Default()

	cfg.Normalize.BlurKernel = getEnvAsInt("OMR_BLUR_KERNEL", cfg.Normalize.BlurKernel)
	cfg.Normalize.EqualizeCLAHE = getEnvAsBool("OMR_CLAHE", cfg.Normalize.EqualizeCLAHE)
	cfg.Normalize.ClipLimit = getEnvAsFloat("OMR_CLAHE_CLIP", cfg.Normalize.ClipLimit)
	cfg.Normalize.TileGrid = getEnvAsInt("OMR_CLAHE_TILES", cfg.Normalize.TileGrid)
	cfg.Normalize.BlockSize = getEnvAsInt("OMR_THRESHOLD_BLOCK", cfg.Normalize.BlockSize)
	cfg.Normalize.Bias = getEnvAsFloat("OMR_THRESHOLD_BIAS", cfg.Normalize.Bias)

	cfg.Fiducials.MinArea = getEnvAsFloat("OMR_FIDUCIAL_MIN_AREA", cfg.Fiducials.MinArea)
	cfg.Fiducials.MaxArea = getEnvAsFloat("OMR_FIDUCIAL_MAX_AREA", cfg.Fiducials.MaxArea)
	cfg.Fiducials.EpsilonPercent = getEnvAsFloat("OMR_FIDUCIAL_EPSILON", cfg.Fiducials.EpsilonPercent)

	cfg.Align.Width = getEnvAsInt("OMR_SHEET_WIDTH", cfg.Align.Width)
	cfg.Align.Height = getEnvAsInt("OMR_SHEET_HEIGHT", cfg.Align.Height)
	cfg.Align.Margin = getEnvAsInt("OMR_SHEET_MARGIN", cfg.Align.Margin)

	cfg.Scoring.InnerScale = getEnvAsFloat("OMR_INNER_SCALE", cfg.Scoring.InnerScale)
	cfg.Scoring.MinFill = getEnvAsFloat("OMR_MIN_FILL", cfg.Scoring.MinFill)
	cfg.Scoring.Margin = getEnvAsFloat("OMR_MARGIN", cfg.Scoring.Margin)

	if region := getEnv("OMR_HEADER_REGION", ""); region != "" {
		h, err := parseRegion(region)
		if err != nil {
			return nil, fmt.Errorf("OMR_HEADER_REGION: %w", err)
		}
		cfg.Header.X1, cfg.Header.Y1, cfg.Header.X2, cfg.Header.Y2 = h[0], h[1], h[2], h[3]
	}
	cfg.Header.Language = getEnv("OMR_HEADER_LANG", cfg.Header.Language)
	cfg.Header.Whitelist = getEnv("OMR_HEADER_WHITELIST", cfg.Header.Whitelist)

	cfg.Workers = getEnvAsInt("OMR_WORKERS", cfg.Workers)
	cfg.OverlayDir = getEnv("OMR_OVERLAY_DIR", cfg.OverlayDir)
	cfg.DebugDir = getEnv("OMR_DEBUG_DIR", cfg.DebugDir)
	cfg.ResultsDB = getEnv("OMR_RESULTS_DB", cfg.ResultsDB)
	cfg.LogLevel = getEnv("OMR_LOG_LEVEL", cfg.LogLevel)
	cfg.LogDir = getEnv("OMR_LOG_DIR", cfg.LogDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	n := c.Normalize
	if n.BlurKernel < 1 || n.BlurKernel%2 == 0 {
		errs = append(errs, fmt.Errorf("blur kernel must be a positive odd number, got %d", n.BlurKernel))
	}
	if n.BlockSize < 3 || n.BlockSize%2 == 0 {
		errs = append(errs, fmt.Errorf("threshold block size must be odd and >= 3, got %d", n.BlockSize))
	}
	if n.EqualizeCLAHE && (n.TileGrid < 1 || n.ClipLimit <= 0) {
		errs = append(errs, fmt.Errorf("CLAHE needs tile grid >= 1 and clip limit > 0"))
	}
	f := c.Fiducials
	if f.MinArea < 0 || f.MaxArea <= f.MinArea {
		errs = append(errs, fmt.Errorf("fiducial area range (%.0f, %.0f) is empty", f.MinArea, f.MaxArea))
	}
	if f.EpsilonPercent <= 0 || f.EpsilonPercent >= 1 {
		errs = append(errs, fmt.Errorf("fiducial epsilon must be in (0,1), got %g", f.EpsilonPercent))
	}
	a := c.Align
	if a.Width <= 2*a.Margin || a.Height <= 2*a.Margin || a.Margin < 0 {
		errs = append(errs, fmt.Errorf("sheet %dx%d cannot hold a %dpx margin", a.Width, a.Height, a.Margin))
	}
	s := c.Scoring
	if s.InnerScale <= 0 || s.InnerScale > 1 {
		errs = append(errs, fmt.Errorf("inner scale must be in (0,1], got %g", s.InnerScale))
	}
	if s.MinFill < 0 || s.MinFill > 1 {
		errs = append(errs, fmt.Errorf("min fill must be in [0,1], got %g", s.MinFill))
	}
	if s.Margin < 0 {
		errs = append(errs, fmt.Errorf("margin must not be negative, got %g", s.Margin))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be >= 1, got %d", c.Workers))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func parseRegion(s string) ([4]int, error) {
	var r [4]int
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return r, fmt.Errorf("want x1,y1,x2,y2, got %q", s)
	}
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return r, fmt.Errorf("bad coordinate %q: %w", p, err)
		}
		r[i] = v
	}
	if r[2] <= r[0] || r[3] <= r[1] {
		return r, fmt.Errorf("region %q has no area", s)
	}
	return r, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

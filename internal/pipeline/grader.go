package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"

	"github.com/ironsheep/omr-grader/internal/align"
	"github.com/ironsheep/omr-grader/internal/config"
	"github.com/ironsheep/omr-grader/internal/detection"
	"github.com/ironsheep/omr-grader/internal/geom"
	"github.com/ironsheep/omr-grader/internal/grading"
	"github.com/ironsheep/omr-grader/internal/imaging"
	"github.com/ironsheep/omr-grader/internal/logger"
	"github.com/ironsheep/omr-grader/internal/ocr"
	"github.com/ironsheep/omr-grader/internal/overlay"
	"github.com/ironsheep/omr-grader/internal/store"
)

// Alignment is everything the geometric stages produced for one photo.
type Alignment struct {
	Normalized *imaging.Normalized
	Fiducials  []geom.Point
	Corners    align.Corners
	Aligned    *align.Aligned
}

// Outcome is the result of grading one sheet. Exactly one of Result and Err
// is set.
type Outcome struct {
	Path    string          `json:"path"`
	Result  *grading.Result `json:"result,omitempty"`
	Corners *align.Corners  `json:"corners,omitempty"`
	Overlay string          `json:"overlay,omitempty"`
	Err     error           `json:"-"`
}

// Grader runs the full pipeline against one template and optional key.
// It is safe for concurrent use.
type Grader struct {
	cfg     *config.Config
	engine  *grading.Engine
	aligner *align.Aligner
	header  *ocr.HeaderReader
	cache   *imaging.ImageCache
	log     *logger.Logger
	diag    Diagnostics
	store   *store.Store
}

// Option configures optional Grader collaborators.
type Option func(*Grader)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *logger.Logger) Option {
	return func(g *Grader) { g.log = l }
}

// WithDiagnostics attaches a sink for intermediate images.
func WithDiagnostics(d Diagnostics) Option {
	return func(g *Grader) { g.diag = d }
}

// WithStore records every graded or failed sheet in s.
func WithStore(s *store.Store) Option {
	return func(g *Grader) { g.store = s }
}

// WithCache shares an image cache with other users, such as the MCP server.
func WithCache(c *imaging.ImageCache) Option {
	return func(g *Grader) { g.cache = c }
}

// ErrNoTemplate is returned when a Grader built without an engine is asked
// to grade.
var ErrNoTemplate = errors.New("no template loaded")

// NewGrader validates cfg and assembles a Grader. engine may be nil when the
// Grader is only used to align photos.
func NewGrader(cfg *config.Config, engine *grading.Engine, opts ...Option) (*Grader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := &Grader{
		cfg:     cfg,
		engine:  engine,
		aligner: align.NewAligner(cfg.Align),
		header:  ocr.NewHeaderReader(cfg.Header),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.cache == nil {
		g.cache = imaging.NewImageCache()
	}
	if g.log == nil {
		g.log = logger.Discard()
	}
	return g, nil
}

// Cache returns the image cache used for loading photos.
func (g *Grader) Cache() *imaging.ImageCache {
	return g.cache
}

// Align loads the photo at path and runs the geometric stages, returning
// the rectified sheet.
func (g *Grader) Align(ctx context.Context, path string) (*Alignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := g.cache.Load(path)
	if err != nil {
		return nil, stageError(path, StageLoad, err)
	}
	name := SheetName(path)

	norm := imaging.Normalize(img, g.cfg.Normalize)
	if b := norm.Binary.Bounds(); b.Empty() {
		return nil, stageError(path, StageNormalize, fmt.Errorf("image has no pixels"))
	}
	if g.diag != nil {
		g.diag.Binary(name, norm.Binary)
	}

	pts, err := detection.LocateFiducials(norm.Binary, g.cfg.Fiducials)
	if g.diag != nil {
		g.diag.Fiducials(name, norm.Gray, pts)
	}
	if err != nil {
		return nil, stageError(path, StageFiducials, err)
	}
	g.log.Debug("%s: fiducials at %v", name, pts)

	corners, err := align.OrderCorners(pts)
	if err != nil {
		return nil, stageError(path, StageCorners, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	aligned, err := g.aligner.Align(norm.Gray, corners)
	if err != nil {
		return nil, stageError(path, StageAlign, err)
	}
	if g.diag != nil {
		g.diag.Rectified(name, aligned.Sheet)
	}

	return &Alignment{
		Normalized: norm,
		Fiducials:  pts,
		Corners:    corners,
		Aligned:    aligned,
	}, nil
}

// GradeFile grades the photo at path: it is aligned, graded and, when an
// overlay directory is configured, annotated. Failures are returned as a
// *SheetError. The outcome is recorded in the store when one is attached.
func (g *Grader) GradeFile(ctx context.Context, path string) (*Outcome, error) {
	return g.run(ctx, path, g.gradeFile)
}

// GradeRectified grades the image at path, which is already in canonical
// sheet coordinates, skipping every geometric stage. Overlay, logging and
// the store record work as in GradeFile; the Outcome has no Corners.
func (g *Grader) GradeRectified(ctx context.Context, path string) (*Outcome, error) {
	return g.run(ctx, path, g.gradeRectified)
}

func (g *Grader) run(ctx context.Context, path string, grade func(context.Context, string) (*Outcome, error)) (*Outcome, error) {
	out, err := grade(ctx, path)
	g.record(ctx, path, out, err)
	if err != nil {
		g.log.Warning("%v", err)
		return nil, err
	}

	blank, amb := out.Result.Count()
	if out.Result.Score != nil {
		g.log.Info("%s: score %d/%d (%d blank, %d ambiguous)", path, *out.Result.Score, out.Result.Total(), blank, amb)
	} else {
		g.log.Info("%s: %d questions read (%d blank, %d ambiguous)", path, out.Result.Total(), blank, amb)
	}
	return out, nil
}

func (g *Grader) gradeFile(ctx context.Context, path string) (*Outcome, error) {
	a, err := g.Align(ctx, path)
	if err != nil {
		return nil, err
	}

	res, err := g.grade(path, a.Aligned.Sheet)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Path: path, Result: res, Corners: &a.Corners}
	if err := g.writeOverlay(out, a.Aligned.Sheet); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *Grader) gradeRectified(ctx context.Context, path string) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := g.cache.Load(path)
	if err != nil {
		return nil, stageError(path, StageLoad, err)
	}
	sheet := imaging.ToGray(img)

	res, err := g.grade(path, sheet)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Path: path, Result: res}
	if err := g.writeOverlay(out, sheet); err != nil {
		return nil, err
	}
	return out, nil
}

// writeOverlay saves the annotated sheet when an overlay directory is
// configured and sets out.Overlay.
func (g *Grader) writeOverlay(out *Outcome, sheet *image.Gray) error {
	if g.cfg.OverlayDir == "" {
		return nil
	}
	out.Overlay = filepath.Join(g.cfg.OverlayDir, SheetName(out.Path)+"_graded.png")
	if err := overlay.Save(out.Overlay, sheet, out.Result); err != nil {
		return stageError(out.Path, StageOverlay, err)
	}
	return nil
}

func (g *Grader) grade(path string, sheet *image.Gray) (*grading.Result, error) {
	if g.engine == nil {
		return nil, stageError(path, StageGrade, ErrNoTemplate)
	}

	var sheetID string
	if g.header.Enabled() {
		h, err := g.header.Read(sheet)
		if err != nil {
			return nil, stageError(path, StageHeader, err)
		}
		sheetID = h.Text
		g.log.Debug("%s: header %q (confidence %.2f)", path, h.Text, h.Confidence)
	}

	res, err := g.engine.Grade(sheet)
	if err != nil {
		return nil, stageError(path, StageGrade, err)
	}
	res.SheetID = sheetID
	return res, nil
}

// record writes the outcome to the store. Store failures are logged; they
// never change the grading outcome.
func (g *Grader) record(ctx context.Context, path string, out *Outcome, err error) {
	if g.store == nil {
		return
	}
	if err != nil {
		var se *SheetError
		if !errors.As(err, &se) {
			// Cancelled before any stage ran.
			return
		}
		if _, serr := g.store.RecordFailed(ctx, path, string(se.Stage), se.Reason()); serr != nil {
			g.log.Error("failed to record %s: %v", path, serr)
		}
		return
	}
	if _, serr := g.store.RecordGraded(ctx, path, out.Result, out.Overlay); serr != nil {
		g.log.Error("failed to record %s: %v", path, serr)
	}
}

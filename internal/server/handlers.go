package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/omr-grader/internal/align"
	"github.com/ironsheep/omr-grader/internal/detection"
	"github.com/ironsheep/omr-grader/internal/geom"
	"github.com/ironsheep/omr-grader/internal/grading"
	"github.com/ironsheep/omr-grader/internal/imaging"
	"github.com/ironsheep/omr-grader/internal/ocr"
	"github.com/ironsheep/omr-grader/internal/overlay"
	"github.com/ironsheep/omr-grader/internal/pipeline"
	"github.com/ironsheep/omr-grader/internal/templategen"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "omr_grade_sheet").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// errNoStore is returned by omr_sheet_results when no database is configured.
var errNoStore = errors.New("no results database configured (set OMR_RESULTS_DB)")

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Warning("%s failed: %v", params.Name, err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Grading
	case "omr_grade_sheet":
		return s.handleGradeSheet(ctx, args)
	case "omr_sheet_results":
		return s.handleSheetResults(ctx, args)

	// Geometry
	case "omr_locate_fiducials":
		return s.handleLocateFiducials(args)
	case "omr_align_sheet":
		return s.handleAlignSheet(ctx, args)
	case "omr_detect_bubbles":
		return s.handleDetectBubbles(ctx, args)

	// Authoring and identification
	case "omr_generate_template":
		return s.handleGenerateTemplate(args)
	case "omr_read_header":
		return s.handleReadHeader(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// newGrader builds a Grader sharing the server's cache, logger and store.
// An empty templatePath yields an alignment-only Grader.
func (s *Server) newGrader(templatePath, keyPath, overlayDir string) (*pipeline.Grader, error) {
	var engine *grading.Engine
	if templatePath != "" {
		tmpl, err := grading.LoadTemplate(templatePath)
		if err != nil {
			return nil, err
		}
		var key grading.AnswerKey
		if keyPath != "" {
			if key, err = grading.LoadAnswerKey(keyPath); err != nil {
				return nil, err
			}
		}
		if engine, err = grading.NewEngine(tmpl, key, s.cfg.Scoring); err != nil {
			return nil, err
		}
	}

	cfg := *s.cfg
	cfg.OverlayDir = overlayDir

	opts := []pipeline.Option{pipeline.WithCache(s.cache), pipeline.WithLogger(s.log)}
	if s.store != nil {
		opts = append(opts, pipeline.WithStore(s.store))
	}
	return pipeline.NewGrader(&cfg, engine, opts...)
}

// cornerMap labels corners by role for JSON output.
func cornerMap(c align.Corners) map[string]geom.Point {
	m := make(map[string]geom.Point, len(c))
	for i, p := range c {
		m[align.Corner(i).String()] = p
	}
	return m
}

// === Grading Handlers ===

type gradeSheetArgs struct {
	Path       string `json:"path"`
	Template   string `json:"template"`
	Key        string `json:"key"`
	Rectified  bool   `json:"rectified"`
	OverlayDir string `json:"overlay_dir"`
}

type gradeSheetResult struct {
	Path string `json:"path"`
	*grading.Result
	Total     int                   `json:"total"`
	Blank     int                   `json:"blank"`
	Ambiguous int                   `json:"ambiguous"`
	Overlay   string                `json:"overlay,omitempty"`
	Corners   map[string]geom.Point `json:"corners,omitempty"`
}

func (s *Server) handleGradeSheet(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a gradeSheetArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" || a.Template == "" {
		return nil, fmt.Errorf("path and template are required")
	}

	g, err := s.newGrader(a.Template, a.Key, a.OverlayDir)
	if err != nil {
		return nil, err
	}

	grade := g.GradeFile
	if a.Rectified {
		grade = g.GradeRectified
	}
	o, err := grade(ctx, a.Path)
	if err != nil {
		return nil, err
	}

	out := gradeSheetResult{Path: a.Path, Result: o.Result, Overlay: o.Overlay}
	if o.Corners != nil {
		out.Corners = cornerMap(*o.Corners)
	}
	out.Total = out.Result.Total()
	out.Blank, out.Ambiguous = out.Result.Count()
	return out, nil
}

type sheetResultsArgs struct {
	Path  string `json:"path"`
	Limit int    `json:"limit"`
}

func (s *Server) handleSheetResults(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sheetResultsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, errNoStore
	}
	if a.Path != "" {
		return s.store.Get(ctx, a.Path)
	}
	if a.Limit == 0 {
		a.Limit = 20
	}
	sheets, err := s.store.Recent(ctx, a.Limit)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"count":  len(sheets),
		"sheets": sheets,
	}, nil
}

// === Geometry Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

type locateFiducialsResult struct {
	Path      string                `json:"path"`
	Count     int                   `json:"count"`
	Fiducials []detection.Fiducial  `json:"fiducials"`
	Corners   map[string]geom.Point `json:"corners,omitempty"`
	Problem   string                `json:"problem,omitempty"`
}

func (s *Server) handleLocateFiducials(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	norm := imaging.Normalize(img, s.cfg.Normalize)
	found := detection.FindFiducials(norm.Binary, s.cfg.Fiducials)

	out := locateFiducialsResult{Path: a.Path, Count: len(found), Fiducials: found}
	if len(found) != detection.FiducialCount {
		out.Problem = (&detection.FiducialCountError{Found: len(found)}).Error()
		return out, nil
	}

	centers := make([]geom.Point, len(found))
	for i, f := range found {
		centers[i] = f.Center
	}
	corners, err := align.OrderCorners(centers)
	if err != nil {
		out.Problem = err.Error()
		return out, nil
	}
	out.Corners = cornerMap(corners)
	return out, nil
}

type alignSheetArgs struct {
	Path        string `json:"path"`
	Output      string `json:"output"`
	MaxWidth    *int   `json:"max_width"`
	GridSpacing int    `json:"grid_spacing"`
}

type alignSheetResult struct {
	Path      string                 `json:"path"`
	Width     int                    `json:"width"`
	Height    int                    `json:"height"`
	Fiducials []geom.Point           `json:"fiducials"`
	Corners   map[string]geom.Point  `json:"corners"`
	Transform *align.Transform       `json:"transform"`
	Output    string                 `json:"output,omitempty"`
	Preview   *imaging.PreviewResult `json:"preview,omitempty"`
}

func (s *Server) handleAlignSheet(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a alignSheetArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	maxWidth := 800
	if a.MaxWidth != nil {
		maxWidth = *a.MaxWidth
	}

	g, err := s.newGrader("", "", "")
	if err != nil {
		return nil, err
	}
	al, err := g.Align(ctx, a.Path)
	if err != nil {
		return nil, err
	}

	sheet := al.Aligned.Sheet
	out := alignSheetResult{
		Path:      a.Path,
		Width:     sheet.Bounds().Dx(),
		Height:    sheet.Bounds().Dy(),
		Fiducials: al.Fiducials,
		Corners:   cornerMap(al.Corners),
		Transform: al.Aligned.Transform,
	}

	if a.Output != "" {
		if err := overlay.Write(a.Output, sheet); err != nil {
			return nil, err
		}
		out.Output = a.Output
	}
	if maxWidth > 0 {
		var preview image.Image = sheet
		if a.GridSpacing > 0 {
			if preview, err = overlay.Grid(sheet, a.GridSpacing, true, ""); err != nil {
				return nil, err
			}
		}
		if out.Preview, err = imaging.Preview(preview, maxWidth); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type detectBubblesArgs struct {
	Path           string   `json:"path"`
	Align          *bool    `json:"align"`
	MinArea        *float64 `json:"min_area"`
	MaxArea        *float64 `json:"max_area"`
	MinCircularity *float64 `json:"min_circularity"`
}

func (s *Server) handleDetectBubbles(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a detectBubblesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	p := detection.DefaultBubbleParams()
	if a.MinArea != nil {
		p.MinArea = *a.MinArea
	}
	if a.MaxArea != nil {
		p.MaxArea = *a.MaxArea
	}
	if a.MinCircularity != nil {
		p.MinCircularity = *a.MinCircularity
	}

	var norm *imaging.Normalized
	if a.Align == nil || *a.Align {
		g, err := s.newGrader("", "", "")
		if err != nil {
			return nil, err
		}
		al, err := g.Align(ctx, a.Path)
		if err != nil {
			return nil, err
		}
		norm = imaging.Normalize(al.Aligned.Sheet, s.cfg.Normalize)
	} else {
		img, err := s.cache.Load(a.Path)
		if err != nil {
			return nil, err
		}
		norm = imaging.Normalize(img, s.cfg.Normalize)
	}

	bubbles := detection.DetectBubbles(norm.Binary, p)
	return map[string]interface{}{
		"path":    a.Path,
		"count":   len(bubbles),
		"bubbles": bubbles,
	}, nil
}

// === Authoring and Identification Handlers ===

type generateTemplateArgs struct {
	templategen.Layout
	FirstQuestion int    `json:"first_question"`
	Output        string `json:"output"`
}

func (s *Server) handleGenerateTemplate(args json.RawMessage) (interface{}, error) {
	var a generateTemplateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	l := a.Layout
	def := templategen.DefaultLayout()
	if l.Radius == 0 {
		l.Radius = def.Radius
	}
	if l.Columns == 0 {
		l.Columns = def.Columns
	}
	if l.RowsPerColumn == 0 {
		l.RowsPerColumn = def.RowsPerColumn
	}
	if len(l.Options) == 0 {
		l.Options = def.Options
	}
	if l.QuestionPrefix == "" {
		l.QuestionPrefix = def.QuestionPrefix
	}
	if l.FirstQuestionNo == 0 {
		l.FirstQuestionNo = def.FirstQuestionNo
	}
	if a.FirstQuestion != 0 {
		l.FirstQuestionNo = a.FirstQuestion
	}

	tmpl, err := templategen.Generate(l)
	if err != nil {
		return nil, err
	}
	if a.Output != "" {
		if err := tmpl.Save(a.Output); err != nil {
			return nil, err
		}
	}

	return map[string]interface{}{
		"questions": len(tmpl),
		"output":    a.Output,
		"template":  tmpl,
	}, nil
}

type readHeaderArgs struct {
	Path      string          `json:"path"`
	Rectified bool            `json:"rectified"`
	Region    *imaging.Region `json:"region"`
	Language  string          `json:"language"`
	Whitelist string          `json:"whitelist"`
}

func (s *Server) handleReadHeader(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a readHeaderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	reader := ocr.NewHeaderReader(s.cfg.Header)
	region := reader.Region()
	if a.Region != nil {
		region = *a.Region
	} else if !reader.Enabled() {
		return nil, ocr.ErrHeaderDisabled
	}
	if a.Language == "" {
		a.Language = s.cfg.Header.Language
	}
	if a.Whitelist == "" {
		a.Whitelist = s.cfg.Header.Whitelist
	}

	if a.Rectified {
		img, err := s.cache.Load(a.Path)
		if err != nil {
			return nil, err
		}
		return ocr.ReadRegion(img, region, a.Language, a.Whitelist)
	}

	g, err := s.newGrader("", "", "")
	if err != nil {
		return nil, err
	}
	al, err := g.Align(ctx, a.Path)
	if err != nil {
		return nil, err
	}
	return ocr.ReadRegion(al.Aligned.Sheet, region, a.Language, a.Whitelist)
}

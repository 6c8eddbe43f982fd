package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ironsheep/omr-grader/internal/config"
	"github.com/ironsheep/omr-grader/internal/geom"
	"github.com/ironsheep/omr-grader/internal/grading"
	"github.com/ironsheep/omr-grader/internal/logger"
	"github.com/ironsheep/omr-grader/internal/pipeline"
	"github.com/ironsheep/omr-grader/internal/store"
	"github.com/ironsheep/omr-grader/internal/templategen"
)

func runGrade(ctx context.Context, cfg *config.Config, lg *logger.Logger, args []string) int {
	fs := flag.NewFlagSet("grade", flag.ContinueOnError)
	templatePath := fs.String("template", "", "template JSON (required)")
	keyPath := fs.String("key", "", "answer key JSON; without it sheets are read but not scored")
	fs.StringVar(&cfg.OverlayDir, "overlay", cfg.OverlayDir, "directory for annotated overlays")
	fs.StringVar(&cfg.DebugDir, "debug", cfg.DebugDir, "directory for intermediate images")
	fs.StringVar(&cfg.ResultsDB, "db", cfg.ResultsDB, "SQLite results database")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "sheets graded concurrently")
	asJSON := fs.Bool("json", false, "print one JSON object per sheet")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *templatePath == "" || fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "grade: -template and at least one photo are required")
		fs.Usage()
		return 2
	}

	g, closeAll, err := buildGrader(cfg, lg, *templatePath, *keyPath)
	if err != nil {
		lg.Error("%v", err)
		return 1
	}
	defer closeAll()

	res, err := g.Batch(ctx, fs.Args())
	for _, out := range res.Outcomes {
		printOutcome(os.Stdout, out, *asJSON)
	}
	lg.Info("graded %d sheets, %d failed", res.Graded, res.Failed)

	switch {
	case err != nil:
		lg.Warning("batch interrupted: %v", err)
		return 130
	case res.Failed > 0:
		return 1
	}
	return 0
}

func buildGrader(cfg *config.Config, lg *logger.Logger, templatePath, keyPath string) (*pipeline.Grader, func(), error) {
	tmpl, err := grading.LoadTemplate(templatePath)
	if err != nil {
		return nil, nil, err
	}
	var key grading.AnswerKey
	if keyPath != "" {
		if key, err = grading.LoadAnswerKey(keyPath); err != nil {
			return nil, nil, err
		}
	}
	engine, err := grading.NewEngine(tmpl, key, cfg.Scoring)
	if err != nil {
		return nil, nil, err
	}

	if cfg.OverlayDir != "" {
		if err := os.MkdirAll(cfg.OverlayDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create overlay directory: %w", err)
		}
	}

	opts := []pipeline.Option{pipeline.WithLogger(lg)}
	closeAll := func() {}
	if cfg.DebugDir != "" {
		diag, err := pipeline.NewDirDiagnostics(cfg.DebugDir, lg)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, pipeline.WithDiagnostics(diag))
	}
	if cfg.ResultsDB != "" {
		db, err := store.Open(cfg.ResultsDB)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, pipeline.WithStore(db))
		closeAll = func() { db.Close() }
	}

	g, err := pipeline.NewGrader(cfg, engine, opts...)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	return g, closeAll, nil
}

func printOutcome(w io.Writer, out *pipeline.Outcome, asJSON bool) {
	if asJSON {
		rec := map[string]interface{}{"path": out.Path}
		if out.Err != nil {
			rec["error"] = out.Err.Error()
			var se *pipeline.SheetError
			if errors.As(out.Err, &se) {
				rec["stage"] = se.Stage
				rec["error"] = se.Reason()
			}
		} else {
			rec["result"] = out.Result
			if out.Overlay != "" {
				rec["overlay"] = out.Overlay
			}
		}
		data, _ := json.Marshal(rec)
		fmt.Fprintln(w, string(data))
		return
	}

	if out.Err != nil {
		var se *pipeline.SheetError
		if errors.As(out.Err, &se) {
			fmt.Fprintf(w, "%s\tFAILED (%s)\t%s\n", out.Path, se.Stage, se.Reason())
		} else {
			fmt.Fprintf(w, "%s\tSKIPPED\t%v\n", out.Path, out.Err)
		}
		return
	}

	r := out.Result
	blank, amb := r.Count()
	score := "-"
	if r.Score != nil {
		score = fmt.Sprintf("%d/%d", *r.Score, r.Total())
	}
	id := r.SheetID
	if id == "" {
		id = "-"
	}
	fmt.Fprintf(w, "%s\t%s\t%s\tblank=%d\tambiguous=%d\n", out.Path, id, score, blank, amb)
}

// pointFlag parses "x,y".
type pointFlag struct {
	p   *geom.SheetPoint
	set bool
}

func (f *pointFlag) String() string {
	if f.p == nil {
		return ""
	}
	return fmt.Sprintf("%g,%g", f.p.X, f.p.Y)
}

func (f *pointFlag) Set(s string) error {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return fmt.Errorf("want x,y, got %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return err
	}
	*f.p = geom.SheetPoint{X: x, Y: y}
	f.set = true
	return nil
}

func runTemplate(args []string) int {
	l := templategen.DefaultLayout()

	fs := flag.NewFlagSet("template", flag.ContinueOnError)
	first := &pointFlag{p: &l.FirstOption}
	second := &pointFlag{p: &l.SecondOption}
	next := &pointFlag{p: &l.NextQuestion}
	column := &pointFlag{p: &l.NextColumn}
	fs.Var(first, "first", "x,y of option 1 of the first question (required)")
	fs.Var(second, "second", "x,y of option 2 of the first question (required)")
	fs.Var(next, "next", "x,y of option 1 of the second question (required)")
	fs.Var(column, "column", "x,y of option 1 of the first question in the next column")
	fs.Float64Var(&l.Radius, "radius", l.Radius, "bubble radius")
	fs.IntVar(&l.Columns, "columns", l.Columns, "question columns")
	fs.IntVar(&l.RowsPerColumn, "rows", l.RowsPerColumn, "questions per column")
	options := fs.String("options", strings.Join(l.Options, ","), "comma-separated option labels")
	fs.StringVar(&l.QuestionPrefix, "prefix", l.QuestionPrefix, "question id prefix")
	fs.IntVar(&l.FirstQuestionNo, "start", l.FirstQuestionNo, "number of the first question")
	output := fs.String("o", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if !first.set || !second.set || !next.set || (l.Columns > 1 && !column.set) {
		fmt.Fprintln(os.Stderr, "template: -first, -second and -next are required, and -column when -columns > 1")
		fs.Usage()
		return 2
	}
	l.Options = strings.Split(*options, ",")

	tmpl, err := templategen.Generate(l)
	if err != nil {
		fmt.Fprintf(os.Stderr, "template: %v\n", err)
		return 1
	}

	if *output != "" {
		if err := tmpl.Save(*output); err != nil {
			fmt.Fprintf(os.Stderr, "template: %v\n", err)
			return 1
		}
		fmt.Fprintf(os.Stderr, "wrote %d questions to %s\n", len(tmpl), *output)
		return 0
	}

	data, err := json.MarshalIndent(tmpl, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "template: %v\n", err)
		return 1
	}
	fmt.Println(string(data))
	return 0
}

func runResults(ctx context.Context, cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("results", flag.ContinueOnError)
	fs.StringVar(&cfg.ResultsDB, "db", cfg.ResultsDB, "SQLite results database")
	limit := fs.Int("limit", 20, "records to list")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if cfg.ResultsDB == "" {
		fmt.Fprintln(os.Stderr, "results: -db or OMR_RESULTS_DB is required")
		return 2
	}

	db, err := store.Open(cfg.ResultsDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "results: %v\n", err)
		return 1
	}
	defer db.Close()

	var v interface{}
	if fs.NArg() > 0 {
		v, err = db.Get(ctx, fs.Arg(0))
	} else {
		v, err = db.Recent(ctx, *limit)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "results: %v\n", err)
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "results: %v\n", err)
		return 1
	}
	return 0
}

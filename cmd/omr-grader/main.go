package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/omr-grader/internal/config"
	"github.com/ironsheep/omr-grader/internal/logger"
	"github.com/ironsheep/omr-grader/internal/server"
	"github.com/ironsheep/omr-grader/internal/store"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const usage = `omr-grader - grade photographed answer sheets

Usage:
  omr-grader [serve]                      Run the MCP server on stdin/stdout
  omr-grader grade [flags] PHOTO...       Grade photos in a batch
  omr-grader template [flags]             Generate a template from reference points
  omr-grader results [flags] [PHOTO]      Show recorded results
  omr-grader --version                    Print version information
  omr-grader --help                       Print this help message

Run "omr-grader COMMAND -h" for the flags of a command.

Environment variables (a .env file in the working directory is read first):
  OMR_LOG_LEVEL=debug|info|warning|error
  OMR_LOG_DIR          Also write info.log, warning.log and error.log here
  OMR_RESULTS_DB       SQLite results database
  OMR_OVERLAY_DIR      Write annotated overlays here
  OMR_DEBUG_DIR        Write intermediate images here
  OMR_WORKERS          Sheets graded concurrently (default 4)
  OMR_HEADER_REGION    x1,y1,x2,y2 of the identifier box to OCR
  OMR_MIN_FILL, OMR_MARGIN, OMR_INNER_SCALE and the other OMR_* tunables
`

func main() {
	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cmd, args := "serve", os.Args[1:]
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "--version", "-v", "version":
		fmt.Printf("omr-grader %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	case "--help", "-h", "help":
		fmt.Print(usage)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	lg, err := logger.New(level, os.Stderr, cfg.LogDir)
	if err != nil {
		log.Fatalf("Logger error: %v", err)
	}
	defer lg.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var code int
	switch cmd {
	case "serve":
		code = runServe(ctx, cfg, lg)
	case "grade":
		code = runGrade(ctx, cfg, lg, args)
	case "template":
		code = runTemplate(args)
	case "results":
		code = runResults(ctx, cfg, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		code = 2
	}

	if code != 0 {
		stop()
		lg.Close()
		os.Exit(code)
	}
}

func runServe(ctx context.Context, cfg *config.Config, lg *logger.Logger) int {
	lg.Debug("OMR MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)

	opts := []server.Option{server.WithLogger(lg), server.WithVersion(Version)}
	if cfg.ResultsDB != "" {
		db, err := store.Open(cfg.ResultsDB)
		if err != nil {
			lg.Error("%v", err)
			return 1
		}
		defer db.Close()
		opts = append(opts, server.WithStore(db))
	}

	// Scanning stdin does not observe ctx; closing it unblocks the server.
	go func() {
		<-ctx.Done()
		os.Stdin.Close()
	}()

	if err := server.New(cfg, opts...).Run(ctx); err != nil && ctx.Err() == nil {
		lg.Error("Server error: %v", err)
		return 1
	}
	return 0
}

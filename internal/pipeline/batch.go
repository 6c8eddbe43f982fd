package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchResult holds one Outcome per input path, in input order.
type BatchResult struct {
	Outcomes []*Outcome
	Graded   int
	Failed   int
}

// Batch grades paths on at most cfg.Workers goroutines. Each sheet is owned
// by exactly one goroutine and evicted from the image cache once graded.
//
// A failing sheet is recorded in its Outcome and does not affect the others.
// When ctx is cancelled no further sheets are started; those never started
// carry ctx's error, and Batch returns it alongside the partial result.
func (g *Grader) Batch(ctx context.Context, paths []string) (*BatchResult, error) {
	res := &BatchResult{Outcomes: make([]*Outcome, len(paths))}

	var eg errgroup.Group
	eg.SetLimit(g.cfg.Workers)

	for i, path := range paths {
		if ctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			defer g.cache.Evict(path)

			out, err := g.GradeFile(ctx, path)
			if err != nil {
				out = &Outcome{Path: path, Err: err}
			}
			res.Outcomes[i] = out
			return nil
		})
	}
	_ = eg.Wait()

	for i, out := range res.Outcomes {
		switch {
		case out == nil:
			res.Outcomes[i] = &Outcome{Path: paths[i], Err: ctx.Err()}
			res.Failed++
		case out.Err != nil:
			res.Failed++
		default:
			res.Graded++
		}
	}

	return res, ctx.Err()
}

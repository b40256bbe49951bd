// Package batch fans a set of independent planning requests out across
// goroutines and collects their results in request order. It generalizes the
// errgroup-with-concurrency-limit pattern used by the pack's stress-test
// scenario runner.
package batch

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/forgelift/planner/internal/model"
	"github.com/forgelift/planner/internal/planner"
)

// defaultMaxConcurrency caps in-flight Plan calls so a large batch doesn't
// spin up an unbounded number of goroutines.
const defaultMaxConcurrency = 8

// Request is one user's planning inputs.
type Request struct {
	Library   []model.Exercise
	User      model.UserContext
	History   []model.WorkoutHistoryEntry
	Baselines []model.Baseline
	Intent    *model.Intent
	Seed      int64
	Config    []planner.Config
}

// Outcome pairs a request's resulting plan with any error from planning it.
// A batch never short-circuits on a single request's failure; every request
// gets an Outcome.
type Outcome struct {
	Plan model.SessionPlan
	Err  error
}

// PlanMany runs Plan for every request concurrently, bounded by
// maxConcurrency (defaultMaxConcurrency when <= 0), and returns one Outcome
// per request in the same order as requests. The returned error is non-nil
// only when ctx itself was cancelled; individual request failures surface
// through each Outcome.Err instead of aborting the batch.
func PlanMany(ctx context.Context, requests []Request, maxConcurrency int) ([]Outcome, error) {
	if maxConcurrency <= 0 {
		maxConcurrency = defaultMaxConcurrency
	}

	outcomes := make([]Outcome, len(requests))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)

	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			var cfg []planner.Config
			if len(req.Config) > 0 {
				cfg = req.Config
			}
			plan, err := planner.Plan(gctx, req.Library, req.User, req.History, req.Baselines, req.Intent, req.Seed, cfg...)
			outcomes[i] = Outcome{Plan: plan, Err: err}
			return nil
		})
	}

	_ = g.Wait() // goroutines never return a non-nil error themselves
	if err := ctx.Err(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

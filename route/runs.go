package route

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

type Job struct {
	Simulator *Simulator
	Start     BoatState
	Waypoints []Waypoint
}

// RunAll runs independent jobs concurrently. Each job owns its state, the
// simulators only share read-only data. Results keep the order of jobs.
// The first failing job cancels the jobs not started yet.
func RunAll(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := job.Simulator.Run(job.Start, job.Waypoints)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

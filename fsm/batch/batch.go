// Package batch drives many objects through one machine on a worker pool.
package batch

import (
	"context"
	"log/slog"

	"github.com/alitto/pond/v2"
	"github.com/amp-labs/amp-fsm/fsm"
)

const defaultWorkerCount = 10

// Job is a sequence of events for one object. Events are applied in order.
type Job struct {
	Object *fsm.Object
	Events []string
}

// Result reports how far a job got. Processed counts the events that were
// accepted; Err is the first failure, or the context error if the run was
// cancelled before the job finished.
type Result struct {
	Object    *fsm.Object
	Processed int
	Err       error
}

// Option configures a Driver.
type Option func(*Driver)

// WithWorkers sets the pool size used when the driver owns its pool.
func WithWorkers(count int) Option {
	return func(d *Driver) {
		if count > 0 {
			d.workers = count
		}
	}
}

// WithPool runs jobs on a caller-owned pool. The driver never stops it.
func WithPool(pool pond.Pool) Option {
	return func(d *Driver) {
		d.pool = pool
	}
}

// WithLogger sets the logger for run summaries. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Driver runs jobs concurrently against a machine. The machine's table
// must be fully registered before Run is called; a run only reads it.
type Driver struct {
	machine *fsm.Machine
	workers int
	pool    pond.Pool
	logger  *slog.Logger
}

// NewDriver creates a driver for machine.
func NewDriver(machine *fsm.Machine, opts ...Option) *Driver {
	driver := &Driver{
		machine: machine,
		workers: defaultWorkerCount,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(driver)
	}

	return driver
}

// Run processes every job and returns one result per job, in job order.
// Each job must own a distinct object.
func (d *Driver) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))

	if len(jobs) == 0 {
		return results
	}

	pool := d.pool
	if pool == nil {
		pool = pond.NewPool(d.workers)
		defer pool.StopAndWait()
	}

	tasks := make([]pond.Task, 0, len(jobs))

	for i, job := range jobs {
		tasks = append(tasks, pool.Submit(func() {
			results[i] = d.runJob(ctx, job)
		}))
	}

	// A task error means the job panicked before it produced a result.
	for i, task := range tasks {
		if err := task.Wait(); err != nil && results[i].Err == nil {
			results[i] = Result{Object: jobs[i].Object, Processed: results[i].Processed, Err: err}
		}
	}

	failed := 0

	for _, result := range results {
		if result.Err != nil {
			failed++
		}
	}

	d.logger.DebugContext(ctx, "Batch run finished",
		"machine", d.machine.Name(),
		"jobs", len(jobs),
		"failed", failed,
	)

	return results
}

func (d *Driver) runJob(ctx context.Context, job Job) Result {
	result := Result{Object: job.Object}

	for _, event := range job.Events {
		if err := ctx.Err(); err != nil {
			result.Err = err

			return result
		}

		if err := d.machine.Dispatch(ctx, event, job.Object); err != nil {
			result.Err = err

			return result
		}

		result.Processed++
	}

	return result
}

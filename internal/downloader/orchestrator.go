// Package downloader fans download tasks out over a bounded worker pool
// and collects how every task ended.
package downloader

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/yoshiori/zen-downloader/internal/models"
	"github.com/yoshiori/zen-downloader/internal/transcode"
)

// Runner executes a single transcode job. Satisfied by
// *transcode.Supervisor.
type Runner interface {
	Run(ctx context.Context, job transcode.Job) error
}

// ProgressFunc receives per-task position updates in seconds.
type ProgressFunc func(task *models.DownloadTask, seconds float64)

// Orchestrator runs batches of download tasks. Every task is attempted
// exactly once and a failing task never stops the rest of the batch.
type Orchestrator struct {
	runner     Runner
	parallel   int
	onProgress ProgressFunc
}

func NewOrchestrator(runner Runner, parallel int, onProgress ProgressFunc) *Orchestrator {
	if parallel < 1 {
		parallel = 1
	}
	return &Orchestrator{runner: runner, parallel: parallel, onProgress: onProgress}
}

// Run downloads the batch and reports how every task ended. Each worker
// writes only its own slot of the results slice, so the fan-out needs no
// locking.
func (o *Orchestrator) Run(ctx context.Context, tasks []*models.DownloadTask) *models.BatchResult {
	results := make([]error, len(tasks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallel)
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			log.Printf("[%d/%d] Downloading %s", task.Index, task.Total, task.Title)
			results[i] = o.runner.Run(ctx, transcode.Job{
				ManifestURL: task.ManifestURL,
				OutputPath:  task.OutputPath,
				Duration:    task.Duration,
				Tag:         task.Index,
				OnProgress:  o.taskProgress(task),
			})
			if results[i] != nil {
				log.Printf("[%d/%d] Failed %s: %v", task.Index, task.Total, task.Title, results[i])
			}
			return nil
		})
	}
	// Workers always return nil, so one failure cannot cancel the batch.
	_ = g.Wait()

	batch := &models.BatchResult{}
	for i, task := range tasks {
		if results[i] != nil {
			batch.Failures = append(batch.Failures, models.TaskFailure{Task: task, Err: results[i]})
		} else {
			batch.Completed = append(batch.Completed, task)
		}
	}
	return batch
}

func (o *Orchestrator) taskProgress(task *models.DownloadTask) transcode.ProgressFunc {
	if o.onProgress == nil {
		return nil
	}
	return func(seconds float64) { o.onProgress(task, seconds) }
}

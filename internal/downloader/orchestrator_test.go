package downloader_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yoshiori/zen-downloader/internal/downloader"
	"github.com/yoshiori/zen-downloader/internal/models"
	"github.com/yoshiori/zen-downloader/internal/transcode"
)

// scriptedRunner stands in for the transcode supervisor. It records every
// attempt, tracks how many run at once, and fails the outputs it is told
// to fail.
type scriptedRunner struct {
	mu       sync.Mutex
	attempts map[string]int
	order    []string

	active    int32
	maxActive int32

	failOn map[string]error
	delay  time.Duration
}

func newScriptedRunner() *scriptedRunner {
	return &scriptedRunner{
		attempts: make(map[string]int),
		failOn:   make(map[string]error),
	}
}

func (r *scriptedRunner) Run(ctx context.Context, job transcode.Job) error {
	cur := atomic.AddInt32(&r.active, 1)
	defer atomic.AddInt32(&r.active, -1)
	for {
		max := atomic.LoadInt32(&r.maxActive)
		if cur <= max || atomic.CompareAndSwapInt32(&r.maxActive, max, cur) {
			break
		}
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}

	name := filepath.Base(job.OutputPath)
	r.mu.Lock()
	r.attempts[name]++
	r.order = append(r.order, name)
	r.mu.Unlock()

	if job.OnProgress != nil && job.Duration > 0 {
		job.OnProgress(job.Duration)
	}
	return r.failOn[name]
}

func makeTasks(n int) []*models.DownloadTask {
	tasks := make([]*models.DownloadTask, n)
	for i := range tasks {
		tasks[i] = &models.DownloadTask{
			ID:          fmt.Sprintf("task-%d", i+1),
			Index:       i + 1,
			Total:       n,
			Title:       fmt.Sprintf("movie %d", i+1),
			ManifestURL: fmt.Sprintf("https://cdn.example.net/mv%d/master.m3u8", i+1),
			OutputPath:  fmt.Sprintf("/videos/%03d-movie-%d.mp4", i+1, i+1),
			Duration:    float64(100 * (i + 1)),
		}
	}
	return tasks
}

func TestRunAllSucceed(t *testing.T) {
	runner := newScriptedRunner()
	runner.delay = 10 * time.Millisecond
	orch := downloader.NewOrchestrator(runner, 2, nil)

	result := orch.Run(context.Background(), makeTasks(3))

	if len(result.Completed) != 3 || len(result.Failures) != 0 {
		t.Fatalf("got %d completed, %d failed; want 3 and 0",
			len(result.Completed), len(result.Failures))
	}
	for name, n := range runner.attempts {
		if n != 1 {
			t.Errorf("%s attempted %d times, want exactly once", name, n)
		}
	}
	if runner.maxActive > 2 {
		t.Errorf("max concurrent runs = %d, want at most 2", runner.maxActive)
	}
}

func TestRunMidBatchFailureDoesNotStopBatch(t *testing.T) {
	runner := newScriptedRunner()
	runner.failOn["002-movie-2.mp4"] = &transcode.TranscodeError{ExitCode: 1}
	orch := downloader.NewOrchestrator(runner, 1, nil)

	result := orch.Run(context.Background(), makeTasks(3))

	if len(result.Completed) != 2 {
		t.Fatalf("got %d completed, want 2", len(result.Completed))
	}
	if len(result.Failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(result.Failures))
	}
	if got := result.Failures[0].Task.Index; got != 2 {
		t.Errorf("failed task index = %d, want 2", got)
	}
	if result.Completed[0].Index != 1 || result.Completed[1].Index != 3 {
		t.Errorf("completed tasks = %d and %d, want 1 and 3",
			result.Completed[0].Index, result.Completed[1].Index)
	}

	// With one worker the failed task must not halt the ones behind it.
	want := []string{"001-movie-1.mp4", "002-movie-2.mp4", "003-movie-3.mp4"}
	if len(runner.order) != len(want) {
		t.Fatalf("attempt order %v, want %v", runner.order, want)
	}
	for i := range want {
		if runner.order[i] != want[i] {
			t.Fatalf("attempt order %v, want %v", runner.order, want)
		}
	}
	for name, n := range runner.attempts {
		if n != 1 {
			t.Errorf("%s attempted %d times, want exactly once", name, n)
		}
	}
}

func TestRunParallelismLargerThanBatch(t *testing.T) {
	runner := newScriptedRunner()
	orch := downloader.NewOrchestrator(runner, 8, nil)

	result := orch.Run(context.Background(), makeTasks(2))
	if result.Total() != 2 || len(result.Failures) != 0 {
		t.Fatalf("unexpected result: %d total, %d failures",
			result.Total(), len(result.Failures))
	}
}

func TestRunEmptyBatch(t *testing.T) {
	orch := downloader.NewOrchestrator(newScriptedRunner(), 4, nil)
	result := orch.Run(context.Background(), nil)
	if result.Total() != 0 {
		t.Fatalf("empty batch reported %d tasks", result.Total())
	}
}

func TestRunForwardsProgressPerTask(t *testing.T) {
	runner := newScriptedRunner()
	got := make(map[string]float64)
	orch := downloader.NewOrchestrator(runner, 1, func(task *models.DownloadTask, seconds float64) {
		got[task.ID] = seconds
	})

	tasks := makeTasks(2)
	orch.Run(context.Background(), tasks)

	for _, task := range tasks {
		if got[task.ID] != task.Duration {
			t.Errorf("task %s progress = %v, want %v", task.ID, got[task.ID], task.Duration)
		}
	}
}

func TestNewOrchestratorClampsParallelism(t *testing.T) {
	runner := newScriptedRunner()
	orch := downloader.NewOrchestrator(runner, 0, nil)

	result := orch.Run(context.Background(), makeTasks(2))
	if len(result.Completed) != 2 {
		t.Fatalf("got %d completed, want 2", len(result.Completed))
	}
	if runner.maxActive != 1 {
		t.Errorf("max concurrent runs = %d, want 1", runner.maxActive)
	}
}

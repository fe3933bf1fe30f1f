package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/yoshiori/zen-downloader/internal/models"
)

// progressRenderer draws one bar per download task. Positions arrive in
// seconds of written output; a movie without a known duration grows its
// bar total to stay ahead of the position instead.
type progressRenderer struct {
	progress *mpb.Progress
	mu       sync.Mutex
	bars     map[string]*mpb.Bar
}

func newProgressRenderer(w io.Writer) *progressRenderer {
	return &progressRenderer{
		progress: mpb.New(mpb.WithOutput(w), mpb.WithWidth(40)),
		bars:     make(map[string]*mpb.Bar),
	}
}

// Track registers a bar for every task up front so bar order matches
// task order regardless of which download starts first.
func (r *progressRenderer) Track(tasks []*models.DownloadTask) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, task := range tasks {
		total := int64(task.Duration)
		if total <= 0 {
			total = 1
		}
		bar := r.progress.AddBar(total,
			mpb.PrependDecorators(
				decor.Name(fmt.Sprintf("[%d/%d] %s", task.Index, task.Total, truncate(task.Title, 28))),
			),
			mpb.AppendDecorators(decor.Percentage()),
		)
		r.bars[task.ID] = bar
	}
}

// Update is the orchestrator's progress callback.
func (r *progressRenderer) Update(task *models.DownloadTask, seconds float64) {
	r.mu.Lock()
	bar := r.bars[task.ID]
	r.mu.Unlock()
	if bar == nil {
		return
	}
	if task.Duration <= 0 {
		bar.SetTotal(int64(seconds)+1, false)
	}
	bar.SetCurrent(int64(seconds))
}

// Done completes the successful bars, aborts the failed ones and waits
// for the render loop to flush.
func (r *progressRenderer) Done(result *models.BatchResult) {
	r.mu.Lock()
	for _, task := range result.Completed {
		if bar := r.bars[task.ID]; bar != nil {
			bar.SetTotal(-1, true)
		}
	}
	for _, failure := range result.Failures {
		if bar := r.bars[failure.Task.ID]; bar != nil {
			bar.Abort(false)
		}
	}
	r.mu.Unlock()
	r.progress.Wait()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

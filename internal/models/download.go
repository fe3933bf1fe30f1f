package models

// DownloadTask describes one movie to fetch and transcode. Index/Total are
// the movie's 1-based position in the chapter's movie list, kept stable
// across re-runs so destination names do not shift when earlier movies are
// skipped.
type DownloadTask struct {
	ID          string  `json:"id"` // batch-unique, for progress tracking
	Index       int     `json:"index"`
	Total       int     `json:"total"`
	Title       string  `json:"title"`
	ManifestURL string  `json:"manifest_url"`
	OutputPath  string  `json:"output_path"`
	Duration    float64 `json:"duration"` // seconds, 0 when unknown
}

// TaskFailure pairs a task with the error that terminated it.
type TaskFailure struct {
	Task *DownloadTask
	Err  error
}

// BatchResult aggregates the terminal outcome of every task in a batch.
// Each submitted task ends up in exactly one of the two lists.
type BatchResult struct {
	Completed []*DownloadTask
	Failures  []TaskFailure
}

func (r *BatchResult) Total() int {
	return len(r.Completed) + len(r.Failures)
}

package downloader

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/yoshiori/zen-downloader/internal/models"
	"github.com/yoshiori/zen-downloader/internal/util"
)

// Reasons a movie is left out of a batch.
const (
	SkipNoSource = "no playable source"
	SkipExists   = "already downloaded"
)

// Skip records a movie that never became a download task.
type Skip struct {
	Title  string
	Path   string
	Reason string
}

// BuildTasks turns a movie listing into download tasks. File names keep
// the listing position as a numeric prefix so downloads sort the way the
// platform presents them, and skipped movies still consume their index.
func BuildTasks(movies []*models.MovieInfo, destDir string) ([]*models.DownloadTask, []Skip) {
	var tasks []*models.DownloadTask
	var skips []Skip
	for i, movie := range movies {
		name := fmt.Sprintf("%03d-%s.mp4", i+1, util.SanitizeFilename(movie.Title))
		path := filepath.Join(destDir, name)
		if !movie.HasSource() {
			skips = append(skips, Skip{Title: movie.Title, Path: path, Reason: SkipNoSource})
			continue
		}
		if _, err := os.Stat(path); err == nil {
			skips = append(skips, Skip{Title: movie.Title, Path: path, Reason: SkipExists})
			continue
		}
		tasks = append(tasks, &models.DownloadTask{
			ID:          uuid.NewString(),
			Index:       i + 1,
			Total:       len(movies),
			Title:       movie.Title,
			ManifestURL: movie.ManifestURL,
			OutputPath:  path,
			Duration:    movie.Duration,
		})
	}
	return tasks, skips
}

// Package watch re-checks course material on an interval and downloads
// the movies that appeared since the last pass. Files already on disk
// are the record of what was fetched, so each check fills only the gaps.
package watch

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"github.com/yoshiori/zen-downloader/internal/catalog"
	"github.com/yoshiori/zen-downloader/internal/downloader"
	"github.com/yoshiori/zen-downloader/internal/models"
	"github.com/yoshiori/zen-downloader/internal/store"
)

// Catalog is the slice of the catalog client the watcher needs.
type Catalog interface {
	MoviesForRef(ctx context.Context, ref catalog.ContentRef) ([]*models.MovieInfo, error)
}

// Service holds the dependencies for the periodic course checker.
type Service struct {
	catalog Catalog
	orch    *downloader.Orchestrator
	st      *store.Store
	ref     catalog.ContentRef
	destDir string
}

func NewService(cat Catalog, orch *downloader.Orchestrator, st *store.Store, ref catalog.ContentRef, destDir string) *Service {
	return &Service{catalog: cat, orch: orch, st: st, ref: ref, destDir: destDir}
}

// CheckOnce fetches the current listing and downloads every movie not on
// disk yet. A check that finds nothing new returns an empty batch.
func (s *Service) CheckOnce(ctx context.Context) (*models.BatchResult, error) {
	movies, err := s.catalog.MoviesForRef(ctx, s.ref)
	if err != nil {
		return nil, err
	}

	tasks, skips := downloader.BuildTasks(movies, s.destDir)
	for _, skip := range skips {
		if skip.Reason == downloader.SkipNoSource {
			log.Printf("Skipping %s: %s", skip.Title, skip.Reason)
		}
	}
	if len(tasks) == 0 {
		log.Println("No new movies found.")
		return &models.BatchResult{}, nil
	}

	log.Printf("Found %d new movies. Downloading.", len(tasks))
	result := s.orch.Run(ctx, tasks)
	if s.st != nil {
		if err := s.st.RecordBatch(uuid.NewString(), result); err != nil {
			log.Printf("Failed to record batch in history: %v", err)
		}
	}
	return result, nil
}

// Start runs an immediate check and then re-checks every intervalMinutes
// until the context is canceled. An interval under one minute means a
// single check with no schedule. The first check failing is fatal; later
// failures are logged and the schedule keeps going.
func (s *Service) Start(ctx context.Context, intervalMinutes int) error {
	if _, err := s.CheckOnce(ctx); err != nil {
		return fmt.Errorf("initial course check failed: %w", err)
	}
	if intervalMinutes < 1 {
		return nil
	}

	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.SingletonModeAll()

	log.Printf("Re-checking every %d minutes.", intervalMinutes)
	_, err := scheduler.Every(intervalMinutes).Minutes().Do(func() {
		log.Println("Scheduler is triggering course check.")
		if _, err := s.CheckOnce(ctx); err != nil {
			log.Printf("Course check failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule course check: %w", err)
	}

	scheduler.StartAsync()
	<-ctx.Done()
	scheduler.Stop()
	return nil
}

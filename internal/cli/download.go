package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yoshiori/zen-downloader/internal/catalog"
	"github.com/yoshiori/zen-downloader/internal/core"
	"github.com/yoshiori/zen-downloader/internal/downloader"
	"github.com/yoshiori/zen-downloader/internal/store"
	"github.com/yoshiori/zen-downloader/internal/transcode"
)

var (
	downloadOutput   string
	downloadParallel int
)

var downloadCmd = &cobra.Command{
	Use:   "download <course-or-chapter-url>",
	Short: "Download every movie behind a course or chapter URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "",
		"directory to write movies into (defaults to download_dir)")
	downloadCmd.Flags().IntVarP(&downloadParallel, "parallel", "p", 0,
		"concurrent downloads (defaults to the parallel config key)")
	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	app, err := core.New(appVersion)
	if err != nil {
		return err
	}
	defer app.Close()
	cfg := app.Config

	ref, err := catalog.ParseContentURL(args[0])
	if err != nil {
		return err
	}

	destDir := downloadOutput
	if destDir == "" {
		destDir = cfg.DownloadDir
	}
	parallel := downloadParallel
	if parallel <= 0 {
		parallel = cfg.Parallel
	}

	ctx := cmd.Context()
	supervisor := transcode.NewSupervisor(cfg.FFmpegPath)
	if err := supervisor.Preflight(ctx); err != nil {
		return err
	}

	m, err := newSessionManager(cfg)
	if err != nil {
		return err
	}
	defer m.Close(context.Background())

	movies, err := catalog.New(m).MoviesForRef(ctx, ref)
	if err != nil {
		return err
	}
	if len(movies) == 0 {
		fmt.Println("No movies found.")
		return nil
	}

	tasks, skips := downloader.BuildTasks(movies, destDir)
	for _, skip := range skips {
		fmt.Printf("Skipping %s: %s\n", skip.Title, skip.Reason)
	}
	if len(tasks) == 0 {
		fmt.Println("Nothing to download.")
		return nil
	}

	renderer := newProgressRenderer(os.Stdout)
	renderer.Track(tasks)

	orch := downloader.NewOrchestrator(supervisor, parallel, renderer.Update)
	result := orch.Run(ctx, tasks)
	renderer.Done(result)

	if err := store.New(app.DB).RecordBatch(uuid.NewString(), result); err != nil {
		log.Printf("Failed to record batch in history: %v", err)
	}

	fmt.Printf("Downloaded %d of %d movies to %s.\n", len(result.Completed), result.Total(), destDir)
	// Per-task failures are reported here but do not fail the command.
	for _, failure := range result.Failures {
		fmt.Printf("Failed: %s: %v\n", filepath.Base(failure.Task.OutputPath), failure.Err)
	}
	return nil
}

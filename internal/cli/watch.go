package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yoshiori/zen-downloader/internal/catalog"
	"github.com/yoshiori/zen-downloader/internal/core"
	"github.com/yoshiori/zen-downloader/internal/downloader"
	"github.com/yoshiori/zen-downloader/internal/store"
	"github.com/yoshiori/zen-downloader/internal/transcode"
	"github.com/yoshiori/zen-downloader/internal/watch"
)

var (
	watchOutput   string
	watchParallel int
	watchInterval int
)

var watchCmd = &cobra.Command{
	Use:   "watch <course-or-chapter-url>",
	Short: "Keep downloading new movies as they appear, until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		destDir := watchOutput
		if destDir == "" {
			destDir = cfg.DownloadDir
		}
		parallel := watchParallel
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

		// Watch mode reports through logs, not progress bars.
		orch := downloader.NewOrchestrator(supervisor, parallel, nil)
		svc := watch.NewService(catalog.New(m), orch, store.New(app.DB), ref, destDir)
		return svc.Start(ctx, watchInterval)
	},
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "",
		"directory to write movies into (defaults to download_dir)")
	watchCmd.Flags().IntVarP(&watchParallel, "parallel", "p", 0,
		"concurrent downloads (defaults to the parallel config key)")
	watchCmd.Flags().IntVar(&watchInterval, "interval", 30,
		"minutes between checks (0 runs a single check)")
	rootCmd.AddCommand(watchCmd)
}

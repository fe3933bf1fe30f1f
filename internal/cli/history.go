package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yoshiori/zen-downloader/internal/core"
	"github.com/yoshiori/zen-downloader/internal/models"
	"github.com/yoshiori/zen-downloader/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent downloads",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := core.New(appVersion)
		if err != nil {
			return err
		}
		defer app.Close()

		entries, err := store.New(app.DB).RecentEntries(historyLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No downloads recorded yet.")
			return nil
		}
		for _, e := range entries {
			status := "ok"
			if e.Status == models.HistoryStatusFailed {
				status = "FAILED"
			}
			fmt.Printf("%s  %-6s  %s\n", e.CreatedAt.Format("2006-01-02 15:04"), status, e.Title)
			if e.Message != "" {
				fmt.Printf("    %s\n", e.Message)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of entries to show")
	rootCmd.AddCommand(historyCmd)
}

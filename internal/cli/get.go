package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yoshiori/zen-downloader/internal/config"
)

var getCmd = &cobra.Command{
	Use:   "get <url>",
	Short: "Fetch a page within the session and print its HTML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		m, err := newSessionManager(cfg)
		if err != nil {
			return err
		}
		defer m.Close(context.Background())

		ctx := cmd.Context()
		if err := m.EnsureAuthenticated(ctx); err != nil {
			return err
		}
		html, err := m.PageHTML(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Println(html)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yoshiori/zen-downloader/internal/config"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the platform and persist the session cookies",
	Args:  cobra.NoArgs,
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
		if err := m.Login(ctx); err != nil {
			return err
		}
		user, err := m.CurrentUser(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Logged in as %s (id %s).\n", user.Nickname, user.ID)
		fmt.Printf("Session cookies will be kept in %s.\n", m.CookieFile())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

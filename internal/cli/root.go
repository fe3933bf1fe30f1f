// Package cli wires the downloader's commands together.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yoshiori/zen-downloader/internal/browser"
	"github.com/yoshiori/zen-downloader/internal/config"
	"github.com/yoshiori/zen-downloader/internal/session"
)

var (
	appVersion  string
	showBrowser bool
)

var rootCmd = &cobra.Command{
	Use:           "zen-downloader",
	Short:         "Download course movies from the learning platform",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&showBrowser, "show-browser", false,
		"run the browser with a visible window")
}

// Execute runs the CLI. An interrupt cancels the command context so
// in-flight work can shut down cleanly. Command errors exit 1; per-task
// download failures are reported by the commands themselves and do not
// reach here.
func Execute(version string) {
	appVersion = version
	rootCmd.Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newSessionManager builds the browser-backed session from the loaded
// configuration. The browser itself starts lazily on first use.
func newSessionManager(cfg *config.Config) (*session.Manager, error) {
	return session.New(session.Options{
		Username:   cfg.Username,
		Password:   cfg.Password,
		SessionDir: cfg.SessionDir,
		NewBrowser: func(ctx context.Context) (browser.Browser, error) {
			return browser.NewChrome(ctx, browser.ChromeOptions{Headless: !showBrowser})
		},
	})
}

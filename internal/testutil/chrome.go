package testutil

import (
	"os/exec"
	"testing"
)

// RequireChrome skips the test when no Chrome-family binary is on PATH,
// or when -short is set.
func RequireChrome(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser integration test in short mode")
	}
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	t.Skip("no chrome binary found")
}

package main

import (
	"log"
	"os"

	"github.com/yoshiori/zen-downloader/internal/cli"
)

// Overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Logs go to stderr so the progress bars own stdout.
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cli.Execute(version)
}

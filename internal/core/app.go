package core

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yoshiori/zen-downloader/internal/config"
	"github.com/yoshiori/zen-downloader/internal/db"
)

// App holds the core components shared by every command: the validated
// configuration and the download history database.
type App struct {
	Config  *config.Config
	DB      *sql.DB
	Version string
}

// New sets up and returns a new App instance. It handles loading the
// configuration, initializing the history database, and running
// migrations. A config.ConfigError comes back unwrapped so callers can
// report the missing fields.
func New(version string) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	// Cookies and the history database both live in the session dir.
	if err := os.MkdirAll(cfg.SessionDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session dir %s: %w", cfg.SessionDir, err)
	}

	database, err := db.InitDB(filepath.Join(cfg.SessionDir, "history.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.RunMigrations(database); err != nil {
		// We can't proceed without a valid database schema.
		database.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	return &App{
		Config:  cfg,
		DB:      database,
		Version: version,
	}, nil
}

// Close gracefully closes the application's resources, like the DB connection.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

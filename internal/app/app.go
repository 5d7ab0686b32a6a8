// Package app assembles the gitlink services from configuration.
package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/gitlink/internal/config"
	"github.com/rpggio/gitlink/internal/credentials"
	"github.com/rpggio/gitlink/internal/deviceauth"
	"github.com/rpggio/gitlink/internal/domain/link"
	"github.com/rpggio/gitlink/internal/domain/project"
	"github.com/rpggio/gitlink/internal/mcp"
	"github.com/rpggio/gitlink/internal/sqlite"
)

// Version is reported to MCP clients.
var Version = "0.1.0"

// App holds the wired services of one process.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	DB       *sqlite.DB
	Projects *project.Service
	Links    *link.Service
	Device   *deviceauth.Client
	Tokens   *credentials.Store
}

// Open connects the database, runs migrations and wires every service.
func Open(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("failed to prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.GitHub.HTTPTimeout}
	device := deviceauth.New(deviceauth.Options{
		BaseURL:    cfg.GitHub.BaseURL,
		ClientID:   cfg.GitHub.ClientID,
		HTTPClient: httpClient,
	})
	identity, err := deviceauth.NewIdentity(cfg.GitHub.APIURL, httpClient)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	tokens := credentials.NewStore(cfg.Credentials.Service)
	projects := project.NewService(sqlite.NewProjectRepository(db, logger), logger)
	links := link.NewService(device, projects, tokens, identity, link.Config{
		Interval:    cfg.GitHub.PollInterval,
		MaxAttempts: cfg.GitHub.MaxAttempts,
	}, logger)

	return &App{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Projects: projects,
		Links:    links,
		Device:   device,
		Tokens:   tokens,
	}, nil
}

// MCPServer builds an MCP server over the app's services.
func (a *App) MCPServer() *sdkmcp.Server {
	return mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Projects: a.Projects,
			Links:    a.Links,
			Device:   a.Device,
		},
		Version: Version,
		Logger:  a.Logger,
	})
}

func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

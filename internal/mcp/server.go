package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/gitlink/internal/deviceauth"
	"github.com/rpggio/gitlink/internal/domain/link"
	"github.com/rpggio/gitlink/internal/domain/project"
)

// ProjectService defines project operations needed by MCP.
type ProjectService interface {
	Add(ctx context.Context, req project.AddRequest) (*project.Project, error)
	Get(ctx context.Context, id string) (*project.Project, error)
	List(ctx context.Context) ([]*project.Project, error)
	Update(ctx context.Context, req project.UpdateRequest) (*project.Project, error)
	Delete(ctx context.Context, id string) error
	RecordFetch(ctx context.Context, id string, kind project.FetchKind, result project.FetchResult) (*project.Project, error)
	RecordCodePush(ctx context.Context, id string, state project.CodePushState) (*project.Project, error)
}

// LinkService defines device link flow operations needed by MCP.
type LinkService interface {
	Start(ctx context.Context, projectID string) (link.Flow, error)
	Poll(ctx context.Context, flowID string) (link.Flow, error)
	Get(flowID string) (link.Flow, error)
	Latest(projectID string) link.Flow
	Abandon(flowID string) (link.Flow, error)
	Linked(ctx context.Context, projectID string) (bool, error)
	Unlink(ctx context.Context, projectID string) error
}

// DeviceAuth is the raw two-step device flow.
type DeviceAuth interface {
	InitDeviceOAuth(ctx context.Context) (deviceauth.Verification, error)
	CheckAuthStatus(ctx context.Context, deviceCode string) (deviceauth.Grant, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Projects ProjectService
	Links    LinkService
	Device   DeviceAuth
}

// Config contains server configuration.
type Config struct {
	Services Services
	Version  string
	Logger   *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	version := cfg.Version
	if version == "" {
		version = "0.1.0"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "gitlink",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(trafficLoggingMiddleware(logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(logger, "outbound"))

	registerTools(server, cfg.Services, logger)

	return server
}

package testserver

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/rpggio/gitlink/internal/app"
	"github.com/rpggio/gitlink/internal/config"
	"github.com/rpggio/gitlink/internal/mcp"
)

// TestServer runs the full stack behind a streamable HTTP MCP endpoint:
// shared in-memory sqlite, the mock keyring and a fake GitHub.
type TestServer struct {
	Server *httptest.Server
	App    *app.App
	GitHub *GitHub
}

// Config returns settings pointing at gh with a per-test in-memory database.
func Config(t *testing.T, gh *GitHub) config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.DB.Path = fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	cfg.GitHub.BaseURL = gh.URL()
	cfg.GitHub.APIURL = gh.APIURL()
	cfg.GitHub.PollInterval = 10 * time.Millisecond
	cfg.GitHub.MaxAttempts = 20
	cfg.GitHub.HTTPTimeout = 5 * time.Second
	return cfg
}

// New starts a test server. Tokens land in the go-keyring mock.
func New(t *testing.T, gh *GitHub) *TestServer {
	t.Helper()
	keyring.MockInit()

	a, err := app.Open(Config(t, gh), nil)
	require.NoError(t, err)

	server := httptest.NewServer(mcp.NewHTTPHandler(a.MCPServer()))
	t.Cleanup(func() {
		server.Close()
		_ = a.Close()
	})

	return &TestServer{Server: server, App: a, GitHub: gh}
}

// Connect opens an MCP client session against the server.
func (ts *TestServer) Connect(t *testing.T) *sdkmcp.ClientSession {
	t.Helper()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(context.Background(), &sdkmcp.StreamableClientTransport{
		Endpoint: ts.Server.URL + "/mcp",
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

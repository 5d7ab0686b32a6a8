package integration_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/gitlink/internal/testserver"
)

func callTool(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any, out any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err, "CallTool %s failed", name)
	require.NotEmpty(t, result.Content, "tool %s returned no content", name)
	text, ok := result.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok, "tool %s returned no text content", name)
	require.False(t, result.IsError, "tool %s returned error: %s", name, text.Text)
	require.NoError(t, json.Unmarshal([]byte(text.Text), out))
}

type projectResult struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	StateDirectory string `json:"state_directory"`
	LinkState      string `json:"link_state"`
	Linked         bool   `json:"linked"`
	PreferredKey   string `json:"preferred_key"`
	LinesThreshold int    `json:"snapshot_lines_threshold"`
}

type flowResult struct {
	FlowID   string `json:"flow_id"`
	State    string `json:"state"`
	UserCode string `json:"user_code"`
	Attempts int    `json:"attempts"`
	Login    string `json:"login"`
	Reason   string `json:"reason"`
}

func TestIntegration_LinkProjectOverHTTP(t *testing.T) {
	gh := testserver.NewGitHub(t)
	gh.PendingPolls = 2
	ts := testserver.New(t, gh)
	session := ts.Connect(t)

	var proj projectResult
	callTool(t, session, "add_project", map[string]any{"path": "/src/gitlink"}, &proj)
	require.Equal(t, "gitlink", proj.Title)

	var flow flowResult
	callTool(t, session, "start_link", map[string]any{"project_id": proj.ID}, &flow)
	require.Equal(t, "awaiting_user", flow.State)
	require.Equal(t, "ABCD-1234", flow.UserCode)

	for i := 0; i < 3 && flow.State == "awaiting_user"; i++ {
		callTool(t, session, "poll_link", map[string]any{"flow_id": flow.FlowID}, &flow)
	}
	require.Equal(t, "linked", flow.State)
	require.Equal(t, 3, flow.Attempts)
	require.Equal(t, "octocat", flow.Login)
	require.Equal(t, 3, gh.Polls())

	token, err := ts.App.Tokens.Load(proj.ID)
	require.NoError(t, err)
	require.Equal(t, "ghp_test", token)

	callTool(t, session, "get_project", map[string]any{"id": proj.ID}, &proj)
	require.Equal(t, "linked", proj.LinkState)
	require.True(t, proj.Linked)
	require.Equal(t, "/src/gitlink/.git/gitbutler", proj.StateDirectory)

	var removed struct {
		Removed bool `json:"removed"`
	}
	callTool(t, session, "unlink_project", map[string]any{"id": proj.ID}, &removed)
	require.True(t, removed.Removed)
	_, err = ts.App.Tokens.Load(proj.ID)
	require.Error(t, err)

	callTool(t, session, "get_project", map[string]any{"id": proj.ID}, &proj)
	require.False(t, proj.Linked)
}

func TestIntegration_DeniedLinkIsAbandoned(t *testing.T) {
	gh := testserver.NewGitHub(t)
	gh.Deny = true
	ts := testserver.New(t, gh)
	session := ts.Connect(t)

	var proj projectResult
	callTool(t, session, "add_project", map[string]any{"path": "/src/denied"}, &proj)

	var flow flowResult
	callTool(t, session, "start_link", map[string]any{"project_id": proj.ID}, &flow)
	callTool(t, session, "poll_link", map[string]any{"flow_id": flow.FlowID}, &flow)
	require.Equal(t, "abandoned", flow.State)
	require.Contains(t, flow.Reason, "access denied")

	_, err := ts.App.Tokens.Load(proj.ID)
	require.Error(t, err)
}

func TestIntegration_RawDeviceFlow(t *testing.T) {
	gh := testserver.NewGitHub(t)
	gh.PendingPolls = 1
	session := testserver.New(t, gh).Connect(t)

	var verification struct {
		UserCode   string `json:"user_code"`
		DeviceCode string `json:"device_code"`
	}
	callTool(t, session, "init_device_oauth", map[string]any{}, &verification)
	require.Equal(t, "dev-test", verification.DeviceCode)

	var status struct {
		Status      string `json:"status"`
		AccessToken string `json:"access_token"`
	}
	callTool(t, session, "check_auth_status", map[string]any{"device_code": verification.DeviceCode}, &status)
	require.Equal(t, "pending", status.Status)
	callTool(t, session, "check_auth_status", map[string]any{"device_code": verification.DeviceCode}, &status)
	require.Equal(t, "granted", status.Status)
	require.Equal(t, "ghp_test", status.AccessToken)
}

func TestIntegration_SettingsPersist(t *testing.T) {
	gh := testserver.NewGitHub(t)
	ts := testserver.New(t, gh)
	session := ts.Connect(t)

	var proj projectResult
	callTool(t, session, "add_project", map[string]any{"path": "/src/settings"}, &proj)
	require.Equal(t, "systemExecutable", proj.PreferredKey)
	require.Equal(t, 20, proj.LinesThreshold)

	callTool(t, session, "update_project", map[string]any{
		"id":                       proj.ID,
		"preferred_key":            "gitCredentialsHelper",
		"snapshot_lines_threshold": 75,
	}, &proj)

	stored, err := ts.App.Projects.Get(context.Background(), proj.ID)
	require.NoError(t, err)
	require.Equal(t, "gitCredentialsHelper", stored.PreferredKey().String())
	require.Equal(t, 75, stored.SnapshotLinesThreshold())
}

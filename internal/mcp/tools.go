package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/gitlink/internal/deviceauth"
	"github.com/rpggio/gitlink/internal/domain/project"
)

type tools struct {
	projects ProjectService
	links    LinkService
	device   DeviceAuth
	logger   *slog.Logger
	now      func() time.Time
}

func registerTools(server *sdkmcp.Server, services Services, logger *slog.Logger) {
	t := &tools{
		projects: services.Projects,
		links:    services.Links,
		device:   services.Device,
		logger:   logger,
		now:      time.Now,
	}

	// Device flow
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "init_device_oauth",
		Description: "Request a GitHub device code pair. Show user_code to the user and send them to the verification page.",
	}, t.initDeviceOAuth)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "check_auth_status",
		Description: "Check once whether the user approved a device code. Returns status pending or granted with the access token.",
	}, t.checkAuthStatus)

	// Projects
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "add_project",
		Description: "Register a git worktree as a project",
	}, t.addProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List registered projects ordered by title",
	}, t.listProjects)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_project",
		Description: "Get a project with its effective settings, derived values and whether a GitHub token is stored",
	}, t.getProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_project",
		Description: "Change project settings. Omitted fields are left as they are.",
	}, t.updateProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "remove_project",
		Description: "Forget a project. The worktree on disk is not touched.",
	}, t.removeProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "record_fetch",
		Description: "Record the outcome of the latest gitbutler or project data fetch",
	}, t.recordFetch)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "record_code_push",
		Description: "Record the last commit pushed on the code channel",
	}, t.recordCodePush)

	// Linking
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "start_link",
		Description: "Start linking a project to a GitHub account. Returns the code the user must enter.",
	}, t.startLink)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "poll_link",
		Description: "Check once whether the user completed a link flow. Wait interval_seconds between calls.",
	}, t.pollLink)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_link",
		Description: "Get the current state of a link flow without contacting GitHub",
	}, t.getLink)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "abandon_link",
		Description: "Give up on a link flow",
	}, t.abandonLink)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "unlink_project",
		Description: "Delete the stored GitHub token of a project",
	}, t.unlinkProject)
}

func (t *tools) initDeviceOAuth(ctx context.Context, _ *sdkmcp.CallToolRequest, _ struct{}) (*sdkmcp.CallToolResult, VerificationResponse, error) {
	v, err := t.device.InitDeviceOAuth(ctx)
	if err != nil {
		return nil, VerificationResponse{}, toolError(err)
	}
	return nil, verificationResponse(v), nil
}

func (t *tools) checkAuthStatus(ctx context.Context, _ *sdkmcp.CallToolRequest, in CheckAuthStatusParams) (*sdkmcp.CallToolResult, AuthStatusResponse, error) {
	if in.DeviceCode == "" {
		return nil, AuthStatusResponse{}, toolError(fmt.Errorf("%w: device_code is required", project.ErrInvalidInput))
	}
	grant, err := t.device.CheckAuthStatus(ctx, in.DeviceCode)
	if err != nil {
		return nil, AuthStatusResponse{}, toolError(err)
	}
	resp := AuthStatusResponse{Status: grant.State.String()}
	if grant.State == deviceauth.Granted {
		resp.AccessToken = grant.Token.AccessToken
	}
	return nil, resp, nil
}

func (t *tools) addProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in AddProjectParams) (*sdkmcp.CallToolResult, ProjectResponse, error) {
	proj, err := t.projects.Add(ctx, project.AddRequest{
		Path:        in.Path,
		Title:       in.Title,
		Description: in.Description,
	})
	if err != nil {
		return nil, ProjectResponse{}, toolError(err)
	}
	return nil, projectResponse(proj), nil
}

func (t *tools) listProjects(ctx context.Context, _ *sdkmcp.CallToolRequest, _ struct{}) (*sdkmcp.CallToolResult, ListProjectsResponse, error) {
	projects, err := t.projects.List(ctx)
	if err != nil {
		return nil, ListProjectsResponse{}, toolError(err)
	}
	resp := ListProjectsResponse{Projects: make([]ProjectSummaryResponse, 0, len(projects))}
	for _, proj := range projects {
		summary := proj.Summarize()
		resp.Projects = append(resp.Projects, ProjectSummaryResponse{
			ID:           summary.ID,
			Title:        summary.Title,
			WorktreePath: summary.Path,
			SyncEnabled:  summary.SyncEnabled,
			PreferredKey: summary.PreferredKey,
		})
	}
	return nil, resp, nil
}

func (t *tools) getProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in ProjectIDParams) (*sdkmcp.CallToolResult, ProjectResponse, error) {
	proj, err := t.projects.Get(ctx, in.ID)
	if err != nil {
		return nil, ProjectResponse{}, toolError(err)
	}
	resp := projectResponse(proj)
	if t.links != nil {
		resp.LinkState = string(t.links.Latest(proj.ID).State)
		linked, err := t.links.Linked(ctx, proj.ID)
		if err != nil {
			return nil, ProjectResponse{}, toolError(err)
		}
		resp.Linked = linked
	}
	return nil, resp, nil
}

func (t *tools) updateProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in UpdateProjectParams) (*sdkmcp.CallToolResult, ProjectResponse, error) {
	req := project.UpdateRequest{
		ID:                     in.ID,
		Title:                  in.Title,
		Description:            in.Description,
		OkWithForcePush:        in.OkWithForcePush,
		OmitCertificateCheck:   in.OmitCertificateCheck,
		SnapshotLinesThreshold: in.SnapshotLinesThreshold,
		UseNewLocking:          in.UseNewLocking,
		IgnoreProjectSemaphore: in.IgnoreProjectSemaphore,
		ClearAPI:               in.ClearAPI,
	}
	if in.PreferredKey != nil {
		key, err := project.ParseAuthKey(*in.PreferredKey, in.PrivateKeyPath)
		if err != nil {
			return nil, ProjectResponse{}, toolError(err)
		}
		req.PreferredKey = &key
	}
	if in.API != nil {
		req.API = &project.APIProject{
			Name:         in.API.Name,
			Description:  in.API.Description,
			RepositoryID: in.API.RepositoryID,
			GitURL:       in.API.GitURL,
			CodeGitURL:   in.API.CodeGitURL,
			CreatedAt:    in.API.CreatedAt,
			UpdatedAt:    in.API.UpdatedAt,
			Sync:         in.API.Sync,
		}
	}

	proj, err := t.projects.Update(ctx, req)
	if err != nil {
		return nil, ProjectResponse{}, toolError(err)
	}
	return nil, projectResponse(proj), nil
}

func (t *tools) removeProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in ProjectIDParams) (*sdkmcp.CallToolResult, RemovedResponse, error) {
	if t.links != nil {
		if err := t.links.Unlink(ctx, in.ID); err != nil && !errors.Is(err, project.ErrProjectNotFound) {
			t.logger.Warn("removing token of project failed", "project_id", in.ID, "error", err)
		}
	}
	if err := t.projects.Delete(ctx, in.ID); err != nil {
		return nil, RemovedResponse{}, toolError(err)
	}
	return nil, RemovedResponse{ID: in.ID, Removed: true}, nil
}

func (t *tools) recordFetch(ctx context.Context, _ *sdkmcp.CallToolRequest, in RecordFetchParams) (*sdkmcp.CallToolResult, ProjectResponse, error) {
	ts, err := t.parseTimestamp(in.Timestamp)
	if err != nil {
		return nil, ProjectResponse{}, toolError(err)
	}
	result := project.Fetched(ts)
	if in.Error != "" {
		result = project.FetchFailed(ts, in.Error)
	}

	proj, err := t.projects.RecordFetch(ctx, in.ID, project.FetchKind(in.Kind), result)
	if err != nil {
		return nil, ProjectResponse{}, toolError(err)
	}
	return nil, projectResponse(proj), nil
}

func (t *tools) recordCodePush(ctx context.Context, _ *sdkmcp.CallToolRequest, in RecordCodePushParams) (*sdkmcp.CallToolResult, ProjectResponse, error) {
	ts, err := t.parseTimestamp(in.Timestamp)
	if err != nil {
		return nil, ProjectResponse{}, toolError(err)
	}
	state, err := project.NewCodePushState(in.CommitID, ts)
	if err != nil {
		return nil, ProjectResponse{}, toolError(err)
	}

	proj, err := t.projects.RecordCodePush(ctx, in.ID, state)
	if err != nil {
		return nil, ProjectResponse{}, toolError(err)
	}
	return nil, projectResponse(proj), nil
}

func (t *tools) startLink(ctx context.Context, _ *sdkmcp.CallToolRequest, in StartLinkParams) (*sdkmcp.CallToolResult, FlowResponse, error) {
	flow, err := t.links.Start(ctx, in.ProjectID)
	if err != nil {
		return nil, FlowResponse{}, toolError(err)
	}
	return nil, flowResponse(flow), nil
}

func (t *tools) pollLink(ctx context.Context, _ *sdkmcp.CallToolRequest, in FlowIDParams) (*sdkmcp.CallToolResult, FlowResponse, error) {
	flow, err := t.links.Poll(ctx, in.FlowID)
	if err != nil {
		return nil, FlowResponse{}, toolError(err)
	}
	return nil, flowResponse(flow), nil
}

func (t *tools) getLink(_ context.Context, _ *sdkmcp.CallToolRequest, in FlowIDParams) (*sdkmcp.CallToolResult, FlowResponse, error) {
	flow, err := t.links.Get(in.FlowID)
	if err != nil {
		return nil, FlowResponse{}, toolError(err)
	}
	return nil, flowResponse(flow), nil
}

func (t *tools) abandonLink(_ context.Context, _ *sdkmcp.CallToolRequest, in FlowIDParams) (*sdkmcp.CallToolResult, FlowResponse, error) {
	flow, err := t.links.Abandon(in.FlowID)
	if err != nil {
		return nil, FlowResponse{}, toolError(err)
	}
	return nil, flowResponse(flow), nil
}

func (t *tools) unlinkProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in ProjectIDParams) (*sdkmcp.CallToolResult, RemovedResponse, error) {
	if err := t.links.Unlink(ctx, in.ID); err != nil {
		return nil, RemovedResponse{}, toolError(err)
	}
	return nil, RemovedResponse{ID: in.ID, Removed: true}, nil
}

func (t *tools) parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return t.now().UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q is not RFC3339", project.ErrInvalidInput, value)
	}
	return ts, nil
}

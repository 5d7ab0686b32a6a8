package mcp

import (
	"time"

	"github.com/rpggio/gitlink/internal/deviceauth"
	"github.com/rpggio/gitlink/internal/domain/link"
	"github.com/rpggio/gitlink/internal/domain/project"
)

type CheckAuthStatusParams struct {
	DeviceCode string `json:"device_code" jsonschema:"device code returned by init_device_oauth"`
}

type AddProjectParams struct {
	Path        string `json:"path" jsonschema:"absolute path of the git worktree"`
	Title       string `json:"title,omitempty" jsonschema:"display title, defaults to the directory name"`
	Description string `json:"description,omitempty"`
}

type ProjectIDParams struct {
	ID string `json:"id" jsonschema:"project id"`
}

type APIParams struct {
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	RepositoryID string  `json:"repository_id"`
	GitURL       string  `json:"git_url"`
	CodeGitURL   *string `json:"code_git_url,omitempty"`
	CreatedAt    string  `json:"created_at,omitempty"`
	UpdatedAt    string  `json:"updated_at,omitempty"`
	Sync         bool    `json:"sync,omitempty"`
}

type UpdateProjectParams struct {
	ID                     string     `json:"id" jsonschema:"project id"`
	Title                  *string    `json:"title,omitempty"`
	Description            *string    `json:"description,omitempty"`
	PreferredKey           *string    `json:"preferred_key,omitempty" jsonschema:"gitCredentialsHelper, systemExecutable or local"`
	PrivateKeyPath         string     `json:"private_key_path,omitempty" jsonschema:"private key file, required with the local key"`
	OkWithForcePush        *bool      `json:"ok_with_force_push,omitempty"`
	OmitCertificateCheck   *bool      `json:"omit_certificate_check,omitempty"`
	SnapshotLinesThreshold *int       `json:"snapshot_lines_threshold,omitempty"`
	UseNewLocking          *bool      `json:"use_new_locking,omitempty"`
	IgnoreProjectSemaphore *bool      `json:"ignore_project_semaphore,omitempty"`
	API                    *APIParams `json:"api,omitempty" jsonschema:"backend project linkage"`
	ClearAPI               bool       `json:"clear_api,omitempty" jsonschema:"remove the backend project linkage"`
}

type RecordFetchParams struct {
	ID        string `json:"id" jsonschema:"project id"`
	Kind      string `json:"kind" jsonschema:"gitbutler or project"`
	Error     string `json:"error,omitempty" jsonschema:"failure message, empty when the fetch succeeded"`
	Timestamp string `json:"timestamp,omitempty" jsonschema:"RFC3339 time of the fetch, defaults to now"`
}

type RecordCodePushParams struct {
	ID        string `json:"id" jsonschema:"project id"`
	CommitID  string `json:"commit_id" jsonschema:"hex object id of the pushed commit"`
	Timestamp string `json:"timestamp,omitempty" jsonschema:"RFC3339 time of the push, defaults to now"`
}

type StartLinkParams struct {
	ProjectID string `json:"project_id" jsonschema:"project to link"`
}

type FlowIDParams struct {
	FlowID string `json:"flow_id" jsonschema:"link flow id returned by start_link"`
}

type VerificationResponse struct {
	UserCode        string `json:"user_code"`
	DeviceCode      string `json:"device_code"`
	VerificationURI string `json:"verification_uri,omitempty"`
	ExpiresIn       int    `json:"expires_in,omitempty"`
	Interval        int    `json:"interval,omitempty"`
}

type AuthStatusResponse struct {
	Status      string `json:"status"`
	AccessToken string `json:"access_token,omitempty"`
}

type FetchResponse struct {
	Timestamp string `json:"timestamp"`
	Succeeded bool   `json:"succeeded"`
	Error     string `json:"error,omitempty"`
}

type CodePushResponse struct {
	CommitID  string `json:"commit_id"`
	Timestamp string `json:"timestamp"`
}

type APIResponse struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	RepositoryID string `json:"repository_id"`
	GitURL       string `json:"git_url"`
	CodeGitURL   string `json:"code_git_url,omitempty"`
	Sync         bool   `json:"sync"`
}

type ProjectResponse struct {
	ID                     string            `json:"id"`
	Title                  string            `json:"title"`
	Description            string            `json:"description,omitempty"`
	WorktreePath           string            `json:"worktree_path"`
	StateDirectory         string            `json:"state_directory"`
	PreferredKey           string            `json:"preferred_key"`
	PrivateKeyPath         string            `json:"private_key_path,omitempty"`
	LegacyKey              string            `json:"legacy_key,omitempty"`
	OkWithForcePush        bool              `json:"ok_with_force_push"`
	OmitCertificateCheck   bool              `json:"omit_certificate_check"`
	SnapshotLinesThreshold int               `json:"snapshot_lines_threshold"`
	UseNewLocking          bool              `json:"use_new_locking"`
	IgnoreProjectSemaphore bool              `json:"ignore_project_semaphore"`
	SyncEnabled            bool              `json:"sync_enabled"`
	HasCodeURL             bool              `json:"has_code_url"`
	API                    *APIResponse      `json:"api,omitempty"`
	GitButlerDataLastFetch *FetchResponse    `json:"gitbutler_data_last_fetch,omitempty"`
	ProjectDataLastFetch   *FetchResponse    `json:"project_data_last_fetch,omitempty"`
	CodePush               *CodePushResponse `json:"gitbutler_code_push_state,omitempty"`
	LinkState              string            `json:"link_state,omitempty"`
	Linked                 bool              `json:"linked"`
}

type ProjectSummaryResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	WorktreePath string `json:"worktree_path"`
	SyncEnabled  bool   `json:"sync_enabled"`
	PreferredKey string `json:"preferred_key"`
}

type ListProjectsResponse struct {
	Projects []ProjectSummaryResponse `json:"projects"`
}

type RemovedResponse struct {
	ID      string `json:"id"`
	Removed bool   `json:"removed"`
}

type FlowResponse struct {
	FlowID          string `json:"flow_id,omitempty"`
	ProjectID       string `json:"project_id"`
	State           string `json:"state"`
	UserCode        string `json:"user_code,omitempty"`
	VerificationURI string `json:"verification_uri,omitempty"`
	Attempts        int    `json:"attempts"`
	IntervalSeconds int    `json:"interval_seconds,omitempty"`
	StartedAt       string `json:"started_at,omitempty"`
	ExpiresAt       string `json:"expires_at,omitempty"`
	Login           string `json:"login,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

func verificationResponse(v deviceauth.Verification) VerificationResponse {
	return VerificationResponse{
		UserCode:        v.UserCode,
		DeviceCode:      v.DeviceCode,
		VerificationURI: v.VerificationURI,
		ExpiresIn:       v.ExpiresIn,
		Interval:        v.Interval,
	}
}

func projectResponse(p *project.Project) ProjectResponse {
	key := p.PreferredKey()
	resp := ProjectResponse{
		ID:                     p.ID,
		Title:                  p.Title,
		Description:            p.Description,
		WorktreePath:           p.WorktreePath(),
		StateDirectory:         p.StateDirectory(),
		PreferredKey:           string(key.Kind),
		PrivateKeyPath:         key.PrivateKeyPath,
		OkWithForcePush:        p.OkWithForcePush(),
		OmitCertificateCheck:   p.OmitCertificateCheck(),
		SnapshotLinesThreshold: p.SnapshotLinesThreshold(),
		UseNewLocking:          p.UseNewLocking(),
		IgnoreProjectSemaphore: p.IgnoreProjectSemaphore(),
		SyncEnabled:            p.IsSyncEnabled(),
		HasCodeURL:             p.HasCodeURL(),
		GitButlerDataLastFetch: fetchResponse(p.GitButlerDataLastFetch),
		ProjectDataLastFetch:   fetchResponse(p.ProjectDataLastFetch),
	}
	if tag, ok := key.Legacy(); ok {
		resp.LegacyKey = tag
	}
	if api := p.API; api != nil {
		resp.API = &APIResponse{
			Name:         api.Name,
			Description:  deref(api.Description),
			RepositoryID: api.RepositoryID,
			GitURL:       api.GitURL,
			CodeGitURL:   deref(api.CodeGitURL),
			Sync:         api.Sync,
		}
	}
	if push := p.GitButlerCodePushState; push != nil {
		resp.CodePush = &CodePushResponse{CommitID: push.CommitID, Timestamp: formatTime(push.Timestamp)}
	}
	return resp
}

func fetchResponse(r *project.FetchResult) *FetchResponse {
	if r == nil {
		return nil
	}
	return &FetchResponse{
		Timestamp: formatTime(r.Timestamp()),
		Succeeded: r.Succeeded(),
		Error:     r.Message(),
	}
}

func flowResponse(f link.Flow) FlowResponse {
	resp := FlowResponse{
		FlowID:          f.ID,
		ProjectID:       f.ProjectID,
		State:           string(f.State),
		UserCode:        f.UserCode,
		VerificationURI: f.VerificationURI,
		Attempts:        f.Attempts,
		IntervalSeconds: int(f.Interval / time.Second),
		Login:           f.Login,
		Reason:          f.Reason,
	}
	if !f.StartedAt.IsZero() {
		resp.StartedAt = formatTime(f.StartedAt)
	}
	if !f.ExpiresAt.IsZero() {
		resp.ExpiresAt = formatTime(f.ExpiresAt)
	}
	return resp
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

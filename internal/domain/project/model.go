package project

import "path/filepath"

// DefaultSnapshotLinesThreshold is the number of changed lines that triggers a
// snapshot when a project does not configure its own threshold.
const DefaultSnapshotLinesThreshold = 20

// Project is the persisted identity and sync state of a local worktree bound
// to a remote repository.
//
// Fields that carry a default are pointers: nil means "absent, use the
// default", which the accessors resolve.
type Project struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	// Path is the worktree directory of the project's repository.
	Path string `json:"worktreePath"`

	Key *AuthKey `json:"preferredKey,omitempty"`
	// ForcePush, when true, stops us from trying to avoid force pushes, for
	// example when updating the base branch.
	ForcePush *bool       `json:"okWithForcePush,omitempty"`
	API       *APIProject `json:"api,omitempty"`

	GitButlerDataLastFetch *FetchResult   `json:"gitbutlerDataLastFetch,omitempty"`
	ProjectDataLastFetch   *FetchResult   `json:"projectDataLastFetch,omitempty"`
	GitButlerCodePushState *CodePushState `json:"gitbutlerCodePushState,omitempty"`

	SkipCertCheck   *bool `json:"omitCertificateCheck,omitempty"`
	LinesThreshold  *int  `json:"snapshotLinesThreshold,omitempty"`
	NewLocking      *bool `json:"useNewLocking,omitempty"`
	IgnoreSemaphore *bool `json:"ignoreProjectSemaphore,omitempty"`
}

// APIProject is the backend-hosted counterpart of a local project.
type APIProject struct {
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	RepositoryID string  `json:"repositoryId"`
	GitURL       string  `json:"gitUrl"`
	CodeGitURL   *string `json:"codeGitUrl,omitempty"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
	Sync         bool    `json:"sync"`
}

// IsSyncEnabled reports whether backend-mediated sync is on.
func (p *Project) IsSyncEnabled() bool {
	return p.API != nil && p.API.Sync
}

// HasCodeURL reports whether the backend linkage carries a code remote.
func (p *Project) HasCodeURL() bool {
	return p.API != nil && p.API.CodeGitURL != nil && *p.API.CodeGitURL != ""
}

// StateDirectory returns the directory holding this project's private state,
// normally .git/gitbutler inside the worktree.
func (p *Project) StateDirectory() string {
	return filepath.Join(p.Path, ".git", "gitbutler")
}

// WorktreePath returns the project's working directory.
func (p *Project) WorktreePath() string {
	return p.Path
}

// SnapshotLinesThreshold returns the configured threshold, or the default
// when it is unset.
func (p *Project) SnapshotLinesThreshold() int {
	if p.LinesThreshold == nil {
		return DefaultSnapshotLinesThreshold
	}
	return *p.LinesThreshold
}

// PreferredKey returns the auth mechanism for the project's git remote.
func (p *Project) PreferredKey() AuthKey {
	if p.Key == nil {
		return SystemExecutable()
	}
	return *p.Key
}

func (p *Project) OkWithForcePush() bool {
	return boolOr(p.ForcePush, true)
}

func (p *Project) OmitCertificateCheck() bool {
	return boolOr(p.SkipCertCheck, false)
}

func (p *Project) UseNewLocking() bool {
	return boolOr(p.NewLocking, true)
}

func (p *Project) IgnoreProjectSemaphore() bool {
	return boolOr(p.IgnoreSemaphore, false)
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

// Summary is a lightweight representation for listing.
type Summary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Path         string `json:"path"`
	SyncEnabled  bool   `json:"syncEnabled"`
	PreferredKey string `json:"preferredKey"`
}

// Summarize builds the listing view of a project.
func (p *Project) Summarize() Summary {
	return Summary{
		ID:           p.ID,
		Title:        p.Title,
		Path:         p.Path,
		SyncEnabled:  p.IsSyncEnabled(),
		PreferredKey: p.PreferredKey().String(),
	}
}

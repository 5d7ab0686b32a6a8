package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rpggio/gitlink/internal/repository"
)

// Service handles project operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new project service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// AddRequest defines project creation inputs.
type AddRequest struct {
	Path        string
	Title       string
	Description string
}

// Add registers a worktree as a new project.
func (s *Service) Add(ctx context.Context, req AddRequest) (*Project, error) {
	path := strings.TrimSpace(req.Path)
	if path == "" || !filepath.IsAbs(path) {
		return nil, fmt.Errorf("%w: path must be absolute", ErrInvalidInput)
	}
	path = filepath.Clean(path)

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = filepath.Base(path)
	}

	proj := &Project{
		ID:          uuid.NewString(),
		Title:       title,
		Description: req.Description,
		Path:        path,
	}

	if err := s.repo.Create(ctx, proj); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.logger.Info("project added", "project_id", proj.ID, "path", proj.Path)
	return proj, nil
}

// Get fetches a project by ID.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	proj, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	s.warnLegacyKey(proj)
	return proj, nil
}

// List returns all projects ordered by title.
func (s *Service) List(ctx context.Context) ([]*Project, error) {
	projects, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	for _, proj := range projects {
		s.warnLegacyKey(proj)
	}
	sort.SliceStable(projects, func(i, j int) bool {
		return strings.ToLower(projects[i].Title) < strings.ToLower(projects[j].Title)
	})
	return projects, nil
}

// Delete removes a project.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("deleting project: %w", err)
	}
	s.logger.Info("project removed", "project_id", id)
	return nil
}

// UpdateRequest patches a project. Nil fields are left unchanged.
type UpdateRequest struct {
	ID                     string
	Title                  *string
	Description            *string
	PreferredKey           *AuthKey
	OkWithForcePush        *bool
	OmitCertificateCheck   *bool
	SnapshotLinesThreshold *int
	UseNewLocking          *bool
	IgnoreProjectSemaphore *bool
	API                    *APIProject
	// ClearAPI unlinks the backend project; it wins over API.
	ClearAPI bool
}

// Update applies a patch to an existing project.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*Project, error) {
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrInvalidInput)
	}
	if req.SnapshotLinesThreshold != nil && *req.SnapshotLinesThreshold <= 0 {
		return nil, fmt.Errorf("%w: snapshot lines threshold must be positive", ErrInvalidInput)
	}
	if req.PreferredKey != nil && req.PreferredKey.Kind == AuthLocal && req.PreferredKey.PrivateKeyPath == "" {
		return nil, fmt.Errorf("%w: local key requires a private key path", ErrInvalidInput)
	}

	return s.mutate(ctx, req.ID, func(proj *Project) {
		if req.Title != nil {
			proj.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			proj.Description = *req.Description
		}
		if req.PreferredKey != nil {
			key := *req.PreferredKey
			proj.Key = &key
		}
		if req.OkWithForcePush != nil {
			proj.ForcePush = ptr(*req.OkWithForcePush)
		}
		if req.OmitCertificateCheck != nil {
			proj.SkipCertCheck = ptr(*req.OmitCertificateCheck)
		}
		if req.SnapshotLinesThreshold != nil {
			proj.LinesThreshold = ptr(*req.SnapshotLinesThreshold)
		}
		if req.UseNewLocking != nil {
			proj.NewLocking = ptr(*req.UseNewLocking)
		}
		if req.IgnoreProjectSemaphore != nil {
			proj.IgnoreSemaphore = ptr(*req.IgnoreProjectSemaphore)
		}
		switch {
		case req.ClearAPI:
			proj.API = nil
		case req.API != nil:
			api := *req.API
			proj.API = &api
		}
	})
}

// RecordFetch stores the outcome of the latest fetch of the given kind.
func (s *Service) RecordFetch(ctx context.Context, id string, kind FetchKind, result FetchResult) (*Project, error) {
	if kind != FetchGitButlerData && kind != FetchProjectData {
		return nil, fmt.Errorf("%w: unknown fetch kind %q", ErrInvalidInput, kind)
	}
	return s.mutate(ctx, id, func(proj *Project) {
		if kind == FetchGitButlerData {
			proj.GitButlerDataLastFetch = &result
		} else {
			proj.ProjectDataLastFetch = &result
		}
	})
}

// RecordCodePush stores the last commit pushed on the code channel.
func (s *Service) RecordCodePush(ctx context.Context, id string, state CodePushState) (*Project, error) {
	if !commitIDPattern.MatchString(state.CommitID) {
		return nil, fmt.Errorf("%w: commit id %q is not a hex object id", ErrInvalidInput, state.CommitID)
	}
	return s.mutate(ctx, id, func(proj *Project) {
		proj.GitButlerCodePushState = &state
	})
}

func (s *Service) mutate(ctx context.Context, id string, apply func(*Project)) (*Project, error) {
	proj, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(proj)
	if err := s.repo.Update(ctx, proj); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("updating project: %w", err)
	}
	return proj, nil
}

func (s *Service) warnLegacyKey(proj *Project) {
	if proj.Key == nil {
		return
	}
	if tag, ok := proj.Key.Legacy(); ok {
		s.logger.Warn("deprecated auth key replaced by system executable", "project_id", proj.ID, "legacy_key", tag)
	}
}

func ptr[T any](v T) *T {
	return &v
}

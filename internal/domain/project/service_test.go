package project_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpggio/gitlink/internal/domain/project"
	"github.com/rpggio/gitlink/internal/repository"
	"github.com/rpggio/gitlink/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProjectService_AddDefaultsTitle(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProjectRepository{}
	repo.On("Create", ctx, mock.Anything).Return(nil)

	svc := project.NewService(repo, nil)
	proj, err := svc.Add(ctx, project.AddRequest{Path: "/src/gitlink/"})
	require.NoError(t, err)
	require.NotEmpty(t, proj.ID)
	require.Equal(t, "gitlink", proj.Title)
	require.Equal(t, "/src/gitlink", proj.Path)
	repo.AssertExpectations(t)
}

func TestProjectService_AddValidation(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProjectRepository{}
	svc := project.NewService(repo, nil)

	_, err := svc.Add(ctx, project.AddRequest{Path: ""})
	require.ErrorIs(t, err, project.ErrInvalidInput)

	_, err = svc.Add(ctx, project.AddRequest{Path: "relative/dir"})
	require.ErrorIs(t, err, project.ErrInvalidInput)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProjectService_AddDuplicatePath(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProjectRepository{}
	repo.On("Create", ctx, mock.Anything).Return(repository.ErrConflict)

	svc := project.NewService(repo, nil)
	_, err := svc.Add(ctx, project.AddRequest{Path: "/src/repo"})
	require.ErrorIs(t, err, project.ErrAlreadyExists)
}

func TestProjectService_GetNotFound(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProjectRepository{}
	repo.On("Get", ctx, "missing").Return(nil, repository.ErrNotFound)

	svc := project.NewService(repo, nil)
	_, err := svc.Get(ctx, "missing")
	require.ErrorIs(t, err, project.ErrProjectNotFound)
}

func TestProjectService_GetWrapsStorageErrors(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProjectRepository{}
	repo.On("Get", ctx, "p1").Return(nil, errors.New("disk on fire"))

	svc := project.NewService(repo, nil)
	_, err := svc.Get(ctx, "p1")
	require.Error(t, err)
	require.NotErrorIs(t, err, project.ErrProjectNotFound)
}

func TestProjectService_ListSortsByTitle(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProjectRepository{}
	repo.On("List", ctx).Return([]*project.Project{
		{ID: "2", Title: "zeta"},
		{ID: "1", Title: "Alpha"},
	}, nil)

	svc := project.NewService(repo, nil)
	projects, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	require.Equal(t, "1", projects[0].ID)
}

func TestProjectService_UpdatePatchesFields(t *testing.T) {
	ctx := context.Background()
	existing := &project.Project{ID: "p1", Title: "repo", Path: "/src/repo"}

	repo := &mocks.ProjectRepository{}
	repo.On("Get", ctx, "p1").Return(existing, nil)
	repo.On("Update", ctx, mock.MatchedBy(func(p *project.Project) bool { return p.ID == "p1" })).Return(nil)

	svc := project.NewService(repo, nil)
	key := project.GitCredentialsHelper()
	updated, err := svc.Update(ctx, project.UpdateRequest{
		ID:                     "p1",
		Title:                  strPtr("renamed"),
		PreferredKey:           &key,
		OkWithForcePush:        boolPtr(false),
		SnapshotLinesThreshold: intPtr(100),
		API:                    &project.APIProject{Name: "repo", Sync: true},
	})
	require.NoError(t, err)
	require.Equal(t, "renamed", updated.Title)
	require.Equal(t, project.AuthGitCredentialsHelper, updated.PreferredKey().Kind)
	require.False(t, updated.OkWithForcePush())
	require.Equal(t, 100, updated.SnapshotLinesThreshold())
	require.True(t, updated.IsSyncEnabled())
	require.True(t, updated.UseNewLocking())

	updated, err = svc.Update(ctx, project.UpdateRequest{ID: "p1", ClearAPI: true})
	require.NoError(t, err)
	require.False(t, updated.IsSyncEnabled())
}

func TestProjectService_UpdateValidation(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	svc := project.NewService(repo, nil)

	_, err := svc.Update(ctx, project.UpdateRequest{ID: "p1", SnapshotLinesThreshold: intPtr(0)})
	require.ErrorIs(t, err, project.ErrInvalidInput)

	_, err = svc.Update(ctx, project.UpdateRequest{ID: "p1", Title: strPtr("  ")})
	require.ErrorIs(t, err, project.ErrInvalidInput)

	key := project.AuthKey{Kind: project.AuthLocal}
	_, err = svc.Update(ctx, project.UpdateRequest{ID: "p1", PreferredKey: &key})
	require.ErrorIs(t, err, project.ErrInvalidInput)
}

func TestProjectService_RecordFetch(t *testing.T) {
	ctx := context.Background()
	existing := &project.Project{ID: "p1", Title: "repo", Path: "/src/repo"}

	repo := &mocks.ProjectRepository{}
	repo.On("Get", ctx, "p1").Return(existing, nil)
	repo.On("Update", ctx, mock.Anything).Return(nil)

	svc := project.NewService(repo, nil)
	ts := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	updated, err := svc.RecordFetch(ctx, "p1", project.FetchProjectData, project.FetchFailed(ts, "timeout"))
	require.NoError(t, err)
	require.NotNil(t, updated.ProjectDataLastFetch)
	require.Nil(t, updated.GitButlerDataLastFetch)
	require.Equal(t, ts, updated.ProjectDataLastFetch.Timestamp())

	updated, err = svc.RecordFetch(ctx, "p1", project.FetchGitButlerData, project.Fetched(ts))
	require.NoError(t, err)
	require.True(t, updated.GitButlerDataLastFetch.Succeeded())

	_, err = svc.RecordFetch(ctx, "p1", project.FetchKind("other"), project.Fetched(ts))
	require.ErrorIs(t, err, project.ErrInvalidInput)
}

func TestProjectService_RecordCodePush(t *testing.T) {
	ctx := context.Background()
	existing := &project.Project{ID: "p1", Title: "repo", Path: "/src/repo"}

	repo := &mocks.ProjectRepository{}
	repo.On("Get", ctx, "p1").Return(existing, nil)
	repo.On("Update", ctx, mock.Anything).Return(nil)

	svc := project.NewService(repo, nil)
	state := project.CodePushState{CommitID: "0123456789abcdef0123456789abcdef01234567", Timestamp: time.Now()}

	updated, err := svc.RecordCodePush(ctx, "p1", state)
	require.NoError(t, err)
	require.Equal(t, state.CommitID, updated.GitButlerCodePushState.CommitID)

	_, err = svc.RecordCodePush(ctx, "p1", project.CodePushState{CommitID: "xyz"})
	require.ErrorIs(t, err, project.ErrInvalidInput)
}

func TestProjectService_DeleteNotFound(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProjectRepository{}
	repo.On("Delete", ctx, "missing").Return(repository.ErrNotFound)

	svc := project.NewService(repo, nil)
	require.ErrorIs(t, svc.Delete(ctx, "missing"), project.ErrProjectNotFound)
}

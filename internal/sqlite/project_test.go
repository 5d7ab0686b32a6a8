package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/gitlink/internal/domain/project"
	"github.com/rpggio/gitlink/internal/repository"
	"github.com/stretchr/testify/require"
)

func newTestProject(id, path string) *project.Project {
	return &project.Project{
		ID:          id,
		Title:       "Test Project",
		Description: "A test project",
		Path:        path,
	}
}

func TestProjectRepository_Create(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db, nil)
	ctx := context.Background()

	proj := newTestProject("p1", "/src/one")
	require.NoError(t, repo.Create(ctx, proj))

	retrieved, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, proj, retrieved)
}

func TestProjectRepository_CreateDuplicatePath(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db, nil)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestProject("p1", "/src/one")))
	err := repo.Create(ctx, newTestProject("p2", "/src/one"))
	require.ErrorIs(t, err, repository.ErrConflict)

	err = repo.Create(ctx, newTestProject("p1", "/src/two"))
	require.ErrorIs(t, err, repository.ErrConflict)
}

func TestProjectRepository_GetNotFound(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db, nil)

	_, err := repo.Get(context.Background(), "nonexistent")
	require.Equal(t, repository.ErrNotFound, err)
}

func TestProjectRepository_GetAppliesDefaultsToOlderRecords(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db, nil)
	ctx := context.Background()

	// A record written before most fields existed, with a retired auth key.
	_, err := db.Exec(
		`INSERT INTO projects (id, path, title, record) VALUES (?, ?, ?, ?)`,
		"old", "/src/old", "old",
		`{"id":"old","title":"old","worktreePath":"/src/old","preferredKey":{"generated":{}},"removedField":1}`,
	)
	require.NoError(t, err)

	proj, err := repo.Get(ctx, "old")
	require.NoError(t, err)
	require.Equal(t, project.AuthSystemExecutable, proj.PreferredKey().Kind)
	legacy, ok := proj.PreferredKey().Legacy()
	require.True(t, ok)
	require.Equal(t, "generated", legacy)
	require.True(t, proj.OkWithForcePush())
	require.True(t, proj.UseNewLocking())
	require.False(t, proj.IgnoreProjectSemaphore())
	require.Equal(t, 20, proj.SnapshotLinesThreshold())
}

func TestProjectRepository_GetRejectsCorruptRecord(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db, nil)

	_, err := db.Exec(
		`INSERT INTO projects (id, path, title, record) VALUES (?, ?, ?, ?)`,
		"bad", "/src/bad", "bad", `{"id":"bad","worktreePath":"/src/bad","preferredKey":7}`,
	)
	require.NoError(t, err)

	_, err = repo.Get(context.Background(), "bad")
	require.Error(t, err)
	require.NotErrorIs(t, err, repository.ErrNotFound)
}

func TestProjectRepository_List(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db, nil)
	ctx := context.Background()

	projects, err := repo.List(ctx)
	require.NoError(t, err)
	require.Empty(t, projects)

	require.NoError(t, repo.Create(ctx, newTestProject("p1", "/src/one")))
	require.NoError(t, repo.Create(ctx, newTestProject("p2", "/src/two")))

	projects, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	require.Equal(t, "p1", projects[0].ID)
	require.Equal(t, "p2", projects[1].ID)
}

func TestProjectRepository_Update(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db, nil)
	ctx := context.Background()

	proj := newTestProject("p1", "/src/one")
	require.NoError(t, repo.Create(ctx, proj))

	fetched := project.Fetched(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	threshold := 75
	proj.Title = "Renamed"
	proj.ProjectDataLastFetch = &fetched
	proj.LinesThreshold = &threshold
	require.NoError(t, repo.Update(ctx, proj))

	retrieved, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "Renamed", retrieved.Title)
	require.Equal(t, 75, retrieved.SnapshotLinesThreshold())
	require.True(t, retrieved.ProjectDataLastFetch.Succeeded())

	err = repo.Update(ctx, newTestProject("missing", "/src/missing"))
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProjectRepository_Delete(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db, nil)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestProject("p1", "/src/one")))
	require.NoError(t, repo.Delete(ctx, "p1"))

	_, err := repo.Get(ctx, "p1")
	require.ErrorIs(t, err, repository.ErrNotFound)
	require.ErrorIs(t, repo.Delete(ctx, "p1"), repository.ErrNotFound)

	// the path is free again once removed
	require.NoError(t, repo.Create(ctx, newTestProject("p2", "/src/one")))
}

func TestProjectRepository_ListSkipsCorruptRecord(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db, nil)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestProject("p1", "/src/one")))
	_, err := db.Exec(
		`INSERT INTO projects (id, path, title, record) VALUES (?, ?, ?, ?)`,
		"bad", "/src/bad", "bad", `{"id":"bad","worktreePath":"/src/bad","preferredKey":42}`,
	)
	require.NoError(t, err)

	projects, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Equal(t, "p1", projects[0].ID)

	require.NoError(t, repo.Delete(ctx, "bad"))
}

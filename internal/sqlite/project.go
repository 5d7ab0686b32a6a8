package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/gitlink/internal/domain/project"
	"github.com/rpggio/gitlink/internal/repository"
)

// ProjectRepository implements project.Repository for SQLite
type ProjectRepository struct {
	db     *DB
	logger *slog.Logger
	now    func() time.Time
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB, logger *slog.Logger) *ProjectRepository {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ProjectRepository{db: db, logger: logger, now: time.Now}
}

// Create stores a new project record
func (r *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	record, err := project.Encode(proj)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO projects (id, path, title, record, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	now := r.now()
	_, err = r.db.ExecContext(ctx, query,
		proj.ID,
		proj.Path,
		proj.Title,
		string(record),
		now,
		now,
	)

	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	query := `
		SELECT record
		FROM projects
		WHERE id = ?
	`

	var record string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&record)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return project.Decode([]byte(record))
}

// List returns every stored project ordered by creation time. Records that
// fail to decode are skipped with a warning so the rest stay reachable.
func (r *ProjectRepository) List(ctx context.Context) ([]*project.Project, error) {
	query := `
		SELECT id, record
		FROM projects
		ORDER BY created_at ASC, rowid ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*project.Project
	for rows.Next() {
		var id, record string
		if err := rows.Scan(&id, &record); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		proj, err := project.Decode([]byte(record))
		if err != nil {
			r.logger.Warn("skipping unreadable project record", "project_id", id, "error", err)
			continue
		}
		projects = append(projects, proj)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}

	return projects, nil
}

// Update replaces the stored record of an existing project. The worktree path
// is immutable and is not rewritten.
func (r *ProjectRepository) Update(ctx context.Context, proj *project.Project) error {
	record, err := project.Encode(proj)
	if err != nil {
		return err
	}

	query := `
		UPDATE projects
		SET title = ?, record = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, proj.Title, string(record), r.now(), proj.ID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a project
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

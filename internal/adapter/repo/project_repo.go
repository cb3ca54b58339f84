package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storyreel/internal/domain"
)

// ProjectRepositoryPG implements domain.ProjectRepository using PostgreSQL.
type ProjectRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewProjectRepository constructs a project repository backed by PostgreSQL.
func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepositoryPG {
	return &ProjectRepositoryPG{pool: pool}
}

// Create inserts a new project record.
func (r *ProjectRepositoryPG) Create(ctx context.Context, project *domain.Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	query := `
INSERT INTO projects (id, owner_id, title, story_text, style, stage)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at, updated_at;
`
	row := r.pool.QueryRow(ctx, query,
		project.ID,
		project.OwnerID,
		project.Title,
		project.StoryText,
		project.Style,
		project.Stage,
	)
	return row.Scan(&project.CreatedAt, &project.UpdatedAt)
}

// GetByID fetches a project owned by ownerID. Projects owned by anyone
// else look exactly like missing ones.
func (r *ProjectRepositoryPG) GetByID(ctx context.Context, ownerID, projectID string) (*domain.Project, error) {
	query := `
SELECT id, owner_id, title, story_text, style, stage, created_at, updated_at
FROM projects
WHERE id = $1 AND owner_id = $2;
`
	row := r.pool.QueryRow(ctx, query, projectID, ownerID)
	var p domain.Project
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.StoryText, &p.Style, &p.Stage, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListByOwner returns all projects of the owner, newest first.
func (r *ProjectRepositoryPG) ListByOwner(ctx context.Context, ownerID string) ([]domain.Project, error) {
	query := `
SELECT id, owner_id, title, story_text, style, stage, created_at, updated_at
FROM projects
WHERE owner_id = $1
ORDER BY created_at DESC;
`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Title, &p.StoryText, &p.Style, &p.Stage, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Delete removes the project; scenes and artifacts cascade at the
// database level.
func (r *ProjectRepositoryPG) Delete(ctx context.Context, ownerID, projectID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1 AND owner_id = $2;`, projectID, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetStage updates the project's pipeline stage.
func (r *ProjectRepositoryPG) SetStage(ctx context.Context, ownerID, projectID string, stage domain.Stage) error {
	query := `
UPDATE projects
SET stage = $3, updated_at = NOW()
WHERE id = $1 AND owner_id = $2;
`
	tag, err := r.pool.Exec(ctx, query, projectID, ownerID, stage)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ domain.ProjectRepository = (*ProjectRepositoryPG)(nil)

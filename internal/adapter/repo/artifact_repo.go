package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storyreel/internal/domain"
)

// ArtifactRepositoryPG implements domain.ArtifactRepository using
// PostgreSQL. Versions are assigned inside the insert statement so a
// scene+track's history is gapless and monotonically increasing.
type ArtifactRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewArtifactRepository constructs an artifact repository backed by PostgreSQL.
func NewArtifactRepository(pool *pgxpool.Pool) *ArtifactRepositoryPG {
	return &ArtifactRepositoryPG{pool: pool}
}

const artifactColumns = `
a.id, a.scene_id, a.track, a.version, a.storage_key, a.url,
a.width, a.height, a.duration_seconds, a.job_handle, a.created_at`

func scanArtifact(row pgx.Row) (*domain.Artifact, error) {
	var a domain.Artifact
	err := row.Scan(
		&a.ID, &a.SceneID, &a.Track, &a.Version, &a.StorageKey, &a.URL,
		&a.Width, &a.Height, &a.DurationSeconds, &a.JobHandle, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Insert persists a new artifact with the next version for its
// scene+track. The ownership join means an unowned scene inserts
// nothing and reports ErrNotFound.
func (r *ArtifactRepositoryPG) Insert(ctx context.Context, ownerID string, artifact *domain.Artifact) error {
	if artifact.ID == "" {
		artifact.ID = uuid.NewString()
	}
	query := `
INSERT INTO artifacts (id, scene_id, track, version, storage_key, url, width, height, duration_seconds, job_handle)
SELECT $1, s.id, $4,
       COALESCE((SELECT MAX(prev.version) FROM artifacts prev WHERE prev.scene_id = s.id AND prev.track = $4), 0) + 1,
       $5, $6, $7, $8, $9, $10
FROM scenes s
JOIN projects p ON p.id = s.project_id AND p.owner_id = $3
WHERE s.id = $2
RETURNING version, created_at;
`
	row := r.pool.QueryRow(ctx, query,
		artifact.ID,
		artifact.SceneID,
		ownerID,
		artifact.Track,
		artifact.StorageKey,
		artifact.URL,
		artifact.Width,
		artifact.Height,
		artifact.DurationSeconds,
		artifact.JobHandle,
	)
	if err := row.Scan(&artifact.Version, &artifact.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	return nil
}

// LatestByScene returns the highest-version artifact for a scene+track.
func (r *ArtifactRepositoryPG) LatestByScene(ctx context.Context, ownerID, sceneID string, track domain.MediaTrack) (*domain.Artifact, error) {
	query := `
SELECT ` + artifactColumns + `
FROM artifacts a
JOIN scenes s ON s.id = a.scene_id
JOIN projects p ON p.id = s.project_id AND p.owner_id = $3
WHERE a.scene_id = $1 AND a.track = $2
ORDER BY a.version DESC
LIMIT 1;
`
	artifact, err := scanArtifact(r.pool.QueryRow(ctx, query, sceneID, track, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return artifact, nil
}

// ListByScene returns the full version history for a scene+track,
// newest first.
func (r *ArtifactRepositoryPG) ListByScene(ctx context.Context, ownerID, sceneID string, track domain.MediaTrack) ([]domain.Artifact, error) {
	query := `
SELECT ` + artifactColumns + `
FROM artifacts a
JOIN scenes s ON s.id = a.scene_id
JOIN projects p ON p.id = s.project_id AND p.owner_id = $3
WHERE a.scene_id = $1 AND a.track = $2
ORDER BY a.version DESC;
`
	rows, err := r.pool.Query(ctx, query, sceneID, track, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artifacts []domain.Artifact
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, *artifact)
	}
	return artifacts, rows.Err()
}

// GetByJobHandle resolves the placeholder artifact correlated with an
// external async job.
func (r *ArtifactRepositoryPG) GetByJobHandle(ctx context.Context, ownerID, handle string) (*domain.Artifact, error) {
	query := `
SELECT ` + artifactColumns + `
FROM artifacts a
JOIN scenes s ON s.id = a.scene_id
JOIN projects p ON p.id = s.project_id AND p.owner_id = $2
WHERE a.job_handle = $1;
`
	artifact, err := scanArtifact(r.pool.QueryRow(ctx, query, handle, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return artifact, nil
}

// FillPlaceholder writes the resolved location fields into a video
// placeholder. This is the only artifact mutation the store permits.
func (r *ArtifactRepositoryPG) FillPlaceholder(ctx context.Context, ownerID, artifactID, storageKey, url string, durationSeconds int) error {
	query := `
UPDATE artifacts a
SET storage_key = $3, url = $4, duration_seconds = $5
FROM scenes s, projects p
WHERE a.id = $1 AND s.id = a.scene_id AND p.id = s.project_id AND p.owner_id = $2;
`
	tag, err := r.pool.Exec(ctx, query, artifactID, ownerID, storageKey, url, durationSeconds)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ domain.ArtifactRepository = (*ArtifactRepositoryPG)(nil)

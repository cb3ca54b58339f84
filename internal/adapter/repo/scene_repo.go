package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storyreel/internal/domain"
)

// SceneRepositoryPG implements the unit status ledger on PostgreSQL.
// Every statement joins through projects so reads and writes are
// scoped to the owning principal.
type SceneRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewSceneRepository constructs a scene repository backed by PostgreSQL.
func NewSceneRepository(pool *pgxpool.Pool) *SceneRepositoryPG {
	return &SceneRepositoryPG{pool: pool}
}

const sceneColumns = `
s.id, s.project_id, s.order_index, s.title, s.description, s.description_confirmed,
s.image_status, s.image_confirmed, s.video_status, s.video_confirmed, s.created_at, s.updated_at`

func scanScene(row pgx.Row) (*domain.Scene, error) {
	var s domain.Scene
	err := row.Scan(
		&s.ID, &s.ProjectID, &s.OrderIndex, &s.Title, &s.Description, &s.DescriptionConfirmed,
		&s.ImageStatus, &s.ImageConfirmed, &s.VideoStatus, &s.VideoConfirmed, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// statusColumn resolves the ledger column for a track. Tracks are
// validated before reaching here; anything else is a programming error.
func statusColumn(track domain.MediaTrack) string {
	if track == domain.TrackVideo {
		return "video_status"
	}
	return "image_status"
}

func confirmedColumn(track domain.MediaTrack) string {
	if track == domain.TrackVideo {
		return "video_confirmed"
	}
	return "image_confirmed"
}

// ReplaceForProject deletes any existing scenes of the project and
// inserts the provided ones in a single transaction.
func (r *SceneRepositoryPG) ReplaceForProject(ctx context.Context, ownerID, projectID string, scenes []domain.Scene) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var exists bool
	row := tx.QueryRow(ctx, `SELECT true FROM projects WHERE id = $1 AND owner_id = $2 FOR UPDATE;`, projectID, ownerID)
	if err := row.Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM scenes WHERE project_id = $1;`, projectID); err != nil {
		return err
	}

	insert := `
INSERT INTO scenes (id, project_id, order_index, title, description, description_confirmed,
                    image_status, image_confirmed, video_status, video_confirmed)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`
	for i := range scenes {
		s := &scenes[i]
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		s.ProjectID = projectID
		if s.ImageStatus == "" {
			s.ImageStatus = domain.MediaStatusPending
		}
		if s.VideoStatus == "" {
			s.VideoStatus = domain.MediaStatusPending
		}
		if _, err := tx.Exec(ctx, insert,
			s.ID, s.ProjectID, s.OrderIndex, s.Title, s.Description, s.DescriptionConfirmed,
			s.ImageStatus, s.ImageConfirmed, s.VideoStatus, s.VideoConfirmed,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// ListByProject returns the project's scenes in canonical order.
func (r *SceneRepositoryPG) ListByProject(ctx context.Context, ownerID, projectID string) ([]domain.Scene, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM scenes s
JOIN projects p ON p.id = s.project_id AND p.owner_id = $2
WHERE s.project_id = $1
ORDER BY s.order_index ASC;
`, sceneColumns)
	return r.queryScenes(ctx, query, projectID, ownerID)
}

// GetByID fetches one scene owned by ownerID.
func (r *SceneRepositoryPG) GetByID(ctx context.Context, ownerID, sceneID string) (*domain.Scene, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM scenes s
JOIN projects p ON p.id = s.project_id AND p.owner_id = $2
WHERE s.id = $1;
`, sceneColumns)
	scene, err := scanScene(r.pool.QueryRow(ctx, query, sceneID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return scene, nil
}

// ListEligible returns scenes whose track can be generated right now:
// status pending or failed, cross-track precondition satisfied.
func (r *SceneRepositoryPG) ListEligible(ctx context.Context, ownerID, projectID string, track domain.MediaTrack) ([]domain.Scene, error) {
	gate := "s.description_confirmed"
	if track == domain.TrackVideo {
		gate = "s.image_confirmed"
	}
	query := fmt.Sprintf(`
SELECT %s
FROM scenes s
JOIN projects p ON p.id = s.project_id AND p.owner_id = $2
WHERE s.project_id = $1
  AND s.%s IN ('pending', 'failed')
  AND %s
ORDER BY s.order_index ASC;
`, sceneColumns, statusColumn(track), gate)
	return r.queryScenes(ctx, query, projectID, ownerID)
}

// BeginTrackProcessing performs the compare-and-swap transition into
// processing. Any settled status may re-enter, which is how an explicit
// regenerate of a completed track starts a new attempt; only a track
// that is already processing loses the swap and gets
// ErrGenerationInFlight.
func (r *SceneRepositoryPG) BeginTrackProcessing(ctx context.Context, ownerID, sceneID string, track domain.MediaTrack) error {
	col := statusColumn(track)
	query := fmt.Sprintf(`
UPDATE scenes s
SET %s = 'processing', updated_at = NOW()
FROM projects p
WHERE s.id = $1 AND p.id = s.project_id AND p.owner_id = $2
  AND s.%s <> 'processing';
`, col, col)
	tag, err := r.pool.Exec(ctx, query, sceneID, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, ownerID, sceneID); err != nil {
			return err
		}
		return domain.ErrGenerationInFlight
	}
	return nil
}

// SetTrackStatus writes the track status unconditionally.
func (r *SceneRepositoryPG) SetTrackStatus(ctx context.Context, ownerID, sceneID string, track domain.MediaTrack, status domain.MediaStatus) error {
	query := fmt.Sprintf(`
UPDATE scenes s
SET %s = $3, updated_at = NOW()
FROM projects p
WHERE s.id = $1 AND p.id = s.project_id AND p.owner_id = $2;
`, statusColumn(track))
	tag, err := r.pool.Exec(ctx, query, sceneID, ownerID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ConfirmTrack marks a completed track as confirmed. Confirming an
// already-confirmed track is a no-op that still succeeds.
func (r *SceneRepositoryPG) ConfirmTrack(ctx context.Context, ownerID, sceneID string, track domain.MediaTrack) error {
	query := fmt.Sprintf(`
UPDATE scenes s
SET %s = true, updated_at = NOW()
FROM projects p
WHERE s.id = $1 AND p.id = s.project_id AND p.owner_id = $2
  AND s.%s = 'completed';
`, confirmedColumn(track), statusColumn(track))
	tag, err := r.pool.Exec(ctx, query, sceneID, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, ownerID, sceneID); err != nil {
			return err
		}
		return domain.ErrPreconditionFailed
	}
	return nil
}

// UpdateDescription edits the scene description while it is still
// unconfirmed.
func (r *SceneRepositoryPG) UpdateDescription(ctx context.Context, ownerID, sceneID, description string) error {
	query := `
UPDATE scenes s
SET description = $3, updated_at = NOW()
FROM projects p
WHERE s.id = $1 AND p.id = s.project_id AND p.owner_id = $2
  AND NOT s.description_confirmed;
`
	tag, err := r.pool.Exec(ctx, query, sceneID, ownerID, description)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, ownerID, sceneID); err != nil {
			return err
		}
		return domain.ErrPreconditionFailed
	}
	return nil
}

// ConfirmDescription flips the monotonic description flag. Re-confirming
// succeeds without changing anything.
func (r *SceneRepositoryPG) ConfirmDescription(ctx context.Context, ownerID, sceneID string) error {
	query := `
UPDATE scenes s
SET description_confirmed = true, updated_at = NOW()
FROM projects p
WHERE s.id = $1 AND p.id = s.project_id AND p.owner_id = $2;
`
	tag, err := r.pool.Exec(ctx, query, sceneID, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SceneRepositoryPG) queryScenes(ctx context.Context, query string, args ...any) ([]domain.Scene, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scenes []domain.Scene
	for rows.Next() {
		scene, err := scanScene(rows)
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, *scene)
	}
	return scenes, rows.Err()
}

var _ domain.SceneRepository = (*SceneRepositoryPG)(nil)

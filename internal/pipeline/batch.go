package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"storyreel/internal/domain"
)

// UnitOutcome is one scene's result within a batch sweep.
type UnitOutcome struct {
	SceneID    string             `json:"scene_id"`
	OrderIndex int                `json:"order_index"`
	Success    bool               `json:"success"`
	Status     domain.MediaStatus `json:"status"`
	Artifact   *domain.Artifact   `json:"artifact,omitempty"`
	JobHandle  string             `json:"job_handle,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// BatchResult aggregates a full sweep so the caller can selectively
// retry failed scenes.
type BatchResult struct {
	Outcomes     []UnitOutcome `json:"results"`
	SuccessCount int           `json:"success_count"`
	FailedCount  int           `json:"failed_count"`
	Stage        domain.Stage  `json:"stage"`
}

// Batch sweeps every eligible scene of a project through the
// single-unit generator.
type Batch struct {
	projects  domain.ProjectRepository
	ledger    domain.SceneRepository
	generator *Generator
	logger    zerolog.Logger
}

// NewBatch constructs a batch orchestrator.
func NewBatch(projects domain.ProjectRepository, ledger domain.SceneRepository, generator *Generator, logger zerolog.Logger) *Batch {
	return &Batch{projects: projects, ledger: ledger, generator: generator, logger: logger}
}

// Run generates the given track for all eligible scenes of the
// project, sequentially in ascending scene order. Scenes are processed
// one at a time to respect per-vendor rate limits. One scene's failure
// does not abort the sweep; the project stage advances only when at
// least one scene succeeded.
func (b *Batch) Run(ctx context.Context, ownerID, projectID string, track domain.MediaTrack) (*BatchResult, error) {
	if !track.Valid() {
		return nil, domain.ErrPreconditionFailed
	}
	project, err := b.projects.GetByID(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}

	scenes, err := b.ledger.ListEligible(ctx, ownerID, projectID, track)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Outcomes: []UnitOutcome{}, Stage: project.Stage}
	for _, scene := range scenes {
		unit := UnitOutcome{SceneID: scene.ID, OrderIndex: scene.OrderIndex}
		outcome, err := b.generator.GenerateTrack(ctx, ownerID, scene.ID, track)
		if err != nil {
			unit.Status = domain.MediaStatusFailed
			unit.Error = err.Error()
			result.FailedCount++
		} else {
			unit.Success = true
			unit.Status = outcome.Status
			unit.Artifact = outcome.Artifact
			unit.JobHandle = outcome.JobHandle
			result.SuccessCount++
		}
		result.Outcomes = append(result.Outcomes, unit)
	}

	if result.SuccessCount > 0 {
		target := domain.StageForTrack(track)
		if project.Stage.Before(target) {
			if err := b.projects.SetStage(ctx, ownerID, projectID, target); err != nil {
				return nil, err
			}
			result.Stage = target
		}
	}

	b.logger.Info().
		Str("project_id", projectID).
		Str("track", string(track)).
		Int("success", result.SuccessCount).
		Int("failed", result.FailedCount).
		Msg("batch sweep finished")
	return result, nil
}

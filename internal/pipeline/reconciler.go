package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"storyreel/internal/domain"
	"storyreel/internal/providers"
	"storyreel/internal/storage"
)

const (
	// DefaultPollInterval is how often an in-flight job is re-queried.
	DefaultPollInterval = 5 * time.Second

	// DefaultCeiling bounds how long after submission a job may stay
	// unresolved before it is failed with a timeout reason.
	DefaultCeiling = 600 * time.Second
)

// ReconcilerConfig wires the reconciliation poller's collaborators.
type ReconcilerConfig struct {
	Ledger    domain.SceneRepository
	Artifacts domain.ArtifactRepository
	Store     storage.Store
	Video     providers.VideoSubmitter
	Fetcher   Fetcher
	Logger    zerolog.Logger
	Interval  time.Duration
	Ceiling   time.Duration
}

// Reconciler resolves in-flight async video jobs: it queries the
// vendor, persists finished media, fills the placeholder artifact and
// finalizes the ledger.
type Reconciler struct {
	ledger    domain.SceneRepository
	artifacts domain.ArtifactRepository
	store     storage.Store
	video     providers.VideoSubmitter
	fetcher   Fetcher
	logger    zerolog.Logger
	interval  time.Duration
	ceiling   time.Duration
}

// NewReconciler constructs a Reconciler.
func NewReconciler(cfg ReconcilerConfig) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	if cfg.Ceiling <= 0 {
		cfg.Ceiling = DefaultCeiling
	}
	return &Reconciler{
		ledger:    cfg.Ledger,
		artifacts: cfg.Artifacts,
		store:     cfg.Store,
		video:     cfg.Video,
		fetcher:   cfg.Fetcher,
		logger:    cfg.Logger,
		interval:  cfg.Interval,
		ceiling:   cfg.Ceiling,
	}
}

// ReconcileOnce performs a single reconciliation pass for the job
// handle. Terminal vendor outcomes (including a provider that cannot
// be queried anymore and the wall-clock ceiling) are recorded in the
// ledger and reported in the outcome, not as errors; errors are
// reserved for ownership failures and infrastructure trouble that a
// later pass can retry.
func (r *Reconciler) ReconcileOnce(ctx context.Context, ownerID, handle string) (*Outcome, error) {
	artifact, err := r.artifacts.GetByJobHandle(ctx, ownerID, handle)
	if err != nil {
		return nil, err
	}

	// Already resolved earlier; repeated polls are idempotent.
	if !artifact.Placeholder() {
		return &Outcome{Status: domain.MediaStatusCompleted, Artifact: artifact, JobHandle: handle}, nil
	}

	// The ceiling counts from submission, so it holds no matter how
	// long a client keeps polling.
	if time.Since(artifact.CreatedAt) > r.ceiling {
		reason := fmt.Sprintf("no terminal vendor status within %s", r.ceiling)
		return r.fail(ctx, ownerID, artifact, handle, reason)
	}

	job, err := r.video.Query(ctx, handle)
	if err != nil {
		// The adapter already burned its retry budget; treat the job
		// as lost rather than leaving the scene processing forever.
		return r.fail(ctx, ownerID, artifact, handle, err.Error())
	}

	switch job.State {
	case providers.JobStatePending, providers.JobStateProcessing:
		return &Outcome{Status: domain.MediaStatusProcessing, Artifact: artifact, JobHandle: handle}, nil

	case providers.JobStateFailed:
		reason := job.Reason
		if reason == "" {
			reason = "vendor reported failure"
		}
		return r.fail(ctx, ownerID, artifact, handle, reason)

	case providers.JobStateCompleted:
		return r.complete(ctx, ownerID, artifact, handle, job.Result)

	default:
		return nil, fmt.Errorf("unexpected job state %q", job.State)
	}
}

// Poll repeatedly reconciles the job until it reaches a terminal
// outcome, the ceiling elapses or the context is canceled.
func (r *Reconciler) Poll(ctx context.Context, ownerID, handle string) (*Outcome, error) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		outcome, err := r.ReconcileOnce(ctx, ownerID, handle)
		if err != nil {
			return nil, err
		}
		if outcome.Status.Terminal() {
			return outcome, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Reconciler) complete(ctx context.Context, ownerID string, artifact *domain.Artifact, handle string, result *providers.MediaResult) (*Outcome, error) {
	if result == nil || result.URL == "" {
		return r.fail(ctx, ownerID, artifact, handle, "vendor completed without a media url")
	}

	data, mime, err := r.fetcher.Fetch(ctx, result.URL)
	if err != nil {
		// Leave the scene processing; the vendor result is still
		// there and the next pass retries the download.
		return nil, fmt.Errorf("download media: %w", err)
	}
	if mime == "" {
		mime = result.MIME
	}
	key, err := r.store.Write(ctx, artifactKey(artifact.SceneID, artifact.Track, mime), data, mime)
	if err != nil {
		return nil, fmt.Errorf("persist media: %w", err)
	}

	url := r.store.URL(key)
	if err := r.artifacts.FillPlaceholder(ctx, ownerID, artifact.ID, key, url, result.DurationSeconds); err != nil {
		return nil, err
	}
	if err := r.ledger.SetTrackStatus(ctx, ownerID, artifact.SceneID, artifact.Track, domain.MediaStatusCompleted); err != nil {
		return nil, err
	}

	artifact.StorageKey = key
	artifact.URL = url
	artifact.DurationSeconds = result.DurationSeconds
	r.logger.Info().
		Str("scene_id", artifact.SceneID).
		Str("job_handle", handle).
		Msg("async job reconciled")
	return &Outcome{Status: domain.MediaStatusCompleted, Artifact: artifact, JobHandle: handle}, nil
}

func (r *Reconciler) fail(ctx context.Context, ownerID string, artifact *domain.Artifact, handle, reason string) (*Outcome, error) {
	if err := r.ledger.SetTrackStatus(ctx, ownerID, artifact.SceneID, artifact.Track, domain.MediaStatusFailed); err != nil {
		return nil, err
	}
	r.logger.Warn().
		Str("scene_id", artifact.SceneID).
		Str("job_handle", handle).
		Str("reason", reason).
		Msg("async job failed")
	return &Outcome{Status: domain.MediaStatusFailed, Artifact: artifact, JobHandle: handle, FailureReason: reason}, nil
}

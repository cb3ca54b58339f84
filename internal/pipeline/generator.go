package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"storyreel/internal/domain"
	"storyreel/internal/providers"
	"storyreel/internal/storage"
)

// ReconcilePayload identifies one in-flight async generation for the
// reconciliation driver.
type ReconcilePayload struct {
	OwnerID string `json:"owner_id"`
	SceneID string `json:"scene_id"`
	Handle  string `json:"handle"`
}

// ReconcileEnqueuer hands an async job to the background reconciliation
// driver.
type ReconcileEnqueuer interface {
	EnqueueReconcile(ctx context.Context, payload ReconcilePayload) error
}

// Outcome reports what one generation attempt produced. Status is
// completed for synchronous results, processing when the vendor
// accepted an async job.
type Outcome struct {
	Status        domain.MediaStatus
	Artifact      *domain.Artifact
	JobHandle     string
	FailureReason string
}

// GeneratorConfig wires the single-unit generator's collaborators.
type GeneratorConfig struct {
	Projects  domain.ProjectRepository
	Ledger    domain.SceneRepository
	Artifacts domain.ArtifactRepository
	Store     storage.Store
	Image     providers.ImageSubmitter
	Video     providers.VideoSubmitter
	Fetcher   Fetcher
	Queue     ReconcileEnqueuer
	Logger    zerolog.Logger
}

// Generator drives one scene's media track through a single generation
// attempt: precondition check, compare-and-swap to processing, provider
// submission, artifact persistence, status finalization.
type Generator struct {
	projects  domain.ProjectRepository
	ledger    domain.SceneRepository
	artifacts domain.ArtifactRepository
	store     storage.Store
	image     providers.ImageSubmitter
	video     providers.VideoSubmitter
	fetcher   Fetcher
	queue     ReconcileEnqueuer
	logger    zerolog.Logger
}

// NewGenerator constructs a Generator.
func NewGenerator(cfg GeneratorConfig) *Generator {
	return &Generator{
		projects:  cfg.Projects,
		ledger:    cfg.Ledger,
		artifacts: cfg.Artifacts,
		store:     cfg.Store,
		image:     cfg.Image,
		video:     cfg.Video,
		fetcher:   cfg.Fetcher,
		queue:     cfg.Queue,
		logger:    cfg.Logger,
	}
}

// GenerateTrack runs one generation attempt for a scene's track on
// behalf of ownerID. Precondition and ownership failures reject before
// any ledger mutation; provider failures leave the track failed.
func (g *Generator) GenerateTrack(ctx context.Context, ownerID, sceneID string, track domain.MediaTrack) (*Outcome, error) {
	if !track.Valid() {
		return nil, fmt.Errorf("%w: unknown track %q", domain.ErrPreconditionFailed, track)
	}

	scene, err := g.ledger.GetByID(ctx, ownerID, sceneID)
	if err != nil {
		return nil, err
	}
	if !scene.CanGenerate(track) {
		if track == domain.TrackVideo {
			return nil, fmt.Errorf("%w: image track not confirmed", domain.ErrPreconditionFailed)
		}
		return nil, fmt.Errorf("%w: description not confirmed", domain.ErrPreconditionFailed)
	}

	var upstream *domain.Artifact
	if track == domain.TrackVideo {
		upstream, err = g.artifacts.LatestByScene(ctx, ownerID, sceneID, domain.TrackImage)
		if err != nil {
			if err == domain.ErrNotFound {
				return nil, domain.ErrNoUpstreamArtifact
			}
			return nil, err
		}
		if upstream.URL == "" {
			return nil, domain.ErrNoUpstreamArtifact
		}
	}

	project, err := g.projects.GetByID(ctx, ownerID, scene.ProjectID)
	if err != nil {
		return nil, err
	}

	// The ledger write happens before the network call: a concurrent
	// second trigger observes processing and loses the swap.
	if err := g.ledger.BeginTrackProcessing(ctx, ownerID, sceneID, track); err != nil {
		return nil, err
	}

	if track == domain.TrackImage {
		return g.generateImage(ctx, ownerID, project, scene)
	}
	return g.generateVideo(ctx, ownerID, scene, upstream)
}

func (g *Generator) generateImage(ctx context.Context, ownerID string, project *domain.Project, scene *domain.Scene) (*Outcome, error) {
	sub, err := g.image.Submit(ctx, providers.ImageInput{
		Description: scene.Description,
		Style:       project.Style,
		AspectRatio: "16:9",
	})
	if err != nil {
		g.markFailed(ctx, ownerID, scene.ID, domain.TrackImage, err)
		return nil, err
	}
	result := sub.Result
	if result == nil {
		err := &providers.GenerationError{Provider: g.image.Name(), Message: "submit returned no result"}
		g.markFailed(ctx, ownerID, scene.ID, domain.TrackImage, err)
		return nil, err
	}

	artifact, err := g.persistResult(ctx, ownerID, scene.ID, domain.TrackImage, result, "")
	if err != nil {
		g.markFailed(ctx, ownerID, scene.ID, domain.TrackImage, err)
		return nil, err
	}

	if err := g.ledger.SetTrackStatus(ctx, ownerID, scene.ID, domain.TrackImage, domain.MediaStatusCompleted); err != nil {
		return nil, err
	}
	g.logger.Info().
		Str("scene_id", scene.ID).
		Int("version", artifact.Version).
		Msg("image generated")
	return &Outcome{Status: domain.MediaStatusCompleted, Artifact: artifact}, nil
}

func (g *Generator) generateVideo(ctx context.Context, ownerID string, scene *domain.Scene, upstream *domain.Artifact) (*Outcome, error) {
	sub, err := g.video.Submit(ctx, providers.VideoInput{
		ImageURL:    upstream.URL,
		Description: scene.Description,
	})
	if err != nil {
		g.markFailed(ctx, ownerID, scene.ID, domain.TrackVideo, err)
		return nil, err
	}
	if sub.Handle == "" {
		err := &providers.GenerationError{Provider: g.video.Name(), Message: "submit returned no job handle"}
		g.markFailed(ctx, ownerID, scene.ID, domain.TrackVideo, err)
		return nil, err
	}

	// Placeholder with empty location fields; reconciliation fills it
	// once the vendor finishes.
	placeholder := &domain.Artifact{
		SceneID:   scene.ID,
		Track:     domain.TrackVideo,
		JobHandle: sub.Handle,
	}
	if err := g.artifacts.Insert(ctx, ownerID, placeholder); err != nil {
		g.markFailed(ctx, ownerID, scene.ID, domain.TrackVideo, err)
		return nil, err
	}

	if g.queue != nil {
		payload := ReconcilePayload{OwnerID: ownerID, SceneID: scene.ID, Handle: sub.Handle}
		if err := g.queue.EnqueueReconcile(ctx, payload); err != nil {
			// Client-driven polling still resolves the job; the
			// background driver just won't help with this one.
			g.logger.Warn().Err(err).Str("scene_id", scene.ID).Msg("enqueue reconcile failed")
		}
	}

	g.logger.Info().
		Str("scene_id", scene.ID).
		Str("job_handle", sub.Handle).
		Msg("video job submitted")
	return &Outcome{Status: domain.MediaStatusProcessing, Artifact: placeholder, JobHandle: sub.Handle}, nil
}

// persistResult downloads a vendor result and stores it durably, then
// records the artifact version.
func (g *Generator) persistResult(ctx context.Context, ownerID, sceneID string, track domain.MediaTrack, result *providers.MediaResult, jobHandle string) (*domain.Artifact, error) {
	data, mime, err := g.fetcher.Fetch(ctx, result.URL)
	if err != nil {
		return nil, fmt.Errorf("download media: %w", err)
	}
	if mime == "" {
		mime = result.MIME
	}
	key, err := g.store.Write(ctx, artifactKey(sceneID, track, mime), data, mime)
	if err != nil {
		return nil, fmt.Errorf("persist media: %w", err)
	}
	artifact := &domain.Artifact{
		SceneID:         sceneID,
		Track:           track,
		StorageKey:      key,
		URL:             g.store.URL(key),
		Width:           result.Width,
		Height:          result.Height,
		DurationSeconds: result.DurationSeconds,
		JobHandle:       jobHandle,
	}
	if err := g.artifacts.Insert(ctx, ownerID, artifact); err != nil {
		return nil, err
	}
	return artifact, nil
}

func (g *Generator) markFailed(ctx context.Context, ownerID, sceneID string, track domain.MediaTrack, cause error) {
	if err := g.ledger.SetTrackStatus(ctx, ownerID, sceneID, track, domain.MediaStatusFailed); err != nil {
		g.logger.Error().Err(err).
			Str("scene_id", sceneID).
			Str("track", string(track)).
			Msg("mark failed after generation error")
	}
	g.logger.Error().Err(cause).
		Str("scene_id", sceneID).
		Str("track", string(track)).
		Msg("generation failed")
}

func artifactKey(sceneID string, track domain.MediaTrack, mime string) string {
	return fmt.Sprintf("scenes/%s/%s/%s%s", sceneID, track, uuid.NewString(), extensionForMIME(mime))
}

func extensionForMIME(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	default:
		return ".bin"
	}
}

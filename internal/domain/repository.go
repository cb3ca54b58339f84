package domain

import "context"

// ProjectRepository defines persistence for projects. Every read and
// write is scoped by the acting principal's ownerID; a project owned by
// someone else behaves exactly like a missing one.
type ProjectRepository interface {
	Create(ctx context.Context, project *Project) error
	GetByID(ctx context.Context, ownerID, projectID string) (*Project, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Project, error)
	Delete(ctx context.Context, ownerID, projectID string) error
	SetStage(ctx context.Context, ownerID, projectID string, stage Stage) error
}

// SceneRepository is the unit status ledger: the authoritative store of
// per-scene track statuses and confirmation flags.
type SceneRepository interface {
	ReplaceForProject(ctx context.Context, ownerID, projectID string, scenes []Scene) error
	ListByProject(ctx context.Context, ownerID, projectID string) ([]Scene, error)
	GetByID(ctx context.Context, ownerID, sceneID string) (*Scene, error)

	// ListEligible returns scenes whose track status is pending or
	// failed and whose cross-track preconditions hold, in ascending
	// order index.
	ListEligible(ctx context.Context, ownerID, projectID string, track MediaTrack) ([]Scene, error)

	// BeginTrackProcessing is the compare-and-swap transition into
	// processing. Any settled status may enter, which lets an explicit
	// regenerate re-run a completed track. It returns
	// ErrGenerationInFlight when the track is already processing, so a
	// second concurrent trigger loses deterministically.
	BeginTrackProcessing(ctx context.Context, ownerID, sceneID string, track MediaTrack) error

	SetTrackStatus(ctx context.Context, ownerID, sceneID string, track MediaTrack, status MediaStatus) error
	ConfirmTrack(ctx context.Context, ownerID, sceneID string, track MediaTrack) error
	UpdateDescription(ctx context.Context, ownerID, sceneID, description string) error
	ConfirmDescription(ctx context.Context, ownerID, sceneID string) error
}

// ArtifactRepository handles persistence for versioned artifacts.
type ArtifactRepository interface {
	// Insert persists a new artifact, assigning the next version for
	// its scene+track and filling artifact.ID and artifact.Version.
	Insert(ctx context.Context, ownerID string, artifact *Artifact) error

	LatestByScene(ctx context.Context, ownerID, sceneID string, track MediaTrack) (*Artifact, error)
	ListByScene(ctx context.Context, ownerID, sceneID string, track MediaTrack) ([]Artifact, error)
	GetByJobHandle(ctx context.Context, ownerID, handle string) (*Artifact, error)

	// FillPlaceholder is the one permitted artifact mutation: writing
	// location and duration into a video placeholder once its async
	// job resolves.
	FillPlaceholder(ctx context.Context, ownerID, artifactID, storageKey, url string, durationSeconds int) error
}

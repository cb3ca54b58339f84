package handlers

import (
	"context"

	"storyreel/internal/domain"
	"storyreel/internal/providers"
)

// Function-field fakes so each test overrides only the calls it cares
// about; everything else reports not found.

type fakeProjects struct {
	create      func(ctx context.Context, p *domain.Project) error
	getByID     func(ctx context.Context, ownerID, projectID string) (*domain.Project, error)
	listByOwner func(ctx context.Context, ownerID string) ([]domain.Project, error)
	delete      func(ctx context.Context, ownerID, projectID string) error
	setStage    func(ctx context.Context, ownerID, projectID string, stage domain.Stage) error
}

func (f *fakeProjects) Create(ctx context.Context, p *domain.Project) error {
	if f.create != nil {
		return f.create(ctx, p)
	}
	return nil
}

func (f *fakeProjects) GetByID(ctx context.Context, ownerID, projectID string) (*domain.Project, error) {
	if f.getByID != nil {
		return f.getByID(ctx, ownerID, projectID)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProjects) ListByOwner(ctx context.Context, ownerID string) ([]domain.Project, error) {
	if f.listByOwner != nil {
		return f.listByOwner(ctx, ownerID)
	}
	return nil, nil
}

func (f *fakeProjects) Delete(ctx context.Context, ownerID, projectID string) error {
	if f.delete != nil {
		return f.delete(ctx, ownerID, projectID)
	}
	return domain.ErrNotFound
}

func (f *fakeProjects) SetStage(ctx context.Context, ownerID, projectID string, stage domain.Stage) error {
	if f.setStage != nil {
		return f.setStage(ctx, ownerID, projectID, stage)
	}
	return nil
}

type fakeScenes struct {
	replaceForProject  func(ctx context.Context, ownerID, projectID string, scenes []domain.Scene) error
	listByProject      func(ctx context.Context, ownerID, projectID string) ([]domain.Scene, error)
	getByID            func(ctx context.Context, ownerID, sceneID string) (*domain.Scene, error)
	confirmTrack       func(ctx context.Context, ownerID, sceneID string, track domain.MediaTrack) error
	updateDescription  func(ctx context.Context, ownerID, sceneID, description string) error
	confirmDescription func(ctx context.Context, ownerID, sceneID string) error
}

func (f *fakeScenes) ReplaceForProject(ctx context.Context, ownerID, projectID string, scenes []domain.Scene) error {
	if f.replaceForProject != nil {
		return f.replaceForProject(ctx, ownerID, projectID, scenes)
	}
	return nil
}

func (f *fakeScenes) ListByProject(ctx context.Context, ownerID, projectID string) ([]domain.Scene, error) {
	if f.listByProject != nil {
		return f.listByProject(ctx, ownerID, projectID)
	}
	return nil, nil
}

func (f *fakeScenes) GetByID(ctx context.Context, ownerID, sceneID string) (*domain.Scene, error) {
	if f.getByID != nil {
		return f.getByID(ctx, ownerID, sceneID)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeScenes) ListEligible(ctx context.Context, ownerID, projectID string, track domain.MediaTrack) ([]domain.Scene, error) {
	return nil, nil
}

func (f *fakeScenes) BeginTrackProcessing(ctx context.Context, ownerID, sceneID string, track domain.MediaTrack) error {
	return nil
}

func (f *fakeScenes) SetTrackStatus(ctx context.Context, ownerID, sceneID string, track domain.MediaTrack, status domain.MediaStatus) error {
	return nil
}

func (f *fakeScenes) ConfirmTrack(ctx context.Context, ownerID, sceneID string, track domain.MediaTrack) error {
	if f.confirmTrack != nil {
		return f.confirmTrack(ctx, ownerID, sceneID, track)
	}
	return domain.ErrNotFound
}

func (f *fakeScenes) UpdateDescription(ctx context.Context, ownerID, sceneID, description string) error {
	if f.updateDescription != nil {
		return f.updateDescription(ctx, ownerID, sceneID, description)
	}
	return domain.ErrNotFound
}

func (f *fakeScenes) ConfirmDescription(ctx context.Context, ownerID, sceneID string) error {
	if f.confirmDescription != nil {
		return f.confirmDescription(ctx, ownerID, sceneID)
	}
	return domain.ErrNotFound
}

type fakeArtifacts struct {
	listByScene func(ctx context.Context, ownerID, sceneID string, track domain.MediaTrack) ([]domain.Artifact, error)
}

func (f *fakeArtifacts) Insert(ctx context.Context, ownerID string, artifact *domain.Artifact) error {
	return nil
}

func (f *fakeArtifacts) LatestByScene(ctx context.Context, ownerID, sceneID string, track domain.MediaTrack) (*domain.Artifact, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeArtifacts) ListByScene(ctx context.Context, ownerID, sceneID string, track domain.MediaTrack) ([]domain.Artifact, error) {
	if f.listByScene != nil {
		return f.listByScene(ctx, ownerID, sceneID, track)
	}
	return nil, nil
}

func (f *fakeArtifacts) GetByJobHandle(ctx context.Context, ownerID, handle string) (*domain.Artifact, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeArtifacts) FillPlaceholder(ctx context.Context, ownerID, artifactID, storageKey, url string, durationSeconds int) error {
	return domain.ErrNotFound
}

type fakeStoryboard struct {
	submit func(ctx context.Context, in providers.StoryboardInput) ([]providers.SceneDraft, error)
}

func (f *fakeStoryboard) Name() string { return "fake-storyboard" }

func (f *fakeStoryboard) Submit(ctx context.Context, in providers.StoryboardInput) ([]providers.SceneDraft, error) {
	if f.submit != nil {
		return f.submit(ctx, in)
	}
	return nil, nil
}

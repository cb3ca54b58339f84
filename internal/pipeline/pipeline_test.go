package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"storyreel/internal/domain"
	"storyreel/internal/providers"
)

// In-memory collaborators shared by the generator, batch and
// reconciler tests.

type memProjects struct {
	projects map[string]*domain.Project
	stages   []domain.Stage
}

func newMemProjects() *memProjects {
	return &memProjects{projects: map[string]*domain.Project{}}
}

func (m *memProjects) Create(_ context.Context, p *domain.Project) error {
	m.projects[p.ID] = p
	return nil
}

func (m *memProjects) GetByID(_ context.Context, ownerID, projectID string) (*domain.Project, error) {
	p, ok := m.projects[projectID]
	if !ok || p.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProjects) ListByOwner(_ context.Context, ownerID string) ([]domain.Project, error) {
	var out []domain.Project
	for _, p := range m.projects {
		if p.OwnerID == ownerID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memProjects) Delete(_ context.Context, ownerID, projectID string) error {
	if _, err := m.GetByID(context.Background(), ownerID, projectID); err != nil {
		return err
	}
	delete(m.projects, projectID)
	return nil
}

func (m *memProjects) SetStage(_ context.Context, ownerID, projectID string, stage domain.Stage) error {
	p, ok := m.projects[projectID]
	if !ok || p.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	p.Stage = stage
	m.stages = append(m.stages, stage)
	return nil
}

type memLedger struct {
	owner  string
	scenes map[string]*domain.Scene
}

func newMemLedger(owner string) *memLedger {
	return &memLedger{owner: owner, scenes: map[string]*domain.Scene{}}
}

func (m *memLedger) add(s *domain.Scene) { m.scenes[s.ID] = s }

func (m *memLedger) get(ownerID, sceneID string) (*domain.Scene, error) {
	s, ok := m.scenes[sceneID]
	if !ok || ownerID != m.owner {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func (m *memLedger) ReplaceForProject(_ context.Context, ownerID, projectID string, scenes []domain.Scene) error {
	if ownerID != m.owner {
		return domain.ErrNotFound
	}
	for id, s := range m.scenes {
		if s.ProjectID == projectID {
			delete(m.scenes, id)
		}
	}
	for i := range scenes {
		cp := scenes[i]
		m.scenes[cp.ID] = &cp
	}
	return nil
}

func (m *memLedger) ListByProject(_ context.Context, ownerID, projectID string) ([]domain.Scene, error) {
	if ownerID != m.owner {
		return nil, domain.ErrNotFound
	}
	var out []domain.Scene
	for _, s := range m.scenes {
		if s.ProjectID == projectID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (m *memLedger) GetByID(_ context.Context, ownerID, sceneID string) (*domain.Scene, error) {
	s, err := m.get(ownerID, sceneID)
	if err != nil {
		return nil, err
	}
	cp := *s
	return &cp, nil
}

func (m *memLedger) ListEligible(_ context.Context, ownerID, projectID string, track domain.MediaTrack) ([]domain.Scene, error) {
	if ownerID != m.owner {
		return nil, domain.ErrNotFound
	}
	var out []domain.Scene
	for _, s := range m.scenes {
		if s.ProjectID != projectID || !s.CanGenerate(track) {
			continue
		}
		status := s.TrackStatus(track)
		if status == domain.MediaStatusPending || status == domain.MediaStatusFailed {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (m *memLedger) BeginTrackProcessing(_ context.Context, ownerID, sceneID string, track domain.MediaTrack) error {
	s, err := m.get(ownerID, sceneID)
	if err != nil {
		return err
	}
	if s.TrackStatus(track) == domain.MediaStatusProcessing {
		return domain.ErrGenerationInFlight
	}
	return m.setStatus(s, track, domain.MediaStatusProcessing)
}

func (m *memLedger) SetTrackStatus(_ context.Context, ownerID, sceneID string, track domain.MediaTrack, status domain.MediaStatus) error {
	s, err := m.get(ownerID, sceneID)
	if err != nil {
		return err
	}
	return m.setStatus(s, track, status)
}

func (m *memLedger) setStatus(s *domain.Scene, track domain.MediaTrack, status domain.MediaStatus) error {
	switch track {
	case domain.TrackImage:
		s.ImageStatus = status
	case domain.TrackVideo:
		s.VideoStatus = status
	default:
		return fmt.Errorf("unknown track %q", track)
	}
	return nil
}

func (m *memLedger) ConfirmTrack(_ context.Context, ownerID, sceneID string, track domain.MediaTrack) error {
	s, err := m.get(ownerID, sceneID)
	if err != nil {
		return err
	}
	if s.TrackStatus(track) != domain.MediaStatusCompleted {
		return domain.ErrPreconditionFailed
	}
	if track == domain.TrackVideo {
		s.VideoConfirmed = true
	} else {
		s.ImageConfirmed = true
	}
	return nil
}

func (m *memLedger) UpdateDescription(_ context.Context, ownerID, sceneID, description string) error {
	s, err := m.get(ownerID, sceneID)
	if err != nil {
		return err
	}
	if s.DescriptionConfirmed {
		return domain.ErrPreconditionFailed
	}
	s.Description = description
	return nil
}

func (m *memLedger) ConfirmDescription(_ context.Context, ownerID, sceneID string) error {
	s, err := m.get(ownerID, sceneID)
	if err != nil {
		return err
	}
	s.DescriptionConfirmed = true
	return nil
}

type memArtifacts struct {
	owner string
	items []*domain.Artifact
	seq   int
}

func newMemArtifacts(owner string) *memArtifacts {
	return &memArtifacts{owner: owner}
}

func (m *memArtifacts) Insert(_ context.Context, ownerID string, artifact *domain.Artifact) error {
	if ownerID != m.owner {
		return domain.ErrNotFound
	}
	m.seq++
	artifact.ID = fmt.Sprintf("artifact-%d", m.seq)
	version := 0
	for _, a := range m.items {
		if a.SceneID == artifact.SceneID && a.Track == artifact.Track && a.Version > version {
			version = a.Version
		}
	}
	artifact.Version = version + 1
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = time.Now()
	}
	cp := *artifact
	m.items = append(m.items, &cp)
	return nil
}

func (m *memArtifacts) LatestByScene(_ context.Context, ownerID, sceneID string, track domain.MediaTrack) (*domain.Artifact, error) {
	if ownerID != m.owner {
		return nil, domain.ErrNotFound
	}
	var latest *domain.Artifact
	for _, a := range m.items {
		if a.SceneID == sceneID && a.Track == track {
			if latest == nil || a.Version > latest.Version {
				latest = a
			}
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *memArtifacts) ListByScene(_ context.Context, ownerID, sceneID string, track domain.MediaTrack) ([]domain.Artifact, error) {
	if ownerID != m.owner {
		return nil, domain.ErrNotFound
	}
	var out []domain.Artifact
	for _, a := range m.items {
		if a.SceneID == sceneID && a.Track == track {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out, nil
}

func (m *memArtifacts) GetByJobHandle(_ context.Context, ownerID, handle string) (*domain.Artifact, error) {
	if ownerID != m.owner {
		return nil, domain.ErrNotFound
	}
	for _, a := range m.items {
		if a.JobHandle == handle {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memArtifacts) FillPlaceholder(_ context.Context, ownerID, artifactID, storageKey, url string, durationSeconds int) error {
	if ownerID != m.owner {
		return domain.ErrNotFound
	}
	for _, a := range m.items {
		if a.ID == artifactID {
			a.StorageKey = storageKey
			a.URL = url
			a.DurationSeconds = durationSeconds
			return nil
		}
	}
	return domain.ErrNotFound
}

type memStore struct {
	writes map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{writes: map[string][]byte{}}
}

func (m *memStore) Write(_ context.Context, key string, data []byte, _ string) (string, error) {
	m.writes[key] = data
	return key, nil
}

func (m *memStore) URL(key string) string {
	return "https://cdn.test/" + key
}

type stubFetcher struct {
	data []byte
	mime string
	err  error
}

func (f *stubFetcher) Fetch(_ context.Context, _ string) ([]byte, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return f.data, f.mime, nil
}

type stubImage struct {
	result *providers.MediaResult
	err    error
	calls  int

	// failAt > 0 makes every call after the failAt-th fail.
	failAt int
}

func (s *stubImage) Name() string { return "stub-image" }

func (s *stubImage) Submit(_ context.Context, _ providers.ImageInput) (*providers.Submission, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.failAt > 0 && s.calls > s.failAt {
		return nil, &providers.GenerationError{Provider: s.Name(), Message: "synthetic failure"}
	}
	return &providers.Submission{Result: s.result}, nil
}

type stubVideo struct {
	handle     string
	submitErr  error
	job        *providers.Job
	queryErr   error
	calls      int
	queryCalls int
}

func (s *stubVideo) Name() string { return "stub-video" }

func (s *stubVideo) Submit(_ context.Context, _ providers.VideoInput) (*providers.Submission, error) {
	s.calls++
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	return &providers.Submission{Handle: s.handle}, nil
}

func (s *stubVideo) Query(_ context.Context, handle string) (*providers.Job, error) {
	s.queryCalls++
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	job := *s.job
	job.Handle = handle
	return &job, nil
}

type memQueue struct {
	payloads []ReconcilePayload
	err      error
}

func (m *memQueue) EnqueueReconcile(_ context.Context, payload ReconcilePayload) error {
	if m.err != nil {
		return m.err
	}
	m.payloads = append(m.payloads, payload)
	return nil
}

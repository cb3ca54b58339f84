package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"storyreel/internal/domain"
	"storyreel/internal/providers"
)

type createProjectRequest struct {
	Title     string `json:"title" validate:"required,max=200"`
	StoryText string `json:"story_text" validate:"required,max=20000"`
	Style     string `json:"style" validate:"max=100"`
}

type projectResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	StoryText string    `json:"story_text"`
	Style     string    `json:"style,omitempty"`
	Stage     string    `json:"stage"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type sceneResponse struct {
	ID                   string `json:"id"`
	ProjectID            string `json:"project_id"`
	OrderIndex           int    `json:"order_index"`
	Title                string `json:"title,omitempty"`
	Description          string `json:"description"`
	DescriptionConfirmed bool   `json:"description_confirmed"`
	ImageStatus          string `json:"image_status"`
	ImageConfirmed       bool   `json:"image_confirmed"`
	VideoStatus          string `json:"video_status"`
	VideoConfirmed       bool   `json:"video_confirmed"`
}

func toProjectResponse(p *domain.Project) projectResponse {
	return projectResponse{
		ID:        p.ID,
		Title:     p.Title,
		StoryText: p.StoryText,
		Style:     p.Style,
		Stage:     string(p.Stage),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toSceneResponse(s *domain.Scene) sceneResponse {
	return sceneResponse{
		ID:                   s.ID,
		ProjectID:            s.ProjectID,
		OrderIndex:           s.OrderIndex,
		Title:                s.Title,
		Description:          s.Description,
		DescriptionConfirmed: s.DescriptionConfirmed,
		ImageStatus:          string(s.ImageStatus),
		ImageConfirmed:       s.ImageConfirmed,
		VideoStatus:          string(s.VideoStatus),
		VideoConfirmed:       s.VideoConfirmed,
	}
}

func (a *App) ProjectCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req createProjectRequest
	if !a.decode(w, r, &req) {
		return
	}
	project := &domain.Project{
		ID:        uuid.NewString(),
		OwnerID:   userID,
		Title:     strings.TrimSpace(req.Title),
		StoryText: req.StoryText,
		Style:     strings.TrimSpace(req.Style),
		Stage:     domain.StageDraft,
	}
	if err := a.Projects.Create(r.Context(), project); err != nil {
		a.replyError(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, toProjectResponse(project))
}

func (a *App) ProjectList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	projects, err := a.Projects.ListByOwner(r.Context(), userID)
	if err != nil {
		a.replyError(w, r, err)
		return
	}
	items := make([]projectResponse, 0, len(projects))
	for i := range projects {
		items = append(items, toProjectResponse(&projects[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"projects": items})
}

func (a *App) ProjectGet(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	projectID := chi.URLParam(r, "id")
	project, err := a.Projects.GetByID(r.Context(), userID, projectID)
	if err != nil {
		a.replyError(w, r, err)
		return
	}
	scenes, err := a.Scenes.ListByProject(r.Context(), userID, projectID)
	if err != nil {
		a.replyError(w, r, err)
		return
	}
	sceneItems := make([]sceneResponse, 0, len(scenes))
	for i := range scenes {
		sceneItems = append(sceneItems, toSceneResponse(&scenes[i]))
	}
	a.json(w, http.StatusOK, map[string]any{
		"project": toProjectResponse(project),
		"scenes":  sceneItems,
	})
}

func (a *App) ProjectDelete(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	if err := a.Projects.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		a.replyError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reenterRequest struct {
	Stage string `json:"stage" validate:"required"`
}

// ProjectReenter moves a project backward to an earlier stage so its
// scenes can be reworked. Forward movement only happens through
// generation.
func (a *App) ProjectReenter(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req reenterRequest
	if !a.decode(w, r, &req) {
		return
	}
	target := domain.Stage(req.Stage)
	if !target.Valid() {
		a.error(w, http.StatusBadRequest, "bad_request", "unknown stage")
		return
	}
	projectID := chi.URLParam(r, "id")
	project, err := a.Projects.GetByID(r.Context(), userID, projectID)
	if err != nil {
		a.replyError(w, r, err)
		return
	}
	if !project.Stage.CanReenter(target) {
		a.error(w, http.StatusBadRequest, "precondition_failed", "stage can only re-enter an earlier stage")
		return
	}
	if err := a.Projects.SetStage(r.Context(), userID, projectID, target); err != nil {
		a.replyError(w, r, err)
		return
	}
	project.Stage = target
	a.json(w, http.StatusOK, toProjectResponse(project))
}

type storyboardRequest struct {
	MaxScenes int `json:"max_scenes" validate:"gte=0,lte=20"`
}

// ProjectStoryboard turns the project's story text into an ordered
// scene list. Re-running it replaces the existing scenes, so it is
// only allowed before any media work has begun.
func (a *App) ProjectStoryboard(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req storyboardRequest
	if r.ContentLength > 0 {
		if !a.decode(w, r, &req) {
			return
		}
	}
	if req.MaxScenes == 0 {
		req.MaxScenes = 8
	}
	projectID := chi.URLParam(r, "id")
	project, err := a.Projects.GetByID(r.Context(), userID, projectID)
	if err != nil {
		a.replyError(w, r, err)
		return
	}
	if project.Stage != domain.StageDraft && project.Stage != domain.StageScenes {
		a.error(w, http.StatusBadRequest, "precondition_failed", "storyboard can only run in draft or scenes stage")
		return
	}

	drafts, err := a.Storyboard.Submit(r.Context(), providers.StoryboardInput{
		StoryText: project.StoryText,
		Style:     project.Style,
		MaxScenes: req.MaxScenes,
	})
	if err != nil {
		a.replyError(w, r, err)
		return
	}

	scenes := make([]domain.Scene, 0, len(drafts))
	for i, draft := range drafts {
		scenes = append(scenes, domain.Scene{
			ID:          uuid.NewString(),
			ProjectID:   projectID,
			OrderIndex:  i + 1,
			Title:       draft.Title,
			Description: draft.Description,
			ImageStatus: domain.MediaStatusPending,
			VideoStatus: domain.MediaStatusPending,
		})
	}
	if err := a.Scenes.ReplaceForProject(r.Context(), userID, projectID, scenes); err != nil {
		a.replyError(w, r, err)
		return
	}
	if project.Stage == domain.StageDraft {
		if err := a.Projects.SetStage(r.Context(), userID, projectID, domain.StageScenes); err != nil {
			a.replyError(w, r, err)
			return
		}
	}

	items := make([]sceneResponse, 0, len(scenes))
	for i := range scenes {
		items = append(items, toSceneResponse(&scenes[i]))
	}
	a.json(w, http.StatusCreated, map[string]any{"scenes": items})
}

// ProjectFinalize marks a project completed once every scene has a
// confirmed video.
func (a *App) ProjectFinalize(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	projectID := chi.URLParam(r, "id")
	project, err := a.Projects.GetByID(r.Context(), userID, projectID)
	if err != nil {
		a.replyError(w, r, err)
		return
	}
	if project.Stage != domain.StageVideos {
		a.error(w, http.StatusBadRequest, "precondition_failed", "project is not in the videos stage")
		return
	}
	scenes, err := a.Scenes.ListByProject(r.Context(), userID, projectID)
	if err != nil {
		a.replyError(w, r, err)
		return
	}
	if len(scenes) == 0 {
		a.error(w, http.StatusBadRequest, "precondition_failed", "project has no scenes")
		return
	}
	for i := range scenes {
		if !scenes[i].VideoConfirmed {
			a.error(w, http.StatusBadRequest, "precondition_failed", "all scene videos must be confirmed")
			return
		}
	}
	if err := a.Projects.SetStage(r.Context(), userID, projectID, domain.StageCompleted); err != nil {
		a.replyError(w, r, err)
		return
	}
	project.Stage = domain.StageCompleted
	a.json(w, http.StatusOK, toProjectResponse(project))
}

package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"storyreel/internal/domain"
)

type updateSceneRequest struct {
	Description string `json:"description" validate:"required,max=4000"`
}

type artifactResponse struct {
	ID              string    `json:"id"`
	SceneID         string    `json:"scene_id"`
	Track           string    `json:"track"`
	Version         int       `json:"version"`
	URL             string    `json:"url,omitempty"`
	Width           int       `json:"width,omitempty"`
	Height          int       `json:"height,omitempty"`
	DurationSeconds int       `json:"duration_seconds,omitempty"`
	JobHandle       string    `json:"job_handle,omitempty"`
	Pending         bool      `json:"pending"`
	CreatedAt       time.Time `json:"created_at"`
}

func toArtifactResponse(a *domain.Artifact) artifactResponse {
	return artifactResponse{
		ID:              a.ID,
		SceneID:         a.SceneID,
		Track:           string(a.Track),
		Version:         a.Version,
		URL:             a.URL,
		Width:           a.Width,
		Height:          a.Height,
		DurationSeconds: a.DurationSeconds,
		JobHandle:       a.JobHandle,
		Pending:         a.Placeholder(),
		CreatedAt:       a.CreatedAt,
	}
}

// SceneUpdate edits a scene's description. Confirmed descriptions are
// frozen; re-enter the scenes stage to rework them.
func (a *App) SceneUpdate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req updateSceneRequest
	if !a.decode(w, r, &req) {
		return
	}
	sceneID := chi.URLParam(r, "id")
	if err := a.Scenes.UpdateDescription(r.Context(), userID, sceneID, req.Description); err != nil {
		a.replyError(w, r, err)
		return
	}
	scene, err := a.Scenes.GetByID(r.Context(), userID, sceneID)
	if err != nil {
		a.replyError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toSceneResponse(scene))
}

func (a *App) SceneConfirmDescription(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	sceneID := chi.URLParam(r, "id")
	if err := a.Scenes.ConfirmDescription(r.Context(), userID, sceneID); err != nil {
		a.replyError(w, r, err)
		return
	}
	scene, err := a.Scenes.GetByID(r.Context(), userID, sceneID)
	if err != nil {
		a.replyError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toSceneResponse(scene))
}

// SceneConfirmTrack accepts the latest completed artifact of a track,
// which unlocks the downstream track for that scene.
func (a *App) SceneConfirmTrack(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	track := domain.MediaTrack(chi.URLParam(r, "track"))
	if !track.Valid() {
		a.error(w, http.StatusBadRequest, "bad_request", "unknown media track")
		return
	}
	sceneID := chi.URLParam(r, "id")
	if err := a.Scenes.ConfirmTrack(r.Context(), userID, sceneID, track); err != nil {
		a.replyError(w, r, err)
		return
	}
	scene, err := a.Scenes.GetByID(r.Context(), userID, sceneID)
	if err != nil {
		a.replyError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toSceneResponse(scene))
}

// SceneArtifacts lists a scene's artifact versions, newest first.
func (a *App) SceneArtifacts(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	track := domain.MediaTrack(chi.URLParam(r, "track"))
	if !track.Valid() {
		a.error(w, http.StatusBadRequest, "bad_request", "unknown media track")
		return
	}
	sceneID := chi.URLParam(r, "id")
	if _, err := a.Scenes.GetByID(r.Context(), userID, sceneID); err != nil {
		a.replyError(w, r, err)
		return
	}
	artifacts, err := a.Artifacts.ListByScene(r.Context(), userID, sceneID, track)
	if err != nil {
		a.replyError(w, r, err)
		return
	}
	items := make([]artifactResponse, 0, len(artifacts))
	for i := range artifacts {
		items = append(items, toArtifactResponse(&artifacts[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"artifacts": items})
}

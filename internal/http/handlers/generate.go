package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"storyreel/internal/domain"
	"storyreel/internal/pipeline"
)

type generateResponse struct {
	Status    string            `json:"status"`
	Artifact  *artifactResponse `json:"artifact,omitempty"`
	JobHandle string            `json:"job_handle,omitempty"`
	Reason    string            `json:"reason,omitempty"`
}

func toGenerateResponse(out *pipeline.Outcome) generateResponse {
	resp := generateResponse{
		Status:    string(out.Status),
		JobHandle: out.JobHandle,
		Reason:    out.FailureReason,
	}
	if out.Artifact != nil {
		art := toArtifactResponse(out.Artifact)
		resp.Artifact = &art
	}
	return resp
}

// SceneGenerate triggers generation of one track for one scene.
// Image results come back synchronously; video submissions return a
// job handle to poll.
func (a *App) SceneGenerate(w http.ResponseWriter, r *http.Request) {
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
	out, err := a.Generator.GenerateTrack(r.Context(), userID, chi.URLParam(r, "id"), track)
	if err != nil {
		a.replyError(w, r, err)
		return
	}
	code := http.StatusOK
	if out.Status == domain.MediaStatusProcessing {
		code = http.StatusAccepted
	}
	a.json(w, code, toGenerateResponse(out))
}

// ProjectGenerate sweeps every eligible scene of the project for the
// given track.
func (a *App) ProjectGenerate(w http.ResponseWriter, r *http.Request) {
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
	result, err := a.Batch.Run(r.Context(), userID, chi.URLParam(r, "id"), track)
	if err != nil {
		a.replyError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, result)
}

// TaskPoll reconciles one async video job and reports its current
// state. Terminal vendor failures surface as a failed status in the
// body, not as an HTTP error.
func (a *App) TaskPoll(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	out, err := a.Reconciler.ReconcileOnce(r.Context(), userID, chi.URLParam(r, "handle"))
	if err != nil {
		a.replyError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toGenerateResponse(out))
}

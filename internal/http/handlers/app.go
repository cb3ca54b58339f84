package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"storyreel/internal/domain"
	"storyreel/internal/middleware"
	"storyreel/internal/pipeline"
	"storyreel/internal/providers"
)

// App carries the dependencies handlers need.
type App struct {
	Logger     zerolog.Logger
	Projects   domain.ProjectRepository
	Scenes     domain.SceneRepository
	Artifacts  domain.ArtifactRepository
	Storyboard providers.StoryboardSubmitter
	Generator  *pipeline.Generator
	Batch      *pipeline.Batch
	Reconciler *pipeline.Reconciler
	Validate   *validator.Validate
}

func NewApp(logger zerolog.Logger) *App {
	return &App{
		Logger:   logger,
		Validate: validator.New(),
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, codeStr, msg string) {
	a.json(w, code, map[string]any{
		"error": map[string]string{"code": codeStr, "message": msg},
	})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	if err := a.Validate.Struct(dst); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return false
	}
	return true
}

// replyError maps domain errors onto HTTP status codes.
func (a *App) replyError(w http.ResponseWriter, r *http.Request, err error) {
	var genErr *providers.GenerationError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, domain.ErrPreconditionFailed):
		a.error(w, http.StatusBadRequest, "precondition_failed", err.Error())
	case errors.Is(err, domain.ErrNoUpstreamArtifact):
		a.error(w, http.StatusBadRequest, "precondition_failed", err.Error())
	case errors.Is(err, domain.ErrGenerationInFlight):
		a.error(w, http.StatusConflict, "conflict", "generation already in progress")
	case errors.As(err, &genErr):
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("provider failure")
		a.error(w, http.StatusBadGateway, "provider_failure", "upstream generation provider failed")
	default:
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

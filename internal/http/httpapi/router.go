package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"storyreel/internal/http/handlers"
	"storyreel/internal/middleware"
)

// RouterConfig carries the knobs the router needs beyond handlers.
type RouterConfig struct {
	JWTSecret       string
	RateLimiter     middleware.Limiter
	RateLimitPerMin int
	AllowedOrigins  []string

	// StaticDir, when set, serves stored media under /static for the
	// local file store setup.
	StaticDir string
}

func NewRouter(app *handlers.App, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(cfg.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)

	if cfg.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		if cfg.RateLimiter != nil && cfg.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimiter, cfg.RateLimitPerMin, time.Minute))
		}

		r.Route("/v1/projects", func(r chi.Router) {
			r.Post("/", app.ProjectCreate)
			r.Get("/", app.ProjectList)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", app.ProjectGet)
				r.Delete("/", app.ProjectDelete)
				r.Post("/storyboard", app.ProjectStoryboard)
				r.Post("/generate/{track}", app.ProjectGenerate)
				r.Post("/reenter", app.ProjectReenter)
				r.Post("/finalize", app.ProjectFinalize)
			})
		})

		r.Route("/v1/scenes/{id}", func(r chi.Router) {
			r.Patch("/", app.SceneUpdate)
			r.Post("/confirm-description", app.SceneConfirmDescription)
			r.Post("/confirm/{track}", app.SceneConfirmTrack)
			r.Post("/generate/{track}", app.SceneGenerate)
			r.Get("/artifacts/{track}", app.SceneArtifacts)
		})

		r.Get("/v1/tasks/{handle}", app.TaskPoll)
	})

	return r
}

package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"storyreel/internal/domain"
	"storyreel/internal/middleware"
	"storyreel/internal/providers"
)

func newTestApp() *App {
	app := NewApp(zerolog.Nop())
	app.Projects = &fakeProjects{}
	app.Scenes = &fakeScenes{}
	app.Artifacts = &fakeArtifacts{}
	app.Storyboard = &fakeStoryboard{}
	return app
}

// newRequest builds a request carrying the authenticated user, the way
// the auth middleware would after token validation.
func newRequest(method, target, userID, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req = req.WithContext(middleware.ContextWithUserID(req.Context(), userID))
	}
	return req
}

func TestReplyErrorMapsDomainErrors(t *testing.T) {
	app := newTestApp()
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"precondition", domain.ErrPreconditionFailed, http.StatusBadRequest},
		{"missing upstream", domain.ErrNoUpstreamArtifact, http.StatusBadRequest},
		{"in flight", domain.ErrGenerationInFlight, http.StatusConflict},
		{"provider", &providers.GenerationError{Provider: "kling", Message: "down"}, http.StatusBadGateway},
		{"wrapped precondition", errors.Join(domain.ErrPreconditionFailed, errors.New("detail")), http.StatusBadRequest},
		{"opaque", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			app.replyError(rec, req, tc.err)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	app := newTestApp()
	rec := httptest.NewRecorder()
	app.Health(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

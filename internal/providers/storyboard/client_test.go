package storyboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"storyreel/internal/providers"
)

func chatReply(t *testing.T, content string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	})
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Options{APIKey: "key", BaseURL: srv.URL, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestSubmitParsesScenes(t *testing.T) {
	c := newTestClient(t, chatReply(t, `{"scenes":[
		{"title":"Opening","description":"A fox steps into a snowy clearing."},
		{"title":"","description":"The fox finds a frozen stream."}
	]}`))

	drafts, err := c.Submit(context.Background(), providers.StoryboardInput{
		StoryText: "A fox in winter.",
		MaxScenes: 5,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(drafts))
	}
	if drafts[0].Title != "Opening" || drafts[0].Description == "" {
		t.Fatalf("unexpected first draft %+v", drafts[0])
	}
}

func TestSubmitSkipsEmptyDescriptions(t *testing.T) {
	c := newTestClient(t, chatReply(t, `{"scenes":[
		{"title":"Ghost","description":"   "},
		{"title":"Real","description":"A full shot."}
	]}`))

	drafts, err := c.Submit(context.Background(), providers.StoryboardInput{StoryText: "story"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(drafts) != 1 || drafts[0].Title != "Real" {
		t.Fatalf("expected the one usable draft, got %+v", drafts)
	}
}

func TestSubmitRejectsMalformedPayload(t *testing.T) {
	c := newTestClient(t, chatReply(t, `not json at all`))

	if _, err := c.Submit(context.Background(), providers.StoryboardInput{StoryText: "story"}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSubmitVendorErrorBecomesGenerationError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"message": "invalid key"}})
	}))

	_, err := c.Submit(context.Background(), providers.StoryboardInput{StoryText: "story"})
	var genErr *providers.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
}

func TestParseScenesRequiresAtLeastOne(t *testing.T) {
	if _, err := parseScenes(`{"scenes":[]}`); err == nil {
		t.Fatal("expected error for an empty storyboard")
	}
}

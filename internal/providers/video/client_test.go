package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"storyreel/internal/providers"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Options{APIKey: "key", BaseURL: srv.URL, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c, srv
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Options{}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestSubmitReturnsTaskHandle(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/videos/image2video" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected authorization %q", got)
		}
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Image == "" || req.Duration != "5" {
			t.Errorf("unexpected payload %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]string{"task_id": "task-42"},
		})
	}))

	sub, err := c.Submit(context.Background(), providers.VideoInput{ImageURL: "https://cdn.test/a.png"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sub.Handle != "task-42" {
		t.Fatalf("expected task-42, got %q", sub.Handle)
	}
}

func TestSubmitRequiresImageURL(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	if _, err := c.Submit(context.Background(), providers.VideoInput{}); err == nil {
		t.Fatal("expected error for missing image url")
	}
}

func TestSubmitVendorRejectionIsTerminal(t *testing.T) {
	calls := 0
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{"code": 1, "message": "prompt rejected"})
	}))

	_, err := c.Submit(context.Background(), providers.VideoInput{ImageURL: "https://cdn.test/a.png"})
	var genErr *providers.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if genErr.Provider != "kling" {
		t.Fatalf("unexpected provider %q", genErr.Provider)
	}
	if calls != 1 {
		t.Fatalf("400-class responses must not be retried, got %d calls", calls)
	}
}

func TestQueryMapsVendorStatuses(t *testing.T) {
	cases := []struct {
		vendor string
		want   providers.JobState
	}{
		{"submitted", providers.JobStatePending},
		{"queued", providers.JobStatePending},
		{"processing", providers.JobStateProcessing},
		{"running", providers.JobStateProcessing},
		{"failed", providers.JobStateFailed},
		{"error", providers.JobStateFailed},
		{"some-new-status", providers.JobStateProcessing},
	}
	for _, tc := range cases {
		t.Run(tc.vendor, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"code": 0,
					"data": map[string]any{"task_id": "task-42", "task_status": tc.vendor},
				})
			}))
			job, err := c.Query(context.Background(), "task-42")
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if job.State != tc.want {
				t.Fatalf("vendor %q: expected %s, got %s", tc.vendor, tc.want, job.State)
			}
		})
	}
}

func TestQueryCompletedCarriesResult(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/videos/image2video/task-42" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"code":0,"data":{"task_id":"task-42","task_status":"succeed","task_result":{"videos":[{"url":"https://vendor.test/clip.mp4","duration":"5.1"}]}}}`)
	}))

	job, err := c.Query(context.Background(), "task-42")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if job.State != providers.JobStateCompleted {
		t.Fatalf("expected completed, got %s", job.State)
	}
	if job.Result == nil || job.Result.URL != "https://vendor.test/clip.mp4" {
		t.Fatalf("unexpected result %+v", job.Result)
	}
	if job.Result.DurationSeconds != 5 {
		t.Fatalf("expected 5s duration, got %d", job.Result.DurationSeconds)
	}
}

func TestQuerySuccessWithoutVideoFails(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":0,"data":{"task_id":"task-42","task_status":"succeed"}}`)
	}))

	job, err := c.Query(context.Background(), "task-42")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if job.State != providers.JobStateFailed || job.Reason == "" {
		t.Fatalf("expected failed with reason, got %+v", job)
	}
}

func TestQueryFailedCarriesReason(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":0,"data":{"task_id":"task-42","task_status":"failed","task_status_msg":"content policy"}}`)
	}))

	job, err := c.Query(context.Background(), "task-42")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if job.State != providers.JobStateFailed || job.Reason != "content policy" {
		t.Fatalf("expected failed with vendor reason, got %+v", job)
	}
}

func TestParseDuration(t *testing.T) {
	cases := map[string]int{"5": 5, "5.1": 5, "": 0, "abc": 0}
	for raw, want := range cases {
		if got := parseDuration(raw); got != want {
			t.Errorf("parseDuration(%q)=%d, want %d", raw, got, want)
		}
	}
}

package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storyreel/internal/providers"
)

const (
	providerName   = "kling"
	defaultModel   = "kling-v1-5"
	defaultBaseURL = "https://api.klingai.com/v1"

	submitTimeout = 120 * time.Second
	queryTimeout  = 30 * time.Second

	defaultDurationSeconds = 5
)

// Options configures the video client.
type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// Client wraps the Kling image-to-video API. Generation is
// asynchronous: Submit yields a task id, Query resolves it.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("video: api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: submitTimeout}
	}
	return &Client{
		apiKey:  strings.TrimSpace(opts.APIKey),
		model:   model,
		baseURL: baseURL,
		client:  client,
	}, nil
}

func (c *Client) Name() string { return providerName }

type submitRequest struct {
	Model    string `json:"model_name"`
	Image    string `json:"image"`
	Prompt   string `json:"prompt,omitempty"`
	Duration string `json:"duration"`
}

type submitResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		TaskID string `json:"task_id"`
	} `json:"data"`
}

type queryResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		TaskID        string `json:"task_id"`
		TaskStatus    string `json:"task_status"`
		TaskStatusMsg string `json:"task_status_msg"`
		TaskResult    struct {
			Videos []struct {
				URL      string `json:"url"`
				Duration string `json:"duration"`
			} `json:"videos"`
		} `json:"task_result"`
	} `json:"data"`
}

// Submit starts an image-to-video generation and returns the vendor's
// task id as the job handle.
func (c *Client) Submit(ctx context.Context, in providers.VideoInput) (*providers.Submission, error) {
	if strings.TrimSpace(in.ImageURL) == "" {
		return nil, errors.New("video: image url is required")
	}
	duration := in.DurationSeconds
	if duration <= 0 {
		duration = defaultDurationSeconds
	}
	payload := submitRequest{
		Model:    c.model,
		Image:    in.ImageURL,
		Prompt:   in.Description,
		Duration: fmt.Sprintf("%d", duration),
	}

	var handle string
	err := providers.Retry(ctx, providerName, "submit", func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, submitTimeout)
		defer cancel()

		id, err := c.createTask(attemptCtx, payload)
		if err != nil {
			return err
		}
		handle = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &providers.Submission{Handle: handle}, nil
}

// Query resolves a previously submitted task. Every vendor status maps
// onto the four JobState values; nothing else escapes the adapter.
func (c *Client) Query(ctx context.Context, handle string) (*providers.Job, error) {
	if strings.TrimSpace(handle) == "" {
		return nil, errors.New("video: task id is required")
	}

	var job providers.Job
	err := providers.Retry(ctx, providerName, "query", func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, queryTimeout)
		defer cancel()

		out, err := c.getTask(attemptCtx, handle)
		if err != nil {
			return err
		}
		job = *out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) createTask(ctx context.Context, payload submitRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/videos/image2video", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return "", &providers.HTTPError{Code: resp.StatusCode}
		}
		return "", err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", &providers.HTTPError{Code: resp.StatusCode, Message: out.Message}
	}
	if strings.TrimSpace(out.Data.TaskID) == "" {
		return "", errors.New("video: missing task id")
	}
	return out.Data.TaskID, nil
}

func (c *Client) getTask(ctx context.Context, handle string) (*providers.Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/videos/image2video/"+handle, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &providers.HTTPError{Code: resp.StatusCode}
		}
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &providers.HTTPError{Code: resp.StatusCode, Message: out.Message}
	}

	job := &providers.Job{Handle: handle, State: mapTaskStatus(out.Data.TaskStatus)}
	switch job.State {
	case providers.JobStateCompleted:
		if len(out.Data.TaskResult.Videos) == 0 {
			job.State = providers.JobStateFailed
			job.Reason = "vendor reported success without a video"
			break
		}
		v := out.Data.TaskResult.Videos[0]
		job.Result = &providers.MediaResult{
			URL:             v.URL,
			MIME:            "video/mp4",
			DurationSeconds: parseDuration(v.Duration),
		}
	case providers.JobStateFailed:
		job.Reason = out.Data.TaskStatusMsg
		if job.Reason == "" {
			job.Reason = out.Message
		}
	}
	return job, nil
}

func mapTaskStatus(status string) providers.JobState {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "submitted", "queued":
		return providers.JobStatePending
	case "processing", "running":
		return providers.JobStateProcessing
	case "succeed", "succeeded", "success":
		return providers.JobStateCompleted
	case "failed", "error":
		return providers.JobStateFailed
	default:
		// Unknown vendor vocabulary counts as still in flight; the
		// reconciliation ceiling bounds how long that can last.
		return providers.JobStateProcessing
	}
}

func parseDuration(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	var seconds float64
	if _, err := fmt.Sscanf(raw, "%f", &seconds); err != nil {
		return 0
	}
	return int(seconds)
}

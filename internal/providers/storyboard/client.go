package storyboard

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
	providerName   = "storyboard"
	defaultModel   = "gpt-4o-mini"
	defaultBaseURL = "https://api.openai.com/v1"
	submitTimeout  = 30 * time.Second

	defaultMaxScenes = 8
)

// Options configures the storyboard client.
type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// Client turns a story into an ordered list of scene descriptions via
// an OpenAI-compatible chat completions endpoint.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("storyboard: api key is required")
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

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature,omitempty"`
	ResponseFormat *chatFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type storyboardPayload struct {
	Scenes []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"scenes"`
}

const systemPrompt = "You are a storyboard writer. Respond only with valid JSON of the form " +
	`{"scenes":[{"title":"...","description":"..."}]}. Each description is a single ` +
	"self-contained visual shot suitable as an image generation prompt."

// Submit generates scene drafts for the story. The vendor answers
// synchronously, so there is no job handle to reconcile.
func (c *Client) Submit(ctx context.Context, in providers.StoryboardInput) ([]providers.SceneDraft, error) {
	maxScenes := in.MaxScenes
	if maxScenes <= 0 {
		maxScenes = defaultMaxScenes
	}
	payload := chatRequest{
		Model:          c.model,
		Temperature:    0.6,
		ResponseFormat: &chatFormat{Type: "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(in.StoryText, in.Style, maxScenes)},
		},
	}

	var drafts []providers.SceneDraft
	err := providers.Retry(ctx, providerName, "submit", func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, submitTimeout)
		defer cancel()

		out, err := c.chat(attemptCtx, payload)
		if err != nil {
			return err
		}
		drafts = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return drafts, nil
}

func (c *Client) chat(ctx context.Context, payload chatRequest) ([]providers.SceneDraft, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &providers.HTTPError{Code: resp.StatusCode}
		}
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &providers.HTTPError{Code: resp.StatusCode, Message: out.Error.Message}
	}
	if len(out.Choices) == 0 {
		return nil, errors.New("storyboard: empty response")
	}
	return parseScenes(out.Choices[0].Message.Content)
}

func parseScenes(content string) ([]providers.SceneDraft, error) {
	var payload storyboardPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &payload); err != nil {
		return nil, fmt.Errorf("storyboard: decode scenes: %w", err)
	}
	drafts := make([]providers.SceneDraft, 0, len(payload.Scenes))
	for _, s := range payload.Scenes {
		desc := strings.TrimSpace(s.Description)
		if desc == "" {
			continue
		}
		drafts = append(drafts, providers.SceneDraft{
			Title:       strings.TrimSpace(s.Title),
			Description: desc,
		})
	}
	if len(drafts) == 0 {
		return nil, errors.New("storyboard: no scenes in response")
	}
	return drafts, nil
}

func buildUserPrompt(story, style string, maxScenes int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Break the following story into at most %d scenes.\n", maxScenes)
	if style != "" {
		fmt.Fprintf(&b, "Visual style: %s.\n", style)
	}
	b.WriteString("Story:\n")
	b.WriteString(story)
	return b.String()
}

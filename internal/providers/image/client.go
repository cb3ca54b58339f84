package image

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
	providerName   = "qwen-image"
	defaultModel   = "wanx2.1-t2i-turbo"
	defaultBaseURL = "https://dashscope-intl.aliyuncs.com/api/v1"
	submitTimeout  = 30 * time.Second
)

// Options configures the image client.
type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// Client wraps the DashScope text/image-to-image endpoint. The vendor
// returns the generated image URL in the submit response, so the
// adapter always reports a synchronous result.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("image: api key is required")
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

type generationRequest struct {
	Model string `json:"model"`
	Input struct {
		Prompt   string `json:"prompt"`
		RefImage string `json:"ref_image,omitempty"`
	} `json:"input"`
	Parameters struct {
		Size  string `json:"size,omitempty"`
		Style string `json:"style,omitempty"`
		N     int    `json:"n"`
	} `json:"parameters"`
}

type generationResponse struct {
	Output struct {
		Results []struct {
			URL    string `json:"url"`
			Width  int    `json:"width"`
			Height int    `json:"height"`
		} `json:"results"`
	} `json:"output"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Submit generates one image for the scene description.
func (c *Client) Submit(ctx context.Context, in providers.ImageInput) (*providers.Submission, error) {
	if strings.TrimSpace(in.Description) == "" {
		return nil, errors.New("image: description is required")
	}
	var payload generationRequest
	payload.Model = c.model
	payload.Input.Prompt = in.Description
	payload.Input.RefImage = in.ReferenceURL
	payload.Parameters.Size = sizeForAspect(in.AspectRatio)
	payload.Parameters.Style = in.Style
	payload.Parameters.N = 1

	var result providers.MediaResult
	err := providers.Retry(ctx, providerName, "submit", func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, submitTimeout)
		defer cancel()

		out, err := c.generate(attemptCtx, payload)
		if err != nil {
			return err
		}
		result = *out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &providers.Submission{Result: &result}, nil
}

func (c *Client) generate(ctx context.Context, payload generationRequest) (*providers.MediaResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	endpoint := c.baseURL + "/services/aigc/text2image/image-synthesis"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
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

	var out generationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &providers.HTTPError{Code: resp.StatusCode}
		}
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		msg := out.Message
		if out.Code != "" {
			msg = fmt.Sprintf("%s (%s)", out.Message, out.Code)
		}
		return nil, &providers.HTTPError{Code: resp.StatusCode, Message: msg}
	}
	if len(out.Output.Results) == 0 {
		return nil, errors.New("image: empty response")
	}
	first := out.Output.Results[0]
	if strings.TrimSpace(first.URL) == "" {
		return nil, errors.New("image: missing image url")
	}
	return &providers.MediaResult{
		URL:    first.URL,
		MIME:   "image/png",
		Width:  first.Width,
		Height: first.Height,
	}, nil
}

func sizeForAspect(aspect string) string {
	switch aspect {
	case "16:9":
		return "1280*720"
	case "9:16":
		return "720*1280"
	case "1:1":
		return "1024*1024"
	default:
		return "1280*720"
	}
}

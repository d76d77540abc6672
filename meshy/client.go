// Package meshy is a client for the Meshy text-to-3D API.
package meshy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"osce_webxr_api/generator"
	"osce_webxr_api/pkg/logger"
)

const (
	DefaultBaseURL = "https://api.meshy.ai/v2"

	textTo3DPath   = "/text-to-3d"
	maxErrorBody   = 2048
	defaultTimeout = 60 * time.Second
)

// Settings configures a Client.
type Settings struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// StatusRetries is the number of extra attempts for a status query that
	// failed with a network error, 429 or 5xx. Submissions are never retried.
	StatusRetries int
	RetryInterval time.Duration
}

// APIError is a non-2xx answer from Meshy.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("meshy: HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client talks to Meshy over HTTP. It implements generator.AssetGenerationClient.
type Client struct {
	apiKey        string
	baseURL       string
	client        *http.Client
	statusRetries int
	retryInterval time.Duration
}

var _ generator.AssetGenerationClient = (*Client)(nil)

// New creates a Client. A missing API key fails with generator.ErrNotConfigured.
func New(s Settings, client *http.Client) (*Client, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("MESHY_API_KEY: %w", generator.ErrNotConfigured)
	}
	if s.BaseURL == "" {
		s.BaseURL = DefaultBaseURL
	}
	if client == nil {
		timeout := s.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	if s.StatusRetries < 0 {
		s.StatusRetries = 0
	}
	if s.RetryInterval <= 0 {
		s.RetryInterval = 500 * time.Millisecond
	}
	return &Client{
		apiKey:        s.APIKey,
		baseURL:       strings.TrimRight(s.BaseURL, "/"),
		client:        client,
		statusRetries: s.StatusRetries,
		retryInterval: s.RetryInterval,
	}, nil
}

type textTo3DPayload struct {
	Mode           string `json:"mode"`
	Prompt         string `json:"prompt"`
	ArtStyle       string `json:"art_style"`
	NegativePrompt string `json:"negative_prompt"`
}

// CreateTextTo3D submits a generation and returns the task id.
func (c *Client) CreateTextTo3D(ctx context.Context, req generator.TextTo3DRequest) (string, error) {
	body, err := json.Marshal(textTo3DPayload{
		Mode:           req.Mode,
		Prompt:         req.Prompt,
		ArtStyle:       req.ArtStyle,
		NegativePrompt: req.NegativePrompt,
	})
	if err != nil {
		return "", err
	}

	raw, err := c.do(ctx, http.MethodPost, c.baseURL+textTo3DPath, body)
	if err != nil {
		return "", err
	}
	g := gjson.ParseBytes(raw)
	taskID := firstString(g, "result", "task_id", "id")
	if taskID == "" {
		return "", fmt.Errorf("meshy: no task id in response: %s", truncate(string(raw)))
	}
	return taskID, nil
}

// GetTextTo3D fetches the task status. Transient failures are retried with
// exponential backoff.
func (c *Client) GetTextTo3D(ctx context.Context, taskID string) (generator.TaskStatus, error) {
	endpoint := c.baseURL + textTo3DPath + "/" + url.PathEscape(taskID)
	log := logger.FromContext(ctx)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval

	attempt := 0
	raw, err := backoff.Retry(ctx, func() ([]byte, error) {
		attempt++
		raw, err := c.do(ctx, http.MethodGet, endpoint, nil)
		if err == nil {
			return raw, nil
		}
		if ctx.Err() != nil || !isTransient(err) {
			return nil, backoff.Permanent(err)
		}
		log.Warn("meshy status query failed, retrying", zap.String("task_id", taskID), zap.Int("attempt", attempt), zap.Error(err))
		return nil, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(c.statusRetries+1)))
	if err != nil {
		return generator.TaskStatus{}, err
	}
	return parseTaskStatus(raw), nil
}

// parseTaskStatus reads the fields it knows and ignores the rest; missing
// fields stay zero.
func parseTaskStatus(raw []byte) generator.TaskStatus {
	g := gjson.ParseBytes(raw)
	return generator.TaskStatus{
		Status:   firstString(g, "status", "result.status"),
		Progress: int(g.Get("progress").Int()),
		ModelURL: firstString(g, "result.model_urls.glb", "model_urls.glb"),
		Error:    firstString(g, "task_error.message", "error.message", "error", "message"),
	}
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: truncate(strings.TrimSpace(string(data)))}
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("meshy: malformed response: %s", truncate(string(data)))
	}
	return data, nil
}

func isTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.retryable()
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func firstString(g gjson.Result, paths ...string) string {
	for _, p := range paths {
		v := g.Get(p)
		if v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}

func truncate(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	return s[:maxErrorBody]
}

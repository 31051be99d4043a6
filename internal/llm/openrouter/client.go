package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"urs-backend/internal/llm"
	"urs-backend/internal/shared/metrics"
	"urs-backend/internal/shared/telemetry"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultTimeout = 60 * time.Second
	temperature    = 0.7
)

type Config struct {
	BaseURL string
	APIKey  string
	// Models are tried in order until one succeeds.
	Models  []string
	Timeout time.Duration
	// Referer and Title identify the application to OpenRouter.
	Referer string
	Title   string
}

// Client implements llm.Generator against an OpenAI-compatible chat completions API.
type Client struct {
	baseURL    string
	apiKey     string
	models     []string
	referer    string
	title      string
	httpClient *http.Client
	// NewBackOff paces the move from one model to the next.
	NewBackOff func() backoff.BackOff
}

var _ llm.Generator = (*Client)(nil)

// NewClient validates cfg. It returns llm.ErrNotConfigured when the key or model list is empty.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" || len(cfg.Models) == 0 {
		return nil, llm.ErrNotConfigured
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		models:     append([]string(nil), cfg.Models...),
		referer:    cfg.Referer,
		title:      cfg.Title,
		httpClient: &http.Client{Timeout: timeout},
		NewBackOff: defaultBackOff,
	}, nil
}

func defaultBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	return bo
}

// StatusError is a non-2xx reply from the provider.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Message)
}

// Transient reports whether another model may succeed where this one failed.
func (e *StatusError) Transient() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Generate tries each configured model in order. Rate limits, server errors
// and network failures move on to the next model; any other client error stops.
func (c *Client) Generate(ctx context.Context, system, user string, maxTokens int) (llm.Result, error) {
	var (
		result llm.Result
		next   int
	)
	op := func() error {
		model := c.models[next]
		next++

		start := time.Now()
		text, err := c.complete(ctx, model, system, user, maxTokens)
		metrics.ObserveLLMDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
		if err == nil {
			metrics.IncLLMRequest("success")
			result = llm.Result{Text: text, Model: model}
			return nil
		}

		err = fmt.Errorf("model %s: %w", model, err)
		telemetry.Warn("llm.model_failed", map[string]any{"model": model, "error": err.Error()})
		if ctx.Err() != nil || !transient(err) {
			metrics.IncLLMRequest("error")
			return backoff.Permanent(err)
		}
		metrics.IncLLMRequest("fallback")
		return err
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(c.NewBackOff(), uint64(len(c.models)-1)), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		var status *StatusError
		if errors.As(err, &status) && !status.Transient() {
			return llm.Result{}, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return llm.Result{}, ctxErr
		}
		return llm.Result{}, fmt.Errorf("%w: %v", llm.ErrAllModelsFailed, err)
	}
	return result, nil
}

func transient(err error) bool {
	var status *StatusError
	if errors.As(err, &status) {
		return status.Transient()
	}
	return true
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) complete(ctx context.Context, model, system, user string, maxTokens int) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	parseErr := json.Unmarshal(body, &parsed)
	if resp.StatusCode >= 300 {
		message := strings.TrimSpace(string(body))
		if parseErr == nil && parsed.Error != nil && parsed.Error.Message != "" {
			message = parsed.Error.Message
		}
		return "", &StatusError{Code: resp.StatusCode, Message: message}
	}
	if parseErr != nil {
		return "", fmt.Errorf("response parse: %w", parseErr)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("provider error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("response missing choices")
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("response empty content")
	}
	return content, nil
}

package lyrics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultHTTPTimeout   = 60 * time.Second
	defaultMaxElapsed    = 2 * time.Minute
	defaultInitialDelay  = time.Second
	defaultMaxRetryDelay = 15 * time.Second
)

// Config captures the runtime settings required to reach the completion API.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Request describes one polish job.
type Request struct {
	// Captions is the Japanese source text, one caption per line.
	Captions string
	// Reference is an optional known-good romanization to steer line breaks.
	Reference string
	// LineCount is the expected number of output lines; derived from Captions
	// when zero.
	LineCount int
}

// Client issues chat completions against an OpenAI-compatible endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	maxElapsed time.Duration
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMaxElapsed bounds total retry time (useful for tests).
func WithMaxElapsed(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.maxElapsed = d
		}
	}
}

// NewClient constructs a lyrics client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
		maxElapsed: defaultMaxElapsed,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Polish rewrites machine-romanized captions into clean Hepburn lines. The
// model output is passed through verbatim apart from whitespace trimming.
func (c *Client) Polish(ctx context.Context, req Request) (string, error) {
	captions := strings.TrimSpace(req.Captions)
	if captions == "" {
		return "", errors.New("lyrics polish: captions required")
	}
	if c.cfg.APIKey == "" {
		return "", errors.New("lyrics polish: api key required")
	}

	lineCount := req.LineCount
	if lineCount <= 0 {
		lineCount = len(strings.Split(captions, "\n"))
	}
	reference := strings.TrimSpace(req.Reference)
	if reference == "" {
		reference = "Not available"
	}
	// Tildes mark sustained vowels in fan romanizations and confuse the
	// model's markdown handling.
	reference = strings.ReplaceAll(reference, "~", "\\~")

	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: polishSystemPrompt},
			{Role: "user", Content: buildPolishPrompt(captions, reference, lineCount)},
		},
		Temperature: 0,
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = defaultInitialDelay
	policy.MaxInterval = defaultMaxRetryDelay
	policy.MaxElapsedTime = c.maxElapsed

	content, err := backoff.RetryWithData(func() (string, error) {
		return c.complete(ctx, payload)
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// complete performs one request cycle. Transient failures return plain
// errors so the backoff policy retries them; everything else is permanent.
func (c *Client) complete(ctx context.Context, payload chatCompletionRequest) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("lyrics request: encode body: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("lyrics request: new request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "", fmt.Errorf("lyrics request: timeout: %w", err)
		}
		return "", fmt.Errorf("lyrics request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("lyrics request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		statusErr := fmt.Errorf("lyrics request: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		if retryableStatus(resp.StatusCode) {
			return "", statusErr
		}
		return "", backoff.Permanent(statusErr)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", backoff.Permanent(fmt.Errorf("lyrics request: decode response: %w", err))
	}
	if completion.Error != nil {
		return "", backoff.Permanent(fmt.Errorf("lyrics request: api error: %s", strings.TrimSpace(completion.Error.Message)))
	}
	for _, choice := range completion.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content, nil
		}
	}
	return "", errors.New("lyrics request: empty completion")
}

func retryableStatus(code int) bool {
	switch {
	case code == http.StatusRequestTimeout:
		return true
	case code == http.StatusTooManyRequests:
		return true
	case code >= http.StatusInternalServerError:
		return true
	}
	return false
}

package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/cockroachdb/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"juris-backend/internal/llm"
	"juris-backend/internal/shared/metrics"
	"juris-backend/internal/shared/telemetry"
)

const (
	defaultTimeout     = 120 * time.Second
	defaultAttempts    = 3
	defaultRetryDelay  = 500 * time.Millisecond
	maxErrorBodyLength = 512
)

var errTransient = errors.New("transient inference failure")

// Options configures a Client.
type Options struct {
	// BaseURL is the OpenAI-compatible root, e.g. http://host:9000/v1.
	BaseURL string
	APIKey  string
	// OAuth enables client-credentials tokens instead of a static API key.
	OAuth       *clientcredentials.Config
	Timeout     time.Duration
	MaxAttempts uint
	RetryDelay  time.Duration
}

// Client implements llm.ChatClient against an OpenAI-compatible chat completions API.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	attempts   uint
	delay      time.Duration
}

// NewClient constructs a Client.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("inference base url is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	attempts := opts.MaxAttempts
	if attempts == 0 {
		attempts = defaultAttempts
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	httpClient := &http.Client{Timeout: timeout}
	if opts.OAuth != nil && opts.OAuth.TokenURL != "" {
		// A nil Base makes the transport use http.DefaultTransport per request.
		httpClient.Transport = &oauth2.Transport{
			Source: opts.OAuth.TokenSource(context.Background()),
		}
	}

	return &Client{
		endpoint:   base + "/chat/completions",
		apiKey:     strings.TrimSpace(opts.APIKey),
		httpClient: httpClient,
		attempts:   attempts,
		delay:      delay,
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message llm.Message `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Chat sends the request and returns the first choice's content. Transient
// failures (timeouts, 429, 5xx) are retried.
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", errors.Wrap(err, "encode chat request")
	}

	start := time.Now()
	var content string
	err = retry.Do(
		func() error {
			var callErr error
			content, callErr = c.once(ctx, req.Model, payload)
			return callErr
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return errors.Is(err, errTransient) }),
		retry.OnRetry(func(n uint, err error) {
			telemetry.Warn("llm.retry", map[string]any{"model": req.Model, "attempt": n + 1, "error": err})
		}),
	)
	metrics.ObserveInference(req.Model, time.Since(start), err)
	if err != nil {
		return "", err
	}
	return content, nil
}

func (c *Client) once(ctx context.Context, model string, payload []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "build chat request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return "", errors.Mark(errors.Wrap(err, "inference request timeout"), errTransient)
		}
		if ctx.Err() != nil {
			return "", errors.Wrap(err, "inference request cancelled")
		}
		return "", errors.Mark(errors.Wrap(err, "inference request"), errTransient)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Mark(errors.Wrap(err, "read inference response"), errTransient)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", errors.Mark(errors.Newf("inference http status %d: %s", resp.StatusCode, truncate(body)), errTransient)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return "", errors.Newf("inference http status %d: %s", resp.StatusCode, truncate(body))
		}
		return "", errors.Wrap(err, "inference response parse")
	}
	if parsed.Error != nil {
		return "", errors.Newf("inference error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if resp.StatusCode >= 400 {
		return "", errors.Newf("inference http status %d: %s", resp.StatusCode, truncate(body))
	}
	if len(parsed.Choices) == 0 {
		return "", errors.Wrap(llm.ErrEmptyResponse, "response missing choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", llm.ErrEmptyResponse
	}
	logUsage(model, parsed)
	return content, nil
}

var fencePattern = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// CleanResponse strips markdown code fences from a model answer.
func CleanResponse(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(fencePattern.ReplaceAllString(raw, "$1"))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBodyLength {
		return s[:maxErrorBodyLength] + "..."
	}
	return s
}

func logUsage(model string, parsed chatResponse) {
	fields := map[string]any{"model": model}
	if parsed.Usage != nil {
		fields["prompt_tokens"] = parsed.Usage.PromptTokens
		fields["completion_tokens"] = parsed.Usage.CompletionTokens
		fields["total_tokens"] = parsed.Usage.TotalTokens
	}
	telemetry.Info("llm.response", fields)
}

var _ llm.ChatClient = (*Client)(nil)

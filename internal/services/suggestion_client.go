package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cgbookstore/bookrec-backend/internal/logger"
	"github.com/cgbookstore/bookrec-backend/internal/types"
)

// Suggestion is one external pick returned by the LLM service.
type Suggestion struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Reason string `json:"reason"`
}

// SuggestionClient talks to an optional external LLM suggestion service.
// When the service is unconfigured or unreachable the recommendation engine
// behaves exactly as if the client did not exist: every method on a disabled
// client is a cheap no-op and callers gate on Available.
type SuggestionClient interface {
	Available() bool
	Suggest(ctx context.Context, profile ReaderProfile, n int) ([]Suggestion, error)
	EnrichReason(ctx context.Context, book *types.Book) (string, error)
}

// ReaderProfile is the compact taste summary sent upstream, never raw
// interaction rows.
type ReaderProfile struct {
	RecentTitles []string `json:"recent_titles"`
	Categories   []string `json:"categories"`
}

type suggestionClient struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client

	maxRetries int
	enabled    bool
}

// NewSuggestionClient reads SUGGESTION_* env configuration. A missing API key
// yields a disabled client, not an error: the LLM layer is strictly optional.
func NewSuggestionClient(log *logger.Logger) SuggestionClient {
	apiKey := strings.TrimSpace(os.Getenv("SUGGESTION_API_KEY"))
	if apiKey == "" {
		log.Info("Suggestion service not configured, running without external suggestions")
		return &suggestionClient{log: log.With("service", "SuggestionClient"), enabled: false}
	}

	baseURL := os.Getenv("SUGGESTION_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}

	model := os.Getenv("SUGGESTION_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}

	timeoutSec := 10
	if v := os.Getenv("SUGGESTION_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	maxRetries := 2
	if v := os.Getenv("SUGGESTION_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &suggestionClient{
		log:        log.With("service", "SuggestionClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: maxRetries,
		enabled:    true,
	}
}

func (c *suggestionClient) Available() bool {
	return c.enabled
}

type suggestionHTTPError struct {
	StatusCode int
	Body       string
}

func (e *suggestionHTTPError) Error() string {
	return fmt.Sprintf("suggestion http %d: %s", e.StatusCode, e.Body)
}

func isRetryableHTTP(code int) bool {
	if code == 408 || code == 429 {
		return true
	}
	return code >= 500 && code <= 599
}

func isRetryableErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var httpErr *suggestionHTTPError
	if errors.As(err, &httpErr) {
		return isRetryableHTTP(httpErr.StatusCode)
	}
	return false
}

func jitterSleep(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	delta := base.Seconds() * 0.2
	low := base.Seconds() - delta
	high := base.Seconds() + delta
	if low < 0 {
		low = 0
	}
	v := low + rand.Float64()*(high-low)
	return time.Duration(v * float64(time.Second))
}

func (c *suggestionClient) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &suggestionHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *suggestionClient) do(ctx context.Context, method, path string, body any, out any) error {
	backoff := 500 * time.Millisecond

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("suggestion decode error: %w", uErr)
			}
			return nil
		}

		if !isRetryableErr(err) || attempt == c.maxRetries {
			return err
		}

		sleepFor := backoff
		if resp != nil {
			ra := strings.TrimSpace(resp.Header.Get("Retry-After"))
			if ra != "" {
				if secs, parseErr := strconv.Atoi(ra); parseErr == nil && secs > 0 {
					sleepFor = time.Duration(secs) * time.Second
				}
			}
		}
		if sleepFor > 5*time.Second {
			sleepFor = 5 * time.Second
		}
		sleepFor = jitterSleep(sleepFor)

		c.log.Warn("Suggestion request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
		backoff *= 2
	}

	return fmt.Errorf("unreachable retry loop")
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const suggestSystemPrompt = `You are a book recommendation assistant. Given a reader profile, respond with a JSON array of objects with keys "title", "author" and "reason". Respond with JSON only.`

func (c *suggestionClient) Suggest(ctx context.Context, profile ReaderProfile, n int) ([]Suggestion, error) {
	if !c.enabled {
		return nil, nil
	}
	if n <= 0 {
		return nil, nil
	}

	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return nil, err
	}

	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: suggestSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Suggest %d books for this reader: %s", n, profileJSON)},
		},
	}
	var resp chatResponse
	if err := c.do(ctx, "POST", "/v1/chat/completions", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("suggestion response had no choices")
	}

	var suggestions []Suggestion
	content := extractJSONArray(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &suggestions); err != nil {
		return nil, fmt.Errorf("suggestion payload decode: %w", err)
	}
	if len(suggestions) > n {
		suggestions = suggestions[:n]
	}
	return suggestions, nil
}

func (c *suggestionClient) EnrichReason(ctx context.Context, book *types.Book) (string, error) {
	if !c.enabled || book == nil {
		return "", nil
	}

	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: "In one short sentence, say why a reader might enjoy the given book. Plain text only."},
			{Role: "user", Content: fmt.Sprintf("%s by %s (%s): %s", book.Title, book.Author, book.Category, book.Description)},
		},
	}
	var resp chatResponse
	if err := c.do(ctx, "POST", "/v1/chat/completions", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("suggestion response had no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// extractJSONArray tolerates models that wrap the JSON in code fences or
// prose: it slices from the first '[' to the last ']'.
func extractJSONArray(content string) string {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}

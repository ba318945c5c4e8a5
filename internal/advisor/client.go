// Package advisor wraps the Gemini REST API for the antirisk capabilities:
// streamed advisory chat, one-shot report audits, cross-report synthesis,
// briefing generation, and search-grounded best practices.
package advisor

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"antirisk/internal/types"
)

// Config holds the client settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults for the flash-preview model.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:  apiKey,
		BaseURL: "https://generativelanguage.googleapis.com/v1beta",
		Model:   "gemini-3-flash-preview",
		Timeout: 2 * time.Minute,
	}
}

// Client is a minimal Gemini REST client. All calls are stateless; the only
// shared mutable state is the rate-limit clock.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.Logger

	retryBackoffBase time.Duration

	mu          sync.Mutex
	lastRequest time.Time
}

// NewClient builds a client from config.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-3-flash-preview"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		apiKey:           cfg.APIKey,
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		model:            model,
		httpClient:       &http.Client{Timeout: timeout},
		logger:           logger,
		retryBackoffBase: time.Second,
	}
}

// Wire types. Only the fields this application reads.

type genRequest struct {
	Contents          []genContent     `json:"contents"`
	SystemInstruction *genContent      `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
	Tools             []genTool        `json:"tools,omitempty"`
}

type genContent struct {
	Role  string    `json:"role,omitempty"`
	Parts []genPart `json:"parts"`
}

type genPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type genTool struct {
	GoogleSearch *googleSearch `json:"googleSearch,omitempty"`
}

type googleSearch struct{}

type genResponse struct {
	Candidates []candidate `json:"candidates"`
	Error      *apiError   `json:"error,omitempty"`
}

type candidate struct {
	Content           genContent         `json:"content"`
	FinishReason      string             `json:"finishReason,omitempty"`
	GroundingMetadata *groundingMetadata `json:"groundingMetadata,omitempty"`
}

type groundingMetadata struct {
	GroundingChunks  []groundingChunk `json:"groundingChunks"`
	WebSearchQueries []string         `json:"webSearchQueries"`
}

type groundingChunk struct {
	Web *webSource `json:"web,omitempty"`
}

type webSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// genOptions tunes a single call.
type genOptions struct {
	system       string
	temperature  float64
	maxTokens    int
	googleSearch bool
}

// throttle spaces requests at least 100ms apart.
func (c *Client) throttle() {
	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	if elapsed < 100*time.Millisecond {
		time.Sleep(100*time.Millisecond - elapsed)
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()
}

func (c *Client) buildRequest(prompt string, opts genOptions) genRequest {
	req := genRequest{
		Contents: []genContent{{
			Role:  "user",
			Parts: []genPart{{Text: prompt}},
		}},
		GenerationConfig: generationConfig{
			Temperature:     opts.temperature,
			MaxOutputTokens: opts.maxTokens,
		},
	}
	if opts.system != "" {
		req.SystemInstruction = &genContent{Parts: []genPart{{Text: opts.system}}}
	}
	if opts.googleSearch {
		req.Tools = []genTool{{GoogleSearch: &googleSearch{}}}
	}
	return req
}

// generate sends a one-shot request and returns the concatenated text plus
// any grounding sources. Retries rate limits and transport failures with
// exponential backoff.
func (c *Client) generate(ctx context.Context, prompt string, opts genOptions) (string, []types.Source, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	startTime := time.Now()
	if c.apiKey == "" {
		return "", nil, fmt.Errorf("API key not configured")
	}

	c.throttle()

	reqBody := c.buildRequest(prompt, opts)
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	maxRetries := 3
	var lastErr error

	for i := 0; i <= maxRetries; i++ {
		if i > 0 {
			time.Sleep(time.Duration(1<<uint(i-1)) * c.retryBackoffBase)
		}

		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
		if err != nil {
			return "", nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limit exceeded (429)")
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return "", nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
		}

		var apiResp genResponse
		if err := json.Unmarshal(body, &apiResp); err != nil {
			return "", nil, fmt.Errorf("failed to parse response: %w", err)
		}
		if apiResp.Error != nil {
			return "", nil, fmt.Errorf("API error: %s", apiResp.Error.Message)
		}
		if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
			return "", nil, fmt.Errorf("no completion returned")
		}

		var result strings.Builder
		for _, part := range apiResp.Candidates[0].Content.Parts {
			result.WriteString(part.Text)
		}
		text := strings.TrimSpace(result.String())

		var sources []types.Source
		if gm := apiResp.Candidates[0].GroundingMetadata; gm != nil {
			for _, chunk := range gm.GroundingChunks {
				if chunk.Web == nil || chunk.Web.URI == "" {
					continue
				}
				title := chunk.Web.Title
				if title == "" {
					title = "Intelligence Source"
				}
				sources = append(sources, types.Source{Title: title, URL: chunk.Web.URI})
			}
			if len(sources) > 0 {
				c.logger.Debug("grounding sources extracted",
					zap.Int("sources", len(sources)),
					zap.Strings("queries", gm.WebSearchQueries))
			}
		}

		c.logger.Debug("generate completed",
			zap.Duration("elapsed", time.Since(startTime)),
			zap.Int("response_len", len(text)))
		return text, sources, nil
	}

	return "", nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// stream sends a streaming request and returns channels of incremental text
// fragments. Both channels close when the stream terminates.
func (c *Client) stream(ctx context.Context, prompt string, opts genOptions) (<-chan string, <-chan error) {
	contentChan := make(chan string, 100)
	errorChan := make(chan error, 1)

	go func() {
		defer close(contentChan)
		defer close(errorChan)

		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
			defer cancel()
		}

		startTime := time.Now()
		if c.apiKey == "" {
			errorChan <- fmt.Errorf("API key not configured")
			return
		}

		c.throttle()

		reqBody := c.buildRequest(prompt, opts)
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			errorChan <- fmt.Errorf("failed to marshal request: %w", err)
			return
		}

		url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse&key=%s", c.baseURL, c.model, c.apiKey)

		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
		if err != nil {
			errorChan <- fmt.Errorf("failed to create request: %w", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			errorChan <- fmt.Errorf("request failed: %w", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			errorChan <- fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "" || data == "[DONE]" {
				continue
			}

			var chunk genResponse
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				continue
			}
			if chunk.Error != nil {
				errorChan <- fmt.Errorf("API error: %s", chunk.Error.Message)
				return
			}
			if len(chunk.Candidates) == 0 {
				continue
			}
			for _, part := range chunk.Candidates[0].Content.Parts {
				if part.Text == "" {
					continue
				}
				select {
				case contentChan <- part.Text:
				case <-ctx.Done():
					errorChan <- ctx.Err()
					return
				}
			}
		}
		if err := scanner.Err(); err != nil {
			errorChan <- fmt.Errorf("stream error: %w", err)
			return
		}

		c.logger.Debug("stream completed", zap.Duration("elapsed", time.Since(startTime)))
	}()

	return contentChan, errorChan
}

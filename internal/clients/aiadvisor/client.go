// Package aiadvisor provides a client for an OpenAI-compatible chat-completion
// API. Responses can be consumed as a single completion or streamed
// token-by-token over server-sent events.
package aiadvisor

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

const (
	// completionsPath is the chat-completions endpoint relative to the base URL
	completionsPath = "/chat/completions"

	// doneMarker terminates a well-formed upstream stream
	doneMarker = "[DONE]"

	// maxScanTokenSize bounds a single SSE line. Delta frames are tiny but
	// error bodies relayed as frames can run long.
	maxScanTokenSize = 1024 * 1024
)

// ChatMessage is one message of a chat-completion conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest describes a single chat-completion call. The model is chosen by
// the client configuration, not per request.
type ChatRequest struct {
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// chatCompletionRequest is the wire format of a chat-completion call.
type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

// chatCompletionResponse is the non-streaming response body.
type chatCompletionResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
}

// streamChunk is one decoded SSE data frame of a streaming response.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Client is the chat-completion API client.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a new chat-completion client. An empty apiKey leaves the
// client disabled; callers are expected to check Enabled before use.
// The underlying HTTP client carries no fixed timeout, streaming calls are
// bounded by the request context instead.
func NewClient(baseURL, apiKey, model string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
		log:        log.With().Str("component", "aiadvisor").Logger(),
	}
}

// Enabled reports whether an upstream API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Complete performs a single non-streaming chat completion and returns the
// generated text.
func (c *Client) Complete(ctx context.Context, req ChatRequest) (string, error) {
	resp, err := c.doRequest(ctx, req, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}

	return completion.Choices[0].Message.Content, nil
}

// StreamChat performs a streaming chat completion, invoking onChunk for every
// text delta in upstream order. It returns once the upstream sends its
// end-of-stream marker, the context is done, or onChunk returns an error.
// One upstream connection per call, no retry.
func (c *Client) StreamChat(ctx context.Context, req ChatRequest, onChunk func(string) error) error {
	resp, err := c.doRequest(ctx, req, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxScanTokenSize)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}

		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == doneMarker {
			return nil
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return fmt.Errorf("failed to decode stream frame: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		content := chunk.Choices[0].Delta.Content
		if content == "" {
			continue
		}
		if err := onChunk(content); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("stream read failed: %w", err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	// The body ended cleanly but the upstream never sent its terminator
	return fmt.Errorf("stream ended without completion marker")
}

// doRequest issues the chat-completion HTTP request.
func (c *Client) doRequest(ctx context.Context, req ChatRequest, stream bool) (*http.Response, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model:       c.model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      stream,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	c.log.Debug().Str("model", c.model).Bool("stream", stream).Int("messages", len(req.Messages)).Msg("Calling advice upstream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("advice upstream error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	return resp, nil
}

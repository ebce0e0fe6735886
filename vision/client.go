// Package vision sends captured document images to an OpenAI-compatible
// chat-completions endpoint and parses the structured reply into the entity
// model. Transient failures retry with exponential backoff; invalid input
// and permanent API errors fail immediately.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/document"
	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/retry"
)

// attemptTimeout bounds each network attempt. It is a policy constant, not
// user-configurable.
const attemptTimeout = 60 * time.Second

// DefaultPolicy is the production retry budget: five attempts with waits of
// 1s, 2s, 4s, 8s between them, capped at 30s.
func DefaultPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
		IsRetryable: IsTransient,
	}
}

// Options configure a Client. Zero fields fall back to production defaults;
// tests point BaseURL at a local httptest server and inject a recording
// sleep through Policy.
type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	Policy     *retry.Policy
	HTTPClient *http.Client
}

// Client talks to one chat-completions endpoint.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	policy  retry.Policy
	http    *http.Client
}

// New builds a Client from opts.
func New(opts Options) *Client {
	c := &Client{
		apiKey:  opts.APIKey,
		model:   opts.Model,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    opts.HTTPClient,
	}
	if c.model == "" {
		c.model = "gpt-4o-mini"
	}
	if c.baseURL == "" {
		c.baseURL = "https://api.openai.com/v1"
	}
	if opts.Policy != nil {
		c.policy = *opts.Policy
	} else {
		c.policy = DefaultPolicy()
	}
	if c.policy.IsRetryable == nil {
		c.policy.IsRetryable = IsTransient
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	return c
}

// Analyze validates the capture, sends it for extraction and parses the
// reply. Invalid input fails immediately with ErrInvalidImage and no
// network call; transient API failures retry per the policy, and exhaustion
// wraps the last error in ErrRetryExhausted.
func (c *Client) Analyze(ctx context.Context, image []byte) (document.Entities, string, error) {
	if c.apiKey == "" {
		return document.NewEntities(), "", errors.New("api key is required")
	}
	if !ValidImage(image) {
		return document.NewEntities(), "", ErrInvalidImage
	}

	payload, err := json.Marshal(c.buildRequest(image))
	if err != nil {
		return document.NewEntities(), "", fmt.Errorf("marshal request: %w", err)
	}

	requestID := uuid.NewString()[:8]
	var content string
	attempts := 0
	err = retry.Do(ctx, c.policy, func(attempt int) error {
		attempts = attempt
		out, sendErr := c.send(ctx, payload)
		if sendErr != nil {
			log.Printf("vision: request %s attempt %d/%d failed: %v", requestID, attempt, c.policy.MaxAttempts, sendErr)
			return sendErr
		}
		log.Printf("vision: request %s attempt %d/%d succeeded", requestID, attempt, c.policy.MaxAttempts)
		content = out
		return nil
	})
	if err != nil {
		if IsTransient(err) && attempts >= c.policy.MaxAttempts {
			return document.NewEntities(), "", fmt.Errorf("%w: %w", ErrRetryExhausted, err)
		}
		return document.NewEntities(), "", err
	}

	entities, summary, err := Parse(content)
	if err != nil {
		return document.NewEntities(), "", err
	}
	return entities, summary, nil
}

func (c *Client) buildRequest(image []byte) chatRequest {
	encoded := base64.StdEncoding.EncodeToString(image)
	return chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: extractionPrompt},
				{Type: "image_url", ImageURL: &imageURL{URL: "data:image/png;base64," + encoded}},
			}},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
		Temperature:    0,
	}
}

// send performs one attempt and returns the reply's message content.
func (c *Client) send(ctx context.Context, payload []byte) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("api request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var parsed chatResponse
		if json.Unmarshal(body, &parsed) == nil && parsed.Error != nil {
			apiErr.Message = parsed.Error.Message
			apiErr.Type = parsed.Error.Type
		}
		return "", apiErr
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", &APIError{StatusCode: resp.StatusCode, Message: parsed.Error.Message, Type: parsed.Error.Type}
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("no choices in api response")
	}
	content := parsed.Choices[0].Message.Content
	if content == "" {
		return "", errors.New("empty response content")
	}
	return content, nil
}

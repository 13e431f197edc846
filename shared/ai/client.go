// Package ai wraps the Gemini client behind the narrow completion interface
// the pipeline consumes. API failures come back as error values; the client
// never panics and never retries past its backoff budget.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/genai"

	"tubeinsight/shared/config"
)

// ModelClient is the completion interface the orchestrator depends on.
// Implementations must respect ctx deadlines and report non-success statuses
// as errors rather than panicking.
type ModelClient interface {
	ModelName() string
	Complete(ctx context.Context, prompt string, schemaHint string) (string, error)
}

const maxRetryElapsed = 45 * time.Second

type Client struct {
	client      *genai.Client
	model       string
	temperature float32
}

func NewClient(ctx context.Context, cfg *config.AIConfig) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}, nil
}

func (c *Client) ModelName() string {
	return c.model
}

// Complete sends the prompt and returns the raw response text. A non-empty
// schemaHint switches the request to JSON output and appends the schema to
// the prompt so the model is biased toward the record shape. Transient
// failures are retried with exponential backoff until the context deadline
// or the retry budget runs out; client-side errors are permanent.
func (c *Client) Complete(ctx context.Context, prompt string, schemaHint string) (string, error) {
	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](c.temperature),
	}
	if schemaHint != "" {
		genCfg.ResponseMIMEType = "application/json"
		prompt = prompt + "\n\nThe JSON response must conform to this schema:\n" + schemaHint
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}

	var out string
	op := func() error {
		result, err := c.client.Models.GenerateContent(ctx, c.model, contents, genCfg)
		if err != nil {
			if isPermanent(err) {
				return backoff.Permanent(fmt.Errorf("model request rejected: %w", err))
			}
			return fmt.Errorf("model request failed: %w", err)
		}

		text := result.Text()
		if strings.TrimSpace(text) == "" {
			// Content filtering and safety blocks surface as empty text.
			return backoff.Permanent(fmt.Errorf("empty response from model %s", c.model))
		}
		out = text
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = maxRetryElapsed

	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return "", err
	}
	return out, nil
}

// isPermanent classifies errors that retrying cannot fix: malformed requests,
// exhausted context windows, or bad credentials.
func isPermanent(err error) bool {
	msg := err.Error()
	for _, marker := range []string{"INVALID_ARGUMENT", "PERMISSION_DENIED", "UNAUTHENTICATED", "token count"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

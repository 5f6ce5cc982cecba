package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"labta/internal/config"
	"labta/internal/logging"
)

// Degraded-mode sentinel strings. The oracle never fails a submission; it
// answers with one of these instead.
const (
	MsgNoKey       = "Set LLM_API_KEY in .env for AI hints."
	MsgConnection  = "AI Connection Error."
	MsgQuota       = "AI Quota Exceeded. Please try again in a minute."
	placeholderKey = "dummy"
)

// GeminiClient implements Oracle against the Gemini generateContent REST
// endpoint.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	model      string
	maxRetries int
	httpClient *http.Client
}

// NewGeminiClient creates an oracle client from the LLM configuration.
func NewGeminiClient(cfg config.LLMConfig, timeout time.Duration) *GeminiClient {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &GeminiClient{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		maxRetries: maxRetries,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a usable API key is configured.
func (c *GeminiClient) Enabled() bool {
	return c.apiKey != "" && c.apiKey != placeholderKey
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Complete sends one prompt and returns the model's text. Rate limits are
// retried with a linear backoff; every other failure mode degrades into a
// sentinel string so the grading response still carries a hint field.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	if !c.Enabled() {
		return MsgNoKey, nil
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return MsgConnection, err
	}

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return MsgConnection, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			logging.Agent("oracle request failed: %v", err)
			return MsgConnection, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			wait := time.Duration(attempt) * 2 * time.Second
			logging.Agent("oracle rate limited (429), retrying in %s", wait)
			select {
			case <-ctx.Done():
				return MsgConnection, nil
			case <-time.After(wait):
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			logging.Agent("oracle returned HTTP %d", resp.StatusCode)
			return fmt.Sprintf("AI Error: %d", resp.StatusCode), nil
		}

		var parsed geminiResponse
		err = json.NewDecoder(resp.Body).Decode(&parsed)
		resp.Body.Close()
		if err != nil {
			logging.Agent("oracle response decode failed: %v", err)
			return MsgConnection, nil
		}

		if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
			logging.Agent("oracle response had no candidates")
			return MsgConnection, nil
		}
		return parsed.Candidates[0].Content.Parts[0].Text, nil
	}

	return MsgQuota, nil
}

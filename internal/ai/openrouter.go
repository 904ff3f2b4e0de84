package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/owoa/splitbill/internal/models"
)

const defaultBaseURL = "https://openrouter.ai/api/v1/chat/completions"

var _ ReceiptParser = (*OpenRouterClient)(nil)

// OpenRouterClient implements ReceiptParser over the OpenRouter
// chat-completions API. Outbound calls are throttled so a burst of
// uploads cannot exhaust the API quota.
type OpenRouterClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	model      string
	baseURL    string
}

// ClientOption configures an OpenRouterClient.
type ClientOption func(*OpenRouterClient)

// WithBaseURL overrides the API endpoint. Tests point this at a local
// fake server.
func WithBaseURL(url string) ClientOption {
	return func(c *OpenRouterClient) { c.baseURL = url }
}

// WithHTTPClient substitutes the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *OpenRouterClient) { c.httpClient = hc }
}

// WithRateLimit overrides the outbound request throttle.
func WithRateLimit(l *rate.Limiter) ClientOption {
	return func(c *OpenRouterClient) { c.limiter = l }
}

// NewOpenRouterClient creates a parser client for the given API key and
// model.
func NewOpenRouterClient(apiKey, model string, opts ...ClientOption) *OpenRouterClient {
	c := &OpenRouterClient{
		httpClient: &http.Client{Timeout: 90 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 5),
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ParseReceipt sends the receipt image to the model and decodes the
// returned JSON split.
func (c *OpenRouterClient) ParseReceipt(ctx context.Context, req ParseRequest) (models.ResultData, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return models.ResultData{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s",
		req.MIMEType, base64.StdEncoding.EncodeToString(req.Image))

	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: splitPrompt(req.PeopleCount, req.Instructions)},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: fmt.Sprintf("Split this bill for %d people.", req.PeopleCount)},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
			}},
		},
	}
	body.ResponseFormat.Type = "json_object"

	encoded, err := json.Marshal(body)
	if err != nil {
		return models.ResultData{}, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(encoded))
	if err != nil {
		return models.ResultData{}, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return models.ResultData{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		slog.Error("OpenRouter API error", "status", resp.StatusCode, "body", string(detail))
		return models.ResultData{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return models.ResultData{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if len(parsed.Choices) == 0 {
		return models.ResultData{}, fmt.Errorf("%w: no choices", ErrBadResponse)
	}

	var result models.ResultData
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &result); err != nil {
		slog.Error("failed to parse model output", "error", err)
		return models.ResultData{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if len(result.People) == 0 {
		return models.ResultData{}, fmt.Errorf("%w: empty split", ErrBadResponse)
	}

	return result, nil
}

func splitPrompt(peopleCount int, instructions string) string {
	if instructions == "" {
		instructions = "No specific instructions provided. Split everything equally."
	}
	return fmt.Sprintf(`You are an expert bill splitter.
Parse the receipt image and split the costs among %d people based on these instructions:
%q

Rules:
1. Extract all items, prices, taxes, and service fees from the receipt.
2. Assign items to people per the instructions; split shared or unmentioned items equally.
3. Distribute taxes and service fees proportionally to each person's subtotal share.
4. Return strictly valid JSON matching this schema:
{
  "people": [
    {
      "name": "Person 1",
      "foodItems": [{"name": "Item", "price": 10.0, "quantity": 1}],
      "drinkItems": [],
      "subtotal": 10.0,
      "tax": 1.0,
      "serviceFee": 1.0,
      "total": 12.0
    }
  ],
  "grandTotal": 12.0
}`, peopleCount, instructions)
}

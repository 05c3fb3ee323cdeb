package ingestion

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultGeminiModel   = "gemini-2.5-flash"
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

	maxResponseSize = 4 << 20
)

const billPrompt = `Analyze this restaurant bill image and extract the following information in JSON format:
{
    "subtotal": "Subtotal amount before tax and tip/serviceCharge",
    "tax": "Tax amount",
    "serviceCharge": "Tip amount or service charge (if any)",
    "totalAmount": "Total amount paid",
    "restaurantName": "Name of the restaurant (if visible)",
    "date": "Date of the bill (if visible)",
    "items": [
        {
            "name": "Item name",
            "price": "Total item amount for all quantity",
            "quantity": "Quantity (if visible, otherwise 1)"
        }
    ]
}

Important guidelines:
- Extract only numerical values for amounts (no currency symbols)
- If any amount is not visible, use 0.00
- For items, extract individual line items with their prices
- Ensure all amounts are in decimal format (e.g., 12.50 not 12,50)
- Return only valid JSON, no additional text
- Some bills call the tip a service charge`

// RetryConfig controls retries of transient Gemini failures.
type RetryConfig struct {
	MaxAttempts       int
	BackoffBase       time.Duration
	BackoffMultiplier float64
	MaxBackoff        time.Duration
}

// DefaultRetryConfig returns the retry policy used in production.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       2 * time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        30 * time.Second,
	}
}

// GeminiConfig configures a GeminiParser.
type GeminiConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Retry      RetryConfig
	Logger     *slog.Logger
}

// GeminiParser reads bills with the Gemini generateContent API.
type GeminiParser struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	retry      RetryConfig
	logger     *slog.Logger
}

var _ Parser = (*GeminiParser)(nil)

// NewGeminiParser creates a parser. The API key is required.
func NewGeminiParser(cfg GeminiConfig) (*GeminiParser, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGeminiBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &GeminiParser{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: cfg.HTTPClient,
		retry:      cfg.Retry,
		logger:     cfg.Logger,
	}, nil
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string `json:"responseMimeType"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// Parse sends the image to Gemini and decodes the bill it describes.
// Every error wraps ErrIngestion.
func (p *GeminiParser) Parse(ctx context.Context, image []byte, mimeType string) (*ParsedBill, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrIngestion)
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(image)
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: billPrompt},
				{InlineData: &geminiInlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
			},
		}},
		GenerationConfig: geminiGenerationConfig{ResponseMimeType: "application/json"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: build request body: %w", ErrIngestion, err)
	}

	var lastErr error
	for attempt := 1; attempt <= p.retry.MaxAttempts; attempt++ {
		bill, err := p.doRequest(ctx, body)
		if err == nil {
			return bill, nil
		}
		lastErr = err

		if !IsTransient(err) {
			break
		}
		if attempt < p.retry.MaxAttempts {
			backoff := p.calculateBackoff(attempt)
			p.logger.Debug("Gemini request failed, retrying",
				"attempt", attempt,
				"max_attempts", p.retry.MaxAttempts,
				"backoff", backoff,
				"error", err)

			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w", ErrIngestion, ctx.Err())
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("%w: %w", ErrIngestion, lastErr)
}

func (p *GeminiParser) calculateBackoff(attempt int) time.Duration {
	multiplier := 1.0
	for i := 1; i < attempt; i++ {
		multiplier *= p.retry.BackoffMultiplier
	}

	backoff := time.Duration(float64(p.retry.BackoffBase) * multiplier)
	if p.retry.MaxBackoff > 0 && backoff > p.retry.MaxBackoff {
		backoff = p.retry.MaxBackoff
	}

	// +/- 25% jitter
	jitter := float64(backoff) * 0.25 * (rand.Float64()*2 - 1)
	return backoff + time.Duration(jitter)
}

func (p *GeminiParser) doRequest(ctx context.Context, body []byte) (*ParsedBill, error) {
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", p.baseURL, p.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("create HTTP request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.apiKey)

	p.logger.Debug("Sending Gemini request", "model", p.model, "bytes", len(body))

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewFatalError(ctx.Err())
		}
		return nil, NewTransientError(fmt.Errorf("HTTP request failed: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, NewTransientError(fmt.Errorf("read response body: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyHTTPError(resp.StatusCode, respBody)
	}

	var gr geminiResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return nil, NewFatalError(fmt.Errorf("parse gemini response: %w", err))
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, NewFatalError(errors.New("gemini returned no candidates"))
	}

	var text strings.Builder
	for _, part := range gr.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	raw := extractJSON(text.String())
	if raw == "" {
		return nil, NewFatalError(errors.New("gemini reply contained no JSON object"))
	}

	var bill ParsedBill
	if err := json.Unmarshal([]byte(raw), &bill); err != nil {
		return nil, NewFatalError(fmt.Errorf("decode bill: %w", err))
	}
	return &bill, nil
}

func classifyHTTPError(statusCode int, body []byte) error {
	bodyStr := string(body)
	if len(bodyStr) > 200 {
		bodyStr = bodyStr[:200] + "..."
	}

	err := fmt.Errorf("gemini API error (status %d): %s", statusCode, bodyStr)
	if statusCode == http.StatusTooManyRequests || statusCode >= 500 {
		return NewTransientError(err)
	}
	return NewFatalError(err)
}

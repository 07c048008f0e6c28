package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"classifier-service/internal/models"
)

// Client is a client for the classifier HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// APIError is a non-200 answer from the service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("classifier service returned status %d: %s", e.StatusCode, e.Message)
}

// NewClient creates a new classifier API client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Predict classifies a single text
func (c *Client) Predict(ctx context.Context, text string) (*models.PredictionResult, error) {
	var result models.PredictionResult
	if err := c.do(ctx, http.MethodPost, "/predict", models.PredictRequest{Text: &text}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PredictBatch classifies several texts in one request
func (c *Client) PredictBatch(ctx context.Context, texts []string) (*models.BatchPredictResponse, error) {
	var result models.BatchPredictResponse
	if err := c.do(ctx, http.MethodPost, "/predict/batch", models.BatchPredictRequest{Texts: texts}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Health checks if the service is up
func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	var result models.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Models retrieves the model comparison table
func (c *Client) Models(ctx context.Context) ([]models.ComparisonRow, error) {
	var result []models.ComparisonRow
	if err := c.do(ctx, http.MethodGet, "/api/models", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Stats retrieves the project summary
func (c *Client) Stats(ctx context.Context) (*models.Stats, error) {
	var result models.Stats
	if err := c.do(ctx, http.MethodGet, "/api/stats", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ModelInfo retrieves metadata about the loaded model
func (c *Client) ModelInfo(ctx context.Context) (*models.ModelInfo, error) {
	var result models.ModelInfo
	if err := c.do(ctx, http.MethodGet, "/api/model/info", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp models.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
}

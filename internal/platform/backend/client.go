package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"nutrimind/internal/recipe"
)

// TransportError reports a request that did not complete successfully:
// either the network failed (StatusCode 0) or the backend answered with a non-2xx status.
type TransportError struct {
	Operation  string
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: network error: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("%s: backend returned %d: %s", e.Operation, e.StatusCode, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client is a client for the recommendation backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// NewClient creates a new backend client. Requests carry no client-side
// timeout; callers bound them through the context if they need to.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// ChatMessage is one turn of a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string        `json:"message"`
	Context []ChatMessage `json:"context"`
}

// ChatResponse is the success body of POST /api/chat.
type ChatResponse struct {
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Services map[string]string `json:"services,omitempty"`
}

// GenerateMealPlan posts a meal plan request and returns the raw success body.
func (c *Client) GenerateMealPlan(ctx context.Context, req *recipe.MealPlanRequest) ([]byte, error) {
	return c.do(ctx, "meal plan", http.MethodPost, "/api/meal-plan", req)
}

// SearchRecipes posts an ingredient search and returns the raw success body.
func (c *Client) SearchRecipes(ctx context.Context, req *recipe.IngredientSearchRequest) ([]byte, error) {
	return c.do(ctx, "recipe search", http.MethodPost, "/api/recipes/search", req)
}

// Chat sends a message to the backend assistant.
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	body, err := c.do(ctx, "chat", http.MethodPost, "/api/chat", req)
	if err != nil {
		return nil, err
	}
	var resp ChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode chat: %v", recipe.ErrMalformedResponse, err)
	}
	return &resp, nil
}

// Health queries the backend health endpoint.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	body, err := c.do(ctx, "health", http.MethodGet, "/api/health", nil)
	if err != nil {
		return nil, err
	}
	var resp HealthResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode health: %v", recipe.ErrMalformedResponse, err)
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s request: %w", op, err)
		}
		reqBody = bytes.NewReader(reqBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("Backend request", zap.String("method", method), zap.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Backend request failed", zap.String("operation", op), zap.Error(err))
		return nil, &TransportError{Operation: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Operation: op, StatusCode: resp.StatusCode, Message: "failed to read response body", Err: err}
	}

	c.logger.Debug("Backend response", zap.String("path", path), zap.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(body)
		c.logger.Error("Backend returned an error",
			zap.String("operation", op),
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg))
		return nil, &TransportError{Operation: op, StatusCode: resp.StatusCode, Message: msg}
	}

	return body, nil
}

// errorMessage extracts the "error" or "detail" string from a failure body.
func errorMessage(body []byte) string {
	var payload struct {
		Error  interface{} `json:"error"`
		Detail interface{} `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if s, ok := payload.Error.(string); ok && s != "" {
			return s
		}
		if s, ok := payload.Detail.(string); ok && s != "" {
			return s
		}
	}
	return "An error occurred"
}

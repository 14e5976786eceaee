// Package api wraps the PlanD REST backend. It is the only write path for
// project and task data; the client never persists domain state locally.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/PlanD600/pland-tui/internal/models"
)

// HTTPClient abstracts HTTP calls for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client wraps the PlanD REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient HTTPClient
	logger     zerolog.Logger
}

// Error is a failed API call. Message is the backend's human-readable
// explanation and is shown to the user as-is.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// NewClient creates a new PlanD API client.
func NewClient(baseURL, token string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.With().Str("component", "api").Logger(),
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(hc HTTPClient) {
	c.httpClient = hc
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do executes an authenticated API request with an optional JSON body.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		apiErr := &Error{Status: resp.StatusCode}
		var errBody struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil {
			apiErr.Message = errBody.Message
		}
		c.logger.Warn().Int("status", resp.StatusCode).Str("path", path).Str("message", apiErr.Message).Msg("api error")
		return nil, apiErr
	}

	return resp, nil
}

// decodeResponse reads and decodes a JSON response.
func decodeResponse(resp *http.Response, v interface{}) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// CurrentUser returns the authenticated viewer.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	resp, err := c.do(ctx, http.MethodGet, "/users/me", nil)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := decodeResponse(resp, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FetchProjectsSnapshot returns the full, role-scoped project/task tree.
// This is also the resync path after a failed optimistic update.
func (c *Client) FetchProjectsSnapshot(ctx context.Context) ([]models.Project, error) {
	resp, err := c.do(ctx, http.MethodGet, "/projects?include=tasks", nil)
	if err != nil {
		return nil, err
	}
	var projects []models.Project
	if err := decodeResponse(resp, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// UpdateTask applies a partial update and returns the authoritative task.
func (c *Client) UpdateTask(ctx context.Context, projectID, taskID string, patch models.TaskPatch) (*models.Task, error) {
	path := fmt.Sprintf("/projects/%s/tasks/%s", projectID, taskID)
	resp, err := c.do(ctx, http.MethodPatch, path, patch)
	if err != nil {
		return nil, err
	}
	var task models.Task
	if err := decodeResponse(resp, &task); err != nil {
		return nil, err
	}
	c.logger.Debug().Str("task", taskID).Msg("task updated")
	return &task, nil
}

// AddComment posts a comment and returns the stored record.
func (c *Client) AddComment(ctx context.Context, projectID, taskID, text string) (*models.Comment, error) {
	path := fmt.Sprintf("/projects/%s/tasks/%s/comments", projectID, taskID)
	resp, err := c.do(ctx, http.MethodPost, path, map[string]string{"text": text})
	if err != nil {
		return nil, err
	}
	var comment models.Comment
	if err := decodeResponse(resp, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

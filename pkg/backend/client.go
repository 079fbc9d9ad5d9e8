// Package backend is the HTTP client for the task data service: two
// collections (tasks and dependency edges) behind a small JSON
// command/query API with bearer authentication.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/evanmoss/taskweave/pkg/model"
)

// Client talks to the backend data service.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a Client for the service at baseURL. The token is sent
// as a bearer credential on every request.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// InsertTask creates a task and returns the authoritative record with
// the server-assigned identifier and slug filled in.
func (c *Client) InsertTask(ctx context.Context, task *model.Task) (*model.Task, error) {
	var created model.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", task, &created); err != nil {
		return nil, &model.BackendError{Op: "insert task", Err: err}
	}
	return &created, nil
}

// UpdateTask applies a partial update to a task by identifier and
// returns the updated record.
func (c *Client) UpdateTask(ctx context.Context, id string, patch TaskPatch) (*model.Task, error) {
	var updated model.Task
	if err := c.do(ctx, http.MethodPatch, "/tasks/"+url.PathEscape(id), patch, &updated); err != nil {
		return nil, &model.BackendError{Op: "update task", Err: err}
	}
	return &updated, nil
}

// DeleteTasks removes one or more tasks by identifier.
func (c *Client) DeleteTasks(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	body := struct {
		IDs []string `json:"ids"`
	}{IDs: ids}
	if err := c.do(ctx, http.MethodDelete, "/tasks", body, nil); err != nil {
		return &model.BackendError{Op: "delete tasks", Err: err}
	}
	return nil
}

// ListTasks fetches every task.
func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, &model.BackendError{Op: "list tasks", Err: err}
	}
	return tasks, nil
}

// InsertEdge creates a dependency edge.
func (c *Client) InsertEdge(ctx context.Context, edge model.DependencyEdge) error {
	if err := c.do(ctx, http.MethodPost, "/dependencies", edge, nil); err != nil {
		return &model.BackendError{Op: "insert edge", Err: err}
	}
	return nil
}

// DeleteEdge removes the edge identified by its predecessor/successor pair.
func (c *Client) DeleteEdge(ctx context.Context, edge model.DependencyEdge) error {
	if err := c.do(ctx, http.MethodDelete, "/dependencies", edge, nil); err != nil {
		return &model.BackendError{Op: "delete edge", Err: err}
	}
	return nil
}

// ListEdges fetches every dependency edge.
func (c *Client) ListEdges(ctx context.Context) ([]model.DependencyEdge, error) {
	var edges []model.DependencyEdge
	if err := c.do(ctx, http.MethodGet, "/dependencies", nil, &edges); err != nil {
		return nil, &model.BackendError{Op: "list edges", Err: err}
	}
	return edges, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

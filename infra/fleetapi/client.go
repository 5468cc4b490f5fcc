// Package fleetapi implements the fleet authority over the facility
// coordination service's REST API.
package fleetapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/medifleet/medifleet/core/fleet"
	"github.com/medifleet/medifleet/core/model"
)

// Client talks to the coordination service. All mutations are plain
// request/response; conditional transitions carry the expected status
// so the service can reject a stale writer.
type Client struct {
	base string
	http *http.Client
}

var _ fleet.Authority = (*Client)(nil)

// New builds a client for the service rooted at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: baseURL,
		http: &http.Client{Timeout: timeout},
	}
}

type createTaskRequest struct {
	Destination model.Location `json:"destination"`
	Priority    model.Priority `json:"priority"`
}

type taskPatchBody struct {
	Status      *model.TaskStatus `json:"status,omitempty"`
	RobotID     *string           `json:"robot_id,omitempty"`
	RobotName   *string           `json:"robot_name,omitempty"`
	AssignedAt  *time.Time        `json:"assigned_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

type robotPatchBody struct {
	Status              *model.RobotStatus `json:"status,omitempty"`
	Location            *model.Location    `json:"location,omitempty"`
	Battery             *int               `json:"battery,omitempty"`
	TasksCompletedToday *int               `json:"tasks_completed_today,omitempty"`
	TotalTasks          *int               `json:"total_tasks,omitempty"`
}

// CreateTask registers a new delivery request with the service.
func (c *Client) CreateTask(ctx context.Context, dest model.Location, prio model.Priority) (model.Task, error) {
	var task model.Task
	body := createTaskRequest{Destination: dest, Priority: prio}
	if err := c.do(ctx, http.MethodPost, "/api/tasks", body, &task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// Task fetches a single task by id.
func (c *Client) Task(ctx context.Context, id string) (model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(id), nil, &task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// Tasks fetches the full task list, newest first.
func (c *Client) Tasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Robots fetches the current roster.
func (c *Client) Robots(ctx context.Context) ([]model.Robot, error) {
	var robots []model.Robot
	if err := c.do(ctx, http.MethodGet, "/api/robots", nil, &robots); err != nil {
		return nil, err
	}
	return robots, nil
}

// UpdateTask applies a partial update unconditionally.
func (c *Client) UpdateTask(ctx context.Context, id string, patch fleet.TaskPatch) error {
	return c.do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id), taskBody(patch), nil)
}

// UpdateRobot applies a partial robot update.
func (c *Client) UpdateRobot(ctx context.Context, id string, patch fleet.RobotPatch) error {
	body := robotPatchBody{
		Status:              patch.Status,
		Location:            patch.Location,
		Battery:             patch.Battery,
		TasksCompletedToday: patch.TasksCompletedToday,
		TotalTasks:          patch.TotalTasks,
	}
	return c.do(ctx, http.MethodPatch, "/api/robots/"+url.PathEscape(id), body, nil)
}

// TransitionTask commits a status change only if the service still
// holds the task in the expected state.
func (c *Client) TransitionTask(ctx context.Context, id string, expect, next model.TaskStatus, patch fleet.TaskPatch) error {
	patch.Status = &next
	path := fmt.Sprintf("/api/tasks/%s?expected_status=%s", url.PathEscape(id), url.QueryEscape(string(expect)))
	return c.do(ctx, http.MethodPatch, path, taskBody(patch), nil)
}

func taskBody(patch fleet.TaskPatch) taskPatchBody {
	return taskPatchBody{
		Status:      patch.Status,
		RobotID:     patch.RobotID,
		RobotName:   patch.RobotName,
		AssignedAt:  patch.AssignedAt,
		CompletedAt: patch.CompletedAt,
	}
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
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", fleet.ErrRemoteUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, fleet.ErrNotFound)
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%s %s: %w", method, path, fleet.ErrConflict)
	case resp.StatusCode >= http.StatusInternalServerError:
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", fleet.ErrRemoteUnavailable, resp.StatusCode, payload)
	case resp.StatusCode >= http.StatusBadRequest:
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, payload)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

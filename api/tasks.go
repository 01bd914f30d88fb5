package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/benjamonnguyen/dynsched"
)

var _ dynsched.TaskService = (*Client)(nil)

// ListTasks only sends the filter fields that are set.
func (c *Client) ListTasks(ctx context.Context, filter dynsched.TaskFilter) ([]dynsched.Task, error) {
	q := url.Values{}
	if filter.Priority != 0 {
		q.Set("priority", strconv.Itoa(int(filter.Priority)))
	}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}

	var tasks []dynsched.Task
	if err := c.do(ctx, request{
		method:        http.MethodGet,
		path:          "/tasks",
		query:         q,
		authenticated: true,
		failMsg:       "Failed to fetch tasks. Please try again.",
	}, &tasks); err != nil {
		return []dynsched.Task{}, err
	}
	if tasks == nil {
		tasks = []dynsched.Task{}
	}
	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (dynsched.Task, error) {
	const failMsg = "Failed to fetch task. Please try again."
	if err := requireID(id, failMsg); err != nil {
		return dynsched.Task{}, err
	}

	var t dynsched.Task
	err := c.do(ctx, request{
		method:        http.MethodGet,
		path:          "/tasks/" + url.PathEscape(id),
		authenticated: true,
		failMsg:       failMsg,
	}, &t)
	return t, err
}

func (c *Client) CreateTask(ctx context.Context, t dynsched.Task) (dynsched.Task, error) {
	var created dynsched.Task
	err := c.do(ctx, request{
		method:        http.MethodPost,
		path:          "/tasks",
		body:          t,
		authenticated: true,
		failMsg:       "Failed to create task. Please try again.",
	}, &created)
	return created, err
}

func (c *Client) UpdateTask(ctx context.Context, id string, u dynsched.TaskUpdate) (dynsched.Task, error) {
	const failMsg = "Failed to update task. Please try again."
	if err := requireID(id, failMsg); err != nil {
		return dynsched.Task{}, err
	}

	var updated dynsched.Task
	err := c.do(ctx, request{
		method:        http.MethodPut,
		path:          "/tasks/" + url.PathEscape(id),
		body:          u,
		authenticated: true,
		failMsg:       failMsg,
	}, &updated)
	return updated, err
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	const failMsg = "Failed to delete task. Please try again."
	if err := requireID(id, failMsg); err != nil {
		return err
	}
	return c.do(ctx, request{
		method:        http.MethodDelete,
		path:          "/tasks/" + url.PathEscape(id),
		authenticated: true,
		failMsg:       failMsg,
	}, nil)
}

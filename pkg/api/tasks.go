package api

import (
	"context"
	"fmt"
	"net/http"

	"taskdeck/pkg/models"
)

// ListTasks fetches every task of the signed-in user
func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.do(ctx, c.tokens, http.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

// CreateTask stores a new task and returns it with its assigned id
func (c *Client) CreateTask(ctx context.Context, draft models.Draft) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, c.tokens, http.MethodPost, "/tasks", draft, &task)
	return task, err
}

// UpdateTask replaces the fields of task id and returns the stored version
func (c *Client) UpdateTask(ctx context.Context, id int64, draft models.Draft) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, c.tokens, http.MethodPut, fmt.Sprintf("/tasks/%d", id), draft, &task)
	return task, err
}

// DeleteTask removes task id
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, c.tokens, http.MethodDelete, fmt.Sprintf("/tasks/%d", id), nil, nil)
}

package api

import (
	"context"
	"net/http"

	"github.com/benjamonnguyen/dynsched"
)

var _ dynsched.ScheduleService = (*Client)(nil)

type suggestionRequest struct {
	Tasks []dynsched.Task `json:"tasks"`
}

// GetScheduleSuggestions returns the server's payload as-is.
func (c *Client) GetScheduleSuggestions(ctx context.Context, tasks []dynsched.Task) (dynsched.Suggestions, error) {
	if tasks == nil {
		tasks = []dynsched.Task{}
	}
	var s dynsched.Suggestions
	if err := c.do(ctx, request{
		method:        http.MethodPost,
		path:          "/schedule/suggestions",
		body:          suggestionRequest{Tasks: tasks},
		authenticated: true,
		failMsg:       "Failed to get schedule suggestions. Please try again.",
	}, &s); err != nil {
		return nil, err
	}
	return s, nil
}

package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/benjamonnguyen/dynsched"
)

var _ dynsched.EventService = (*Client)(nil)

func (c *Client) ListEvents(ctx context.Context) ([]dynsched.Event, error) {
	var events []dynsched.Event
	if err := c.do(ctx, request{
		method:        http.MethodGet,
		path:          "/events",
		authenticated: true,
		failMsg:       "Failed to fetch events. Please try again.",
	}, &events); err != nil {
		return []dynsched.Event{}, err
	}
	if events == nil {
		events = []dynsched.Event{}
	}
	return events, nil
}

func (c *Client) GetEvent(ctx context.Context, id string) (dynsched.Event, error) {
	const failMsg = "Failed to fetch event. Please try again."
	if err := requireID(id, failMsg); err != nil {
		return dynsched.Event{}, err
	}

	var e dynsched.Event
	err := c.do(ctx, request{
		method:        http.MethodGet,
		path:          "/events/" + url.PathEscape(id),
		authenticated: true,
		failMsg:       failMsg,
	}, &e)
	return e, err
}

func (c *Client) CreateEvent(ctx context.Context, e dynsched.Event) (dynsched.Event, error) {
	var created dynsched.Event
	err := c.do(ctx, request{
		method:        http.MethodPost,
		path:          "/events",
		body:          e,
		authenticated: true,
		failMsg:       "Failed to create event. Please try again.",
	}, &created)
	return created, err
}

func (c *Client) UpdateEvent(ctx context.Context, id string, u dynsched.EventUpdate) (dynsched.Event, error) {
	const failMsg = "Failed to update event. Please try again."
	if err := requireID(id, failMsg); err != nil {
		return dynsched.Event{}, err
	}

	var updated dynsched.Event
	err := c.do(ctx, request{
		method:        http.MethodPut,
		path:          "/events/" + url.PathEscape(id),
		body:          u,
		authenticated: true,
		failMsg:       failMsg,
	}, &updated)
	return updated, err
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	const failMsg = "Failed to delete event. Please try again."
	if err := requireID(id, failMsg); err != nil {
		return err
	}
	return c.do(ctx, request{
		method:        http.MethodDelete,
		path:          "/events/" + url.PathEscape(id),
		authenticated: true,
		failMsg:       failMsg,
	}, nil)
}

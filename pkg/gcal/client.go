// Package gcal wraps the Google Calendar event resource for one
// destination calendar.
package gcal

import (
	"context"
	"fmt"

	"github.com/evanmoss/taskweave/pkg/auth"
	"google.golang.org/api/calendar/v3"
)

// Client is a Google Calendar API client bound to a single calendar.
type Client struct {
	srv        *calendar.Service
	calendarID string
}

// NewClient authenticates and resolves the named calendar to its
// identifier. The name must match an entry in the user's calendar list.
func NewClient(ctx context.Context, calendarName string) (*Client, error) {
	srv, err := auth.GetCalendarService(ctx)
	if err != nil {
		return nil, err
	}

	list, err := srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve calendar list: %w", err)
	}

	for _, item := range list.Items {
		if item.Summary == calendarName {
			return &Client{srv: srv, calendarID: item.Id}, nil
		}
	}
	return nil, fmt.Errorf("calendar %q not found", calendarName)
}

// NewClientWithService builds a Client from an existing service and
// calendar identifier.
func NewClientWithService(srv *calendar.Service, calendarID string) *Client {
	return &Client{srv: srv, calendarID: calendarID}
}

// CalendarID returns the resolved destination calendar identifier.
func (c *Client) CalendarID() string {
	return c.calendarID
}

// Insert creates an event and returns the created resource with its
// server-assigned identifier.
func (c *Client) Insert(ctx context.Context, event *calendar.Event) (*calendar.Event, error) {
	return c.srv.Events.Insert(c.calendarID, event).Context(ctx).Do()
}

// Update replaces an event in place.
func (c *Client) Update(ctx context.Context, eventID string, event *calendar.Event) (*calendar.Event, error) {
	return c.srv.Events.Update(c.calendarID, eventID, event).Context(ctx).Do()
}

// Get fetches an event by identifier.
func (c *Client) Get(ctx context.Context, eventID string) (*calendar.Event, error) {
	return c.srv.Events.Get(c.calendarID, eventID).Context(ctx).Do()
}

// Delete removes an event by identifier.
func (c *Client) Delete(ctx context.Context, eventID string) error {
	return c.srv.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
}

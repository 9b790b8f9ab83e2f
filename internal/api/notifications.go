package api

import (
	"context"
	"net/http"
	"net/url"
)

// NotificationService wraps the notification endpoints
type NotificationService struct {
	c *Client
}

// Notifications returns the notification endpoints
func (c *Client) Notifications() *NotificationService {
	return &NotificationService{c: c}
}

// List returns the current user's notifications
func (s *NotificationService) List(ctx context.Context) Result[[]Notification] {
	return Do[[]Notification](ctx, s.c, Request{Path: "/notifications"})
}

// MarkRead marks one notification as read
func (s *NotificationService) MarkRead(ctx context.Context, id string) Result[Notification] {
	return Do[Notification](ctx, s.c, Request{
		Method: http.MethodPatch,
		Path:   "/notifications/" + url.PathEscape(id) + "/read",
	})
}

// MarkAllRead marks every notification as read
func (s *NotificationService) MarkAllRead(ctx context.Context) Result[struct{}] {
	return Do[struct{}](ctx, s.c, Request{
		Method: http.MethodPatch,
		Path:   "/notifications/read-all",
	})
}

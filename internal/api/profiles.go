package api

import (
	"context"
	"io"
	"net/http"
)

// ProfileService wraps the startup and student profile endpoints
type ProfileService struct {
	c *Client
}

// Profiles returns the profile endpoints
func (c *Client) Profiles() *ProfileService {
	return &ProfileService{c: c}
}

// Startup returns the current startup's profile, including its plan
func (s *ProfileService) Startup(ctx context.Context) Result[StartupProfile] {
	return Do[StartupProfile](ctx, s.c, Request{Path: "/startups/profile"})
}

// Student returns the current student's profile
func (s *ProfileService) Student(ctx context.Context) Result[StudentProfile] {
	return Do[StudentProfile](ctx, s.c, Request{Path: "/students/profile"})
}

// UploadPhoto replaces the student's profile photo
func (s *ProfileService) UploadPhoto(ctx context.Context, name string, photo io.Reader) Result[StudentProfile] {
	return Do[StudentProfile](ctx, s.c, Request{
		Method:    http.MethodPost,
		Path:      "/students/profile/photo",
		Multipart: &Multipart{Files: []File{{Field: "photo", Name: name, Content: photo}}},
	})
}

// AnalyticsService wraps the dashboard analytics endpoint
type AnalyticsService struct {
	c *Client
}

// Analytics returns the analytics endpoints
func (c *Client) Analytics() *AnalyticsService {
	return &AnalyticsService{c: c}
}

// Summary returns the startup dashboard rollup
func (s *AnalyticsService) Summary(ctx context.Context) Result[AnalyticsSummary] {
	return Do[AnalyticsSummary](ctx, s.c, Request{Path: "/analytics/startup"})
}

// PaymentService wraps plan checkout
type PaymentService struct {
	c *Client
}

// Payments returns the payment endpoints
func (c *Client) Payments() *PaymentService {
	return &PaymentService{c: c}
}

// Checkout starts a payment session for plan
func (s *PaymentService) Checkout(ctx context.Context, plan string) Result[Checkout] {
	return Do[Checkout](ctx, s.c, Request{
		Method: http.MethodPost,
		Path:   "/payments/checkout",
		Body:   map[string]string{"plan": plan},
	})
}

// PlanService reads the current subscription
type PlanService struct {
	c *Client
}

// Plans returns the subscription endpoints
func (c *Client) Plans() *PlanService {
	return &PlanService{c: c}
}

// Current returns the startup profile that carries the subscription plan.
// A 404 means no profile exists yet, which callers treat as the free tier.
func (s *PlanService) Current(ctx context.Context) Result[StartupProfile] {
	return Do[StartupProfile](ctx, s.c, Request{Path: "/subscriptions/current"})
}

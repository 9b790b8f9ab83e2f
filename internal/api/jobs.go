package api

import (
	"context"
	"net/http"
	"net/url"
)

// JobService wraps the job listing endpoints
type JobService struct {
	c *Client
}

// Jobs returns the job endpoints
func (c *Client) Jobs() *JobService {
	return &JobService{c: c}
}

// JobQuery filters job listings
type JobQuery struct {
	Search   string
	Location string
	Type     string
}

func (q JobQuery) values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Location != "" {
		v.Set("location", q.Location)
	}
	if q.Type != "" {
		v.Set("type", q.Type)
	}
	return v
}

// List returns open jobs matching q
func (s *JobService) List(ctx context.Context, q JobQuery) Result[[]Job] {
	return Do[[]Job](ctx, s.c, Request{Path: "/jobs", Query: q.values()})
}

// Mine returns the startup's own postings
func (s *JobService) Mine(ctx context.Context) Result[[]Job] {
	return Do[[]Job](ctx, s.c, Request{Path: "/jobs/my"})
}

// Get returns one job
func (s *JobService) Get(ctx context.Context, id string) Result[Job] {
	return Do[Job](ctx, s.c, Request{Path: "/jobs/" + url.PathEscape(id)})
}

// Create posts a new job
func (s *JobService) Create(ctx context.Context, job Job) Result[Job] {
	return Do[Job](ctx, s.c, Request{Method: http.MethodPost, Path: "/jobs", Body: job})
}

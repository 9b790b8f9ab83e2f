package api

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// ApplicationService wraps the application-tracking endpoints
type ApplicationService struct {
	c *Client
}

// Applications returns the application endpoints
func (c *Client) Applications() *ApplicationService {
	return &ApplicationService{c: c}
}

// ListMine returns the student's own applications
func (s *ApplicationService) ListMine(ctx context.Context) Result[[]Application] {
	return Do[[]Application](ctx, s.c, Request{Path: "/applications/my"})
}

// ListForJob returns applications to one of the startup's jobs
func (s *ApplicationService) ListForJob(ctx context.Context, jobID string) Result[[]Application] {
	return Do[[]Application](ctx, s.c, Request{Path: "/applications/job/" + url.PathEscape(jobID)})
}

// UpdateStatus moves an application to status
func (s *ApplicationService) UpdateStatus(ctx context.Context, id string, status ApplicationStatus) Result[Application] {
	return Do[Application](ctx, s.c, Request{
		Method: http.MethodPatch,
		Path:   "/applications/" + url.PathEscape(id) + "/status",
		Body:   map[string]ApplicationStatus{"status": status},
	})
}

// Apply submits an application with a resume upload
func (s *ApplicationService) Apply(ctx context.Context, jobID, coverLetter, resumeName string, resume io.Reader) Result[Application] {
	return Do[Application](ctx, s.c, Request{
		Method: http.MethodPost,
		Path:   "/applications",
		Multipart: &Multipart{
			Fields: map[string]string{"jobId": jobID, "coverLetter": coverLetter},
			Files:  []File{{Field: "resume", Name: resumeName, Content: resume}},
		},
	})
}

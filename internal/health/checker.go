// Package health runs the connectivity diagnostics behind `hirelink doctor`.
//
// Each Checker probes one dependency of the client: the stored session, the
// REST backend or the push channel. A Manager runs them concurrently under a
// per-check timeout and returns the results in registration order.
//
//	m := health.NewManager()
//	m.AddChecker(health.NewSessionChecker(store))
//	m.AddChecker(health.NewAPIChecker(client))
//	report := m.Check(ctx)
package health

import (
	"context"
	"time"
)

// Checker probes a single dependency
type Checker interface {
	// Name is a short lowercase identifier such as "api" or "socket"
	Name() string

	// Check must honour the context deadline.
	Check(ctx context.Context) *Result
}

// Status is the outcome of one check.
type Status string

const (
	// StatusHealthy means the dependency works.
	StatusHealthy Status = "healthy"

	// StatusDegraded means the client still runs with reduced function,
	// for example without a session.
	StatusDegraded Status = "degraded"

	// StatusUnhealthy means commands depending on it will fail.
	StatusUnhealthy Status = "unhealthy"
)

func (s Status) String() string {
	return string(s)
}

// Result is what a Checker found
type Result struct {
	Status  Status         `json:"status" yaml:"status"`
	Message string         `json:"message" yaml:"message"`
	Details map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
	Latency time.Duration  `json:"latency" yaml:"latency"`
}

// NewResult creates a result with empty details.
func NewResult(status Status, message string) *Result {
	return &Result{
		Status:  status,
		Message: message,
		Details: make(map[string]any),
	}
}

// WithDetail adds a detail and returns r for chaining.
func (r *Result) WithDetail(key string, value any) *Result {
	r.Details[key] = value
	return r
}

// WithLatency sets the latency and returns r for chaining.
func (r *Result) WithLatency(latency time.Duration) *Result {
	r.Latency = latency
	return r
}

func Healthy(message string) *Result {
	return NewResult(StatusHealthy, message)
}

func Degraded(message string) *Result {
	return NewResult(StatusDegraded, message)
}

func Unhealthy(message string) *Result {
	return NewResult(StatusUnhealthy, message)
}

package health

import (
	"context"
	"sync"
	"time"
)

// Manager runs registered checkers in parallel with a per-check timeout.
type Manager struct {
	checkers []Checker
	timeout  time.Duration
	mu       sync.RWMutex
}

// NewManager creates a manager with a 5 second timeout per check.
func NewManager() *Manager {
	return &Manager{
		checkers: make([]Checker, 0),
		timeout:  5 * time.Second,
	}
}

// WithTimeout sets the per-check timeout.
func (m *Manager) WithTimeout(timeout time.Duration) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return m
}

// AddChecker registers a checker. Reports list checks in the order they
// were added.
func (m *Manager) AddChecker(checker Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, checker)
}

// Check is one named result in a Report
type Check struct {
	Name string `json:"name" yaml:"name"`
	Result `yaml:",inline"`
}

// Report is the outcome of one run
type Report struct {
	Status Status  `json:"status" yaml:"status"`
	Checks []Check `json:"checks" yaml:"checks"`
}

// Check runs every checker concurrently and waits for all of them.
func (m *Manager) Check(ctx context.Context) Report {
	m.mu.RLock()
	checkers := make([]Checker, len(m.checkers))
	copy(checkers, m.checkers)
	timeout := m.timeout
	m.mu.RUnlock()

	checks := make([]Check, len(checkers))
	var wg sync.WaitGroup
	for i, checker := range checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			result := checker.Check(checkCtx)
			if result == nil {
				result = Unhealthy("check returned no result")
			}
			if result.Latency == 0 {
				result.Latency = time.Since(start)
			}
			checks[i] = Check{Name: checker.Name(), Result: *result}
		}()
	}
	wg.Wait()

	return Report{Status: Overall(checks), Checks: checks}
}

// Overall is the worst status among checks; no checks is healthy.
func Overall(checks []Check) Status {
	status := StatusHealthy
	for _, c := range checks {
		switch c.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

// Names returns the registered checker names in order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.checkers))
	for i, checker := range m.checkers {
		names[i] = checker.Name()
	}
	return names
}

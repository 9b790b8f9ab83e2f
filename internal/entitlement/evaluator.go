package entitlement

import (
	"sync"

	"github.com/felixgeelhaar/hirelink/internal/errors"
	"github.com/felixgeelhaar/hirelink/internal/metrics"
)

// UpgradePrompt is the pending "upgrade your plan" affordance
type UpgradePrompt struct {
	Open    bool
	Feature string
}

// Evaluator answers access questions for one actor. Until a profile is
// set it has no plan context and denies everything.
type Evaluator struct {
	metrics *metrics.Metrics

	mu       sync.Mutex
	loaded   bool
	tier     Tier
	explicit bool
	prompt   UpgradePrompt
}

// Option configures an Evaluator
type Option func(*Evaluator)

// WithMetrics counts access decisions
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Evaluator) {
		e.metrics = m
	}
}

// NewEvaluator returns an evaluator with no plan context
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetProfile derives plan context from p. A nil p clears the context, as
// while a profile is still loading.
func (e *Evaluator) SetProfile(p PlanHolder) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if p == nil {
		e.loaded, e.tier, e.explicit = false, "", false
		return
	}
	_, e.explicit = ParseTier(p.Plan())
	e.tier = ResolvePlan(p)
	e.loaded = true
}

// Tier returns the resolved plan; ok is false without plan context.
func (e *Evaluator) Tier() (Tier, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tier, e.loaded
}

// NeedsPlanSelection is true once a profile is known but records no plan.
func (e *Evaluator) NeedsPlanSelection() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded && !e.explicit
}

// GetFeatureValue returns f's value under the resolved plan.
func (e *Evaluator) GetFeatureValue(f Feature) (FeatureValue, bool) {
	tier, ok := e.Tier()
	if !ok {
		return FeatureValue{}, false
	}
	return Value(tier, f)
}

// HasAccess reports whether the resolved plan unlocks f.
func (e *Evaluator) HasAccess(f Feature) bool {
	v, ok := e.GetFeatureValue(f)
	allowed := ok && v.Allows()
	e.metrics.AccessChecked(string(f), allowed)
	return allowed
}

// CheckAccessAndShowModal evaluates HasAccess and, on denial, opens the
// upgrade prompt for displayName. It only informs rendering.
func (e *Evaluator) CheckAccessAndShowModal(f Feature, displayName string) bool {
	if e.HasAccess(f) {
		return true
	}
	if displayName == "" {
		displayName = f.DisplayName()
	}

	e.mu.Lock()
	e.prompt = UpgradePrompt{Open: true, Feature: displayName}
	e.mu.Unlock()
	return false
}

// UpgradePrompt returns the current prompt state
func (e *Evaluator) UpgradePrompt() UpgradePrompt {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.prompt
}

// CloseUpgradePrompt dismisses the prompt
func (e *Evaluator) CloseUpgradePrompt() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prompt = UpgradePrompt{}
}

// Limit returns the numeric limit of f. Non-limit features and missing
// plan context report zero.
func (e *Evaluator) Limit(f Feature) (n int, unlimited bool) {
	v, ok := e.GetFeatureValue(f)
	if !ok {
		return 0, false
	}
	n, unlimited, _ = v.Limit()
	return n, unlimited
}

// WithinLimit reports whether one more use of f fits when used are taken.
// Non-limit features fall back to HasAccess.
func (e *Evaluator) WithinLimit(f Feature, used int) bool {
	v, ok := e.GetFeatureValue(f)
	if !ok {
		return false
	}
	n, unlimited, isLimit := v.Limit()
	if !isLimit {
		return v.Allows()
	}
	return unlimited || used < n
}

// Require returns an upgrade error when f is not available.
func (e *Evaluator) Require(f Feature) error {
	if e.HasAccess(f) {
		return nil
	}
	tier, ok := e.Tier()
	if !ok {
		return errors.New(errors.ErrCodePlanUpgradeNeeded, "plan not loaded yet")
	}
	return errors.NewUpgradeRequiredError(f.DisplayName(), string(tier))
}

package entitlement

import (
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/hirelink/internal/errors"
	"github.com/felixgeelhaar/hirelink/internal/metrics"
)

type profile struct {
	plan string
}

func (p profile) Plan() string { return p.plan }

func TestMatrixIsTotal(t *testing.T) {
	for _, tier := range Tiers {
		for _, f := range Features {
			_, ok := Value(tier, f)
			assert.True(t, ok, "%s.%s must be defined", tier, f)
		}
	}
}

func TestRequiredMatrixValues(t *testing.T) {
	v, _ := Value(TierFree, MaxActiveJobs)
	n, unlimited, ok := v.Limit()
	require.True(t, ok)
	assert.Equal(t, 2, n)
	assert.False(t, unlimited)

	v, _ = Value(TierEnterprise, MaxActiveJobs)
	_, unlimited, ok = v.Limit()
	require.True(t, ok)
	assert.True(t, unlimited)

	v, _ = Value(TierFree, SocialRecruiter)
	enabled, ok := v.Bool()
	require.True(t, ok)
	assert.False(t, enabled)

	v, _ = Value(TierPro, SocialRecruiter)
	enabled, _ = v.Bool()
	assert.True(t, enabled)
}

func TestAllowsMatchesRawValue(t *testing.T) {
	for _, tier := range Tiers {
		for _, f := range Features {
			v, _ := Value(tier, f)
			denied := false
			if b, ok := v.Bool(); ok && !b {
				denied = true
			}
			if n, unlimited, ok := v.Limit(); ok && !unlimited && n == 0 {
				denied = true
			}
			assert.Equal(t, !denied, Allows(tier, f), "%s.%s = %s", tier, f, v)
		}
	}

	assert.False(t, Allows(TierFree, SocialRecruiter))
	assert.True(t, Allows(TierPro, SocialRecruiter))
	assert.True(t, Allows(TierFree, MaxActiveJobs))
	assert.False(t, Allows(TierFree, FeaturedJobs), "zero limit denies")
	assert.False(t, Allows("PLATINUM", Analytics))
}

func TestResolvePlanDefaultsToFree(t *testing.T) {
	tests := []struct {
		name   string
		holder PlanHolder
		want   Tier
	}{
		{"nil holder", nil, TierFree},
		{"empty plan", profile{}, TierFree},
		{"unknown plan", profile{plan: "platinum"}, TierFree},
		{"explicit plan", profile{plan: "PRO"}, TierPro},
		{"lowercase plan", profile{plan: "growth"}, TierGrowth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePlan(tt.holder))
		})
	}
}

func TestEvaluatorWithoutPlanContext(t *testing.T) {
	e := NewEvaluator()

	assert.False(t, e.HasAccess(MaxActiveJobs))
	_, ok := e.GetFeatureValue(Analytics)
	assert.False(t, ok)
	assert.False(t, e.NeedsPlanSelection())
	assert.False(t, e.WithinLimit(MaxActiveJobs, 0))

	err := e.Require(Analytics)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodePlanUpgradeNeeded, errors.CodeOf(err))
}

func TestEvaluatorFreeFallback(t *testing.T) {
	e := NewEvaluator()
	e.SetProfile(profile{})

	tier, ok := e.Tier()
	require.True(t, ok)
	assert.Equal(t, TierFree, tier)
	assert.True(t, e.NeedsPlanSelection())

	for _, f := range Features {
		assert.Equal(t, Allows(TierFree, f), e.HasAccess(f), string(f))
	}

	e.SetProfile(nil)
	assert.False(t, e.HasAccess(MaxActiveJobs))
}

func TestEvaluatorGrowthScenario(t *testing.T) {
	e := NewEvaluator()
	e.SetProfile(profile{plan: "GROWTH"})

	v, ok := e.GetFeatureValue(Analytics)
	require.True(t, ok)
	label, isLabel := v.Label()
	require.True(t, isLabel)
	assert.Equal(t, "advanced", label)

	assert.True(t, e.HasAccess(JobAnalysis))
	v, _ = e.GetFeatureValue(JobAnalysis)
	assert.Equal(t, "basic", v.String())

	assert.False(t, e.HasAccess(SocialRecruiter))
	assert.False(t, e.NeedsPlanSelection())
}

func TestCheckAccessAndShowModal(t *testing.T) {
	e := NewEvaluator()
	e.SetProfile(profile{plan: "GROWTH"})

	assert.True(t, e.CheckAccessAndShowModal(Analytics, "Analytics"))
	assert.False(t, e.UpgradePrompt().Open)

	assert.False(t, e.CheckAccessAndShowModal(SocialRecruiter, "Social Recruiter"))
	assert.Equal(t, UpgradePrompt{Open: true, Feature: "Social Recruiter"}, e.UpgradePrompt())

	e.CloseUpgradePrompt()
	assert.Equal(t, UpgradePrompt{}, e.UpgradePrompt())

	assert.False(t, e.CheckAccessAndShowModal(SocialRecruiter, ""))
	assert.Equal(t, "Social Recruiter", e.UpgradePrompt().Feature)
}

func TestLimits(t *testing.T) {
	e := NewEvaluator()
	e.SetProfile(profile{plan: "FREE"})

	n, unlimited := e.Limit(MaxActiveJobs)
	assert.Equal(t, 2, n)
	assert.False(t, unlimited)
	assert.True(t, e.WithinLimit(MaxActiveJobs, 1))
	assert.False(t, e.WithinLimit(MaxActiveJobs, 2))
	assert.False(t, e.WithinLimit(BulkEmail, 0))

	e.SetProfile(profile{plan: "ENTERPRISE"})
	_, unlimited = e.Limit(MaxActiveJobs)
	assert.True(t, unlimited)
	assert.True(t, e.WithinLimit(MaxActiveJobs, 10_000))
	assert.NoError(t, e.Require(APIAccess))
}

func TestEvaluatorMetrics(t *testing.T) {
	_, m := metrics.NewRegistry()
	e := NewEvaluator(WithMetrics(m))
	e.SetProfile(profile{plan: "FREE"})

	e.HasAccess(SocialRecruiter)
	e.HasAccess(SocialRecruiter)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.AccessChecks.WithLabelValues("socialRecruiter", "false")))
}

func TestParseMatrixRejectsDefects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "FREE: [unclosed"},
		{"missing tier", "FREE:\n  maxActiveJobs: 1\n"},
		{"unknown tier", "PLATINUM:\n  maxActiveJobs: 1\n"},
		{"unknown feature", "FREE:\n  teleport: true\n"},
		{"negative limit", "FREE:\n  maxActiveJobs: -1\n"},
		{"empty label", "FREE:\n  analytics: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMatrix([]byte(tt.doc))
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodePlanMatrixInvalid, errors.CodeOf(err))
		})
	}
}

func TestFeatureValueJSON(t *testing.T) {
	row := map[Feature]FeatureValue{
		MaxActiveJobs:   UnlimitedValue(),
		TeamSeats:       LimitValue(3),
		SocialRecruiter: BoolValue(true),
		Analytics:       LabelValue("advanced"),
	}
	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"maxActiveJobs":"unlimited","teamSeats":3,"socialRecruiter":true,"analytics":"advanced"}`, string(data))
}

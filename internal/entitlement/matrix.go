// Package entitlement answers which features a subscription plan unlocks.
// The plan matrix is static and embedded in the binary.
package entitlement

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/hirelink/internal/errors"
)

// Tier is a subscription plan
type Tier string

const (
	TierFree       Tier = "FREE"
	TierGrowth     Tier = "GROWTH"
	TierPro        Tier = "PRO"
	TierEnterprise Tier = "ENTERPRISE"
)

// Tiers lists plans from lowest to highest
var Tiers = []Tier{TierFree, TierGrowth, TierPro, TierEnterprise}

// ParseTier accepts a plan name in any case
func ParseTier(s string) (Tier, bool) {
	t := Tier(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Tiers {
		if t == known {
			return t, true
		}
	}
	return "", false
}

// Feature is a key in the plan matrix
type Feature string

const (
	MaxActiveJobs         Feature = "maxActiveJobs"
	MaxApplicationsPerJob Feature = "maxApplicationsPerJob"
	BulkEmail             Feature = "bulkEmail"
	SocialRecruiter       Feature = "socialRecruiter"
	Analytics             Feature = "analytics"
	JobAnalysis           Feature = "jobAnalysis"
	CandidateSearch       Feature = "candidateSearch"
	InterviewScheduling   Feature = "interviewScheduling"
	CustomBranding        Feature = "customBranding"
	PrioritySupport       Feature = "prioritySupport"
	APIAccess             Feature = "apiAccess"
	TeamSeats             Feature = "teamSeats"
	FeaturedJobs          Feature = "featuredJobs"
	ExportData            Feature = "exportData"
)

// Features is the closed set of matrix keys
var Features = []Feature{
	MaxActiveJobs, MaxApplicationsPerJob, BulkEmail, SocialRecruiter,
	Analytics, JobAnalysis, CandidateSearch, InterviewScheduling,
	CustomBranding, PrioritySupport, APIAccess, TeamSeats, FeaturedJobs,
	ExportData,
}

var displayNames = map[Feature]string{
	MaxActiveJobs:         "Active Job Postings",
	MaxApplicationsPerJob: "Applications per Job",
	BulkEmail:             "Bulk Email",
	SocialRecruiter:       "Social Recruiter",
	Analytics:             "Analytics",
	JobAnalysis:           "Job Analysis",
	CandidateSearch:       "Candidate Search",
	InterviewScheduling:   "Interview Scheduling",
	CustomBranding:        "Custom Branding",
	PrioritySupport:       "Priority Support",
	APIAccess:             "API Access",
	TeamSeats:             "Team Seats",
	FeaturedJobs:          "Featured Jobs",
	ExportData:            "Data Export",
}

// ParseFeature matches a feature key exactly
func ParseFeature(s string) (Feature, bool) {
	for _, f := range Features {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// DisplayName returns the human label of f
func (f Feature) DisplayName() string {
	if name, ok := displayNames[f]; ok {
		return name
	}
	return string(f)
}

// Matrix maps every tier to a value for every feature
type Matrix map[Tier]map[Feature]FeatureValue

//go:embed matrix.yaml
var matrixYAML []byte

var (
	matrixOnce sync.Once
	matrix     Matrix
)

// Plans returns the process-wide matrix. A malformed or incomplete
// embedded matrix is a build defect and panics.
func Plans() Matrix {
	matrixOnce.Do(func() {
		m, err := ParseMatrix(matrixYAML)
		if err != nil {
			panic(err)
		}
		matrix = m
	})
	return matrix
}

// ParseMatrix decodes a matrix document and checks that it is total over
// Tiers and Features with no unknown keys.
func ParseMatrix(data []byte) (Matrix, error) {
	var raw map[string]map[string]FeatureValue
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodePlanMatrixInvalid, "failed to parse plan matrix", err)
	}

	m := make(Matrix, len(Tiers))
	for name, row := range raw {
		tier, ok := ParseTier(name)
		if !ok || string(tier) != name {
			return nil, errors.New(errors.ErrCodePlanMatrixInvalid, fmt.Sprintf("unknown tier %q", name))
		}
		values := make(map[Feature]FeatureValue, len(row))
		for key, v := range row {
			f, ok := ParseFeature(key)
			if !ok {
				return nil, errors.New(errors.ErrCodePlanMatrixInvalid, fmt.Sprintf("tier %s: unknown feature %q", name, key))
			}
			values[f] = v
		}
		m[tier] = values
	}

	var missing []string
	for _, tier := range Tiers {
		row, ok := m[tier]
		if !ok {
			missing = append(missing, string(tier))
			continue
		}
		for _, f := range Features {
			if _, ok := row[f]; !ok {
				missing = append(missing, string(tier)+"."+string(f))
			}
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, errors.New(errors.ErrCodePlanMatrixInvalid, "plan matrix is missing "+strings.Join(missing, ", "))
	}
	return m, nil
}

// Value returns the configured value of f for tier. ok is false only for
// tiers or features outside the matrix.
func Value(tier Tier, f Feature) (FeatureValue, bool) {
	v, ok := Plans()[tier][f]
	return v, ok
}

// Allows reports whether tier unlocks f. Unknown tiers and features are denied.
func Allows(tier Tier, f Feature) bool {
	v, ok := Value(tier, f)
	return ok && v.Allows()
}

// PlanHolder is anything that records a subscription plan
type PlanHolder interface {
	Plan() string
}

// ResolvePlan returns the holder's plan, or TierFree when it has none or
// records a plan this build does not know.
func ResolvePlan(p PlanHolder) Tier {
	if p == nil {
		return TierFree
	}
	if tier, ok := ParseTier(p.Plan()); ok {
		return tier
	}
	return TierFree
}

// Package profile holds the candidate profile the pipeline evaluates
// opportunities against. The profile is loaded once from configuration,
// validated, and treated as immutable from then on.
package profile

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Canonical values shared with the triage package.
const (
	WorkWeekFourDays = "4-days"
	WorkWeekFiveDays = "5-days"

	RemotePolicyRemote = "Remote"
	RemotePolicyHybrid = "Hybrid"
	RemotePolicyOnsite = "Onsite"
)

// JobSearchStatus captures the candidate's current search posture.
type JobSearchStatus struct {
	Urgency    string   `mapstructure:"urgency"`
	MustHave   []string `mapstructure:"must-have"`
	NiceToHave []string `mapstructure:"nice-to-have"`
	RejectIf   []string `mapstructure:"reject-if"`
}

// Profile is the candidate profile. It is a read-only input to every
// pipeline component and safe to share across concurrent evaluations.
type Profile struct {
	Name                  string   `mapstructure:"name" validate:"required"`
	PreferredTechnologies []string `mapstructure:"preferred-technologies" validate:"required,min=1"`
	YearsOfExperience     int      `mapstructure:"years-of-experience" validate:"gte=0"`
	CurrentSeniority      string   `mapstructure:"current-seniority"`
	MinimumSalaryUSD      int      `mapstructure:"minimum-salary-usd" validate:"gt=0"`
	IdealSalaryUSD        int      `mapstructure:"ideal-salary-usd"`
	PreferredRemotePolicy string   `mapstructure:"preferred-remote-policy" validate:"omitempty,oneof=Remote Hybrid Onsite"`
	PreferredLocations    []string `mapstructure:"preferred-locations"`
	PreferredCompanySize  string   `mapstructure:"preferred-company-size"`
	IndustryPreferences   []string `mapstructure:"industry-preferences"`
	OpenToRelocation      bool     `mapstructure:"open-to-relocation"`
	LookingForChange      bool     `mapstructure:"looking-for-change"`
	PreferredWorkWeek     string   `mapstructure:"preferred-work-week" validate:"omitempty,oneof=4-days 5-days"`

	JobSearch JobSearchStatus `mapstructure:"job-search"`

	// rejectRules is resolved once from JobSearch.RejectIf during Finalize.
	rejectRules []RejectRule
}

// Finalize validates the profile and resolves the free-text reject rules
// into typed rule kinds. It must be called once after decoding and before
// the profile is handed to the pipeline. A validation error here means the
// pipeline cannot run at all, as opposed to the recoverable LLM failures.
func (p *Profile) Finalize() error {
	if p == nil {
		return fmt.Errorf("candidate profile is required")
	}

	if err := validator.New().Struct(p); err != nil {
		return fmt.Errorf("invalid candidate profile: %w", err)
	}

	p.rejectRules = make([]RejectRule, 0, len(p.JobSearch.RejectIf))
	for _, text := range p.JobSearch.RejectIf {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		p.rejectRules = append(p.rejectRules, RejectRule{
			Text: text,
			Kind: ResolveRuleKind(text),
		})
	}

	return nil
}

// RejectRules returns the resolved reject rules. Finalize must have run.
func (p *Profile) RejectRules() []RejectRule {
	return p.rejectRules
}

// WantsFourDayWeek reports whether the candidate requires a 4-day work week.
func (p *Profile) WantsFourDayWeek() bool {
	return p.PreferredWorkWeek == WorkWeekFourDays
}

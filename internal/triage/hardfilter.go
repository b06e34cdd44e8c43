package triage

import (
	"errors"
	"fmt"

	"github.com/avergara/recruiter-triage/internal/profile"
)

// WorkWeekStatus is the outcome of the work-week check.
type WorkWeekStatus string

const (
	WorkWeekConfirmed    WorkWeekStatus = "CONFIRMED"
	WorkWeekNotMentioned WorkWeekStatus = "NOT_MENTIONED"
	WorkWeekFiveDay      WorkWeekStatus = "FIVE_DAY"
	WorkWeekNotRequired  WorkWeekStatus = "NOT_REQUIRED"
	WorkWeekUnknown      WorkWeekStatus = "UNKNOWN"
)

// FailureKind tags a hard-filter failure structurally so decline decisions
// never depend on the wording of the human-readable reason.
type FailureKind string

const (
	FailWorkWeek   FailureKind = "WORK_WEEK"
	FailSalary     FailureKind = "SALARY"
	FailTechStack  FailureKind = "TECH_STACK"
	FailOnsite     FailureKind = "ONSITE"
	FailRejectRule FailureKind = "REJECT_RULE"
)

// Penalties per failed check.
const (
	penaltyFiveDayWeek      = 50
	penaltyWeekNotMentioned = 30
	penaltySalaryBelowMin   = 40
	penaltyLowTechMatch     = 30
	penaltyOnsite           = 40
	penaltyRejectRule       = 50

	techMatchThresholdPct = 50.0
	declinePenaltyFloor   = 40
	maxPenalty            = 100
)

// Failure is one failed hard-filter check.
type Failure struct {
	Kind   FailureKind
	Reason string
}

// HardFilterResult aggregates the five checks. ScorePenalty is always inside
// [0, 100]. ShouldDecline is independent from Passed: certain failure kinds
// force a decline even when the numeric penalty stays under the floor.
type HardFilterResult struct {
	Failures       []Failure
	ScorePenalty   int
	Passed         bool
	ShouldDecline  bool
	WorkWeekStatus WorkWeekStatus
}

// FailureReasons returns the human-readable reasons in evaluation order.
func (r HardFilterResult) FailureReasons() []string {
	reasons := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		reasons = append(reasons, f.Reason)
	}
	return reasons
}

func (r HardFilterResult) hasKind(kind FailureKind) bool {
	for _, f := range r.Failures {
		if f.Kind == kind {
			return true
		}
	}
	return false
}

var fourDayPatterns = []string{
	"4 dias", "4-day", "4 day", "four day", "cuatro dias", "semana de 4",
	"32 horas", "32 hours", "4dw", "four-day",
}

var fiveDayPatterns = []string{
	"5 dias", "5-day", "5 day", "five day", "cinco dias", "semana de 5",
	"40 horas", "40 hours", "lunes a viernes", "monday to friday",
}

// EvaluateHardFilters runs the five veto checks against a scored job. It is
// a pure function: identical inputs always yield identical results.
func EvaluateHardFilters(job ExtractedJobData, score ScoringResult, rawText string, p *profile.Profile) HardFilterResult {
	result := HardFilterResult{WorkWeekStatus: WorkWeekUnknown}

	status, failure := checkWorkWeek(job, rawText, p)
	result.WorkWeekStatus = status
	penalty := 0
	if failure != nil {
		result.Failures = append(result.Failures, *failure)
		switch status {
		case WorkWeekFiveDay:
			penalty += penaltyFiveDayWeek
		case WorkWeekNotMentioned:
			penalty += penaltyWeekNotMentioned
		}
	}

	if failure := checkSalary(job, p); failure != nil {
		result.Failures = append(result.Failures, *failure)
		penalty += penaltySalaryBelowMin
	}

	if failure := checkTechMatch(score); failure != nil {
		result.Failures = append(result.Failures, *failure)
		penalty += penaltyLowTechMatch
	}

	if failure := checkRemotePolicy(job, p); failure != nil {
		result.Failures = append(result.Failures, *failure)
		penalty += penaltyOnsite
	}

	for _, failure := range checkRejectRules(job, rawText, p) {
		result.Failures = append(result.Failures, failure)
		penalty += penaltyRejectRule
	}

	if penalty > maxPenalty {
		penalty = maxPenalty
	}
	if penalty < 0 {
		penalty = 0
	}

	result.ScorePenalty = penalty
	result.Passed = len(result.Failures) == 0
	result.ShouldDecline = len(result.Failures) > 0 &&
		(penalty >= declinePenaltyFloor ||
			result.WorkWeekStatus == WorkWeekFiveDay ||
			result.hasKind(FailOnsite) ||
			result.hasKind(FailRejectRule))

	return result
}

// checkWorkWeek is only active when the candidate wants a 4-day week. An
// explicit 5-day mention is a hard fail; silence is a softer fail meant to
// prompt a clarifying question rather than a rejection.
func checkWorkWeek(job ExtractedJobData, rawText string, p *profile.Profile) (WorkWeekStatus, *Failure) {
	if !p.WantsFourDayWeek() {
		return WorkWeekNotRequired, nil
	}

	haystack := normalizeText(job.WorkWeek + " " + rawText)

	if containsAny(haystack, fourDayPatterns) {
		return WorkWeekConfirmed, nil
	}

	if containsAny(haystack, fiveDayPatterns) {
		return WorkWeekFiveDay, &Failure{
			Kind:   FailWorkWeek,
			Reason: "Offer requires a 5-day work week, candidate wants 4 days",
		}
	}

	return WorkWeekNotMentioned, &Failure{
		Kind:   FailWorkWeek,
		Reason: "Work week not mentioned, needs clarification before proceeding",
	}
}

// checkSalary passes when nothing was extracted: absence means ask, not
// assume. Conversion problems also pass, never propagate.
func checkSalary(job ExtractedJobData, p *profile.Profile) *Failure {
	offered := bestSalary(job)
	if offered == 0 {
		return nil
	}

	converted, err := toUSD(offered, job.Currency)
	if err != nil {
		return nil
	}

	if converted < p.MinimumSalaryUSD {
		return &Failure{
			Kind:   FailSalary,
			Reason: fmt.Sprintf("Salary below minimum: ~%d USD offered vs %d USD required", converted, p.MinimumSalaryUSD),
		}
	}

	return nil
}

// toUSD applies the rough conversions the pipeline relies on: EUR gains 10%,
// ARS figures are quoted monthly in thousands and collapse by /1000.
func toUSD(amount int, currency string) (int, error) {
	switch currency {
	case CurrencyUSD, "":
		return amount, nil
	case CurrencyEUR:
		return int(float64(amount) * 1.1), nil
	case CurrencyARS:
		return amount / 1000, nil
	default:
		return 0, errors.New("no conversion for currency " + currency)
	}
}

func checkTechMatch(score ScoringResult) *Failure {
	pct := score.TechMatchPercent()
	if pct >= techMatchThresholdPct {
		return nil
	}
	return &Failure{
		Kind:   FailTechStack,
		Reason: fmt.Sprintf("Tech stack match too low: %.0f%% (minimum %.0f%%)", pct, techMatchThresholdPct),
	}
}

// checkRemotePolicy only vetoes an explicit Onsite extraction for a
// remote-only candidate. Hybrid and Unknown get the benefit of the doubt.
func checkRemotePolicy(job ExtractedJobData, p *profile.Profile) *Failure {
	if p.PreferredRemotePolicy != profile.RemotePolicyRemote {
		return nil
	}
	if job.RemotePolicy != RemotePolicyOnsite {
		return nil
	}
	return &Failure{
		Kind:   FailOnsite,
		Reason: "Position is on-site, candidate only works remote",
	}
}

// checkRejectRules matches each resolved reject rule's vocabulary against
// the raw message and the company name. Rules resolved to the five-day or
// onsite families are skipped here; the dedicated checks above already cover
// them and matching twice would double-penalize.
func checkRejectRules(job ExtractedJobData, rawText string, p *profile.Profile) []Failure {
	haystack := normalizeText(rawText + " " + job.Company)

	var failures []Failure
	for _, rule := range p.RejectRules() {
		keywords := profile.MatchKeywords(rule.Kind)
		if len(keywords) == 0 {
			continue
		}
		if containsAny(haystack, keywords) {
			failures = append(failures, Failure{
				Kind:   FailRejectRule,
				Reason: fmt.Sprintf("Rejection criterion matched (%s): %q", rule.Kind, rule.Text),
			})
		}
	}

	return failures
}

package triage

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/avergara/recruiter-triage/internal/ai"
	"github.com/avergara/recruiter-triage/internal/profile"
)

// Tier is the coarse bucket derived from the total score.
type Tier string

const (
	TierHighPriority    Tier = "HIGH_PRIORITY"
	TierInteresante     Tier = "INTERESANTE"
	TierPocoInteresante Tier = "POCO_INTERESANTE"
	TierNoInteresa      Tier = "NO_INTERESA"
)

// Sub-score ranges.
const (
	maxTechScore      = 40
	maxSalaryScore    = 30
	maxSeniorityScore = 20
	maxCompanyScore   = 10
)

// ScoreBreakdown is one bounded sub-score with its justification.
type ScoreBreakdown struct {
	Points int
	Reason string
}

// ScoringResult is immutable once constructed; Total and Tier are derived
// from the four clamped sub-scores.
type ScoringResult struct {
	Tech      ScoreBreakdown
	Salary    ScoreBreakdown
	Seniority ScoreBreakdown
	Company   ScoreBreakdown
	Total     int
	Tier      Tier
}

// TierFor maps a total score to its tier by fixed breakpoints.
func TierFor(total int) Tier {
	switch {
	case total >= 75:
		return TierHighPriority
	case total >= 50:
		return TierInteresante
	case total >= 30:
		return TierPocoInteresante
	default:
		return TierNoInteresa
	}
}

// seniorityLadder orders the canonical buckets for distance comparisons.
var seniorityLadder = map[string]int{
	"Junior":    1,
	"Mid":       2,
	"Senior":    3,
	"Staff":     4,
	"Principal": 5,
}

// wellKnownCompanies backs the fallback company heuristic.
var wellKnownCompanies = []string{
	"google", "meta", "amazon", "microsoft", "apple", "netflix", "spotify",
	"stripe", "uber", "airbnb", "shopify", "datadog", "mercadolibre",
	"mercado libre", "globant", "despegar", "auth0",
}

// Scorer rates jobs against the candidate profile, preferring the LLM and
// degrading to deterministic heuristics.
type Scorer struct {
	assistant ai.Scorer
	logger    *zap.Logger
}

// NewScorer builds a Scorer. A nil assistant means every score comes from
// the fallback heuristics.
func NewScorer(assistant ai.Scorer, log *zap.Logger) *Scorer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scorer{assistant: assistant, logger: log}
}

// Score produces a ScoringResult. It never fails: provider errors and
// malformed payloads take the deterministic fallback path, labeled as such
// in every reason string.
func (s *Scorer) Score(ctx context.Context, job ExtractedJobData, p *profile.Profile) ScoringResult {
	if s.assistant != nil {
		scores, err := s.assistant.ScoreJob(ctx, jobPayload(job), profilePayload(p))
		if err == nil {
			return buildResult(
				ScoreBreakdown{clampScore(scores.Tech, maxTechScore), scores.TechReason},
				ScoreBreakdown{clampScore(scores.Salary, maxSalaryScore), scores.SalaryReason},
				ScoreBreakdown{clampScore(scores.Seniority, maxSeniorityScore), scores.SeniorityReason},
				ScoreBreakdown{clampScore(scores.Company, maxCompanyScore), scores.CompanyReason},
			)
		}
		s.logger.Warn("llm scoring failed, using heuristics", zap.Error(err))
	}

	return buildResult(
		fallbackTechScore(job, p),
		fallbackSalaryScore(job, p),
		fallbackSeniorityScore(job, p),
		fallbackCompanyScore(job),
	)
}

func buildResult(tech, salary, seniority, company ScoreBreakdown) ScoringResult {
	total := tech.Points + salary.Points + seniority.Points + company.Points
	return ScoringResult{
		Tech:      tech,
		Salary:    salary,
		Seniority: seniority,
		Company:   company,
		Total:     total,
		Tier:      TierFor(total),
	}
}

// clampScore validates a raw sub-score against its range. Non-numeric and
// out-of-range values collapse to the range minimum rather than being capped,
// so a provider answering "400" for a 0-40 dimension scores nothing instead
// of everything.
func clampScore(v float64, max int) int {
	if math.IsNaN(v) || v < 0 || v > float64(max) {
		return 0
	}
	return int(math.Round(v))
}

// TechMatchPercent converts the tech sub-score to its percentage of the
// range. The hard filter thresholds on this figure.
func (r ScoringResult) TechMatchPercent() float64 {
	return float64(r.Tech.Points) / float64(maxTechScore) * 100
}

func fallbackTechScore(job ExtractedJobData, p *profile.Profile) ScoreBreakdown {
	if len(job.TechStackLower) == 0 || len(p.PreferredTechnologies) == 0 {
		return ScoreBreakdown{20, "Fallback: tech stack unknown, neutral score"}
	}

	preferred := make(map[string]bool, len(p.PreferredTechnologies))
	for _, tech := range p.PreferredTechnologies {
		preferred[strings.ToLower(strings.TrimSpace(tech))] = true
	}

	matched := 0
	for _, tech := range job.TechStackLower {
		if preferred[tech] {
			matched++
		}
	}

	ratio := float64(matched) / float64(len(job.TechStackLower))
	points := int(math.Round(ratio * maxTechScore))
	return ScoreBreakdown{points, fmt.Sprintf("Fallback: %d of %d technologies match preferences", matched, len(job.TechStackLower))}
}

func fallbackSalaryScore(job ExtractedJobData, p *profile.Profile) ScoreBreakdown {
	offered := bestSalary(job)
	if offered == 0 {
		return ScoreBreakdown{15, "Fallback: salary not mentioned, neutral score"}
	}

	multiple := float64(offered) / float64(p.MinimumSalaryUSD)
	var points int
	switch {
	case multiple >= 1.5:
		points = 30
	case multiple >= 1.2:
		points = 25
	case multiple >= 1.0:
		points = 20
	case multiple >= 0.8:
		points = 10
	default:
		points = 0
	}

	return ScoreBreakdown{points, fmt.Sprintf("Fallback: offered %d vs minimum %d (%.1fx)", offered, p.MinimumSalaryUSD, multiple)}
}

// bestSalary picks the highest extracted figure, zero when absent.
func bestSalary(job ExtractedJobData) int {
	if job.SalaryMax != nil {
		return *job.SalaryMax
	}
	if job.SalaryMin != nil {
		return *job.SalaryMin
	}
	return 0
}

func fallbackSeniorityScore(job ExtractedJobData, p *profile.Profile) ScoreBreakdown {
	jobLevel, okJob := seniorityLadder[job.Seniority]
	ownLevel, okOwn := seniorityLadder[p.CurrentSeniority]
	if !okJob || !okOwn {
		return ScoreBreakdown{10, "Fallback: seniority unknown, neutral score"}
	}

	switch distance := jobLevel - ownLevel; {
	case distance == 0:
		return ScoreBreakdown{20, "Fallback: exact seniority match"}
	case distance == 1:
		return ScoreBreakdown{18, "Fallback: one level up, a promotion"}
	case distance == -1:
		return ScoreBreakdown{15, "Fallback: one level down"}
	case distance < 0:
		return ScoreBreakdown{5, "Fallback: role is too junior"}
	default:
		return ScoreBreakdown{10, "Fallback: role is too senior"}
	}
}

func fallbackCompanyScore(job ExtractedJobData) ScoreBreakdown {
	lowered := strings.ToLower(job.Company)
	if lowered != "" {
		for _, known := range wellKnownCompanies {
			if strings.Contains(lowered, known) {
				return ScoreBreakdown{10, "Fallback: well-known company"}
			}
		}
	}
	return ScoreBreakdown{5, "Fallback: company not recognized, neutral score"}
}

func jobPayload(job ExtractedJobData) map[string]any {
	return map[string]any{
		"company":       job.Company,
		"role_title":    job.RoleTitle,
		"seniority":     job.Seniority,
		"tech_stack":    job.TechStack,
		"salary_min":    job.SalaryMin,
		"salary_max":    job.SalaryMax,
		"currency":      job.Currency,
		"remote_policy": job.RemotePolicy,
		"location":      job.Location,
		"work_week":     job.WorkWeek,
	}
}

// profilePayload flattens the profile into the generic payload the scoring
// prompt receives, reusing the profile's own mapstructure tags as keys.
func profilePayload(p *profile.Profile) map[string]any {
	payload := make(map[string]any)
	mapstructure.Decode(p, &payload)
	return payload
}

package triage

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/avergara/recruiter-triage/internal/ai"
)

// Canonical sentinel for attributes the message did not mention.
const Unknown = "Unknown"

// Currency codes the salary parser recognizes.
const (
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
	CurrencyARS = "ARS"
)

// Canonical remote policy labels.
const (
	RemotePolicyRemote = "Remote"
	RemotePolicyHybrid = "Hybrid"
	RemotePolicyOnsite = "Onsite"
)

// ExtractedJobData is the canonical, normalized view of a job offer.
// Instances are immutable once produced by NormalizeExtraction.
type ExtractedJobData struct {
	Company   string
	RoleTitle string
	// Seniority is one of the canonical buckets or Unknown.
	Seniority string
	// TechStack preserves the original casing for display.
	TechStack []string
	// TechStackLower is the lowercase shadow of TechStack used for every
	// comparison.
	TechStackLower []string
	SalaryMin      *int
	SalaryMax      *int
	Currency       string
	// RemotePolicy is Remote, Hybrid, Onsite or Unknown.
	RemotePolicy string
	Location     string
	// WorkWeek keeps the extracted work-week text as written, empty when
	// nothing was mentioned.
	WorkWeek string
}

// seniorityBuckets are checked by substring in priority order; the first
// match wins. Mid goes last so "mid-senior" resolves to Senior.
var seniorityBuckets = []string{"Junior", "Senior", "Staff", "Principal", "Mid"}

var remotePolicies = []struct {
	label    string
	keywords []string
}{
	{RemotePolicyRemote, []string{"remote", "remoto", "teletrabajo", "home office", "work from home", "anywhere"}},
	{RemotePolicyHybrid, []string{"hybrid", "hibrido", "mixto"}},
	{RemotePolicyOnsite, []string{"onsite", "on-site", "on site", "presencial", "in office", "oficina"}},
}

var (
	digitRunPattern     = regexp.MustCompile(`\d+`)
	thousandsSeparators = regexp.MustCompile(`(\d)[.,](\d{3})\b`)
)

// NormalizeExtraction turns raw extraction output into ExtractedJobData. It
// is total: missing, free-form or unparsable input degrades to the Unknown
// sentinels, never to an error.
func NormalizeExtraction(ext *ai.Extraction) ExtractedJobData {
	if ext == nil {
		ext = &ai.Extraction{}
	}

	job := ExtractedJobData{
		Company:      cleanField(ext.Company),
		RoleTitle:    cleanField(ext.RoleTitle),
		Seniority:    normalizeSeniority(ext.Seniority),
		RemotePolicy: normalizeRemotePolicy(ext.RemotePolicy),
		Location:     cleanField(ext.Location),
		WorkWeek:     cleanField(ext.WorkWeek),
	}

	job.TechStack, job.TechStackLower = parseTechStack(ext.TechStack)
	job.SalaryMin, job.SalaryMax, job.Currency = parseSalary(ext.Salary)

	return job
}

// cleanField trims the input and collapses "Not mentioned"/"Unknown" style
// sentinels to the empty string.
func cleanField(s string) string {
	s = strings.TrimSpace(s)
	if isNotMentioned(s) {
		return ""
	}
	return s
}

func isNotMentioned(s string) bool {
	lowered := strings.ToLower(s)
	return s == "" || strings.Contains(lowered, "not mentioned") || strings.Contains(lowered, "no mencionado") || lowered == "unknown" || lowered == "n/a"
}

// parseSalary pulls up to two digit runs out of a free-form salary string.
// Two runs become (min, max), one becomes (min, nil), none or an explicit
// "not mentioned" become (nil, nil). Thousands separators are collapsed
// first so "100.000" is a single run.
func parseSalary(raw string) (min, max *int, currency string) {
	currency = CurrencyUSD

	raw = strings.TrimSpace(raw)
	if isNotMentioned(raw) {
		return nil, nil, currency
	}

	lowered := strings.ToLower(raw)
	switch {
	case strings.Contains(lowered, "eur") || strings.Contains(raw, "€"):
		currency = CurrencyEUR
	case strings.Contains(lowered, "ars") || strings.Contains(lowered, "pesos") || strings.Contains(lowered, "$ar"):
		currency = CurrencyARS
	}

	collapsed := raw
	for thousandsSeparators.MatchString(collapsed) {
		collapsed = thousandsSeparators.ReplaceAllString(collapsed, "$1$2")
	}

	runs := digitRunPattern.FindAllString(collapsed, -1)
	values := make([]int, 0, 2)
	for _, run := range runs {
		n, err := strconv.Atoi(run)
		if err != nil {
			continue
		}
		values = append(values, n)
		if len(values) == 2 {
			break
		}
	}

	switch len(values) {
	case 0:
		return nil, nil, currency
	case 1:
		return &values[0], nil, currency
	default:
		return &values[0], &values[1], currency
	}
}

// parseTechStack splits a comma-separated technology list, trimming entries
// and dropping empties and duplicates. The second return value carries the
// lowercase variant used for comparisons.
func parseTechStack(raw string) (display, lowered []string) {
	raw = strings.TrimSpace(raw)
	if isNotMentioned(raw) {
		return nil, nil
	}

	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || isNotMentioned(part) {
			continue
		}
		key := strings.ToLower(part)
		if seen[key] {
			continue
		}
		seen[key] = true
		display = append(display, part)
		lowered = append(lowered, key)
	}

	return display, lowered
}

func normalizeSeniority(raw string) string {
	raw = strings.TrimSpace(raw)
	if isNotMentioned(raw) {
		return Unknown
	}

	lowered := strings.ToLower(raw)
	for _, bucket := range seniorityBuckets {
		if strings.Contains(lowered, strings.ToLower(bucket)) {
			return bucket
		}
	}

	return Unknown
}

func normalizeRemotePolicy(raw string) string {
	raw = strings.TrimSpace(raw)
	if isNotMentioned(raw) {
		return Unknown
	}

	normalized := normalizeText(raw)
	for _, policy := range remotePolicies {
		if containsAny(normalized, policy.keywords) {
			return policy.label
		}
	}

	return Unknown
}

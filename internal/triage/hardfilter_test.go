package triage

import (
	"reflect"
	"testing"

	"github.com/avergara/recruiter-triage/internal/profile"
)

func intPtr(n int) *int { return &n }

func fourDayProfile() *profile.Profile {
	p := testProfile()
	p.PreferredWorkWeek = profile.WorkWeekFourDays
	if err := p.Finalize(); err != nil {
		panic(err)
	}
	return p
}

func passingScore() ScoringResult {
	return ScoringResult{Tech: ScoreBreakdown{Points: 35}}
}

func TestWorkWeekNotRequired(t *testing.T) {
	t.Parallel()

	// Any message content passes when the candidate does not want 4 days.
	messages := []string{
		"", "trabajamos 5 dias, lunes a viernes", "40 hours per week",
	}

	for _, msg := range messages {
		got := EvaluateHardFilters(ExtractedJobData{}, passingScore(), msg, testProfile())
		if got.WorkWeekStatus != WorkWeekNotRequired {
			t.Fatalf("message %q: expected NOT_REQUIRED, got %s", msg, got.WorkWeekStatus)
		}
		if !got.Passed {
			t.Fatalf("message %q: expected pass, got %+v", msg, got)
		}
	}
}

func TestWorkWeekConfirmed(t *testing.T) {
	t.Parallel()

	got := EvaluateHardFilters(ExtractedJobData{}, passingScore(), "Trabajamos semana de 4 días", fourDayProfile())
	if got.WorkWeekStatus != WorkWeekConfirmed {
		t.Fatalf("expected CONFIRMED, got %s", got.WorkWeekStatus)
	}
	if !got.Passed || got.ShouldDecline {
		t.Fatalf("expected clean pass, got %+v", got)
	}
}

func TestWorkWeekFiveDayForcesDecline(t *testing.T) {
	t.Parallel()

	got := EvaluateHardFilters(ExtractedJobData{}, passingScore(), "Full time, 40 horas de lunes a viernes", fourDayProfile())
	if got.WorkWeekStatus != WorkWeekFiveDay {
		t.Fatalf("expected FIVE_DAY, got %s", got.WorkWeekStatus)
	}
	if got.ScorePenalty != 50 {
		t.Fatalf("expected penalty 50, got %d", got.ScorePenalty)
	}
	if !got.ShouldDecline {
		t.Fatal("an explicit 5-day week must force a decline")
	}
}

func TestWorkWeekNotMentionedIsSoftFailure(t *testing.T) {
	t.Parallel()

	got := EvaluateHardFilters(ExtractedJobData{}, passingScore(), "Buscamos un Senior Go developer", fourDayProfile())
	if got.WorkWeekStatus != WorkWeekNotMentioned {
		t.Fatalf("expected NOT_MENTIONED, got %s", got.WorkWeekStatus)
	}
	if got.ScorePenalty != 30 {
		t.Fatalf("expected penalty 30, got %d", got.ScorePenalty)
	}
	if got.Passed {
		t.Fatal("expected a failed check")
	}
	if got.ShouldDecline {
		t.Fatal("a missing work-week mention alone must not force a decline")
	}
}

func TestSalaryCheck(t *testing.T) {
	t.Parallel()

	p := testProfile() // minimum 80000 USD

	tests := []struct {
		name    string
		job     ExtractedJobData
		fail    bool
		decline bool
	}{
		{
			name: "above minimum",
			job:  ExtractedJobData{SalaryMin: intPtr(100000), SalaryMax: intPtr(150000), Currency: CurrencyUSD},
		},
		{
			name:    "below minimum",
			job:     ExtractedJobData{SalaryMax: intPtr(60000), Currency: CurrencyUSD},
			fail:    true,
			decline: true, // penalty 40 reaches the floor
		},
		{
			name: "eur conversion rescues a borderline offer",
			job:  ExtractedJobData{SalaryMax: intPtr(75000), Currency: CurrencyEUR}, // 82500 USD
		},
		{
			name: "ars heuristic",
			job:  ExtractedJobData{SalaryMax: intPtr(90000000), Currency: CurrencyARS}, // 90000 USD
		},
		{
			name:    "ars heuristic below minimum",
			job:     ExtractedJobData{SalaryMax: intPtr(50000000), Currency: CurrencyARS}, // 50000 USD
			fail:    true,
			decline: true,
		},
		{
			name: "unknown currency skips the check",
			job:  ExtractedJobData{SalaryMax: intPtr(100), Currency: "GBP"},
		},
		{
			name: "absent salary passes",
			job:  ExtractedJobData{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := EvaluateHardFilters(tt.job, passingScore(), "", p)
			if tt.fail == got.Passed {
				t.Fatalf("expected fail=%v, got %+v", tt.fail, got)
			}
			if tt.decline != got.ShouldDecline {
				t.Fatalf("expected decline=%v, got %+v", tt.decline, got)
			}
		})
	}
}

func TestTechMatchThreshold(t *testing.T) {
	t.Parallel()

	p := testProfile()

	// 35/40 = 87.5% passes.
	got := EvaluateHardFilters(ExtractedJobData{}, ScoringResult{Tech: ScoreBreakdown{Points: 35}}, "", p)
	if !got.Passed {
		t.Fatalf("expected pass at 87.5%%, got %+v", got)
	}

	// 19/40 = 47.5% fails, penalty 30, no forced decline.
	got = EvaluateHardFilters(ExtractedJobData{}, ScoringResult{Tech: ScoreBreakdown{Points: 19}}, "", p)
	if got.Passed {
		t.Fatal("expected the tech check to fail below 50%")
	}
	if got.ScorePenalty != 30 {
		t.Fatalf("expected penalty 30, got %d", got.ScorePenalty)
	}
	if got.ShouldDecline {
		t.Fatal("a low tech match alone must not force a decline")
	}
	if !got.hasKind(FailTechStack) {
		t.Fatal("expected a TECH_STACK failure kind")
	}
}

func TestRemotePolicyCheck(t *testing.T) {
	t.Parallel()

	p := testProfile() // wants Remote

	// Onsite is vetoed and forces a decline by category.
	got := EvaluateHardFilters(ExtractedJobData{RemotePolicy: RemotePolicyOnsite}, passingScore(), "", p)
	if got.Passed {
		t.Fatal("expected the remote check to fail for onsite")
	}
	if !got.ShouldDecline {
		t.Fatal("onsite must force a decline")
	}
	if !got.hasKind(FailOnsite) {
		t.Fatal("expected an ONSITE failure kind")
	}

	// Hybrid and Unknown get the benefit of the doubt.
	for _, policy := range []string{RemotePolicyHybrid, Unknown} {
		got := EvaluateHardFilters(ExtractedJobData{RemotePolicy: policy}, passingScore(), "", p)
		if !got.Passed {
			t.Fatalf("policy %s: expected pass, got %+v", policy, got)
		}
	}

	// A hybrid-preferring candidate never triggers the check.
	hybrid := testProfile()
	hybrid.PreferredRemotePolicy = profile.RemotePolicyHybrid
	got = EvaluateHardFilters(ExtractedJobData{RemotePolicy: RemotePolicyOnsite}, passingScore(), "", hybrid)
	if !got.Passed {
		t.Fatalf("expected pass for non-remote-only candidate, got %+v", got)
	}
}

func TestRejectRulesCheck(t *testing.T) {
	t.Parallel()

	p := testProfile()
	p.JobSearch.RejectIf = []string{"no consulting agencies", "nothing crypto", "no pre-seed startups"}
	if err := p.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	// Agency vocabulary in the message matches the agency rule.
	got := EvaluateHardFilters(ExtractedJobData{Company: "TalentHub"}, passingScore(), "Somos una consultora de staffing", p)
	if !got.hasKind(FailRejectRule) {
		t.Fatalf("expected a REJECT_RULE failure, got %+v", got)
	}
	if !got.ShouldDecline {
		t.Fatal("a matched rejection criterion must force a decline")
	}

	// Company name alone can match.
	got = EvaluateHardFilters(ExtractedJobData{Company: "CryptoPay Exchange"}, passingScore(), "great fintech role", p)
	if !got.hasKind(FailRejectRule) {
		t.Fatalf("expected crypto rule match on company name, got %+v", got)
	}

	// Clean messages pass.
	got = EvaluateHardFilters(ExtractedJobData{Company: "Acme"}, passingScore(), "Senior Go role at a product company", p)
	if got.hasKind(FailRejectRule) {
		t.Fatalf("unexpected reject-rule failure: %+v", got)
	}
}

func TestPenaltyClampsAtOneHundred(t *testing.T) {
	t.Parallel()

	p := fourDayProfile()
	p.JobSearch.RejectIf = []string{"no agencies", "no crypto"}
	if err := p.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	// 5-day week (50) + low salary (40) + low tech (30) + onsite (40) +
	// two reject rules (100) saturate far above the cap.
	job := ExtractedJobData{
		Company:      "Blockchain Staffing Agencia",
		SalaryMax:    intPtr(40000),
		Currency:     CurrencyUSD,
		RemotePolicy: RemotePolicyOnsite,
	}
	got := EvaluateHardFilters(job, ScoringResult{}, "Consultora crypto, 40 horas lunes a viernes presencial", p)

	if got.ScorePenalty != 100 {
		t.Fatalf("expected penalty clamped to 100, got %d", got.ScorePenalty)
	}
	if !got.ShouldDecline {
		t.Fatal("expected a decline")
	}
	if len(got.Failures) < 5 {
		t.Fatalf("expected at least 5 failures, got %d", len(got.Failures))
	}
}

func TestHardFilterIdempotent(t *testing.T) {
	t.Parallel()

	p := fourDayProfile()
	job := ExtractedJobData{Company: "Acme", SalaryMax: intPtr(100000), Currency: CurrencyUSD}

	first := EvaluateHardFilters(job, passingScore(), "some message", p)
	second := EvaluateHardFilters(job, passingScore(), "some message", p)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("hard filter is not idempotent: %+v vs %+v", first, second)
	}
}

func TestToUSD(t *testing.T) {
	t.Parallel()

	if got, err := toUSD(100000, CurrencyEUR); err != nil || got != 110000 {
		t.Fatalf("expected 110000, got %d (%v)", got, err)
	}
	if got, err := toUSD(90000000, CurrencyARS); err != nil || got != 90000 {
		t.Fatalf("expected 90000, got %d (%v)", got, err)
	}
	if _, err := toUSD(1, "JPY"); err == nil {
		t.Fatal("expected an error for an unsupported currency")
	}
}

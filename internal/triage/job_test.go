package triage

import (
	"reflect"
	"testing"

	"github.com/avergara/recruiter-triage/internal/ai"
)

func TestParseSalary(t *testing.T) {
	t.Parallel()

	intPtr := func(n int) *int { return &n }

	tests := []struct {
		name     string
		input    string
		min      *int
		max      *int
		currency string
	}{
		{
			name:     "range with dash",
			input:    "100000-150000 USD",
			min:      intPtr(100000),
			max:      intPtr(150000),
			currency: "USD",
		},
		{
			name:     "range with thousands separators",
			input:    "$100,000 - $150,000",
			min:      intPtr(100000),
			max:      intPtr(150000),
			currency: "USD",
		},
		{
			name:     "single figure",
			input:    "up to 90000",
			min:      intPtr(90000),
			max:      nil,
			currency: "USD",
		},
		{
			name:     "euro symbol",
			input:    "€60.000 - €80.000",
			min:      intPtr(60000),
			max:      intPtr(80000),
			currency: "EUR",
		},
		{
			name:     "argentine pesos",
			input:    "ARS 5.000.000 mensuales",
			min:      intPtr(5000000),
			max:      nil,
			currency: "ARS",
		},
		{
			name:     "not mentioned literal",
			input:    "Not Mentioned",
			min:      nil,
			max:      nil,
			currency: "USD",
		},
		{
			name:     "no digits",
			input:    "competitive salary",
			min:      nil,
			max:      nil,
			currency: "USD",
		},
		{
			name:     "empty",
			input:    "",
			min:      nil,
			max:      nil,
			currency: "USD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			min, max, currency := parseSalary(tt.input)
			if !equalIntPtr(min, tt.min) {
				t.Fatalf("min: expected %v, got %v", deref(tt.min), deref(min))
			}
			if !equalIntPtr(max, tt.max) {
				t.Fatalf("max: expected %v, got %v", deref(tt.max), deref(max))
			}
			if currency != tt.currency {
				t.Fatalf("currency: expected %s, got %s", tt.currency, currency)
			}
		})
	}
}

func TestParseTechStackDeduplicates(t *testing.T) {
	t.Parallel()

	display, lowered := parseTechStack("Go, PostgreSQL, go , , Kafka,POSTGRESQL")
	if !reflect.DeepEqual(display, []string{"Go", "PostgreSQL", "Kafka"}) {
		t.Fatalf("unexpected display list: %v", display)
	}
	if !reflect.DeepEqual(lowered, []string{"go", "postgresql", "kafka"}) {
		t.Fatalf("unexpected lowered list: %v", lowered)
	}
}

func TestNormalizeSeniority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		expect string
	}{
		{"Senior Backend Engineer", "Senior"},
		{"Sr. / senior", "Senior"},
		{"junior dev", "Junior"},
		{"Staff Engineer", "Staff"},
		{"Principal", "Principal"},
		{"Semi Senior", "Senior"}, // Senior precedes Mid in bucket priority
		{"Mid-level", "Mid"},
		{"architect", Unknown},
		{"Not mentioned", Unknown},
		{"", Unknown},
	}

	for _, tt := range tests {
		if got := normalizeSeniority(tt.input); got != tt.expect {
			t.Fatalf("normalizeSeniority(%q): expected %s, got %s", tt.input, tt.expect, got)
		}
	}
}

func TestNormalizeRemotePolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		expect string
	}{
		{"100% Remote", RemotePolicyRemote},
		{"remoto desde cualquier lugar", RemotePolicyRemote},
		{"Esquema híbrido, 2 días en oficina", RemotePolicyHybrid},
		{"hibrido", RemotePolicyHybrid},
		{"trabajo presencial", RemotePolicyOnsite},
		{"On-site in Berlin", RemotePolicyOnsite},
		{"flexible", Unknown},
		{"Not mentioned", Unknown},
	}

	for _, tt := range tests {
		if got := normalizeRemotePolicy(tt.input); got != tt.expect {
			t.Fatalf("normalizeRemotePolicy(%q): expected %s, got %s", tt.input, tt.expect, got)
		}
	}
}

func TestNormalizeExtractionNeverFails(t *testing.T) {
	t.Parallel()

	// A nil extraction degrades to an all-unknown record.
	job := NormalizeExtraction(nil)
	if job.Seniority != Unknown || job.RemotePolicy != Unknown {
		t.Fatalf("expected unknown sentinels, got %+v", job)
	}
	if job.SalaryMin != nil || job.SalaryMax != nil {
		t.Fatal("expected absent salary")
	}
	if job.Currency != CurrencyUSD {
		t.Fatalf("expected default currency, got %s", job.Currency)
	}
}

func TestNormalizeExtractionFull(t *testing.T) {
	t.Parallel()

	job := NormalizeExtraction(&ai.Extraction{
		Company:      " Acme ",
		RoleTitle:    "Backend Engineer",
		Seniority:    "Senior",
		TechStack:    "Go, Kafka",
		Salary:       "USD 100000 - 150000",
		RemotePolicy: "fully remote",
		Location:     "Not mentioned",
		WorkWeek:     "40 horas, lunes a viernes",
	})

	if job.Company != "Acme" {
		t.Fatalf("unexpected company: %q", job.Company)
	}
	if job.Location != "" {
		t.Fatalf("expected empty location, got %q", job.Location)
	}
	if job.WorkWeek != "40 horas, lunes a viernes" {
		t.Fatalf("unexpected work week: %q", job.WorkWeek)
	}
	if *job.SalaryMin != 100000 || *job.SalaryMax != 150000 {
		t.Fatalf("unexpected salary: %v %v", *job.SalaryMin, *job.SalaryMax)
	}
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func deref(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

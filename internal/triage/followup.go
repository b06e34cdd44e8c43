package triage

import (
	"fmt"

	"github.com/avergara/recruiter-triage/internal/profile"
)

// QuestionKind categorizes what a follow-up message is asking about.
type QuestionKind string

const (
	QuestionSalary       QuestionKind = "SALARY"
	QuestionTech         QuestionKind = "TECH"
	QuestionAvailability QuestionKind = "AVAILABILITY"
	QuestionInterview    QuestionKind = "INTERVIEW"
	QuestionOther        QuestionKind = "OTHER"
)

// FollowUpAnalysis is the follow-up branch result. AutoRespond is true only
// for question kinds whose answer is deterministic from the profile; every
// other kind goes to manual review.
type FollowUpAnalysis struct {
	Kind        QuestionKind
	AutoRespond bool
	Reasoning   string
}

var questionKinds = []struct {
	kind     QuestionKind
	keywords []string
}{
	{QuestionSalary, []string{
		"salario", "sueldo", "pretension", "pretensiones", "remuneracion",
		"expectativa salarial", "salary", "compensation", "rate", "expectations",
	}},
	{QuestionAvailability, []string{
		"disponibilidad", "cuando podrias", "cuando podes", "fecha de inicio",
		"available", "availability", "start date", "notice period", "when can you",
	}},
	{QuestionInterview, []string{
		"entrevista", "agendar", "coordinar una llamada", "interview",
		"schedule", "meeting", "call", "hablar por telefono",
	}},
	{QuestionTech, []string{
		"stack", "tecnologia", "experiencia con", "anos de experiencia",
		"experience with", "years of experience", "skills",
	}},
}

// AnalyzeFollowUp categorizes a follow-up question by keyword matching over
// the normalized text. Salary and availability questions can be answered
// straight from the profile; the rest need a human.
func AnalyzeFollowUp(text string, p *profile.Profile) FollowUpAnalysis {
	normalized := normalizeText(text)

	for _, candidate := range questionKinds {
		if !containsAny(normalized, candidate.keywords) {
			continue
		}

		auto := candidate.kind == QuestionSalary || candidate.kind == QuestionAvailability
		reasoning := fmt.Sprintf("Follow-up asks about %s", candidate.kind)
		if auto && p == nil {
			auto = false
			reasoning += ", but no profile is available to answer from"
		}

		return FollowUpAnalysis{Kind: candidate.kind, AutoRespond: auto, Reasoning: reasoning}
	}

	return FollowUpAnalysis{
		Kind:      QuestionOther,
		Reasoning: "Follow-up question not recognized, routing to manual review",
	}
}

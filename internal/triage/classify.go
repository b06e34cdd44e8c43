package triage

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/avergara/recruiter-triage/internal/ai"
)

// ConversationState is the terminal classification of an inbound message.
type ConversationState string

const (
	StateNewOpportunity ConversationState = "NEW_OPPORTUNITY"
	StateFollowUp       ConversationState = "FOLLOW_UP"
	StateCourtesyClose  ConversationState = "COURTESY_CLOSE"
)

// Confidence labels how sure the classifier is about a state.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// ConversationStateResult is created once per inbound message and never
// mutated. ShouldProcess is false only for courtesy closes.
type ConversationStateResult struct {
	State              ConversationState
	Confidence         Confidence
	ContainsJobDetails bool
	ShouldProcess      bool
	Reasoning          string
}

// courtesyThanks and courtesyClosers are matched against whole clauses of
// the normalized message, never substrings, so a job offer that happens to
// end with "gracias" does not short-circuit the pipeline.
var courtesyThanks = []string{
	"gracias", "muchas gracias", "mil gracias", "ok", "oka", "okey", "dale",
	"genial", "perfecto", "barbaro", "buenisimo", "listo", "de acuerdo",
	"entendido", "igualmente", "thanks", "thank you", "thanks a lot",
	"many thanks", "thx", "ty", "sounds good", "great", "perfect", "awesome",
	"got it", "understood", "noted", "will do", "no problem",
}

var courtesyClosers = []string{
	"quedamos en contacto", "estamos en contacto", "seguimos en contacto",
	"quedamos asi", "quedo atento", "quedo atenta", "nos vemos", "saludos",
	"un saludo", "exitos", "suerte", "que tengas buen dia",
	"que estes bien", "have a great day", "have a good one", "talk soon",
	"speak soon", "take care", "all the best", "regards", "best regards",
	"good luck",
}

var courtesyGreetings = []string{
	"hola", "buenas", "buen dia", "buenos dias", "buenas tardes",
	"buenas noches", "hi", "hey", "hello", "good morning", "good afternoon",
}

var clauseSplitter = func(r rune) bool {
	switch r {
	case ',', '.', '!', '?', ';', ':', '\n':
		return true
	}
	return false
}

// isCourtesyClose implements the zero-cost fast path. The message is split
// into clauses on punctuation; it is a courtesy close when every clause is a
// known greeting, thanks or closing phrase and at least one clause actually
// thanks or closes. Anything else, including offer text that merely contains
// a courtesy word, falls through to the LLM classifier.
func isCourtesyClose(text string) bool {
	normalized := normalizeText(text)
	if normalized == "" {
		return false
	}

	sawCourtesy := false
	for _, clause := range strings.FieldsFunc(normalized, clauseSplitter) {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}

		switch {
		case inPhraseSet(clause, courtesyThanks), inPhraseSet(clause, courtesyClosers):
			sawCourtesy = true
		case inPhraseSet(clause, courtesyGreetings):
			// a greeting alone is not enough
		case isGreetingPrefixedCourtesy(clause):
			// "hola gracias" arrives as one clause when no punctuation
			// separates the greeting from the thanks
			sawCourtesy = true
		default:
			return false
		}
	}

	return sawCourtesy
}

func inPhraseSet(clause string, phrases []string) bool {
	for _, phrase := range phrases {
		if clause == phrase {
			return true
		}
	}
	return false
}

func isGreetingPrefixedCourtesy(clause string) bool {
	for _, greeting := range courtesyGreetings {
		rest, ok := strings.CutPrefix(clause, greeting+" ")
		if !ok {
			continue
		}
		rest = strings.TrimSpace(rest)
		if inPhraseSet(rest, courtesyThanks) || inPhraseSet(rest, courtesyClosers) {
			return true
		}
	}
	return false
}

// Classifier decides the conversation state of a message, trying the
// deterministic fast path before delegating to the LLM.
type Classifier struct {
	assistant ai.Classifier
	logger    *zap.Logger
}

// NewClassifier builds a Classifier. A nil assistant is allowed; every
// non-fast-path message then takes the fallback result.
func NewClassifier(assistant ai.Classifier, log *zap.Logger) *Classifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Classifier{assistant: assistant, logger: log}
}

// Classify returns the conversation state for the message. It never fails:
// LLM errors and malformed responses degrade to a low-confidence
// NEW_OPPORTUNITY so the message still gets evaluated.
func (c *Classifier) Classify(ctx context.Context, sender, text string) ConversationStateResult {
	if isCourtesyClose(text) {
		c.logger.Debug("courtesy close detected by fast path", zap.String("sender", sender))
		return ConversationStateResult{
			State:              StateCourtesyClose,
			Confidence:         ConfidenceHigh,
			ContainsJobDetails: false,
			ShouldProcess:      false,
			Reasoning:          "Courtesy phrase matched, no action needed",
		}
	}

	if c.assistant == nil {
		return c.fallback("no classifier is configured")
	}

	classification, err := c.assistant.ClassifyMessage(ctx, sender, text)
	if err != nil {
		c.logger.Warn("llm classification failed", zap.String("sender", sender), zap.Error(err))
		return c.fallback(err.Error())
	}

	state, ok := parseState(classification.State)
	if !ok {
		c.logger.Warn("llm classification returned unknown state",
			zap.String("sender", sender),
			zap.String("state", classification.State),
		)
		return c.fallback("unknown state " + classification.State)
	}

	return ConversationStateResult{
		State:              state,
		Confidence:         parseConfidence(classification.Confidence),
		ContainsJobDetails: classification.ContainsJobDetails,
		ShouldProcess:      state != StateCourtesyClose,
		Reasoning:          classification.Reasoning,
	}
}

// fallback treats the message as a new opportunity so a failing provider
// never drops a potentially valuable offer on the floor.
func (c *Classifier) fallback(reason string) ConversationStateResult {
	return ConversationStateResult{
		State:              StateNewOpportunity,
		Confidence:         ConfidenceLow,
		ContainsJobDetails: true,
		ShouldProcess:      true,
		Reasoning:          "Fallback: classifier unavailable (" + reason + ")",
	}
}

func parseState(raw string) (ConversationState, bool) {
	switch ConversationState(strings.ToUpper(strings.TrimSpace(raw))) {
	case StateNewOpportunity:
		return StateNewOpportunity, true
	case StateFollowUp:
		return StateFollowUp, true
	case StateCourtesyClose:
		return StateCourtesyClose, true
	default:
		return "", false
	}
}

func parseConfidence(raw string) Confidence {
	switch Confidence(strings.ToUpper(strings.TrimSpace(raw))) {
	case ConfidenceHigh:
		return ConfidenceHigh
	case ConfidenceMedium:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

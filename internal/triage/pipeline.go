package triage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/avergara/recruiter-triage/internal/ai"
	"github.com/avergara/recruiter-triage/internal/inbox"
	"github.com/avergara/recruiter-triage/internal/logger"
	"github.com/avergara/recruiter-triage/internal/metrics"
	"github.com/avergara/recruiter-triage/internal/profile"
)

// Decision is the terminal state the pipeline reaches for one message.
type Decision string

const (
	DecisionIgnored       Decision = "IGNORED"
	DecisionAutoResponded Decision = "AUTO_RESPONDED"
	DecisionManualReview  Decision = "MANUAL_REVIEW"
	DecisionDeclined      Decision = "DECLINED"
	DecisionProcessed     Decision = "PROCESSED"
)

// Response source labels, kept on the outcome so operators can tell an
// LLM-drafted reply from a deterministic template.
const (
	ResponseSourceLLM      = "llm"
	ResponseSourceTemplate = "template"
	ResponseSourceNone     = "none"
)

// ErrProfileRequired is returned when the pipeline is built without a valid
// candidate profile. Unlike LLM failures this is fatal: nothing can be
// scored without a profile.
var ErrProfileRequired = errors.New("candidate profile is required")

// Outcome is the terminal result for one message. Pointers stay nil for the
// stages a message never reached.
type Outcome struct {
	Message        inbox.Message
	Classification ConversationStateResult
	Job            *ExtractedJobData
	Score          *ScoringResult
	HardFilter     *HardFilterResult
	FollowUp       *FollowUpAnalysis
	Decision       Decision

	// ResponseText is empty when the decision produces no reply;
	// ResponseSource then says "none".
	ResponseText   string
	ResponseSource string

	RequiresManualReview bool
	ManualReviewReason   string

	Elapsed time.Duration
}

// Pipeline evaluates inbound messages end to end. It holds no mutable state
// of its own, so one instance may process messages concurrently.
type Pipeline struct {
	profile    *profile.Profile
	assistant  ai.Assistant
	classifier *Classifier
	scorer     *Scorer
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewPipeline builds a Pipeline. The assistant and metrics may be nil; the
// profile must be finalized and is required.
func NewPipeline(p *profile.Profile, assistant ai.Assistant, log *zap.Logger, m *metrics.Metrics) (*Pipeline, error) {
	if p == nil {
		return nil, ErrProfileRequired
	}
	if log == nil {
		log = zap.NewNop()
	}

	var classifierBackend ai.Classifier
	var scorerBackend ai.Scorer
	if assistant != nil {
		classifierBackend = assistant
		scorerBackend = assistant
	}

	return &Pipeline{
		profile:    p,
		assistant:  assistant,
		classifier: NewClassifier(classifierBackend, log),
		scorer:     NewScorer(scorerBackend, log),
		logger:     log,
		metrics:    m,
	}, nil
}

// Process evaluates one message and returns its terminal outcome. LLM
// failures never surface as errors; the only error conditions are caller
// cancellation between stages.
func (pl *Pipeline) Process(ctx context.Context, msg inbox.Message) (*Outcome, error) {
	start := time.Now()

	outcome := &Outcome{ResponseSource: ResponseSourceNone}
	outcome.Message = msg

	outcome.Classification = pl.classifier.Classify(ctx, msg.Sender, msg.Text)
	pl.noteFallback("classification", outcome.Classification.Reasoning)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch outcome.Classification.State {
	case StateCourtesyClose:
		outcome.Decision = DecisionIgnored
	case StateFollowUp:
		pl.processFollowUp(ctx, msg, outcome)
	default:
		if err := pl.processOpportunity(ctx, msg, outcome); err != nil {
			return nil, err
		}
	}

	if isFallbackReason(outcome.Classification.Reasoning) && !outcome.RequiresManualReview {
		outcome.RequiresManualReview = true
		outcome.ManualReviewReason = "Classification ran degraded, double-check the outcome"
	}

	outcome.Elapsed = time.Since(start)
	pl.metrics.ObserveDecision(string(outcome.Decision))
	pl.metrics.ObserveProcessing(outcome.Elapsed.Seconds())

	pl.logger.Info("message evaluated",
		zap.String(logger.FieldSender, msg.Sender),
		zap.String("state", string(outcome.Classification.State)),
		zap.String(logger.FieldDecision, string(outcome.Decision)),
		zap.Bool("manual_review", outcome.RequiresManualReview),
		zap.Duration("elapsed", outcome.Elapsed),
	)

	return outcome, nil
}

func (pl *Pipeline) processFollowUp(ctx context.Context, msg inbox.Message, outcome *Outcome) {
	analysis := AnalyzeFollowUp(msg.Text, pl.profile)
	outcome.FollowUp = &analysis

	if !analysis.AutoRespond {
		outcome.Decision = DecisionManualReview
		outcome.RequiresManualReview = true
		outcome.ManualReviewReason = analysis.Reasoning
		return
	}

	outcome.Decision = DecisionAutoResponded
	outcome.ResponseText, outcome.ResponseSource = pl.draftReply(ctx, ai.ReplyRequest{
		Kind:    "follow_up",
		Sender:  msg.Sender,
		Message: msg.Text,
		Context: map[string]any{
			"question_kind":      string(analysis.Kind),
			"minimum_salary_usd": pl.profile.MinimumSalaryUSD,
			"ideal_salary_usd":   pl.profile.IdealSalaryUSD,
			"urgency":            pl.profile.JobSearch.Urgency,
		},
	}, pl.followUpTemplate(analysis.Kind))
}

func (pl *Pipeline) processOpportunity(ctx context.Context, msg inbox.Message, outcome *Outcome) error {
	extraction := pl.extract(ctx, msg)

	job := NormalizeExtraction(extraction)
	outcome.Job = &job

	if err := ctx.Err(); err != nil {
		return err
	}

	score := pl.scorer.Score(ctx, job, pl.profile)
	outcome.Score = &score
	pl.noteFallback("scoring", score.Tech.Reason)

	if err := ctx.Err(); err != nil {
		return err
	}

	verdict := EvaluateHardFilters(job, score, msg.Text, pl.profile)
	outcome.HardFilter = &verdict

	if verdict.ShouldDecline {
		outcome.Decision = DecisionDeclined
		outcome.ResponseText, outcome.ResponseSource = pl.draftReply(ctx, ai.ReplyRequest{
			Kind:    "decline",
			Sender:  msg.Sender,
			Message: msg.Text,
			Context: map[string]any{
				"reasons": verdict.FailureReasons(),
				"tier":    string(score.Tier),
			},
		}, pl.declineTemplate(verdict))
		return nil
	}

	questions := clarifyingQuestions(job, verdict)
	outcome.Decision = DecisionProcessed
	outcome.ResponseText, outcome.ResponseSource = pl.draftReply(ctx, ai.ReplyRequest{
		Kind:    "interested",
		Sender:  msg.Sender,
		Message: msg.Text,
		Context: map[string]any{
			"tier":                 string(score.Tier),
			"total_score":          score.Total,
			"clarifying_questions": questions,
			"soft_warnings":        verdict.FailureReasons(),
		},
	}, pl.interestedTemplate(score, questions))

	if score.Tier == TierHighPriority {
		outcome.RequiresManualReview = true
		outcome.ManualReviewReason = "High priority opportunity, review the drafted reply"
	}

	return nil
}

// extract calls the extraction capability, degrading to an empty extraction
// so normalization resolves every attribute to its unknown sentinel.
func (pl *Pipeline) extract(ctx context.Context, msg inbox.Message) *ai.Extraction {
	if pl.assistant == nil {
		pl.metrics.ObserveFallback("extraction")
		return nil
	}

	extraction, err := pl.assistant.ExtractJob(ctx, msg.Text)
	if err != nil {
		pl.logger.Warn("job extraction failed, proceeding with empty attributes",
			zap.String(logger.FieldSender, msg.Sender),
			zap.Error(err),
		)
		pl.metrics.ObserveFallback("extraction")
		return nil
	}

	return extraction
}

// draftReply asks the responder for a reply and falls back to the supplied
// deterministic template.
func (pl *Pipeline) draftReply(ctx context.Context, req ai.ReplyRequest, template string) (string, string) {
	if pl.assistant != nil {
		reply, err := pl.assistant.DraftReply(ctx, req)
		if err == nil {
			return reply, ResponseSourceLLM
		}
		pl.logger.Warn("reply drafting failed, using template",
			zap.String("kind", req.Kind),
			zap.Error(err),
		)
	}

	pl.metrics.ObserveFallback("response")
	return template, ResponseSourceTemplate
}

func (pl *Pipeline) noteFallback(stage, reason string) {
	if isFallbackReason(reason) {
		pl.metrics.ObserveFallback(stage)
	}
}

func isFallbackReason(reason string) bool {
	return strings.HasPrefix(reason, "Fallback:")
}

// clarifyingQuestions collects the soft gaps worth asking about instead of
// rejecting over: a missing work-week mention and a missing salary range.
func clarifyingQuestions(job ExtractedJobData, verdict HardFilterResult) []string {
	var questions []string
	if verdict.WorkWeekStatus == WorkWeekNotMentioned {
		questions = append(questions, "¿La posición contempla una semana laboral de 4 días?")
	}
	if job.SalaryMin == nil && job.SalaryMax == nil {
		questions = append(questions, "¿Cuál es el rango salarial para la posición?")
	}
	return questions
}

func (pl *Pipeline) declineTemplate(verdict HardFilterResult) string {
	reason := "la posición no encaja con lo que estoy buscando en este momento"
	if len(verdict.Failures) > 0 {
		reason = verdict.Failures[0].Reason
	}
	return fmt.Sprintf(
		"¡Hola! Gracias por tenerme en cuenta. Voy a dejar pasar esta oportunidad: %s. ¡Éxitos con la búsqueda!",
		reason,
	)
}

func (pl *Pipeline) interestedTemplate(score ScoringResult, questions []string) string {
	var b strings.Builder
	b.WriteString("¡Hola! Gracias por contactarme, la propuesta me resulta interesante")
	if score.Tier == TierHighPriority {
		b.WriteString(" y me gustaría avanzar")
	}
	b.WriteString(".")
	for _, q := range questions {
		b.WriteString(" ")
		b.WriteString(q)
	}
	return b.String()
}

func (pl *Pipeline) followUpTemplate(kind QuestionKind) string {
	switch kind {
	case QuestionSalary:
		return fmt.Sprintf(
			"¡Hola! Mi expectativa salarial ronda los %d USD anuales, con un mínimo de %d USD.",
			pl.profile.IdealSalaryUSD, pl.profile.MinimumSalaryUSD,
		)
	case QuestionAvailability:
		return "¡Hola! Tengo disponibilidad para coordinar una conversación esta semana."
	default:
		return "¡Hola! Gracias por el mensaje, te respondo a la brevedad."
	}
}

package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/avergara/recruiter-triage/internal/ai"
	"github.com/avergara/recruiter-triage/internal/logger"
	"github.com/avergara/recruiter-triage/internal/util"
)

//go:embed classify_prompt.md
var classifyPrompt string

//go:embed extract_prompt.md
var extractPrompt string

//go:embed score_prompt.md
var scorePrompt string

//go:embed reply_prompt.md
var replyPrompt string

const defaultMaxLogLength = 200

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

var validStates = map[string]bool{
	"NEW_OPPORTUNITY": true,
	"FOLLOW_UP":       true,
	"COURTESY_CLOSE":  true,
}

var validConfidence = map[string]bool{
	"HIGH":   true,
	"MEDIUM": true,
	"LOW":    true,
}

// Assistant implements every LLM-backed capability on top of a Gemini
// generator. Responses are validated against the call-site schema before
// they are handed back; a schema violation is returned as an error so the
// caller takes its fallback path.
type Assistant struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

// NewAssistant wires an Assistant around the provided generator.
func NewAssistant(generator contentGenerator, log *zap.Logger, maxLogLength int) *Assistant {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Assistant{
		generator: generator,
		logger:    logger.WithCommonFields(log, "gemini", generator.Model()),
		maxLogLen: maxLogLength,
	}
}

// ClassifyMessage implements ai.Classifier.
func (a *Assistant) ClassifyMessage(ctx context.Context, sender, text string) (*ai.Classification, error) {
	prompt := strings.ReplaceAll(classifyPrompt, "{{SENDER}}", sender)
	prompt = strings.ReplaceAll(prompt, "{{MESSAGE}}", text)

	raw, err := a.generate(ctx, "classify", prompt)
	if err != nil {
		return nil, err
	}

	data, err := parseObject(raw)
	if err != nil {
		return nil, err
	}

	state := strings.ToUpper(coerceString(data["state"]))
	if !validStates[state] {
		return nil, fmt.Errorf("classification state %q is not a known state", state)
	}

	confidence := strings.ToUpper(coerceString(data["confidence"]))
	if !validConfidence[confidence] {
		confidence = "LOW"
	}

	return &ai.Classification{
		State:              state,
		Confidence:         confidence,
		ContainsJobDetails: coerceBool(data["contains_job_details"]),
		Reasoning:          coerceString(data["reasoning"]),
		Raw:                raw,
	}, nil
}

// ExtractJob implements ai.Extractor.
func (a *Assistant) ExtractJob(ctx context.Context, text string) (*ai.Extraction, error) {
	prompt := strings.ReplaceAll(extractPrompt, "{{MESSAGE}}", text)

	raw, err := a.generate(ctx, "extract", prompt)
	if err != nil {
		return nil, err
	}

	data, err := parseObject(raw)
	if err != nil {
		return nil, err
	}

	return &ai.Extraction{
		Company:      coerceString(data["company"]),
		RoleTitle:    coerceString(data["role_title"]),
		Seniority:    coerceString(data["seniority"]),
		TechStack:    coerceString(data["tech_stack"]),
		Salary:       coerceString(data["salary"]),
		RemotePolicy: coerceString(data["remote_policy"]),
		Location:     coerceString(data["location"]),
		WorkWeek:     coerceString(data["work_week"]),
		Raw:          raw,
	}, nil
}

// ScoreJob implements ai.Scorer. Out-of-range and non-numeric sub-scores are
// passed through; the scorer clamps them. A payload missing every dimension
// is treated as a schema violation.
func (a *Assistant) ScoreJob(ctx context.Context, job, profile map[string]any) (*ai.Scores, error) {
	jobJSON, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal job payload: %w", err)
	}
	profileJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal profile payload: %w", err)
	}

	prompt := strings.ReplaceAll(scorePrompt, "{{JOB_JSON}}", string(jobJSON))
	prompt = strings.ReplaceAll(prompt, "{{PROFILE_JSON}}", string(profileJSON))

	raw, err := a.generate(ctx, "score", prompt)
	if err != nil {
		return nil, err
	}

	data, err := parseObject(raw)
	if err != nil {
		return nil, err
	}

	if !hasAnyKey(data, "tech", "salary", "seniority", "company") {
		return nil, fmt.Errorf("score response carries no scoring dimension")
	}

	return &ai.Scores{
		Tech:            coerceFloat(data["tech"]),
		TechReason:      coerceString(data["tech_reason"]),
		Salary:          coerceFloat(data["salary"]),
		SalaryReason:    coerceString(data["salary_reason"]),
		Seniority:       coerceFloat(data["seniority"]),
		SeniorityReason: coerceString(data["seniority_reason"]),
		Company:         coerceFloat(data["company"]),
		CompanyReason:   coerceString(data["company_reason"]),
		Raw:             raw,
	}, nil
}

// DraftReply implements ai.Responder. The response is free text, not JSON.
func (a *Assistant) DraftReply(ctx context.Context, req ai.ReplyRequest) (string, error) {
	contextJSON, err := json.MarshalIndent(req.Context, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal reply context: %w", err)
	}

	prompt := strings.ReplaceAll(replyPrompt, "{{KIND}}", req.Kind)
	prompt = strings.ReplaceAll(prompt, "{{SENDER}}", req.Sender)
	prompt = strings.ReplaceAll(prompt, "{{MESSAGE}}", req.Message)
	prompt = strings.ReplaceAll(prompt, "{{CONTEXT_JSON}}", string(contextJSON))

	raw, err := a.generate(ctx, "reply", prompt)
	if err != nil {
		return "", err
	}

	reply := strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), `"`))
	if reply == "" {
		return "", fmt.Errorf("reply response is empty")
	}

	return reply, nil
}

func (a *Assistant) generate(ctx context.Context, call, prompt string) (string, error) {
	a.logger.Debug("gemini request",
		zap.String("call", call),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", util.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return "", err
	}

	a.logger.Debug("gemini response",
		zap.String("call", call),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", util.TruncateForLog(raw, a.maxLogLen)),
	)

	return raw, nil
}

func hasAnyKey(data map[string]any, keys ...string) bool {
	for _, key := range keys {
		if _, ok := data[key]; ok {
			return true
		}
	}
	return false
}

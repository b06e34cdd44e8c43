// Package ai defines the contracts between the triage pipeline and the
// LLM-backed provider. Every call is context-bound and returns a typed
// result; callers own the fallback behavior when a call fails.
package ai

import "context"

// Classification is the provider's view of a conversation message.
type Classification struct {
	State              string
	Confidence         string
	ContainsJobDetails bool
	Reasoning          string
	Raw                string
}

// Extraction carries the raw job attributes pulled out of a message. All
// fields are free-form text and may hold "Not mentioned" style sentinels;
// normalization happens downstream.
type Extraction struct {
	Company      string
	RoleTitle    string
	Seniority    string
	TechStack    string
	Salary       string
	RemotePolicy string
	Location     string
	WorkWeek     string
	Raw          string
}

// Scores carries one sub-score per scoring dimension together with a short
// justification each. Values arrive unclamped; the scorer clamps them into
// their documented ranges before use.
type Scores struct {
	Tech            float64
	TechReason      string
	Salary          float64
	SalaryReason    string
	Seniority       float64
	SeniorityReason string
	Company         float64
	CompanyReason   string
	Raw             string
}

// ReplyRequest describes a response the provider should draft.
type ReplyRequest struct {
	// Kind is one of "interested", "decline" or "follow_up".
	Kind string
	// Sender is the display name of the recruiter being answered.
	Sender string
	// Message is the inbound message being answered.
	Message string
	// Context carries structured hints for the draft (tier, failure
	// reasons, clarifying questions, profile facts).
	Context map[string]any
}

// Classifier decides the conversation state of an inbound message.
type Classifier interface {
	ClassifyMessage(ctx context.Context, sender, text string) (*Classification, error)
}

// Extractor pulls job attributes out of an opportunity message.
type Extractor interface {
	ExtractJob(ctx context.Context, text string) (*Extraction, error)
}

// Scorer rates a job against the candidate profile. Both payloads are
// pre-serialized maps so providers stay decoupled from the pipeline types.
type Scorer interface {
	ScoreJob(ctx context.Context, job, profile map[string]any) (*Scores, error)
}

// Responder drafts an outbound reply.
type Responder interface {
	DraftReply(ctx context.Context, req ReplyRequest) (string, error)
}

// Assistant bundles every LLM-backed capability the pipeline consumes.
type Assistant interface {
	Classifier
	Extractor
	Scorer
	Responder
}

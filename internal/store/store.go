// Package store persists evaluated outcomes to PostgreSQL so past decisions
// survive restarts and can be reviewed later.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/avergara/recruiter-triage/internal/triage"
)

const schema = `
CREATE TABLE IF NOT EXISTS triage_outcomes (
	id              UUID PRIMARY KEY,
	sender          TEXT NOT NULL,
	message         TEXT NOT NULL,
	state           TEXT NOT NULL,
	decision        TEXT NOT NULL,
	tier            TEXT NOT NULL DEFAULT '',
	total_score     INTEGER NOT NULL DEFAULT 0,
	response_text   TEXT NOT NULL DEFAULT '',
	response_source TEXT NOT NULL DEFAULT 'none',
	manual_review   BOOLEAN NOT NULL DEFAULT FALSE,
	details         JSONB NOT NULL DEFAULT '{}',
	received_at     TIMESTAMPTZ,
	evaluated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS triage_outcomes_decision_idx ON triage_outcomes (decision);
`

// Store wraps a pgxpool connection pool.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// New creates and verifies a connection pool, then makes sure the schema
// exists.
func New(ctx context.Context, databaseURL string, logger *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}

	logger.Debug("store ready")

	return &Store{pool: pool, logger: logger}, nil
}

// outcomeDetails is the JSONB payload: everything about an outcome that does
// not need its own column.
type outcomeDetails struct {
	Classification triage.ConversationStateResult `json:"classification"`
	Job            *triage.ExtractedJobData       `json:"job,omitempty"`
	Score          *triage.ScoringResult          `json:"score,omitempty"`
	HardFilter     *triage.HardFilterResult       `json:"hard_filter,omitempty"`
	FollowUp       *triage.FollowUpAnalysis       `json:"follow_up,omitempty"`
	ReviewReason   string                         `json:"review_reason,omitempty"`
	ElapsedMillis  int64                          `json:"elapsed_ms"`
}

func encodeDetails(outcome *triage.Outcome) ([]byte, error) {
	return json.Marshal(outcomeDetails{
		Classification: outcome.Classification,
		Job:            outcome.Job,
		Score:          outcome.Score,
		HardFilter:     outcome.HardFilter,
		FollowUp:       outcome.FollowUp,
		ReviewReason:   outcome.ManualReviewReason,
		ElapsedMillis:  outcome.Elapsed.Milliseconds(),
	})
}

// SaveOutcome inserts an evaluated outcome. Saving the same message twice
// replaces the previous row.
func (s *Store) SaveOutcome(ctx context.Context, outcome *triage.Outcome) error {
	details, err := encodeDetails(outcome)
	if err != nil {
		return fmt.Errorf("marshaling outcome details: %w", err)
	}

	var tier string
	var totalScore int
	if outcome.Score != nil {
		tier = string(outcome.Score.Tier)
		totalScore = outcome.Score.Total
	}

	var receivedAt *time.Time
	if !outcome.Message.ReceivedAt.IsZero() {
		receivedAt = &outcome.Message.ReceivedAt
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO triage_outcomes
			(id, sender, message, state, decision, tier, total_score,
			 response_text, response_source, manual_review, details, received_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state,
			decision = EXCLUDED.decision,
			tier = EXCLUDED.tier,
			total_score = EXCLUDED.total_score,
			response_text = EXCLUDED.response_text,
			response_source = EXCLUDED.response_source,
			manual_review = EXCLUDED.manual_review,
			details = EXCLUDED.details,
			evaluated_at = now()`,
		outcome.Message.ID, outcome.Message.Sender, outcome.Message.Text,
		string(outcome.Classification.State), string(outcome.Decision),
		tier, totalScore,
		outcome.ResponseText, outcome.ResponseSource,
		outcome.RequiresManualReview, details, receivedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting outcome: %w", err)
	}

	s.logger.Debug("outcome saved",
		zap.String("id", outcome.Message.ID.String()),
		zap.String("decision", string(outcome.Decision)),
	)

	return nil
}

// SavedOutcome is a condensed row for review listings.
type SavedOutcome struct {
	ID          string
	Sender      string
	Decision    string
	Tier        string
	TotalScore  int
	EvaluatedAt time.Time
}

// RecentOutcomes lists the newest evaluations, most recent first.
func (s *Store) RecentOutcomes(ctx context.Context, limit int) ([]SavedOutcome, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id::text, sender, decision, tier, total_score, evaluated_at
		 FROM triage_outcomes
		 ORDER BY evaluated_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recentOutcomes query: %w", err)
	}
	defer rows.Close()

	outcomes := make([]SavedOutcome, 0, limit)
	for rows.Next() {
		var o SavedOutcome
		if err := rows.Scan(&o.ID, &o.Sender, &o.Decision, &o.Tier, &o.TotalScore, &o.EvaluatedAt); err != nil {
			return nil, fmt.Errorf("recentOutcomes scan: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

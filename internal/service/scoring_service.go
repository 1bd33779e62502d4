package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sinaqlab/sinaq-backend/internal/exam"
)

// ScoringService computes and persists session scores. Finalize is a pure
// function of the persisted selection and answer rows, never of in-memory
// attempt state, so re-running it on unchanged state yields the identical
// result. That is what makes offline re-scoring safe.
type ScoringService struct {
	selections SelectionStore
	answers    AnswerStore
	sessions   SessionStore
	log        zerolog.Logger
}

// NewScoringService creates a new ScoringService.
func NewScoringService(
	selections SelectionStore,
	answers AnswerStore,
	sessions SessionStore,
	log zerolog.Logger,
) *ScoringService {
	return &ScoringService{
		selections: selections,
		answers:    answers,
		sessions:   sessions,
		log:        log.With().Str("component", "scoring").Logger(),
	}
}

// Finalize scores a session from its persisted rows and writes the result
// back, marking the session completed.
func (s *ScoringService) Finalize(ctx context.Context, sessionID uuid.UUID) (exam.ScoreResult, error) {
	result, err := s.Compute(ctx, sessionID)
	if err != nil {
		return exam.ScoreResult{}, err
	}

	if err := s.sessions.Complete(ctx, result); err != nil {
		return exam.ScoreResult{}, fmt.Errorf("complete session: %w", err)
	}

	s.log.Info().
		Str("session_id", sessionID.String()).
		Float64("score", result.Score).
		Int("correct", result.CorrectAnswers).
		Int("total", result.TotalQuestions).
		Msg("Session finalized")
	return result, nil
}

// Compute derives the score without writing anything back. Used by
// Finalize and by the recalculator.
func (s *ScoringService) Compute(ctx context.Context, sessionID uuid.UUID) (exam.ScoreResult, error) {
	selection, err := s.selections.ListBySession(ctx, sessionID)
	if err != nil {
		return exam.ScoreResult{}, fmt.Errorf("list selection: %w", err)
	}
	if len(selection) == 0 {
		return exam.ScoreResult{}, ErrNoSelection
	}

	questions, err := s.selections.ListQuestionsBySession(ctx, sessionID)
	if err != nil {
		return exam.ScoreResult{}, fmt.Errorf("list session questions: %w", err)
	}
	if len(questions) != len(selection) {
		return exam.ScoreResult{}, fmt.Errorf("%w: %d selection rows, %d questions",
			ErrDanglingReference, len(selection), len(questions))
	}

	answers, err := s.answers.ListBySession(ctx, sessionID)
	if err != nil {
		return exam.ScoreResult{}, fmt.Errorf("list answers: %w", err)
	}

	return exam.ComputeScore(sessionID, questions, answers), nil
}

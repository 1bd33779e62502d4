package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/sinaqlab/sinaq-backend/internal/exam"
	"github.com/sinaqlab/sinaq-backend/internal/model"
)

// QuestionStatus is the grading classification of one question within a
// session, as consumed by the grading UI.
type QuestionStatus struct {
	QuestionID uuid.UUID           `json:"question_id"`
	Type       model.QuestionType  `json:"type"`
	Points     float64             `json:"points"`
	Status     model.GradingStatus `json:"status"`
	OrderIndex int                 `json:"order_index"`
}

// SessionGrading is the full grading view of a session.
type SessionGrading struct {
	SessionID  uuid.UUID        `json:"session_id"`
	Statuses   []QuestionStatus `json:"statuses"`
	Releasable bool             `json:"releasable"`
}

// SessionResult is the end-user result view. Result is nil while the
// session is still pending release (manual grades outstanding or release
// disabled).
type SessionResult struct {
	SessionID uuid.UUID         `json:"session_id"`
	Pending   bool              `json:"pending"`
	Result    *exam.ScoreResult `json:"result,omitempty"`
}

// GradingService derives grading statuses and records manual grades.
// Auto-graded rows are never touched here.
type GradingService struct {
	questions  QuestionStore
	selections SelectionStore
	answers    AnswerStore
	sessions   SessionStore
	log        zerolog.Logger
}

// NewGradingService creates a new GradingService.
func NewGradingService(
	questions QuestionStore,
	selections SelectionStore,
	answers AnswerStore,
	sessions SessionStore,
	log zerolog.Logger,
) *GradingService {
	return &GradingService{
		questions:  questions,
		selections: selections,
		answers:    answers,
		sessions:   sessions,
		log:        log.With().Str("component", "grading").Logger(),
	}
}

// SessionGrading classifies each question of the session and reports
// whether numeric results may be released.
func (s *GradingService) SessionGrading(ctx context.Context, sessionID uuid.UUID) (*SessionGrading, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	questions, err := s.selections.ListQuestionsBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list session questions: %w", err)
	}
	answers, err := s.answers.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	statuses := make([]QuestionStatus, len(questions))
	bare := make([]model.GradingStatus, len(questions))
	for i, q := range questions {
		var answer *model.Answer
		if a, ok := answers[q.ID]; ok {
			answer = &a
		}
		status := exam.StatusFor(&q, answer)
		statuses[i] = QuestionStatus{
			QuestionID: q.ID,
			Type:       q.Type,
			Points:     q.Points,
			Status:     status,
			OrderIndex: i + 1,
		}
		bare[i] = status
	}

	return &SessionGrading{
		SessionID:  sessionID,
		Statuses:   statuses,
		Releasable: exam.ResultsReleasable(session.ShowResults, bare),
	}, nil
}

// ListPending returns the questions of a session still awaiting a manual
// grade.
func (s *GradingService) ListPending(ctx context.Context, sessionID uuid.UUID) ([]QuestionStatus, error) {
	grading, err := s.SessionGrading(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var pending []QuestionStatus
	for _, qs := range grading.Statuses {
		if qs.Status == model.GradingStatusPending {
			pending = append(pending, qs)
		}
	}
	return pending, nil
}

// SetGrade records a human-entered grade for a manually-graded question.
// Refused for auto-graded types and for questions without an answer row.
func (s *GradingService) SetGrade(ctx context.Context, sessionID, questionID uuid.UUID, req model.SetGradeRequest) error {
	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return fmt.Errorf("get question: %w", err)
	}
	if !question.Type.RequiresManualGrading() {
		return ErrNotManuallyGraded
	}
	if req.PointsEarned > question.Points {
		return ErrPointsExceedMax
	}

	if err := s.answers.SetGrade(ctx, sessionID, questionID, req.PointsEarned, req.IsCorrect); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAnswerNotFound
		}
		return fmt.Errorf("set grade: %w", err)
	}

	s.log.Info().
		Str("session_id", sessionID.String()).
		Str("question_id", questionID.String()).
		Float64("points", req.PointsEarned).
		Msg("Manual grade recorded")
	return nil
}

// Result returns the end-user view of a finalized session, gated by the
// release rule: a pending marker replaces the numbers while any manual
// grade is outstanding or release is disabled.
func (s *GradingService) Result(ctx context.Context, scoring *ScoringService, sessionID uuid.UUID) (*SessionResult, error) {
	grading, err := s.SessionGrading(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !grading.Releasable {
		return &SessionResult{SessionID: sessionID, Pending: true}, nil
	}

	result, err := scoring.Compute(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &SessionResult{SessionID: sessionID, Result: &result}, nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/sinaqlab/sinaq-backend/internal/exam"
	"github.com/sinaqlab/sinaq-backend/internal/model"
)

// AnswerService records answer submissions exactly-once per (session,
// question). Correctness under retries and duplicate submissions rests on
// the storage-level uniqueness constraint and upsert, not on locking.
type AnswerService struct {
	questions  QuestionStore
	selections SelectionStore
	answers    AnswerStore
	sessions   SessionStore
	log        zerolog.Logger
}

// NewAnswerService creates a new AnswerService.
func NewAnswerService(
	questions QuestionStore,
	selections SelectionStore,
	answers AnswerStore,
	sessions SessionStore,
	log zerolog.Logger,
) *AnswerService {
	return &AnswerService{
		questions:  questions,
		selections: selections,
		answers:    answers,
		sessions:   sessions,
		log:        log.With().Str("component", "answer_recorder").Logger(),
	}
}

// Submit upserts the answer for (session, question). Auto-gradable types
// are graded synchronously against the question's correct-answer spec;
// manually-graded types store only the payload and elapsed time, leaving
// points_earned null until a grade is entered. Time spent accumulates
// across submissions for the downstream integrity analyzer.
func (s *AnswerService) Submit(ctx context.Context, sessionID, questionID uuid.UUID, req model.SubmitAnswerRequest) error {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	if session.Status == model.SessionStatusCompleted {
		return ErrSessionCompleted
	}

	if err := s.verifyInSelection(ctx, sessionID, questionID); err != nil {
		return err
	}

	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Selection row exists but the question is gone: upstream
			// referential integrity failed and must not be masked.
			return fmt.Errorf("%w: question %s", ErrDanglingReference, questionID)
		}
		return fmt.Errorf("get question: %w", err)
	}

	payload := model.AnswerPayload{
		SelectedOptionIDs: req.SelectedOptionIDs,
		Text:              req.Text,
	}
	grade, err := exam.Grade(question, payload)
	if err != nil {
		return fmt.Errorf("grade answer: %w", err)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	answer := &model.Answer{
		SessionID:        sessionID,
		QuestionID:       questionID,
		Payload:          raw,
		PointsEarned:     grade.PointsEarned,
		IsCorrect:        grade.IsCorrect,
		TimeSpentSeconds: req.TimeSpentSeconds,
	}
	if err := s.answers.Upsert(ctx, answer); err != nil {
		return fmt.Errorf("upsert answer: %w", err)
	}

	s.log.Debug().
		Str("session_id", sessionID.String()).
		Str("question_id", questionID.String()).
		Bool("auto_graded", !grade.Manual).
		Msg("Answer recorded")
	return nil
}

// verifyInSelection rejects answers for questions outside the session's
// persisted selection.
func (s *AnswerService) verifyInSelection(ctx context.Context, sessionID, questionID uuid.UUID) error {
	selection, err := s.selections.ListBySession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("list selection: %w", err)
	}
	if len(selection) == 0 {
		return ErrNoSelection
	}
	for _, sq := range selection {
		if sq.QuestionID == questionID {
			return nil
		}
	}
	return ErrQuestionNotInSession
}

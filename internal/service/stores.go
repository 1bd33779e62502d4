package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sinaqlab/sinaq-backend/internal/exam"
	"github.com/sinaqlab/sinaq-backend/internal/model"
)

// Domain Errors
var (
	// ErrEmptySelection is fatal: no questions could be resolved for the
	// session in any mode, so the attempt must not start.
	ErrEmptySelection = errors.New("no questions resolvable for session")
	// ErrDanglingReference indicates a selection row pointing at a missing
	// question. Upstream referential integrity failed; never masked here.
	ErrDanglingReference = errors.New("session references a missing question")
	ErrSessionCompleted     = errors.New("session is already completed")
	ErrQuestionNotInSession = errors.New("question is not part of the session's selection")
	ErrNotManuallyGraded    = errors.New("question type is auto-graded")
	ErrAnswerNotFound       = errors.New("no answer recorded for this question")
	ErrPointsExceedMax      = errors.New("awarded points exceed the question's maximum")
	ErrNoSelection          = errors.New("session has no persisted question selection")
)

// QuestionStore is the question-pool read view used by the services.
type QuestionStore interface {
	ListActiveByTemplates(ctx context.Context, templateIDs []uuid.UUID) ([]model.Question, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error)
	PoolStats(ctx context.Context, templateID uuid.UUID) (model.PoolStats, error)
}

// SelectionStore persists and reads per-session question selections.
type SelectionStore interface {
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.SessionQuestion, error)
	ListQuestionsBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Question, error)
	// InsertSelection writes the whole set atomically. Returns false when
	// another selection already existed (this caller lost the race).
	InsertSelection(ctx context.Context, sessionID uuid.UUID, selection []model.SessionQuestion) (bool, error)
}

// AnswerStore persists answer rows behind the (session, question)
// uniqueness constraint.
type AnswerStore interface {
	Upsert(ctx context.Context, a *model.Answer) error
	Get(ctx context.Context, sessionID, questionID uuid.UUID) (*model.Answer, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) (map[uuid.UUID]model.Answer, error)
	SetGrade(ctx context.Context, sessionID, questionID uuid.UUID, points float64, isCorrect bool) error
}

// SessionStore reads sessions and writes score fields back.
type SessionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error)
	Complete(ctx context.Context, result exam.ScoreResult) error
	UpdateScoreCounts(ctx context.Context, result exam.ScoreResult) error
	ListCompletedIDs(ctx context.Context) ([]uuid.UUID, error)
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sinaqlab/sinaq-backend/internal/exam"
	"github.com/sinaqlab/sinaq-backend/internal/model"
)

// SessionRepository handles session rows. Score and count fields are
// mutated only by the scoring engine and the recalculator.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// GetByID retrieves a session.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	s := &model.Session{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, score, total_questions, correct_answers, status, show_results, started_at, finished_at
		 FROM sessions
		 WHERE id = $1`, id,
	).Scan(&s.ID, &s.UserID, &s.Score, &s.TotalQuestions, &s.CorrectAnswers, &s.Status, &s.ShowResults, &s.StartedAt, &s.FinishedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Complete writes a finalize result back and marks the session completed.
// The statement is idempotent for unchanged inputs.
func (r *SessionRepository) Complete(ctx context.Context, result exam.ScoreResult) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sessions
		 SET score = $1, total_questions = $2, correct_answers = $3,
		     status = $4, finished_at = COALESCE(finished_at, NOW())
		 WHERE id = $5`,
		result.Score, result.TotalQuestions, result.CorrectAnswers,
		model.SessionStatusCompleted, result.SessionID,
	)
	return err
}

// UpdateScoreCounts overwrites only the score and count fields. Used by the
// recalculator; a single-statement update so each session is its own
// transaction and one failure cannot corrupt another session's row.
func (r *SessionRepository) UpdateScoreCounts(ctx context.Context, result exam.ScoreResult) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sessions
		 SET score = $1, total_questions = $2, correct_answers = $3
		 WHERE id = $4`,
		result.Score, result.TotalQuestions, result.CorrectAnswers, result.SessionID,
	)
	return err
}

// ListCompletedIDs retrieves the IDs of all completed sessions in id order.
func (r *SessionRepository) ListCompletedIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM sessions WHERE status = $1 ORDER BY started_at, id`,
		model.SessionStatusCompleted,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

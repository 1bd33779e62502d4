package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sinaqlab/sinaq-backend/internal/model"
)

// AnswerRepository handles answer rows. The (session_id, question_id)
// uniqueness is a schema-level constraint; Upsert performs a real
// INSERT ... ON CONFLICT DO UPDATE against it, so repeated submissions
// replace the row in place and can never produce duplicates.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// Upsert inserts or replaces the answer for (session, question). Time spent
// accumulates across submissions; all other fields take the last call's
// content.
func (r *AnswerRepository) Upsert(ctx context.Context, a *model.Answer) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO answers (session_id, question_id, payload, points_earned, is_correct, time_spent_seconds, answered_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())
		 ON CONFLICT (session_id, question_id) DO UPDATE
		 SET payload = EXCLUDED.payload,
		     points_earned = EXCLUDED.points_earned,
		     is_correct = EXCLUDED.is_correct,
		     time_spent_seconds = answers.time_spent_seconds + EXCLUDED.time_spent_seconds,
		     answered_at = NOW()`,
		a.SessionID, a.QuestionID, a.Payload, a.PointsEarned, a.IsCorrect, a.TimeSpentSeconds,
	)
	return err
}

// Get retrieves the current answer row for (session, question). Returns
// nil without error when no answer exists.
func (r *AnswerRepository) Get(ctx context.Context, sessionID, questionID uuid.UUID) (*model.Answer, error) {
	a := &model.Answer{}
	err := r.pool.QueryRow(ctx,
		`SELECT session_id, question_id, payload, points_earned, is_correct, time_spent_seconds, answered_at
		 FROM answers
		 WHERE session_id = $1 AND question_id = $2`, sessionID, questionID,
	).Scan(&a.SessionID, &a.QuestionID, &a.Payload, &a.PointsEarned, &a.IsCorrect, &a.TimeSpentSeconds, &a.AnsweredAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListBySession retrieves all answer rows for a session keyed by question.
func (r *AnswerRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) (map[uuid.UUID]model.Answer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT session_id, question_id, payload, points_earned, is_correct, time_spent_seconds, answered_at
		 FROM answers
		 WHERE session_id = $1`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	answers := make(map[uuid.UUID]model.Answer)
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.SessionID, &a.QuestionID, &a.Payload, &a.PointsEarned, &a.IsCorrect, &a.TimeSpentSeconds, &a.AnsweredAt); err != nil {
			return nil, err
		}
		answers[a.QuestionID] = a
	}
	return answers, rows.Err()
}

// SetGrade records a manually-entered grade on an existing answer row.
// Only the grade fields change; payload and timing are untouched.
func (r *AnswerRepository) SetGrade(ctx context.Context, sessionID, questionID uuid.UUID, points float64, isCorrect bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE answers
		 SET points_earned = $1, is_correct = $2
		 WHERE session_id = $3 AND question_id = $4`,
		points, isCorrect, sessionID, questionID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

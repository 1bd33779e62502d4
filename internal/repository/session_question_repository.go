package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sinaqlab/sinaq-backend/internal/model"
)

// SessionQuestionRepository handles the per-session persisted question
// selection. Rows are write-once: the full set for a session is inserted
// at selection time and never rewritten.
type SessionQuestionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionQuestionRepository creates a new SessionQuestionRepository.
func NewSessionQuestionRepository(pool *pgxpool.Pool) *SessionQuestionRepository {
	return &SessionQuestionRepository{pool: pool}
}

// ListBySession retrieves the selection rows for a session ordered by
// order_index.
func (r *SessionQuestionRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.SessionQuestion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT session_id, question_id, difficulty, order_index
		 FROM session_questions
		 WHERE session_id = $1
		 ORDER BY order_index`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var selection []model.SessionQuestion
	for rows.Next() {
		var sq model.SessionQuestion
		if err := rows.Scan(&sq.SessionID, &sq.QuestionID, &sq.Difficulty, &sq.OrderIndex); err != nil {
			return nil, err
		}
		selection = append(selection, sq)
	}
	return selection, rows.Err()
}

// ListQuestionsBySession retrieves the full question rows of a session's
// selection, ordered by the persisted order_index.
func (r *SessionQuestionRepository) ListQuestionsBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.template_id, q.category, q.difficulty, q.points,
		        q.question_type, q.options, q.correct_spec, q.is_active, q.order_index
		 FROM questions q
		 JOIN session_questions sq ON sq.question_id = q.id
		 WHERE sq.session_id = $1
		 ORDER BY sq.order_index`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := scanQuestion(rows, &q); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// InsertSelection persists a session's selected set in one transaction.
// The whole batch is written atomically via UNNEST, guarded by an advisory
// lock on the session so racing selectors for the same session serialize:
// the first writer wins, later writers see the existing rows and insert
// nothing. Returns false when a set already existed.
func (r *SessionQuestionRepository) InsertSelection(ctx context.Context, sessionID uuid.UUID, selection []model.SessionQuestion) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, sessionID,
	); err != nil {
		return false, fmt.Errorf("lock session: %w", err)
	}

	var existing int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM session_questions WHERE session_id = $1`, sessionID,
	).Scan(&existing); err != nil {
		return false, fmt.Errorf("count existing: %w", err)
	}
	if existing > 0 {
		return false, tx.Commit(ctx)
	}

	n := len(selection)
	questionIDs := make([]uuid.UUID, n)
	difficulties := make([]string, n)
	orderIndexes := make([]int, n)
	for i, sq := range selection {
		questionIDs[i] = sq.QuestionID
		difficulties[i] = string(sq.Difficulty)
		orderIndexes[i] = sq.OrderIndex
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO session_questions (session_id, question_id, difficulty, order_index)
		 SELECT $1, u.question_id, u.difficulty, u.order_index
		 FROM UNNEST($2::uuid[], $3::text[], $4::int[]) AS u (question_id, difficulty, order_index)
		 ON CONFLICT (session_id, question_id) DO NOTHING`,
		sessionID, questionIDs, difficulties, orderIndexes,
	); err != nil {
		return false, fmt.Errorf("insert selection: %w", err)
	}

	return true, tx.Commit(ctx)
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sinaqlab/sinaq-backend/internal/model"
)

// QuestionRepository handles read access to the authored question pool.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionColumns = `id, template_id, category, difficulty, points, question_type, options, correct_spec, is_active, order_index`

func scanQuestion(row interface{ Scan(...any) error }, q *model.Question) error {
	return row.Scan(&q.ID, &q.TemplateID, &q.Category, &q.Difficulty, &q.Points,
		&q.Type, &q.Options, &q.CorrectSpec, &q.IsActive, &q.OrderIndex)
}

// ListActiveByTemplates retrieves all active questions belonging to the given
// templates, ordered by template, author order, then id for a stable order.
func (r *QuestionRepository) ListActiveByTemplates(ctx context.Context, templateIDs []uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+`
		 FROM questions
		 WHERE template_id = ANY($1) AND is_active = TRUE
		 ORDER BY template_id, order_index, id`, templateIDs,
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

// GetByID retrieves a single question.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := scanQuestion(r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, id,
	), q)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// PoolStats counts active questions per difficulty for a template.
func (r *QuestionRepository) PoolStats(ctx context.Context, templateID uuid.UUID) (model.PoolStats, error) {
	stats := model.PoolStats{TemplateID: templateID}
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE difficulty = 'easy'),
		        COUNT(*) FILTER (WHERE difficulty = 'medium'),
		        COUNT(*) FILTER (WHERE difficulty = 'hard')
		 FROM questions
		 WHERE template_id = $1 AND is_active = TRUE`, templateID,
	).Scan(&stats.Total, &stats.Easy, &stats.Medium, &stats.Hard)
	if err != nil {
		return model.PoolStats{}, err
	}
	return stats, nil
}

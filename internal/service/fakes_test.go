package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sinaqlab/sinaq-backend/internal/exam"
	"github.com/sinaqlab/sinaq-backend/internal/model"
)

// In-memory stores mirroring the repository semantics, including the
// uniqueness constraints the schema enforces.

type fakeQuestionStore struct {
	questions map[uuid.UUID]model.Question
}

func newFakeQuestionStore() *fakeQuestionStore {
	return &fakeQuestionStore{questions: make(map[uuid.UUID]model.Question)}
}

func (f *fakeQuestionStore) add(q model.Question) {
	f.questions[q.ID] = q
}

func (f *fakeQuestionStore) ListActiveByTemplates(_ context.Context, templateIDs []uuid.UUID) ([]model.Question, error) {
	var out []model.Question
	for _, tid := range templateIDs {
		for _, q := range f.questions {
			if q.TemplateID == tid && q.IsActive {
				out = append(out, q)
			}
		}
	}
	return out, nil
}

func (f *fakeQuestionStore) GetByID(_ context.Context, id uuid.UUID) (*model.Question, error) {
	q, ok := f.questions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &q, nil
}

func (f *fakeQuestionStore) PoolStats(_ context.Context, templateID uuid.UUID) (model.PoolStats, error) {
	stats := model.PoolStats{TemplateID: templateID}
	for _, q := range f.questions {
		if q.TemplateID != templateID || !q.IsActive {
			continue
		}
		stats.Total++
		switch q.Difficulty {
		case model.DifficultyEasy:
			stats.Easy++
		case model.DifficultyMedium:
			stats.Medium++
		case model.DifficultyHard:
			stats.Hard++
		}
	}
	return stats, nil
}

type fakeSelectionStore struct {
	questions  *fakeQuestionStore
	selections map[uuid.UUID][]model.SessionQuestion
	inserts    int

	// beforeInsert, when set, runs at the top of InsertSelection. Tests use
	// it to interleave a racing writer between the existence check and the
	// insert.
	beforeInsert func()
}

func newFakeSelectionStore(questions *fakeQuestionStore) *fakeSelectionStore {
	return &fakeSelectionStore{
		questions:  questions,
		selections: make(map[uuid.UUID][]model.SessionQuestion),
	}
}

func (f *fakeSelectionStore) ListBySession(_ context.Context, sessionID uuid.UUID) ([]model.SessionQuestion, error) {
	return f.selections[sessionID], nil
}

func (f *fakeSelectionStore) ListQuestionsBySession(_ context.Context, sessionID uuid.UUID) ([]model.Question, error) {
	var out []model.Question
	for _, sq := range f.selections[sessionID] {
		if q, ok := f.questions.questions[sq.QuestionID]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeSelectionStore) InsertSelection(_ context.Context, sessionID uuid.UUID, selection []model.SessionQuestion) (bool, error) {
	if f.beforeInsert != nil {
		f.beforeInsert()
	}
	if len(f.selections[sessionID]) > 0 {
		return false, nil
	}
	f.selections[sessionID] = selection
	f.inserts++
	return true, nil
}

type fakeAnswerStore struct {
	answers map[uuid.UUID]map[uuid.UUID]model.Answer
	upserts int
}

func newFakeAnswerStore() *fakeAnswerStore {
	return &fakeAnswerStore{answers: make(map[uuid.UUID]map[uuid.UUID]model.Answer)}
}

func (f *fakeAnswerStore) Upsert(_ context.Context, a *model.Answer) error {
	f.upserts++
	bySession, ok := f.answers[a.SessionID]
	if !ok {
		bySession = make(map[uuid.UUID]model.Answer)
		f.answers[a.SessionID] = bySession
	}
	row := *a
	row.AnsweredAt = time.Now()
	if prev, ok := bySession[a.QuestionID]; ok {
		row.TimeSpentSeconds = prev.TimeSpentSeconds + a.TimeSpentSeconds
	}
	bySession[a.QuestionID] = row
	return nil
}

func (f *fakeAnswerStore) Get(_ context.Context, sessionID, questionID uuid.UUID) (*model.Answer, error) {
	a, ok := f.answers[sessionID][questionID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (f *fakeAnswerStore) ListBySession(_ context.Context, sessionID uuid.UUID) (map[uuid.UUID]model.Answer, error) {
	out := make(map[uuid.UUID]model.Answer, len(f.answers[sessionID]))
	for qid, a := range f.answers[sessionID] {
		out[qid] = a
	}
	return out, nil
}

func (f *fakeAnswerStore) SetGrade(_ context.Context, sessionID, questionID uuid.UUID, points float64, isCorrect bool) error {
	a, ok := f.answers[sessionID][questionID]
	if !ok {
		return pgx.ErrNoRows
	}
	a.PointsEarned = &points
	a.IsCorrect = &isCorrect
	f.answers[sessionID][questionID] = a
	return nil
}

type fakeSessionStore struct {
	sessions map[uuid.UUID]model.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[uuid.UUID]model.Session)}
}

func (f *fakeSessionStore) add(s model.Session) {
	f.sessions[s.ID] = s
}

func (f *fakeSessionStore) GetByID(_ context.Context, id uuid.UUID) (*model.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &s, nil
}

func (f *fakeSessionStore) Complete(_ context.Context, result exam.ScoreResult) error {
	s := f.sessions[result.SessionID]
	s.Score = result.Score
	s.TotalQuestions = result.TotalQuestions
	s.CorrectAnswers = result.CorrectAnswers
	s.Status = model.SessionStatusCompleted
	if s.FinishedAt == nil {
		now := time.Now()
		s.FinishedAt = &now
	}
	f.sessions[result.SessionID] = s
	return nil
}

func (f *fakeSessionStore) UpdateScoreCounts(_ context.Context, result exam.ScoreResult) error {
	s := f.sessions[result.SessionID]
	s.Score = result.Score
	s.TotalQuestions = result.TotalQuestions
	s.CorrectAnswers = result.CorrectAnswers
	f.sessions[result.SessionID] = s
	return nil
}

func (f *fakeSessionStore) ListCompletedIDs(_ context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id, s := range f.sessions {
		if s.Status == model.SessionStatusCompleted {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sinaqlab/sinaq-backend/internal/model"
)

type scoringFixture struct {
	*answerFixture
	scoring *ScoringService
}

func newScoringFixture(t *testing.T) *scoringFixture {
	t.Helper()
	f := newAnswerFixture(t)
	return &scoringFixture{
		answerFixture: f,
		scoring:       NewScoringService(f.selections, f.answers, f.sessions, zerolog.Nop()),
	}
}

func (f *scoringFixture) submit(t *testing.T, questionID uuid.UUID, req model.SubmitAnswerRequest) {
	t.Helper()
	if err := f.svc.Submit(context.Background(), f.sessionID, questionID, req); err != nil {
		t.Fatalf("Submit(%s) error = %v", questionID, err)
	}
}

func TestFinalizeScoresFromPersistedRows(t *testing.T) {
	f := newScoringFixture(t)
	q1 := f.newSelectedQuestion(model.QuestionTypeSingleChoice, 4, model.CorrectAnswerSpec{OptionIDs: []string{"a"}})
	q2 := f.newSelectedQuestion(model.QuestionTypeSingleChoice, 6, model.CorrectAnswerSpec{OptionIDs: []string{"b"}})
	f.newSelectedQuestion(model.QuestionTypeSingleChoice, 10, model.CorrectAnswerSpec{OptionIDs: []string{"c"}})

	f.submit(t, q1.ID, model.SubmitAnswerRequest{SelectedOptionIDs: []string{"a"}})
	f.submit(t, q2.ID, model.SubmitAnswerRequest{SelectedOptionIDs: []string{"x"}})
	// Third question never answered: still counts toward the denominator.

	result, err := f.scoring.Finalize(context.Background(), f.sessionID)
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if result.TotalPoints != 20 {
		t.Fatalf("total points = %v, want 20", result.TotalPoints)
	}
	if result.EarnedPoints != 4 {
		t.Fatalf("earned points = %v, want 4", result.EarnedPoints)
	}
	if result.Score != 20 {
		t.Fatalf("score = %v, want 20", result.Score)
	}
	if result.TotalQuestions != 3 || result.CorrectAnswers != 1 {
		t.Fatalf("counts = %d/%d, want 1/3", result.CorrectAnswers, result.TotalQuestions)
	}

	s := f.sessions.sessions[f.sessionID]
	if s.Status != model.SessionStatusCompleted {
		t.Fatalf("session status = %s, want completed", s.Status)
	}
	if s.Score != 20 || s.TotalQuestions != 3 || s.CorrectAnswers != 1 {
		t.Fatalf("persisted session = score %v, %d/%d", s.Score, s.CorrectAnswers, s.TotalQuestions)
	}
	if s.FinishedAt == nil {
		t.Fatal("finished_at not set")
	}
}

func TestFinalizeIsIdempotent(t *testing.T) {
	f := newScoringFixture(t)
	q := f.newSelectedQuestion(model.QuestionTypeSingleChoice, 5, model.CorrectAnswerSpec{OptionIDs: []string{"a"}})
	f.submit(t, q.ID, model.SubmitAnswerRequest{SelectedOptionIDs: []string{"a"}})

	ctx := context.Background()
	first, err := f.scoring.Finalize(ctx, f.sessionID)
	if err != nil {
		t.Fatalf("first Finalize() error = %v", err)
	}
	finishedAt := f.sessions.sessions[f.sessionID].FinishedAt

	second, err := f.scoring.Finalize(ctx, f.sessionID)
	if err != nil {
		t.Fatalf("second Finalize() error = %v", err)
	}
	if first != second {
		t.Fatalf("repeat finalize changed the result: %+v vs %+v", first, second)
	}
	if got := f.sessions.sessions[f.sessionID].FinishedAt; got != finishedAt {
		t.Fatal("repeat finalize moved finished_at")
	}
}

func TestFinalizeCountsUngradedManualInDenominatorOnly(t *testing.T) {
	f := newScoringFixture(t)
	auto := f.newSelectedQuestion(model.QuestionTypeSingleChoice, 5, model.CorrectAnswerSpec{OptionIDs: []string{"a"}})
	f.newSelectedQuestion(model.QuestionTypeEssay, 15, model.CorrectAnswerSpec{})

	f.submit(t, auto.ID, model.SubmitAnswerRequest{SelectedOptionIDs: []string{"a"}})

	result, err := f.scoring.Finalize(context.Background(), f.sessionID)
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if result.TotalPoints != 20 {
		t.Fatalf("total points = %v, want essay's 15 included", result.TotalPoints)
	}
	if result.Score != 25 {
		t.Fatalf("score = %v, want 5/20 = 25", result.Score)
	}
}

func TestRecalculateAllDetectsDrift(t *testing.T) {
	f := newScoringFixture(t)
	q := f.newSelectedQuestion(model.QuestionTypeSingleChoice, 10, model.CorrectAnswerSpec{OptionIDs: []string{"a"}})
	f.submit(t, q.ID, model.SubmitAnswerRequest{SelectedOptionIDs: []string{"a"}})

	if _, err := f.scoring.Finalize(context.Background(), f.sessionID); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	// A grade fixed after finalization leaves the stored score stale.
	zero := 0.0
	no := false
	a := f.answers.answers[f.sessionID][q.ID]
	a.PointsEarned = &zero
	a.IsCorrect = &no
	f.answers.answers[f.sessionID][q.ID] = a

	recalc := NewRecalcService(f.scoring, f.sessions, 0.1, zerolog.Nop())
	drifts, err := recalc.RecalculateAll(context.Background())
	if err != nil {
		t.Fatalf("RecalculateAll() error = %v", err)
	}
	if len(drifts) != 1 {
		t.Fatalf("got %d drifts, want 1", len(drifts))
	}
	d := drifts[0]
	if d.SessionID != f.sessionID || d.OldScore != 100 || d.NewScore != 0 {
		t.Fatalf("drift = %+v, want old 100 new 0", d)
	}
	if got := f.sessions.sessions[f.sessionID].Score; got != 0 {
		t.Fatalf("stored score = %v, want corrected 0", got)
	}
}

func TestRecalculateAllSkipsWithinEpsilon(t *testing.T) {
	f := newScoringFixture(t)
	q := f.newSelectedQuestion(model.QuestionTypeSingleChoice, 10, model.CorrectAnswerSpec{OptionIDs: []string{"a"}})
	f.submit(t, q.ID, model.SubmitAnswerRequest{SelectedOptionIDs: []string{"a"}})

	if _, err := f.scoring.Finalize(context.Background(), f.sessionID); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	// Nudge the stored score by less than the audit epsilon.
	s := f.sessions.sessions[f.sessionID]
	s.Score = 100.05
	f.sessions.sessions[f.sessionID] = s

	recalc := NewRecalcService(f.scoring, f.sessions, 0.1, zerolog.Nop())
	drifts, err := recalc.RecalculateAll(context.Background())
	if err != nil {
		t.Fatalf("RecalculateAll() error = %v", err)
	}
	if len(drifts) != 0 {
		t.Fatalf("got %d drifts, want none within epsilon", len(drifts))
	}
}

func TestRecalculateAllLeavesAnswersUntouched(t *testing.T) {
	f := newScoringFixture(t)
	q := f.newSelectedQuestion(model.QuestionTypeSingleChoice, 10, model.CorrectAnswerSpec{OptionIDs: []string{"a"}})
	f.submit(t, q.ID, model.SubmitAnswerRequest{SelectedOptionIDs: []string{"a"}, TimeSpentSeconds: 30})
	if _, err := f.scoring.Finalize(context.Background(), f.sessionID); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	before := f.answers.answers[f.sessionID][q.ID]
	upserts := f.answers.upserts

	recalc := NewRecalcService(f.scoring, f.sessions, 0.1, zerolog.Nop())
	if _, err := recalc.RecalculateAll(context.Background()); err != nil {
		t.Fatalf("RecalculateAll() error = %v", err)
	}

	after := f.answers.answers[f.sessionID][q.ID]
	if f.answers.upserts != upserts {
		t.Fatal("recalculation wrote answer rows")
	}
	if string(before.Payload) != string(after.Payload) || before.TimeSpentSeconds != after.TimeSpentSeconds {
		t.Fatal("recalculation mutated an answer row")
	}
	if f.sessions.sessions[f.sessionID].Status != model.SessionStatusCompleted {
		t.Fatal("recalculation changed session status")
	}
}

func TestScoreZeroWhenTotalPointsZero(t *testing.T) {
	f := newScoringFixture(t)
	q := f.newSelectedQuestion(model.QuestionTypeSingleChoice, 0, model.CorrectAnswerSpec{OptionIDs: []string{"a"}})
	f.submit(t, q.ID, model.SubmitAnswerRequest{SelectedOptionIDs: []string{"a"}})

	result, err := f.scoring.Compute(context.Background(), f.sessionID)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if result.Score != 0 {
		t.Fatalf("score = %v, want 0 for zero-point session", result.Score)
	}
}

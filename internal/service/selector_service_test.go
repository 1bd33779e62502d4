package service

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sinaqlab/sinaq-backend/internal/model"
)

func seededSelector(questions *fakeQuestionStore, selections *fakeSelectionStore, seed int64) *SelectorService {
	svc := NewSelectorService(questions, selections, nil, time.Hour, zerolog.Nop())
	svc.newRNG = func() *rand.Rand { return rand.New(rand.NewSource(seed)) }
	return svc
}

func addQuestion(qs *fakeQuestionStore, templateID uuid.UUID, category string, d model.Difficulty, qt model.QuestionType, points float64, order int) model.Question {
	spec, _ := json.Marshal(model.CorrectAnswerSpec{OptionIDs: []string{"a"}})
	q := model.Question{
		ID:          uuid.New(),
		TemplateID:  templateID,
		Category:    category,
		Difficulty:  d,
		Points:      points,
		Type:        qt,
		CorrectSpec: spec,
		IsActive:    true,
		OrderIndex:  order,
	}
	qs.add(q)
	return q
}

func fillPool(qs *fakeQuestionStore, templateID uuid.UUID, easy, medium, hard int) {
	order := 1
	for i := 0; i < easy; i++ {
		addQuestion(qs, templateID, "general", model.DifficultyEasy, model.QuestionTypeSingleChoice, 1, order)
		order++
	}
	for i := 0; i < medium; i++ {
		addQuestion(qs, templateID, "general", model.DifficultyMedium, model.QuestionTypeSingleChoice, 2, order)
		order++
	}
	for i := 0; i < hard; i++ {
		addQuestion(qs, templateID, "general", model.DifficultyHard, model.QuestionTypeSingleChoice, 3, order)
		order++
	}
}

func TestSelectPerTemplateCounts(t *testing.T) {
	questions := newFakeQuestionStore()
	selections := newFakeSelectionStore(questions)
	tplA := uuid.New()
	tplB := uuid.New()
	fillPool(questions, tplA, 10, 10, 10)
	fillPool(questions, tplB, 5, 5, 5)

	svc := seededSelector(questions, selections, 1)
	sessionID := uuid.New()

	spec := model.AllocationSpec{
		UsePool: true,
		Templates: []model.TemplateAllocation{
			{TemplateID: tplA, EasyCount: 3, MediumCount: 2, HardCount: 1, OrderIndex: 1},
			{TemplateID: tplB, EasyCount: 1, MediumCount: 1, HardCount: 1, OrderIndex: 2},
		},
	}

	selected, err := svc.Select(context.Background(), sessionID, spec)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(selected) != 9 {
		t.Fatalf("selected %d questions, want 9", len(selected))
	}

	perTemplate := map[uuid.UUID]int{}
	seen := map[uuid.UUID]bool{}
	for _, q := range selected {
		if seen[q.ID] {
			t.Fatalf("question %s selected twice", q.ID)
		}
		seen[q.ID] = true
		perTemplate[q.TemplateID]++
	}
	if perTemplate[tplA] != 6 || perTemplate[tplB] != 3 {
		t.Fatalf("per-template counts = %v, want 6 and 3", perTemplate)
	}

	rows := selections.selections[sessionID]
	if len(rows) != 9 {
		t.Fatalf("persisted %d rows, want 9", len(rows))
	}
	for i, sq := range rows {
		if sq.OrderIndex != i+1 {
			t.Fatalf("row %d has order_index %d, want %d", i, sq.OrderIndex, i+1)
		}
		if sq.QuestionID != selected[i].ID {
			t.Fatalf("row %d persisted question %s, want %s", i, sq.QuestionID, selected[i].ID)
		}
	}
}

func TestSelectConcatenatesBlocksByOrderIndex(t *testing.T) {
	questions := newFakeQuestionStore()
	selections := newFakeSelectionStore(questions)
	tplFirst := uuid.New()
	tplSecond := uuid.New()
	fillPool(questions, tplFirst, 3, 0, 0)
	fillPool(questions, tplSecond, 3, 0, 0)

	svc := seededSelector(questions, selections, 4)

	// Allocations listed out of order; OrderIndex decides block order.
	spec := model.AllocationSpec{
		UsePool: true,
		Templates: []model.TemplateAllocation{
			{TemplateID: tplSecond, EasyCount: 2, OrderIndex: 2},
			{TemplateID: tplFirst, EasyCount: 2, OrderIndex: 1},
		},
	}

	selected, err := svc.Select(context.Background(), uuid.New(), spec)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(selected) != 4 {
		t.Fatalf("selected %d questions, want 4", len(selected))
	}
	for i, q := range selected[:2] {
		if q.TemplateID != tplFirst {
			t.Fatalf("position %d from template %s, want first block from %s", i, q.TemplateID, tplFirst)
		}
	}
	for i, q := range selected[2:] {
		if q.TemplateID != tplSecond {
			t.Fatalf("position %d from template %s, want second block from %s", i+2, q.TemplateID, tplSecond)
		}
	}
}

func TestSelectIsIdempotentPerSession(t *testing.T) {
	questions := newFakeQuestionStore()
	selections := newFakeSelectionStore(questions)
	tpl := uuid.New()
	fillPool(questions, tpl, 20, 20, 20)

	sessionID := uuid.New()
	spec := model.AllocationSpec{
		UsePool: true,
		Templates: []model.TemplateAllocation{
			{TemplateID: tpl, EasyCount: 4, MediumCount: 4, HardCount: 4, OrderIndex: 1},
		},
	}

	first, err := seededSelector(questions, selections, 7).Select(context.Background(), sessionID, spec)
	if err != nil {
		t.Fatalf("first Select() error = %v", err)
	}

	// A later call with a different RNG seed must return the persisted set,
	// not a fresh draw.
	second, err := seededSelector(questions, selections, 99).Select(context.Background(), sessionID, spec)
	if err != nil {
		t.Fatalf("second Select() error = %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("second call returned %d questions, want %d", len(second), len(first))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("question %d differs between calls: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
	if selections.inserts != 1 {
		t.Fatalf("selection persisted %d times, want 1", selections.inserts)
	}
}

func TestSelectShortfallCapsNonFatal(t *testing.T) {
	questions := newFakeQuestionStore()
	selections := newFakeSelectionStore(questions)
	tpl := uuid.New()
	fillPool(questions, tpl, 2, 0, 1)

	spec := model.AllocationSpec{
		UsePool: true,
		Templates: []model.TemplateAllocation{
			{TemplateID: tpl, EasyCount: 5, MediumCount: 3, HardCount: 2, OrderIndex: 1},
		},
	}

	selected, err := seededSelector(questions, selections, 1).Select(context.Background(), uuid.New(), spec)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(selected) != 3 {
		t.Fatalf("selected %d questions, want 3 (everything available)", len(selected))
	}
}

func TestSelectEmptyResultIsFatal(t *testing.T) {
	questions := newFakeQuestionStore()
	selections := newFakeSelectionStore(questions)
	tpl := uuid.New()

	spec := model.AllocationSpec{
		UsePool: true,
		Templates: []model.TemplateAllocation{
			{TemplateID: tpl, EasyCount: 5, MediumCount: 5, HardCount: 5, OrderIndex: 1},
		},
	}

	_, err := seededSelector(questions, selections, 1).Select(context.Background(), uuid.New(), spec)
	if !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("Select() error = %v, want ErrEmptySelection", err)
	}
}

func TestSelectAggregateFallback(t *testing.T) {
	questions := newFakeQuestionStore()
	selections := newFakeSelectionStore(questions)
	tplA := uuid.New()
	tplB := uuid.New()
	fillPool(questions, tplA, 3, 3, 3)
	fillPool(questions, tplB, 3, 3, 3)

	// All per-template allocations zero: counts come from the assignment
	// level and draw over the union of both pools.
	spec := model.AllocationSpec{
		UsePool:     true,
		EasyCount:   4,
		MediumCount: 4,
		HardCount:   4,
		Templates: []model.TemplateAllocation{
			{TemplateID: tplA, OrderIndex: 1},
			{TemplateID: tplB, OrderIndex: 2},
		},
	}

	selected, err := seededSelector(questions, selections, 3).Select(context.Background(), uuid.New(), spec)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(selected) != 12 {
		t.Fatalf("selected %d questions, want 12", len(selected))
	}

	// A union draw of 4 easy out of 3+3 must span a stratum larger than
	// either single template could satisfy.
	easy := 0
	for _, q := range selected {
		if q.Difficulty == model.DifficultyEasy {
			easy++
		}
	}
	if easy != 4 {
		t.Fatalf("selected %d easy questions, want 4", easy)
	}
}

func TestSelectTakeAllMode(t *testing.T) {
	questions := newFakeQuestionStore()
	selections := newFakeSelectionStore(questions)
	tpl := uuid.New()
	fillPool(questions, tpl, 2, 2, 2)

	spec := model.AllocationSpec{
		UsePool: false,
		Templates: []model.TemplateAllocation{
			{TemplateID: tpl, OrderIndex: 1},
		},
	}

	selected, err := seededSelector(questions, selections, 1).Select(context.Background(), uuid.New(), spec)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(selected) != 6 {
		t.Fatalf("selected %d questions, want all 6", len(selected))
	}
}

func TestSelectLostRaceReturnsPersistedSet(t *testing.T) {
	questions := newFakeQuestionStore()
	selections := newFakeSelectionStore(questions)
	tpl := uuid.New()
	fillPool(questions, tpl, 10, 0, 0)

	sessionID := uuid.New()

	// A racing caller persists its own set between this caller's existence
	// check and its insert attempt.
	var winnerIDs []uuid.UUID
	selections.beforeInsert = func() {
		if len(selections.selections[sessionID]) > 0 {
			return
		}
		var winner []model.SessionQuestion
		i := 0
		for id := range questions.questions {
			if i == 3 {
				break
			}
			winner = append(winner, model.SessionQuestion{
				SessionID:  sessionID,
				QuestionID: id,
				Difficulty: model.DifficultyEasy,
				OrderIndex: i + 1,
			})
			winnerIDs = append(winnerIDs, id)
			i++
		}
		selections.selections[sessionID] = winner
	}

	svc := seededSelector(questions, selections, 1)

	spec := model.AllocationSpec{
		UsePool: true,
		Templates: []model.TemplateAllocation{
			{TemplateID: tpl, EasyCount: 5, OrderIndex: 1},
		},
	}
	selected, err := svc.Select(context.Background(), sessionID, spec)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(selected) != len(winnerIDs) {
		t.Fatalf("got %d questions, want the winner's %d", len(selected), len(winnerIDs))
	}
	for i, q := range selected {
		if q.ID != winnerIDs[i] {
			t.Fatalf("question %d = %s, want winner's %s", i, q.ID, winnerIDs[i])
		}
	}
}

func TestValidatePoolReportsShortfalls(t *testing.T) {
	questions := newFakeQuestionStore()
	selections := newFakeSelectionStore(questions)
	tpl := uuid.New()
	fillPool(questions, tpl, 2, 5, 0)

	svc := seededSelector(questions, selections, 1)
	spec := model.AllocationSpec{
		UsePool: true,
		Templates: []model.TemplateAllocation{
			{TemplateID: tpl, EasyCount: 4, MediumCount: 5, HardCount: 1, OrderIndex: 1},
		},
	}

	shortfalls, err := svc.ValidatePool(context.Background(), spec)
	if err != nil {
		t.Fatalf("ValidatePool() error = %v", err)
	}
	if len(shortfalls) != 2 {
		t.Fatalf("got %d shortfalls, want 2 (easy and hard)", len(shortfalls))
	}
	for _, sf := range shortfalls {
		switch sf.Difficulty {
		case model.DifficultyEasy:
			if sf.Requested != 4 || sf.Available != 2 {
				t.Fatalf("easy shortfall = %+v", sf)
			}
		case model.DifficultyHard:
			if sf.Requested != 1 || sf.Available != 0 {
				t.Fatalf("hard shortfall = %+v", sf)
			}
		default:
			t.Fatalf("unexpected shortfall for %s", sf.Difficulty)
		}
	}
}

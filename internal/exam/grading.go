package exam

import (
	"strings"

	"github.com/sinaqlab/sinaq-backend/internal/model"
)

// GradeResult is the outcome of grading one submitted answer. Manual is
// true for types that need a human-entered grade; PointsEarned and
// IsCorrect are nil in that case.
type GradeResult struct {
	Manual       bool
	PointsEarned *float64
	IsCorrect    *bool
}

// Grade computes the synchronous auto-grade for a submitted payload against
// the question's correct-answer spec. Multi-select answers are compared
// set-exact: the selected option-ID set must equal the correct set.
// Manually-graded types (short answer, essay) return Manual=true untouched.
func Grade(q *model.Question, payload model.AnswerPayload) (GradeResult, error) {
	if q.Type.RequiresManualGrading() {
		return GradeResult{Manual: true}, nil
	}

	spec, err := q.DecodeCorrectSpec()
	if err != nil {
		return GradeResult{}, err
	}

	var correct bool
	switch q.Type {
	case model.QuestionTypeSingleChoice:
		correct = len(payload.SelectedOptionIDs) == 1 &&
			len(spec.OptionIDs) == 1 &&
			payload.SelectedOptionIDs[0] == spec.OptionIDs[0]

	case model.QuestionTypeMultipleChoice:
		correct = setEqual(payload.SelectedOptionIDs, spec.OptionIDs) &&
			len(payload.SelectedOptionIDs) > 0

	case model.QuestionTypeTrueFalse:
		correct = spec.Text != "" &&
			strings.EqualFold(payload.Text, spec.Text)
	}

	earned := 0.0
	if correct {
		earned = q.Points
	}
	return GradeResult{
		PointsEarned: &earned,
		IsCorrect:    &correct,
	}, nil
}

// setEqual compares two option-ID slices as sets.
func setEqual(a, b []string) bool {
	if len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	if len(set) != len(b) {
		return false
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

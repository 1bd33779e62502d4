package exam

import (
	"testing"

	"github.com/sinaqlab/sinaq-backend/internal/model"
)

func TestStatusFor(t *testing.T) {
	essay := &model.Question{Type: model.QuestionTypeEssay}
	choice := &model.Question{Type: model.QuestionTypeSingleChoice}

	tests := []struct {
		name     string
		question *model.Question
		answer   *model.Answer
		want     model.GradingStatus
	}{
		{name: "no answer row", question: essay, answer: nil, want: model.GradingStatusNotAnswered},
		{name: "essay awaiting grade", question: essay, answer: &model.Answer{}, want: model.GradingStatusPending},
		{name: "essay graded", question: essay, answer: &model.Answer{PointsEarned: floatPtr(3)}, want: model.GradingStatusGraded},
		{name: "auto-graded choice", question: choice, answer: &model.Answer{PointsEarned: floatPtr(0), IsCorrect: boolPtr(false)}, want: model.GradingStatusGraded},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := StatusFor(tc.question, tc.answer); got != tc.want {
				t.Errorf("StatusFor = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestResultsReleasable(t *testing.T) {
	graded := []model.GradingStatus{
		model.GradingStatusGraded,
		model.GradingStatusNotAnswered,
	}
	withPending := []model.GradingStatus{
		model.GradingStatusGraded,
		model.GradingStatusPending,
	}

	tests := []struct {
		name        string
		showResults bool
		statuses    []model.GradingStatus
		want        bool
	}{
		{name: "all graded and release allowed", showResults: true, statuses: graded, want: true},
		{name: "pending blocks release", showResults: true, statuses: withPending, want: false},
		{name: "release disabled", showResults: false, statuses: graded, want: false},
		{name: "empty session releasable", showResults: true, statuses: nil, want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResultsReleasable(tc.showResults, tc.statuses); got != tc.want {
				t.Errorf("ResultsReleasable = %v, want %v", got, tc.want)
			}
		})
	}
}

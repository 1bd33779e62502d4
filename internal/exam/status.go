package exam

import (
	"github.com/sinaqlab/sinaq-backend/internal/model"
)

// StatusFor classifies one question within a session. answer is nil when
// no answer row exists.
//
//	not_answered -> pending -> graded        (manual types)
//	not_answered -> graded                   (auto-graded types)
func StatusFor(q *model.Question, answer *model.Answer) model.GradingStatus {
	if answer == nil {
		return model.GradingStatusNotAnswered
	}
	if q.Type.RequiresManualGrading() && answer.PointsEarned == nil {
		return model.GradingStatusPending
	}
	return model.GradingStatusGraded
}

// ResultsReleasable reports whether a session's numeric results may be
// shown to the end user: the assignment must allow result release and no
// question may still be pending a manual grade.
func ResultsReleasable(showResults bool, statuses []model.GradingStatus) bool {
	if !showResults {
		return false
	}
	for _, s := range statuses {
		if s == model.GradingStatusPending {
			return false
		}
	}
	return true
}

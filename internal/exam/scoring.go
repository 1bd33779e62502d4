package exam

import (
	"github.com/google/uuid"
	"github.com/sinaqlab/sinaq-backend/internal/model"
)

// ScoreResult is the outcome of scoring one session. It is a pure function
// of the session's persisted question set and answer rows, so recomputing
// it on unchanged state always yields identical values.
type ScoreResult struct {
	SessionID      uuid.UUID `json:"session_id"`
	Score          float64   `json:"score"`
	TotalPoints    float64   `json:"total_points"`
	EarnedPoints   float64   `json:"earned_points"`
	TotalQuestions int       `json:"total_questions"`
	CorrectAnswers int       `json:"correct_answers"`
}

// ComputeScore derives the score for a session from its selected questions
// and current answer rows. Every selected question counts toward the total
// regardless of whether it was answered or graded; answers with a nil
// points_earned (pending manual grades) contribute nothing to earned points.
func ComputeScore(sessionID uuid.UUID, questions []model.Question, answers map[uuid.UUID]model.Answer) ScoreResult {
	result := ScoreResult{
		SessionID:      sessionID,
		TotalQuestions: len(questions),
	}

	for _, q := range questions {
		result.TotalPoints += q.Points

		a, ok := answers[q.ID]
		if !ok {
			continue
		}
		if a.PointsEarned != nil {
			result.EarnedPoints += *a.PointsEarned
		}
		if a.IsCorrect != nil && *a.IsCorrect {
			result.CorrectAnswers++
		}
	}

	if result.TotalPoints > 0 {
		result.Score = result.EarnedPoints / result.TotalPoints * 100
	}
	return result
}

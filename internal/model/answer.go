package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AnswerPayload is the decoded selection payload of an answer. Choice types
// fill SelectedOptionIDs; true/false, short answer and essay fill Text.
type AnswerPayload struct {
	SelectedOptionIDs []string `json:"selected_option_ids,omitempty"`
	Text              string   `json:"text,omitempty"`
}

// IsEmpty reports whether the payload carries no selection at all.
func (p AnswerPayload) IsEmpty() bool {
	return len(p.SelectedOptionIDs) == 0 && p.Text == ""
}

// Answer is the single current answer row for a (session, question) pair.
// Resubmission replaces it in place, never adds a second row. PointsEarned
// is nil exactly when the question type requires manual grading and no
// grade has been entered yet.
type Answer struct {
	SessionID        uuid.UUID       `json:"session_id"`
	QuestionID       uuid.UUID       `json:"question_id"`
	Payload          json.RawMessage `json:"payload"`
	PointsEarned     *float64        `json:"points_earned,omitempty"`
	IsCorrect        *bool           `json:"is_correct,omitempty"`
	TimeSpentSeconds int             `json:"time_spent_seconds"`
	AnsweredAt       time.Time       `json:"answered_at"`
}

// DecodePayload unmarshals the stored selection payload.
func (a *Answer) DecodePayload() (AnswerPayload, error) {
	var p AnswerPayload
	if len(a.Payload) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(a.Payload, &p); err != nil {
		return p, fmt.Errorf("decode payload for question %s: %w", a.QuestionID, err)
	}
	return p, nil
}

// GradingStatus classifies one question within a session.
type GradingStatus string

const (
	GradingStatusNotAnswered GradingStatus = "not_answered"
	GradingStatusPending     GradingStatus = "pending"
	GradingStatusGraded      GradingStatus = "graded"
)

// SubmitAnswerRequest is the payload for submitting an answer.
type SubmitAnswerRequest struct {
	SelectedOptionIDs []string `json:"selected_option_ids" binding:"omitempty,max=32"`
	Text              string   `json:"text" binding:"omitempty,max=20000"`
	TimeSpentSeconds  int      `json:"time_spent_seconds" binding:"min=0"`
}

// SetGradeRequest is the payload for entering a manual grade.
type SetGradeRequest struct {
	PointsEarned float64 `json:"points_earned" binding:"min=0"`
	IsCorrect    bool    `json:"is_correct"`
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates exam session states.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
)

// Session represents a single exam attempt. It is created by the external
// session manager at attempt start; only the scoring engine and the
// recalculator mutate its score fields.
type Session struct {
	ID             uuid.UUID     `json:"id"`
	UserID         uuid.UUID     `json:"user_id"`
	Score          float64       `json:"score"`
	TotalQuestions int           `json:"total_questions"`
	CorrectAnswers int           `json:"correct_answers"`
	Status         SessionStatus `json:"status"`
	ShowResults    bool          `json:"show_results"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     *time.Time    `json:"finished_at,omitempty"`
}

// SessionQuestion is one row of a session's persisted question selection.
// The full set for a session is written exactly once, at selection time,
// and is never rewritten (unique per session and question).
type SessionQuestion struct {
	SessionID  uuid.UUID  `json:"session_id"`
	QuestionID uuid.UUID  `json:"question_id"`
	Difficulty Difficulty `json:"difficulty"`
	OrderIndex int        `json:"order_index"`
}

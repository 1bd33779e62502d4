package model

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Difficulty enumerates question difficulty strata.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists all strata in selection block order: easy, medium, hard.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// ParseDifficulty validates a raw difficulty string.
func ParseDifficulty(raw string) (Difficulty, error) {
	switch d := Difficulty(raw); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	default:
		return "", fmt.Errorf("unknown difficulty %q", raw)
	}
}

// QuestionType enumerates supported question types.
type QuestionType string

const (
	QuestionTypeSingleChoice   QuestionType = "single_choice"
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
	QuestionTypeShortAnswer    QuestionType = "short_answer"
	QuestionTypeEssay          QuestionType = "essay"
)

// RequiresManualGrading reports whether correctness for this type cannot be
// derived from the stored correct-answer spec and needs a human-entered grade.
func (t QuestionType) RequiresManualGrading() bool {
	return t == QuestionTypeShortAnswer || t == QuestionTypeEssay
}

// Question represents a single authored question in a template's pool.
// Questions are immutable during an attempt.
type Question struct {
	ID          uuid.UUID       `json:"id"`
	TemplateID  uuid.UUID       `json:"template_id"`
	Category    string          `json:"category"`
	Difficulty  Difficulty      `json:"difficulty"`
	Points      float64         `json:"points"`
	Type        QuestionType    `json:"type"`
	Options     json.RawMessage `json:"options"`
	CorrectSpec json.RawMessage `json:"-"`
	IsActive    bool            `json:"is_active"`
	OrderIndex  int             `json:"order_index"`
}

// CorrectAnswerSpec is the decoded form of Question.CorrectSpec. For choice
// types OptionIDs holds the full correct option-ID set; for true/false Text
// holds "true" or "false".
type CorrectAnswerSpec struct {
	OptionIDs []string `json:"option_ids,omitempty"`
	Text      string   `json:"text,omitempty"`
}

// DecodeCorrectSpec unmarshals the question's stored correct-answer spec.
func (q *Question) DecodeCorrectSpec() (CorrectAnswerSpec, error) {
	var spec CorrectAnswerSpec
	if len(q.CorrectSpec) == 0 {
		return spec, nil
	}
	if err := json.Unmarshal(q.CorrectSpec, &spec); err != nil {
		return spec, fmt.Errorf("decode correct spec for question %s: %w", q.ID, err)
	}
	return spec, nil
}

// PoolStats holds per-difficulty availability counts for a template's pool.
type PoolStats struct {
	TemplateID uuid.UUID `json:"template_id"`
	Total      int       `json:"total"`
	Easy       int       `json:"easy"`
	Medium     int       `json:"medium"`
	Hard       int       `json:"hard"`
}

// Available returns the availability count for one stratum.
func (s PoolStats) Available(d Difficulty) int {
	switch d {
	case DifficultyEasy:
		return s.Easy
	case DifficultyMedium:
		return s.Medium
	case DifficultyHard:
		return s.Hard
	}
	return 0
}

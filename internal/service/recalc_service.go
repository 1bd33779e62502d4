package service

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Drift is an audit record for a session whose recomputed score differs
// from the stored one. It is always reported, never silently overwritten.
type Drift struct {
	SessionID uuid.UUID `json:"session_id"`
	OldScore  float64   `json:"old_score"`
	NewScore  float64   `json:"new_score"`
}

// RecalcService re-derives scores for completed sessions from their
// persisted rows, for auditing after grading-logic fixes. It only ever
// targets completed sessions, so it never races a live attempt, and it
// touches only the sessions score/count fields.
type RecalcService struct {
	scoring  *ScoringService
	sessions SessionStore
	epsilon  float64
	log      zerolog.Logger
}

// NewRecalcService creates a new RecalcService. epsilon is the drift
// threshold in percentage points.
func NewRecalcService(scoring *ScoringService, sessions SessionStore, epsilon float64, log zerolog.Logger) *RecalcService {
	return &RecalcService{
		scoring:  scoring,
		sessions: sessions,
		epsilon:  epsilon,
		log:      log.With().Str("component", "recalculator").Logger(),
	}
}

// RecalculateAll re-scores every completed session, each in its own
// write so a failure on one session cannot corrupt another's row. The
// existing selection is always reused, never resampled. Sessions that
// fail are logged and skipped.
func (s *RecalcService) RecalculateAll(ctx context.Context) ([]Drift, error) {
	ids, err := s.sessions.ListCompletedIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list completed sessions: %w", err)
	}

	s.log.Info().Int("sessions", len(ids)).Msg("Recalculation started")

	var drifts []Drift
	failed := 0
	for _, id := range ids {
		drift, err := s.recalculateOne(ctx, id)
		if err != nil {
			s.log.Error().Err(err).Str("session_id", id.String()).Msg("Recalculation failed, skipping session")
			failed++
			continue
		}
		if drift != nil {
			drifts = append(drifts, *drift)
		}
	}

	s.log.Info().
		Int("sessions", len(ids)).
		Int("drifted", len(drifts)).
		Int("failed", failed).
		Msg("Recalculation finished")
	return drifts, nil
}

func (s *RecalcService) recalculateOne(ctx context.Context, sessionID uuid.UUID) (*Drift, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	oldScore := session.Score

	result, err := s.scoring.Compute(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.UpdateScoreCounts(ctx, result); err != nil {
		return nil, fmt.Errorf("update score: %w", err)
	}

	if math.Abs(result.Score-oldScore) <= s.epsilon {
		return nil, nil
	}

	s.log.Warn().
		Str("session_id", sessionID.String()).
		Float64("old_score", oldScore).
		Float64("new_score", result.Score).
		Msg("Score drift detected")
	return &Drift{SessionID: sessionID, OldScore: oldScore, NewScore: result.Score}, nil
}

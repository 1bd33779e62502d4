package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sinaqlab/sinaq-backend/internal/config"
	"github.com/sinaqlab/sinaq-backend/internal/exam"
	"github.com/sinaqlab/sinaq-backend/internal/model"
)

// SelectorService resolves and persists the question set for a session.
// Selection is idempotent per session: the first persisted set wins and
// every later call returns it unchanged, so a retried or re-entrant call
// can never re-randomize an in-progress attempt.
type SelectorService struct {
	questions  QuestionStore
	selections SelectionStore
	rdb        *redis.Client
	cacheTTL   time.Duration
	log        zerolog.Logger
	newRNG     func() *rand.Rand
}

// NewSelectorService creates a new SelectorService. rdb may be nil; the
// selection cache is then skipped entirely.
func NewSelectorService(
	questions QuestionStore,
	selections SelectionStore,
	rdb *redis.Client,
	cacheTTL time.Duration,
	log zerolog.Logger,
) *SelectorService {
	return &SelectorService{
		questions:  questions,
		selections: selections,
		rdb:        rdb,
		cacheTTL:   cacheTTL,
		log:        log.With().Str("component", "selector").Logger(),
		newRNG: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// Select returns the session's ordered question set, sampling and persisting
// it on first call. Modes per the allocation spec:
//   - non-pool ("take all"): every active question of the templates, in
//     author order, optionally topic-group randomized;
//   - pool with per-template allocations: independent stratified draws per
//     template concatenated in assignment order;
//   - pool with only aggregate counts (the multi-template zero-allocation
//     fallback): one stratified draw over the union of all templates' pools.
//
// An entirely empty result is fatal (ErrEmptySelection).
func (s *SelectorService) Select(ctx context.Context, sessionID uuid.UUID, spec model.AllocationSpec) ([]model.Question, error) {
	existing, err := s.selections.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list existing selection: %w", err)
	}
	if len(existing) > 0 {
		return s.loadPersisted(ctx, sessionID, len(existing))
	}

	rng := s.newRNG()
	spec.Templates = spec.SortedTemplates()

	var selected []model.Question
	switch {
	case !spec.UsePool:
		selected, err = s.selectAll(ctx, spec, rng)
	case spec.HasPerTemplateAllocations():
		selected, err = s.selectPerTemplate(ctx, spec, rng)
	default:
		selected, err = s.selectAggregate(ctx, spec, rng)
	}
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, ErrEmptySelection
	}

	rows := make([]model.SessionQuestion, len(selected))
	for i, q := range selected {
		rows[i] = model.SessionQuestion{
			SessionID:  sessionID,
			QuestionID: q.ID,
			Difficulty: q.Difficulty,
			OrderIndex: i + 1,
		}
	}

	won, err := s.selections.InsertSelection(ctx, sessionID, rows)
	if err != nil {
		return nil, fmt.Errorf("persist selection: %w", err)
	}
	if !won {
		// A racing caller persisted first; read back its set.
		return s.loadPersisted(ctx, sessionID, 0)
	}

	s.cacheSelection(ctx, sessionID, rows)

	s.log.Info().
		Str("session_id", sessionID.String()).
		Int("questions", len(selected)).
		Msg("Question selection persisted")
	return selected, nil
}

// selectAll implements non-pool mode: all active questions per template in
// assignment order, author-ordered within each template.
func (s *SelectorService) selectAll(ctx context.Context, spec model.AllocationSpec, rng *rand.Rand) ([]model.Question, error) {
	var combined []model.Question
	for _, t := range spec.Templates {
		qs, err := s.questions.ListActiveByTemplates(ctx, []uuid.UUID{t.TemplateID})
		if err != nil {
			return nil, fmt.Errorf("list questions for template %s: %w", t.TemplateID, err)
		}
		combined = append(combined, qs...)
	}
	if spec.Randomize {
		combined = exam.TopicGroupedShuffle(combined, rng)
	}
	return combined, nil
}

// selectPerTemplate draws each template's strata independently from its own
// pool and concatenates template blocks in assignment order.
func (s *SelectorService) selectPerTemplate(ctx context.Context, spec model.AllocationSpec, rng *rand.Rand) ([]model.Question, error) {
	var combined []model.Question
	for _, t := range spec.Templates {
		pool, err := s.questions.ListActiveByTemplates(ctx, []uuid.UUID{t.TemplateID})
		if err != nil {
			return nil, fmt.Errorf("list pool for template %s: %w", t.TemplateID, err)
		}

		counts := exam.StratumCounts{Easy: t.EasyCount, Medium: t.MediumCount, Hard: t.HardCount}
		selected, shortfalls := exam.SampleStratified(pool, counts, rng)
		s.logShortfalls(t.TemplateID, shortfalls)
		combined = append(combined, selected...)
	}
	if spec.Randomize {
		combined = exam.TopicGroupedShuffle(combined, rng)
	}
	return combined, nil
}

// selectAggregate implements the zero-allocation fallback: the assignment
// level counts are drawn from the union of all templates' pools.
func (s *SelectorService) selectAggregate(ctx context.Context, spec model.AllocationSpec, rng *rand.Rand) ([]model.Question, error) {
	union, err := s.questions.ListActiveByTemplates(ctx, spec.TemplateIDs())
	if err != nil {
		return nil, fmt.Errorf("list union pool: %w", err)
	}

	counts := exam.StratumCounts{
		Easy:   spec.EasyCount,
		Medium: spec.MediumCount,
		Hard:   spec.HardCount,
	}
	selected, shortfalls := exam.SampleStratified(union, counts, rng)
	s.logShortfalls(uuid.Nil, shortfalls)

	if spec.Randomize {
		selected = exam.TopicGroupedShuffle(selected, rng)
	}
	return selected, nil
}

// loadPersisted reads back a session's persisted set and verifies every
// selection row still resolves to a question.
func (s *SelectorService) loadPersisted(ctx context.Context, sessionID uuid.UUID, expected int) ([]model.Question, error) {
	questions, err := s.selections.ListQuestionsBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load persisted selection: %w", err)
	}
	if expected == 0 {
		rows, err := s.selections.ListBySession(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("recount selection: %w", err)
		}
		expected = len(rows)
	}
	if len(questions) != expected {
		return nil, fmt.Errorf("%w: %d selection rows, %d questions", ErrDanglingReference, expected, len(questions))
	}
	if len(questions) == 0 {
		return nil, ErrEmptySelection
	}
	return questions, nil
}

// Questions returns the session's persisted question set in presentation
// order, without drawing a new one.
func (s *SelectorService) Questions(ctx context.Context, sessionID uuid.UUID) ([]model.Question, error) {
	return s.loadPersisted(ctx, sessionID, 0)
}

// ValidatePool reports per-stratum shortfalls for a spec without selecting
// or persisting anything.
func (s *SelectorService) ValidatePool(ctx context.Context, spec model.AllocationSpec) ([]exam.Shortfall, error) {
	if !spec.UsePool {
		return nil, nil
	}
	spec.Templates = spec.SortedTemplates()

	var shortfalls []exam.Shortfall
	if spec.HasPerTemplateAllocations() {
		for _, t := range spec.Templates {
			stats, err := s.questions.PoolStats(ctx, t.TemplateID)
			if err != nil {
				return nil, fmt.Errorf("pool stats for template %s: %w", t.TemplateID, err)
			}
			for _, d := range model.Difficulties {
				if requested := t.Count(d); requested > stats.Available(d) {
					shortfalls = append(shortfalls, exam.Shortfall{
						Difficulty: d,
						Requested:  requested,
						Available:  stats.Available(d),
					})
				}
			}
		}
		return shortfalls, nil
	}

	union := model.PoolStats{}
	for _, id := range spec.TemplateIDs() {
		stats, err := s.questions.PoolStats(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("pool stats for template %s: %w", id, err)
		}
		union.Easy += stats.Easy
		union.Medium += stats.Medium
		union.Hard += stats.Hard
		union.Total += stats.Total
	}
	for _, d := range model.Difficulties {
		if requested := spec.AggregateCount(d); requested > union.Available(d) {
			shortfalls = append(shortfalls, exam.Shortfall{
				Difficulty: d,
				Requested:  requested,
				Available:  union.Available(d),
			})
		}
	}
	return shortfalls, nil
}

// poolStatsCacheTTL is short: stats back an inspection endpoint, and stale
// counts must not linger after authors edit the pool.
const poolStatsCacheTTL = 30 * time.Second

// PoolStats returns per-difficulty availability for one template, cached
// briefly in Redis. ValidatePool bypasses this cache and always reads the
// live counts.
func (s *SelectorService) PoolStats(ctx context.Context, templateID uuid.UUID) (model.PoolStats, error) {
	key := config.CacheKey.TemplatePoolStatsKey(templateID.String())
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
			var cached model.PoolStats
			if json.Unmarshal(raw, &cached) == nil {
				return cached, nil
			}
		}
	}

	stats, err := s.questions.PoolStats(ctx, templateID)
	if err != nil {
		return model.PoolStats{}, err
	}

	if s.rdb != nil {
		raw, _ := json.Marshal(stats)
		if err := s.rdb.Set(ctx, key, raw, poolStatsCacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Str("template_id", templateID.String()).Msg("Pool stats cache write failed")
		}
	}
	return stats, nil
}

// logShortfalls records InsufficientPool events. Non-fatal: selection has
// already capped at the available counts.
func (s *SelectorService) logShortfalls(templateID uuid.UUID, shortfalls []exam.Shortfall) {
	for _, sf := range shortfalls {
		ev := s.log.Warn().
			Str("difficulty", string(sf.Difficulty)).
			Int("requested", sf.Requested).
			Int("available", sf.Available)
		if templateID != uuid.Nil {
			ev = ev.Str("template_id", templateID.String())
		}
		ev.Msg("Insufficient pool for stratum, capped at available")
	}
}

// cacheSelection stores the ordered question-ID list in Redis. Read-through
// only; failures are logged and ignored because the rows are authoritative.
func (s *SelectorService) cacheSelection(ctx context.Context, sessionID uuid.UUID, rows []model.SessionQuestion) {
	if s.rdb == nil {
		return
	}
	ids := make([]string, len(rows))
	for i, sq := range rows {
		ids[i] = sq.QuestionID.String()
	}
	raw, _ := json.Marshal(ids)
	key := config.CacheKey.SessionSelectionKey(sessionID.String())
	if err := s.rdb.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Selection cache write failed")
	}
}

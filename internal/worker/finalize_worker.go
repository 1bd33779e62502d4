package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sinaqlab/sinaq-backend/internal/config"
	"github.com/sinaqlab/sinaq-backend/internal/service"
)

const (
	FinalizeBatchSize    = 50
	FinalizeBatchTimeout = 2 * time.Second
	FinalizePollTimeout  = 1 * time.Second
)

// FinalizeWorker drains the finalize queue and scores sessions in batches.
// Finalize itself is idempotent, so a payload that gets requeued after a
// transient failure is safe to process twice.
type FinalizeWorker struct {
	scoring *service.ScoringService
	rdb     *redis.Client
	log     zerolog.Logger
}

func NewFinalizeWorker(scoring *service.ScoringService, rdb *redis.Client, log zerolog.Logger) *FinalizeWorker {
	return &FinalizeWorker{
		scoring: scoring,
		rdb:     rdb,
		log:     log.With().Str("component", "finalize_worker").Logger(),
	}
}

type finalizePayload struct {
	SessionID string `json:"session_id"`
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *FinalizeWorker) Start(ctx context.Context) {
	w.log.Info().Msg("FinalizeWorker started")

	batch := make([]*finalizePayload, 0, FinalizeBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= FinalizeBatchSize || time.Since(lastFlush) >= FinalizeBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, FinalizePollTimeout, config.WorkerKey.FinalizeQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p finalizePayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &p)
		}
	}
}

// ----------------------------------------------------------------
// Batch finalize with per-item requeue
// ----------------------------------------------------------------

func (w *FinalizeWorker) flushSafe(ctx context.Context, batch []*finalizePayload) {
	if len(batch) == 0 {
		return
	}

	done := make([]*finalizePayload, 0, len(batch))
	for _, p := range batch {
		if err := w.finalizeOne(ctx, p); err != nil {
			w.log.Error().Err(err).Str("session_id", p.SessionID).Msg("finalize failed — requeueing")
			raw, _ := json.Marshal(p)
			w.rdb.RPush(ctx, config.WorkerKey.FinalizeQueue, raw)
			continue
		}
		done = append(done, p)
	}

	// Completed sessions no longer need their selection cached.
	w.bulkClearSelectionCache(ctx, done)
}

func (w *FinalizeWorker) finalizeOne(ctx context.Context, p *finalizePayload) error {
	sessionID, err := uuid.Parse(p.SessionID)
	if err != nil {
		return err
	}

	_, err = w.scoring.Finalize(ctx, sessionID)
	return err
}

// ----------------------------------------------------------------
// BULK Redis DEL for clearing selection caches
// ----------------------------------------------------------------

func (w *FinalizeWorker) bulkClearSelectionCache(ctx context.Context, batch []*finalizePayload) {
	if len(batch) == 0 {
		return
	}

	pipe := w.rdb.Pipeline()
	for _, p := range batch {
		pipe.Del(ctx, config.CacheKey.SessionSelectionKey(p.SessionID))
	}
	_, _ = pipe.Exec(ctx)
}

// Enqueue pushes a session onto the finalize queue. Used by the attempt
// handler when a client submits without waiting for the score.
func Enqueue(ctx context.Context, rdb *redis.Client, sessionID uuid.UUID) error {
	raw, err := json.Marshal(finalizePayload{SessionID: sessionID.String()})
	if err != nil {
		return err
	}
	return rdb.RPush(ctx, config.WorkerKey.FinalizeQueue, raw).Err()
}

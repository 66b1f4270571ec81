package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hadirku/hadirku-backend/internal/config"
	"github.com/hadirku/hadirku-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const SweepInterval = 30 * time.Second

// SweepWorker expires sessions whose window has lapsed without an explicit
// close, then queues them for finalization. Expiry is advisory: the engine
// already rejects late scans by timestamp, the sweep just settles the row
// state and gets absentees recorded.
type SweepWorker struct {
	sessions *repository.SessionRepository
	rdb      *redis.Client
	log      zerolog.Logger
}

func NewSweepWorker(sessions *repository.SessionRepository, rdb *redis.Client, log zerolog.Logger) *SweepWorker {
	return &SweepWorker{
		sessions: sessions,
		rdb:      rdb,
		log:      log.With().Str("component", "sweep_worker").Logger(),
	}
}

func (w *SweepWorker) Start(ctx context.Context) {
	w.log.Info().Msg("SweepWorker started")

	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("SweepWorker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *SweepWorker) sweep(ctx context.Context) {
	expired, err := w.sessions.ExpireDue(ctx, time.Now())
	if err != nil {
		w.log.Error().Err(err).Msg("Expire sweep failed")
		return
	}
	if len(expired) == 0 {
		return
	}

	w.log.Info().Int("count", len(expired)).Msg("Sessions expired")

	for _, sess := range expired {
		// The cached code dies with the session; clear it like Close does.
		w.rdb.Del(ctx, config.CacheKey.SessionCodeKey(sess.ID.String()))

		payload, _ := json.Marshal(finalizePayload{
			SessionID:      sess.ID.String(),
			ClassID:        sess.ClassID,
			AttendanceDate: sess.AttendanceDate,
		})
		if err := w.rdb.RPush(ctx, config.WorkerKey.FinalizeSessionQueue, payload).Err(); err != nil {
			w.log.Error().Err(err).Str("session_id", sess.ID.String()).Msg("Finalize enqueue failed")
		}
	}
}

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

const FinalizePollTimeout = 1 * time.Second

// finalizePayload mirrors the message the session service and the sweep
// worker push onto the finalize queue.
type finalizePayload struct {
	SessionID      string    `json:"session_id"`
	ClassID        int       `json:"class_id"`
	AttendanceDate time.Time `json:"attendance_date"`
}

// FinalizeWorker settles the ledger after a session ends: every enrolled
// student without a record for that (class, date) gets an absent row. The
// insert is conditional, so students who checked in are untouched and a
// session finalized twice is a no-op.
type FinalizeWorker struct {
	attendance *repository.AttendanceRepository
	rdb        *redis.Client
	log        zerolog.Logger
}

func NewFinalizeWorker(attendance *repository.AttendanceRepository, rdb *redis.Client, log zerolog.Logger) *FinalizeWorker {
	return &FinalizeWorker{
		attendance: attendance,
		rdb:        rdb,
		log:        log.With().Str("component", "finalize_worker").Logger(),
	}
}

func (w *FinalizeWorker) Start(ctx context.Context) {
	w.log.Info().Msg("FinalizeWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Draining finalize queue...")
			w.drain()
			return

		default:
			item, err := w.rdb.BLPop(ctx, FinalizePollTimeout, config.WorkerKey.FinalizeSessionQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}
			w.handle(ctx, []byte(item[1]))
		}
	}
}

// drain consumes whatever is left in the queue without blocking, so a
// clean shutdown does not leave sessions unfinalized.
func (w *FinalizeWorker) drain() {
	ctx := context.Background()
	for {
		raw, err := w.rdb.LPop(ctx, config.WorkerKey.FinalizeSessionQueue).Result()
		if err != nil {
			if err != redis.Nil {
				w.log.Error().Err(err).Msg("Drain LPop error")
			}
			return
		}
		w.handle(ctx, []byte(raw))
	}
}

func (w *FinalizeWorker) handle(ctx context.Context, raw []byte) {
	var p finalizePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		w.log.Error().Err(err).Msg("Invalid JSON payload")
		return
	}

	marked, err := w.attendance.InsertAbsentees(ctx, p.ClassID, p.AttendanceDate)
	if err != nil {
		w.log.Error().Err(err).Str("session_id", p.SessionID).Msg("Finalize failed — requeueing")
		w.rdb.RPush(ctx, config.WorkerKey.FinalizeSessionQueue, raw)
		return
	}

	w.log.Info().
		Str("session_id", p.SessionID).
		Int("class_id", p.ClassID).
		Int64("marked_absent", marked).
		Msg("Session finalized")
}

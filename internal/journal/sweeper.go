package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/lifetrack-app/lifetrack-backend/internal/blob"
)

const sweepBatchSize = 64

// Sweeper retries blob deletes that failed during entry deletion or
// detachment. It drains the release queue on an interval; blobs that
// still cannot be deleted go back on the queue.
type Sweeper struct {
	blobs    blob.Store
	releases blob.ReleaseQueue
	interval time.Duration
}

func NewSweeper(blobs blob.Store, releases blob.ReleaseQueue, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{blobs: blobs, releases: releases, interval: interval}
}

// Run sweeps once immediately and then on every tick until the context
// is cancelled. Call it in its own goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep drains the release queue in batches. Returns how many blobs
// were released. Stops early if any delete fails so requeued ids are
// not retried until the next sweep.
func (s *Sweeper) Sweep(ctx context.Context) int {
	released := 0
	for {
		ids, err := s.releases.Dequeue(ctx, sweepBatchSize)
		if err != nil {
			slog.Error("sweeper dequeue failed", slog.String("error", err.Error()))
			return released
		}
		if len(ids) == 0 {
			return released
		}

		failed := false
		for _, id := range ids {
			if err := s.blobs.Delete(ctx, id); err != nil {
				failed = true
				slog.Warn("sweeper delete failed, requeueing", slog.String("blob", id), slog.String("error", err.Error()))
				if qErr := s.releases.Enqueue(ctx, id); qErr != nil {
					slog.Error("sweeper requeue failed", slog.String("blob", id), slog.String("error", qErr.Error()))
				}
				continue
			}
			released++
		}

		if failed || len(ids) < sweepBatchSize {
			return released
		}
	}
}

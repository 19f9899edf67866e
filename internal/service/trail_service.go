package service

import (
	"context"
	"sync"
	"time"

	"consignment-ledger/internal/core/domain"
	"consignment-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultTrailQueueSize bounds the trail queue when the configured
// size is missing or invalid.
const DefaultTrailQueueSize = 1024

// TrailWorker implements ports.TrailService.
//
// Entries go onto a bounded channel and a single background goroutine
// persists them, so trail writes never sit on the settlement path.
// When the queue is full Record blocks until the worker drains an
// entry; settlements slow down rather than lose trail entries. Sink
// failures are logged and swallowed.
type TrailWorker struct {
	repo  ports.TrailRepository
	queue chan *domain.TrailEntry
	log   zerolog.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewTrailWorker creates a new TrailWorker with the given queue size.
func NewTrailWorker(repo ports.TrailRepository, queueSize int, log zerolog.Logger) *TrailWorker {
	if queueSize <= 0 {
		queueSize = DefaultTrailQueueSize
	}
	return &TrailWorker{
		repo:  repo,
		queue: make(chan *domain.TrailEntry, queueSize),
		log:   log,
	}
}

// Start launches the background worker goroutine.
func (w *TrailWorker) Start() {
	w.wg.Add(1)
	go w.run()
}

func (w *TrailWorker) run() {
	defer w.wg.Done()
	for entry := range w.queue {
		if err := w.repo.Append(context.Background(), entry); err != nil {
			w.log.Error().
				Err(err).
				Str("trail_id", entry.ID.String()).
				Str("origin", entry.Origin).
				Msg("trail append failed")
		}
	}
}

// Record queues a trail entry for the given batch. The call blocks
// while the queue is full. Record must not be called after Stop.
func (w *TrailWorker) Record(items []domain.SaleItem, origin string) {
	copied := make([]domain.SaleItem, len(items))
	copy(copied, items)

	w.queue <- &domain.TrailEntry{
		ID:         uuid.New(),
		Origin:     origin,
		Items:      copied,
		RecordedAt: time.Now().UTC(),
	}
}

// Stop closes the queue and waits for the worker to drain it. The
// context bounds how long draining may take.
func (w *TrailWorker) Stop(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.queue) })

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

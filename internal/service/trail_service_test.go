package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"consignment-ledger/internal/core/domain"
	"consignment-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestTrailWorker_RecordPersistsEntry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mocks.NewMockTrailRepository(ctrl)

	recorded := make(chan *domain.TrailEntry, 1)
	repo.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, entry *domain.TrailEntry) error {
			recorded <- entry
			return nil
		})

	w := NewTrailWorker(repo, 8, zerolog.Nop())
	w.Start()

	items := []domain.SaleItem{{SellerID: "A", Price: dec("10.50")}}
	w.Record(items, "192.0.2.9")

	select {
	case entry := <-recorded:
		assert.NotEqual(t, uuid.Nil, entry.ID)
		assert.Equal(t, "192.0.2.9", entry.Origin)
		assert.Equal(t, items, entry.Items)
		assert.False(t, entry.RecordedAt.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for trail entry")
	}

	require.NoError(t, w.Stop(context.Background()))
}

func TestTrailWorker_StopDrainsQueue(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mocks.NewMockTrailRepository(ctrl)

	var appended atomic.Int64
	repo.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ *domain.TrailEntry) error {
			appended.Add(1)
			return nil
		}).Times(3)

	w := NewTrailWorker(repo, 8, zerolog.Nop())

	// Queued before the worker even starts; Stop must still drain.
	w.Record(nil, "a")
	w.Record(nil, "b")
	w.Record(nil, "c")
	w.Start()

	require.NoError(t, w.Stop(context.Background()))
	assert.Equal(t, int64(3), appended.Load())
}

func TestTrailWorker_SinkFailureDoesNotStopWorker(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mocks.NewMockTrailRepository(ctrl)

	var attempts atomic.Int64
	repo.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ *domain.TrailEntry) error {
			if attempts.Add(1) == 1 {
				return errors.New("sink unavailable")
			}
			return nil
		}).Times(2)

	w := NewTrailWorker(repo, 8, zerolog.Nop())
	w.Start()

	w.Record(nil, "first")
	w.Record(nil, "second")

	require.NoError(t, w.Stop(context.Background()))
	assert.Equal(t, int64(2), attempts.Load())
}

func TestTrailWorker_StopHonorsContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mocks.NewMockTrailRepository(ctrl)

	release := make(chan struct{})
	repo.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ *domain.TrailEntry) error {
			<-release
			return nil
		})

	w := NewTrailWorker(repo, 8, zerolog.Nop())
	w.Start()
	w.Record(nil, "stuck")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := w.Stop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}

func TestTrailWorker_RecordCopiesItems(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mocks.NewMockTrailRepository(ctrl)

	recorded := make(chan *domain.TrailEntry, 1)
	repo.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, entry *domain.TrailEntry) error {
			recorded <- entry
			return nil
		})

	w := NewTrailWorker(repo, 8, zerolog.Nop())

	items := []domain.SaleItem{{SellerID: "A", Price: dec("1")}}
	w.Record(items, "origin")
	items[0].SellerID = "mutated"

	w.Start()

	select {
	case entry := <-recorded:
		assert.Equal(t, "A", entry.Items[0].SellerID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for trail entry")
	}

	require.NoError(t, w.Stop(context.Background()))
}

func TestTrailWorker_DefaultQueueSize(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mocks.NewMockTrailRepository(ctrl)
	repo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil).Times(5)

	w := NewTrailWorker(repo, 0, zerolog.Nop())

	// A non-positive size falls back to the default buffer, so these
	// sends do not block even though the worker is not running yet.
	for i := 0; i < 5; i++ {
		w.Record(nil, "burst")
	}
	w.Start()

	require.NoError(t, w.Stop(context.Background()))
}

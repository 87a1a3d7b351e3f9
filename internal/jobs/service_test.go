package jobs

import (
	"context"
	"testing"

	"github.com/paceline/auth-front/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *MemoryQueue) {
	t.Helper()
	queue := NewMemoryQueue()
	return NewService(storage.NewMemoryStorage(0), queue), queue
}

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()
	service, queue := newTestService(t)

	params := map[string]any{"after": "2026-01-01"}
	job, err := service.Create(ctx, "athlete-42", params)
	require.NoError(t, err)

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "athlete-42", job.UserID)
	assert.Equal(t, storage.JobStatusCreated, job.Status)
	assert.Equal(t, params, job.Params)
	assert.False(t, job.CreatedAt.IsZero())

	items := queue.Drain()
	require.Len(t, items, 1)
	assert.Equal(t, WorkItem{JobID: job.ID, UserID: "athlete-42", Params: params}, items[0])

	stored, err := service.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.JobStatusCreated, stored.Status)
}

func TestServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	job, err := service.Create(ctx, "athlete-42", nil)
	require.NoError(t, err)

	t.Run("mark started", func(t *testing.T) {
		started, err := service.MarkStarted(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, storage.JobStatusStarted, started.Status)
		assert.False(t, started.StartedAt.IsZero())
	})

	t.Run("mark completed", func(t *testing.T) {
		result := map[string]any{"activities": float64(17)}
		completed, err := service.MarkCompleted(ctx, job.ID, result)
		require.NoError(t, err)
		assert.Equal(t, storage.JobStatusCompleted, completed.Status)
		assert.Equal(t, result, completed.Result)
		assert.False(t, completed.CompletedAt.IsZero())
	})

	t.Run("mark failed", func(t *testing.T) {
		other, err := service.Create(ctx, "athlete-42", nil)
		require.NoError(t, err)

		failed, err := service.MarkFailed(ctx, other.ID, "upstream rate limited")
		require.NoError(t, err)
		assert.Equal(t, storage.JobStatusFailed, failed.Status)
		assert.Equal(t, "upstream rate limited", failed.Error)
		assert.False(t, failed.FailedAt.IsZero())
	})

	t.Run("mark unknown job", func(t *testing.T) {
		_, err := service.MarkStarted(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestServiceListForUser(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	for i := 0; i < 3; i++ {
		_, err := service.Create(ctx, "athlete-42", nil)
		require.NoError(t, err)
	}
	_, err := service.Create(ctx, "someone-else", nil)
	require.NoError(t, err)

	jobs, err := service.ListForUser(ctx, "athlete-42")
	require.NoError(t, err)
	assert.Len(t, jobs, 3)
	for _, job := range jobs {
		assert.Equal(t, "athlete-42", job.UserID)
	}
}

func TestMemoryQueueDrain(t *testing.T) {
	queue := NewMemoryQueue()
	require.NoError(t, queue.Enqueue(context.Background(), WorkItem{JobID: "job-1"}))
	require.NoError(t, queue.Enqueue(context.Background(), WorkItem{JobID: "job-2"}))

	items := queue.Drain()
	require.Len(t, items, 2)
	assert.Empty(t, queue.Drain())
}

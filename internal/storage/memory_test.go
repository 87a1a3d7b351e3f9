package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorageClients(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage(0)

	client := &Client{
		ID:           "client-1",
		Name:         "Test App",
		Scope:        "read",
		RedirectURIs: []string{"https://app.example.com/callback"},
		CreatedAt:    time.Now(),
	}
	require.NoError(t, store.CreateClient(ctx, client))

	got, err := store.GetClient(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, "Test App", got.Name)

	_, err = store.GetClient(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorageStates(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip and single-use delete", func(t *testing.T) {
		store := NewMemoryStorage(0)
		state := &AuthorizationState{ID: "state-1", ClientID: "client-1", State: "csrf", CreatedAt: time.Now()}
		require.NoError(t, store.CreateState(ctx, state))

		got, err := store.GetState(ctx, "state-1")
		require.NoError(t, err)
		assert.Equal(t, "csrf", got.State)

		require.NoError(t, store.DeleteState(ctx, "state-1"))
		assert.ErrorIs(t, store.DeleteState(ctx, "state-1"), ErrNotFound)
		_, err = store.GetState(ctx, "state-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("expired state reads as not found", func(t *testing.T) {
		store := NewMemoryStorage(10 * time.Millisecond)
		state := &AuthorizationState{ID: "state-1", CreatedAt: time.Now().Add(-time.Minute)}
		require.NoError(t, store.CreateState(ctx, state))

		_, err := store.GetState(ctx, "state-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryStorageCodes(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		store := NewMemoryStorage(0)
		code := &AuthorizationCode{ID: "code-1", UserID: "athlete-42", CreatedAt: time.Now()}
		require.NoError(t, store.CreateCode(ctx, code))

		got, err := store.GetCode(ctx, "code-1")
		require.NoError(t, err)
		assert.Equal(t, "athlete-42", got.UserID)
	})

	t.Run("expired code reads as not found", func(t *testing.T) {
		store := NewMemoryStorage(10 * time.Millisecond)
		code := &AuthorizationCode{ID: "code-1", CreatedAt: time.Now().Add(-time.Minute)}
		require.NoError(t, store.CreateCode(ctx, code))

		_, err := store.GetCode(ctx, "code-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("concurrent deletes have exactly one winner", func(t *testing.T) {
		store := NewMemoryStorage(0)
		require.NoError(t, store.CreateCode(ctx, &AuthorizationCode{ID: "code-1", CreatedAt: time.Now()}))

		const attempts = 32
		results := make(chan error, attempts)
		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results <- store.DeleteCode(ctx, "code-1")
			}()
		}
		wg.Wait()
		close(results)

		winners := 0
		for err := range results {
			if err == nil {
				winners++
			} else {
				assert.ErrorIs(t, err, ErrNotFound)
			}
		}
		assert.Equal(t, 1, winners)
	})
}

func TestMemoryStorageJobs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage(0)

	job := &Job{ID: "job-1", UserID: "athlete-42", Status: JobStatusCreated, CreatedAt: time.Now()}
	require.NoError(t, store.CreateJob(ctx, job))

	t.Run("get returns a copy", func(t *testing.T) {
		got, err := store.GetJob(ctx, "job-1")
		require.NoError(t, err)
		got.Status = JobStatusFailed

		again, err := store.GetJob(ctx, "job-1")
		require.NoError(t, err)
		assert.Equal(t, JobStatusCreated, again.Status)
	})

	t.Run("update", func(t *testing.T) {
		updated := *job
		updated.Status = JobStatusStarted
		updated.StartedAt = time.Now()
		require.NoError(t, store.UpdateJob(ctx, &updated))

		got, err := store.GetJob(ctx, "job-1")
		require.NoError(t, err)
		assert.Equal(t, JobStatusStarted, got.Status)
	})

	t.Run("update unknown job", func(t *testing.T) {
		assert.ErrorIs(t, store.UpdateJob(ctx, &Job{ID: "missing"}), ErrNotFound)
	})

	t.Run("list for user", func(t *testing.T) {
		require.NoError(t, store.CreateJob(ctx, &Job{ID: "job-2", UserID: "athlete-42", Status: JobStatusCreated}))
		require.NoError(t, store.CreateJob(ctx, &Job{ID: "job-3", UserID: "someone-else", Status: JobStatusCreated}))

		jobs, err := store.GetJobsForUser(ctx, "athlete-42")
		require.NoError(t, err)
		assert.Len(t, jobs, 2)
	})
}

func TestMemoryStorageCleanupExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage(time.Minute)

	old := time.Now().Add(-time.Hour)
	require.NoError(t, store.CreateState(ctx, &AuthorizationState{ID: "old-state", CreatedAt: old}))
	require.NoError(t, store.CreateCode(ctx, &AuthorizationCode{ID: "old-code", CreatedAt: old}))
	require.NoError(t, store.CreateState(ctx, &AuthorizationState{ID: "fresh-state", CreatedAt: time.Now()}))

	count, err := store.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = store.GetState(ctx, "fresh-state")
	assert.NoError(t, err)

	t.Run("zero ttl disables cleanup", func(t *testing.T) {
		noTTL := NewMemoryStorage(0)
		require.NoError(t, noTTL.CreateState(ctx, &AuthorizationState{ID: "old", CreatedAt: old}))
		count, err := noTTL.CleanupExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}

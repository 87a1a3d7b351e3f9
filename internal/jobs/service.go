package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/paceline/auth-front/internal/crypto"
	"github.com/paceline/auth-front/internal/log"
	"github.com/paceline/auth-front/internal/storage"
)

// Service manages the sync-job lifecycle: created -> started ->
// completed/failed. Creation persists the record before enqueueing, so the
// worker can always resolve the job id it receives.
type Service struct {
	store storage.JobStore
	queue Queue
}

// NewService creates the job service.
func NewService(store storage.JobStore, queue Queue) *Service {
	return &Service{store: store, queue: queue}
}

// Create persists a new job for the user and enqueues it for the worker.
func (s *Service) Create(ctx context.Context, userID string, params map[string]any) (*storage.Job, error) {
	id, err := crypto.GenerateSecureToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate job id: %w", err)
	}

	job := &storage.Job{
		ID:        id,
		UserID:    userID,
		Status:    storage.JobStatusCreated,
		Params:    params,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to store job: %w", err)
	}

	if err := s.queue.Enqueue(ctx, WorkItem{JobID: job.ID, UserID: userID, Params: params}); err != nil {
		return nil, fmt.Errorf("failed to enqueue job %s: %w", job.ID, err)
	}

	log.LogInfoWithFields("jobs", "Created sync job", map[string]any{
		"job_id":  job.ID,
		"user_id": userID,
	})
	return job, nil
}

// Get returns a job by id.
func (s *Service) Get(ctx context.Context, id string) (*storage.Job, error) {
	return s.store.GetJob(ctx, id)
}

// ListForUser returns all jobs belonging to a user.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]*storage.Job, error) {
	return s.store.GetJobsForUser(ctx, userID)
}

// MarkStarted transitions a job to started.
func (s *Service) MarkStarted(ctx context.Context, id string) (*storage.Job, error) {
	return s.update(ctx, id, func(job *storage.Job) {
		job.Status = storage.JobStatusStarted
		job.StartedAt = time.Now()
	})
}

// MarkCompleted transitions a job to completed with its result.
func (s *Service) MarkCompleted(ctx context.Context, id string, result map[string]any) (*storage.Job, error) {
	return s.update(ctx, id, func(job *storage.Job) {
		job.Status = storage.JobStatusCompleted
		job.Result = result
		job.CompletedAt = time.Now()
	})
}

// MarkFailed transitions a job to failed with the error message.
func (s *Service) MarkFailed(ctx context.Context, id string, errMsg string) (*storage.Job, error) {
	return s.update(ctx, id, func(job *storage.Job) {
		job.Status = storage.JobStatusFailed
		job.Error = errMsg
		job.FailedAt = time.Now()
	})
}

func (s *Service) update(ctx context.Context, id string, apply func(*storage.Job)) (*storage.Job, error) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(job)
	if err := s.store.UpdateJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

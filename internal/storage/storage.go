package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a record doesn't exist, has expired, or has
// already been consumed. Callers distinguish it from transient backend
// failures with errors.Is.
var ErrNotFound = errors.New("record not found")

// CredentialStore persists clients and the single-use authorization
// states/codes of the protocol state machine.
//
// DeleteState and DeleteCode are delete-if-present: they return ErrNotFound
// when the record is already gone, atomically with the removal. Of N racing
// redemptions of the same id, exactly one delete succeeds.
type CredentialStore interface {
	CreateClient(ctx context.Context, client *Client) error
	GetClient(ctx context.Context, id string) (*Client, error)

	CreateState(ctx context.Context, state *AuthorizationState) error
	GetState(ctx context.Context, id string) (*AuthorizationState, error)
	DeleteState(ctx context.Context, id string) error

	CreateCode(ctx context.Context, code *AuthorizationCode) error
	GetCode(ctx context.Context, id string) (*AuthorizationCode, error)
	DeleteCode(ctx context.Context, id string) error
}

// JobStore persists sync-job lifecycle records.
type JobStore interface {
	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	GetJobsForUser(ctx context.Context, userID string) ([]*Job, error)
	UpdateJob(ctx context.Context, job *Job) error
}

// Storage combines all storage capabilities needed by auth-front.
type Storage interface {
	CredentialStore
	JobStore

	// CleanupExpired removes authorization states and codes older than the
	// record TTL and reports how many were purged.
	CleanupExpired(ctx context.Context) (int, error)

	Close() error
}

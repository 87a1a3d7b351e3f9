package storage

import "time"

// Client is a registered OAuth client. Clients are immutable after
// registration and are never deleted by this service.
type Client struct {
	ID           string
	Name         string
	Scope        string
	RedirectURIs []string
	CreatedAt    time.Time
}

// AuthorizationState captures an in-flight authorization request while the
// end user is being authenticated by the upstream provider. The record id is
// the correlation token for the upstream round trip; State carries the
// client-supplied anti-CSRF value, which is never shown to the upstream.
type AuthorizationState struct {
	ID            string
	ClientID      string
	CodeChallenge string
	RedirectURI   string
	Scope         string
	State         string
	CreatedAt     time.Time
}

// AuthorizationCode is a single-use grant bound to a verified user.
type AuthorizationCode struct {
	ID            string
	UserID        string
	ClientID      string
	CodeChallenge string
	RedirectURI   string
	Scope         string
	CreatedAt     time.Time
}

// JobStatus is the lifecycle state of a sync job.
type JobStatus string

const (
	JobStatusCreated   JobStatus = "created"
	JobStatusStarted   JobStatus = "started"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job tracks one unit of background sync work for a user.
type Job struct {
	ID          string
	UserID      string
	Status      JobStatus
	Params      map[string]any
	Result      map[string]any
	Error       string
	CreatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time
	FailedAt    time.Time
}

package storage

import (
	"context"
	"sync"
	"time"

	"github.com/paceline/auth-front/internal/log"
)

// Ensure MemoryStorage implements the storage interfaces
var _ Storage = (*MemoryStorage)(nil)

// MemoryStorage is a simple storage layer - only stores and retrieves data.
// Single-use deletes are atomic under the per-kind mutex.
type MemoryStorage struct {
	recordTTL time.Duration

	clientsMutex sync.RWMutex
	clients      map[string]*Client

	statesMutex sync.RWMutex
	states      map[string]*AuthorizationState

	codesMutex sync.RWMutex
	codes      map[string]*AuthorizationCode

	jobsMutex sync.RWMutex
	jobs      map[string]*Job
}

// NewMemoryStorage creates a new storage instance. Records older than
// recordTTL are treated as not found; a zero TTL disables expiry.
func NewMemoryStorage(recordTTL time.Duration) *MemoryStorage {
	return &MemoryStorage{
		recordTTL: recordTTL,
		clients:   make(map[string]*Client),
		states:    make(map[string]*AuthorizationState),
		codes:     make(map[string]*AuthorizationCode),
		jobs:      make(map[string]*Job),
	}
}

func (s *MemoryStorage) expired(createdAt time.Time) bool {
	return s.recordTTL > 0 && time.Since(createdAt) > s.recordTTL
}

func (s *MemoryStorage) CreateClient(_ context.Context, client *Client) error {
	s.clientsMutex.Lock()
	s.clients[client.ID] = client
	clientCount := len(s.clients)
	s.clientsMutex.Unlock()

	log.Logf("Created client %s, redirect_uris: %v, scope: %q", client.ID, client.RedirectURIs, client.Scope)
	log.Logf("Total clients in storage: %d", clientCount)
	return nil
}

func (s *MemoryStorage) GetClient(_ context.Context, id string) (*Client, error) {
	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()

	client, ok := s.clients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return client, nil
}

func (s *MemoryStorage) CreateState(_ context.Context, state *AuthorizationState) error {
	s.statesMutex.Lock()
	defer s.statesMutex.Unlock()

	s.states[state.ID] = state
	return nil
}

func (s *MemoryStorage) GetState(_ context.Context, id string) (*AuthorizationState, error) {
	s.statesMutex.RLock()
	defer s.statesMutex.RUnlock()

	state, ok := s.states[id]
	if !ok || s.expired(state.CreatedAt) {
		return nil, ErrNotFound
	}
	return state, nil
}

func (s *MemoryStorage) DeleteState(_ context.Context, id string) error {
	s.statesMutex.Lock()
	defer s.statesMutex.Unlock()

	if _, ok := s.states[id]; !ok {
		return ErrNotFound
	}
	delete(s.states, id)
	return nil
}

func (s *MemoryStorage) CreateCode(_ context.Context, code *AuthorizationCode) error {
	s.codesMutex.Lock()
	defer s.codesMutex.Unlock()

	s.codes[code.ID] = code
	return nil
}

func (s *MemoryStorage) GetCode(_ context.Context, id string) (*AuthorizationCode, error) {
	s.codesMutex.RLock()
	defer s.codesMutex.RUnlock()

	code, ok := s.codes[id]
	if !ok || s.expired(code.CreatedAt) {
		return nil, ErrNotFound
	}
	return code, nil
}

func (s *MemoryStorage) DeleteCode(_ context.Context, id string) error {
	s.codesMutex.Lock()
	defer s.codesMutex.Unlock()

	if _, ok := s.codes[id]; !ok {
		return ErrNotFound
	}
	delete(s.codes, id)
	return nil
}

func (s *MemoryStorage) CreateJob(_ context.Context, job *Job) error {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	jobCopy := *job
	s.jobs[job.ID] = &jobCopy
	return nil
}

func (s *MemoryStorage) GetJob(_ context.Context, id string) (*Job, error) {
	s.jobsMutex.RLock()
	defer s.jobsMutex.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	jobCopy := *job
	return &jobCopy, nil
}

func (s *MemoryStorage) GetJobsForUser(_ context.Context, userID string) ([]*Job, error) {
	s.jobsMutex.RLock()
	defer s.jobsMutex.RUnlock()

	var jobs []*Job
	for _, job := range s.jobs {
		if job.UserID == userID {
			jobCopy := *job
			jobs = append(jobs, &jobCopy)
		}
	}
	return jobs, nil
}

func (s *MemoryStorage) UpdateJob(_ context.Context, job *Job) error {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	if _, ok := s.jobs[job.ID]; !ok {
		return ErrNotFound
	}
	jobCopy := *job
	s.jobs[job.ID] = &jobCopy
	return nil
}

func (s *MemoryStorage) CleanupExpired(_ context.Context) (int, error) {
	if s.recordTTL == 0 {
		return 0, nil
	}

	count := 0

	s.statesMutex.Lock()
	for id, state := range s.states {
		if s.expired(state.CreatedAt) {
			delete(s.states, id)
			count++
		}
	}
	s.statesMutex.Unlock()

	s.codesMutex.Lock()
	for id, code := range s.codes {
		if s.expired(code.CreatedAt) {
			delete(s.codes, id)
			count++
		}
	}
	s.codesMutex.Unlock()

	return count, nil
}

func (s *MemoryStorage) Close() error {
	return nil
}

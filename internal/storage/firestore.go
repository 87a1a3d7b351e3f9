package storage

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/paceline/auth-front/internal/log"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStorage implements the storage contracts using Google Cloud
// Firestore.
//
// Single-use deletes run inside a transaction (read-then-delete) so that of N
// concurrent redemptions of the same state/code id exactly one observes the
// document and deletes it; the rest get ErrNotFound.
type FirestoreStorage struct {
	client    *firestore.Client
	recordTTL time.Duration

	clientsCollection string
	statesCollection  string
	codesCollection   string
	jobsCollection    string
}

var _ Storage = (*FirestoreStorage)(nil)

// clientEntity is the Firestore document layout for registered clients
type clientEntity struct {
	ID           string    `firestore:"id"`
	Name         string    `firestore:"name"`
	Scope        string    `firestore:"scope"`
	RedirectURIs []string  `firestore:"redirect_uris"`
	CreatedAt    time.Time `firestore:"created_at"`
}

type stateEntity struct {
	ID            string    `firestore:"id"`
	ClientID      string    `firestore:"client_id"`
	CodeChallenge string    `firestore:"code_challenge"`
	RedirectURI   string    `firestore:"redirect_uri"`
	Scope         string    `firestore:"scope"`
	State         string    `firestore:"state"`
	CreatedAt     time.Time `firestore:"created_at"`
}

type codeEntity struct {
	ID            string    `firestore:"id"`
	UserID        string    `firestore:"user_id"`
	ClientID      string    `firestore:"client_id"`
	CodeChallenge string    `firestore:"code_challenge"`
	RedirectURI   string    `firestore:"redirect_uri"`
	Scope         string    `firestore:"scope"`
	CreatedAt     time.Time `firestore:"created_at"`
}

type jobEntity struct {
	ID          string         `firestore:"id"`
	UserID      string         `firestore:"user_id"`
	Status      string         `firestore:"status"`
	Params      map[string]any `firestore:"params,omitempty"`
	Result      map[string]any `firestore:"result,omitempty"`
	Error       string         `firestore:"error,omitempty"`
	CreatedAt   time.Time      `firestore:"created_at"`
	StartedAt   time.Time      `firestore:"started_at,omitempty"`
	CompletedAt time.Time      `firestore:"completed_at,omitempty"`
	FailedAt    time.Time      `firestore:"failed_at,omitempty"`
}

// NewFirestoreStorage creates a new Firestore storage instance. The
// collectionPrefix namespaces the four collections so multiple deployments
// can share a database.
func NewFirestoreStorage(ctx context.Context, projectID, database, collectionPrefix string, recordTTL time.Duration) (*FirestoreStorage, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required")
	}
	if collectionPrefix == "" {
		collectionPrefix = "auth_front"
	}

	var client *firestore.Client
	var err error

	if database != "" && database != "(default)" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, database)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return &FirestoreStorage{
		client:            client,
		recordTTL:         recordTTL,
		clientsCollection: collectionPrefix + "_clients",
		statesCollection:  collectionPrefix + "_states",
		codesCollection:   collectionPrefix + "_codes",
		jobsCollection:    collectionPrefix + "_jobs",
	}, nil
}

func (s *FirestoreStorage) expired(createdAt time.Time) bool {
	return s.recordTTL > 0 && time.Since(createdAt) > s.recordTTL
}

func (s *FirestoreStorage) CreateClient(ctx context.Context, client *Client) error {
	entity := clientEntity{
		ID:           client.ID,
		Name:         client.Name,
		Scope:        client.Scope,
		RedirectURIs: client.RedirectURIs,
		CreatedAt:    client.CreatedAt,
	}
	if _, err := s.client.Collection(s.clientsCollection).Doc(client.ID).Set(ctx, entity); err != nil {
		return fmt.Errorf("failed to store client in Firestore: %w", err)
	}
	log.Logf("Stored client %s in Firestore", client.ID)
	return nil
}

func (s *FirestoreStorage) GetClient(ctx context.Context, id string) (*Client, error) {
	doc, err := s.client.Collection(s.clientsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get client from Firestore: %w", err)
	}

	var entity clientEntity
	if err := doc.DataTo(&entity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal client: %w", err)
	}

	return &Client{
		ID:           entity.ID,
		Name:         entity.Name,
		Scope:        entity.Scope,
		RedirectURIs: entity.RedirectURIs,
		CreatedAt:    entity.CreatedAt,
	}, nil
}

func (s *FirestoreStorage) CreateState(ctx context.Context, state *AuthorizationState) error {
	entity := stateEntity{
		ID:            state.ID,
		ClientID:      state.ClientID,
		CodeChallenge: state.CodeChallenge,
		RedirectURI:   state.RedirectURI,
		Scope:         state.Scope,
		State:         state.State,
		CreatedAt:     state.CreatedAt,
	}
	if _, err := s.client.Collection(s.statesCollection).Doc(state.ID).Set(ctx, entity); err != nil {
		return fmt.Errorf("failed to store authorization state in Firestore: %w", err)
	}
	return nil
}

func (s *FirestoreStorage) GetState(ctx context.Context, id string) (*AuthorizationState, error) {
	doc, err := s.client.Collection(s.statesCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get authorization state from Firestore: %w", err)
	}

	var entity stateEntity
	if err := doc.DataTo(&entity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal authorization state: %w", err)
	}
	if s.expired(entity.CreatedAt) {
		return nil, ErrNotFound
	}

	return &AuthorizationState{
		ID:            entity.ID,
		ClientID:      entity.ClientID,
		CodeChallenge: entity.CodeChallenge,
		RedirectURI:   entity.RedirectURI,
		Scope:         entity.Scope,
		State:         entity.State,
		CreatedAt:     entity.CreatedAt,
	}, nil
}

func (s *FirestoreStorage) DeleteState(ctx context.Context, id string) error {
	return s.deleteIfPresent(ctx, s.statesCollection, id)
}

func (s *FirestoreStorage) CreateCode(ctx context.Context, code *AuthorizationCode) error {
	entity := codeEntity{
		ID:            code.ID,
		UserID:        code.UserID,
		ClientID:      code.ClientID,
		CodeChallenge: code.CodeChallenge,
		RedirectURI:   code.RedirectURI,
		Scope:         code.Scope,
		CreatedAt:     code.CreatedAt,
	}
	if _, err := s.client.Collection(s.codesCollection).Doc(code.ID).Set(ctx, entity); err != nil {
		return fmt.Errorf("failed to store authorization code in Firestore: %w", err)
	}
	return nil
}

func (s *FirestoreStorage) GetCode(ctx context.Context, id string) (*AuthorizationCode, error) {
	doc, err := s.client.Collection(s.codesCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get authorization code from Firestore: %w", err)
	}

	var entity codeEntity
	if err := doc.DataTo(&entity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal authorization code: %w", err)
	}
	if s.expired(entity.CreatedAt) {
		return nil, ErrNotFound
	}

	return &AuthorizationCode{
		ID:            entity.ID,
		UserID:        entity.UserID,
		ClientID:      entity.ClientID,
		CodeChallenge: entity.CodeChallenge,
		RedirectURI:   entity.RedirectURI,
		Scope:         entity.Scope,
		CreatedAt:     entity.CreatedAt,
	}, nil
}

func (s *FirestoreStorage) DeleteCode(ctx context.Context, id string) error {
	return s.deleteIfPresent(ctx, s.codesCollection, id)
}

// deleteIfPresent removes a document inside a transaction so the existence
// check and the delete are atomic.
func (s *FirestoreStorage) deleteIfPresent(ctx context.Context, collection, id string) error {
	ref := s.client.Collection(collection).Doc(id)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			return err
		}
		return tx.Delete(ref)
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s/%s from Firestore: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreStorage) CreateJob(ctx context.Context, job *Job) error {
	if _, err := s.client.Collection(s.jobsCollection).Doc(job.ID).Set(ctx, jobToEntity(job)); err != nil {
		return fmt.Errorf("failed to store job in Firestore: %w", err)
	}
	return nil
}

func (s *FirestoreStorage) GetJob(ctx context.Context, id string) (*Job, error) {
	doc, err := s.client.Collection(s.jobsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job from Firestore: %w", err)
	}

	var entity jobEntity
	if err := doc.DataTo(&entity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return jobFromEntity(&entity), nil
}

func (s *FirestoreStorage) GetJobsForUser(ctx context.Context, userID string) ([]*Job, error) {
	iter := s.client.Collection(s.jobsCollection).Where("user_id", "==", userID).Documents(ctx)
	defer iter.Stop()

	var jobs []*Job
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating Firestore jobs: %w", err)
		}

		var entity jobEntity
		if err := doc.DataTo(&entity); err != nil {
			log.LogError("Failed to unmarshal job from Firestore (job_id: %s): %v", doc.Ref.ID, err)
			continue
		}
		jobs = append(jobs, jobFromEntity(&entity))
	}
	return jobs, nil
}

func (s *FirestoreStorage) UpdateJob(ctx context.Context, job *Job) error {
	ref := s.client.Collection(s.jobsCollection).Doc(job.ID)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			return err
		}
		return tx.Set(ref, jobToEntity(job))
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update job in Firestore: %w", err)
	}
	return nil
}

func (s *FirestoreStorage) CleanupExpired(ctx context.Context) (int, error) {
	if s.recordTTL == 0 {
		return 0, nil
	}

	cutoff := time.Now().Add(-s.recordTTL)
	count := 0
	for _, collection := range []string{s.statesCollection, s.codesCollection} {
		iter := s.client.Collection(collection).Where("created_at", "<", cutoff).Documents(ctx)
		for {
			doc, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				iter.Stop()
				return count, fmt.Errorf("error iterating expired records in %s: %w", collection, err)
			}
			if _, err := doc.Ref.Delete(ctx); err != nil {
				log.LogError("Failed to delete expired record %s/%s: %v", collection, doc.Ref.ID, err)
				continue
			}
			count++
		}
		iter.Stop()
	}
	return count, nil
}

func (s *FirestoreStorage) Close() error {
	return s.client.Close()
}

func jobToEntity(job *Job) jobEntity {
	return jobEntity{
		ID:          job.ID,
		UserID:      job.UserID,
		Status:      string(job.Status),
		Params:      job.Params,
		Result:      job.Result,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
		FailedAt:    job.FailedAt,
	}
}

func jobFromEntity(entity *jobEntity) *Job {
	return &Job{
		ID:          entity.ID,
		UserID:      entity.UserID,
		Status:      JobStatus(entity.Status),
		Params:      entity.Params,
		Result:      entity.Result,
		Error:       entity.Error,
		CreatedAt:   entity.CreatedAt,
		StartedAt:   entity.StartedAt,
		CompletedAt: entity.CompletedAt,
		FailedAt:    entity.FailedAt,
	}
}

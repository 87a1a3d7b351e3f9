// Package jobs tracks background sync work for authenticated users. Job
// records live in the store; execution happens in an external worker that
// consumes the work queue.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// WorkItem is the payload handed to the worker queue when a job is created.
type WorkItem struct {
	JobID  string         `json:"jobId"`
	UserID string         `json:"userId"`
	Params map[string]any `json:"params,omitempty"`
}

// Queue hands work items to the external worker.
type Queue interface {
	Enqueue(ctx context.Context, item WorkItem) error
	Close() error
}

// RedisQueue pushes work items onto a Redis list consumed by the worker.
type RedisQueue struct {
	client *redis.Client
	key    string
}

var _ Queue = (*RedisQueue)(nil)

// NewRedisQueue connects to Redis and verifies the connection.
func NewRedisQueue(ctx context.Context, addr, password string, db int, key string) (*RedisQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	if key == "" {
		key = "sync:jobs"
	}
	return &RedisQueue{client: client, key: key}, nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, item WorkItem) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal work item: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue work item: %w", err)
	}
	return nil
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// MemoryQueue buffers work items in memory, for single-process deployments
// and tests.
type MemoryQueue struct {
	mu    sync.Mutex
	items []WorkItem
}

var _ Queue = (*MemoryQueue)(nil)

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

func (q *MemoryQueue) Enqueue(_ context.Context, item WorkItem) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, item)
	return nil
}

// Drain returns and clears the buffered items.
func (q *MemoryQueue) Drain() []WorkItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

func (q *MemoryQueue) Close() error {
	return nil
}

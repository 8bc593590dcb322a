package blob

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/lifetrack-app/lifetrack-backend/internal/apperr"
)

const releaseQueueKey = "blobs:release"

// RedisReleaseQueue persists pending blob releases in a Redis list so
// they survive restarts.
type RedisReleaseQueue struct {
	client *redis.Client
}

var _ ReleaseQueue = (*RedisReleaseQueue)(nil)

func NewRedisReleaseQueue(client *redis.Client) *RedisReleaseQueue {
	return &RedisReleaseQueue{client: client}
}

func (q *RedisReleaseQueue) Enqueue(ctx context.Context, blobID string) error {
	if err := q.client.RPush(ctx, releaseQueueKey, blobID).Err(); err != nil {
		return apperr.Storage("enqueue blob release", err)
	}
	return nil
}

func (q *RedisReleaseQueue) Dequeue(ctx context.Context, max int64) ([]string, error) {
	ids, err := q.client.LPopCount(ctx, releaseQueueKey, int(max)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, apperr.Storage("dequeue blob release", err)
	}
	return ids, nil
}

// MemoryReleaseQueue keeps pending releases in process memory.
type MemoryReleaseQueue struct {
	mu  sync.Mutex
	ids []string
}

var _ ReleaseQueue = (*MemoryReleaseQueue)(nil)

func NewMemoryReleaseQueue() *MemoryReleaseQueue {
	return &MemoryReleaseQueue{}
}

func (q *MemoryReleaseQueue) Enqueue(_ context.Context, blobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, blobID)
	return nil
}

func (q *MemoryReleaseQueue) Dequeue(_ context.Context, max int64) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := int(max)
	if n > len(q.ids) {
		n = len(q.ids)
	}
	if n == 0 {
		return nil, nil
	}
	out := append([]string(nil), q.ids[:n]...)
	q.ids = q.ids[n:]
	return out, nil
}

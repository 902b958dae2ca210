package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// finishScript deletes the key only if it still holds our request id
var finishScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LatestRegistry records the newest request id per document in Redis so
// every worker sees when an older analysis has been superseded.
type LatestRegistry struct {
	redis redis.UniversalClient
	ttl   time.Duration
}

func NewLatestRegistry(client redis.UniversalClient, ttl time.Duration) *LatestRegistry {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &LatestRegistry{redis: client, ttl: ttl}
}

func latestKey(documentID string) string {
	return fmt.Sprintf("doc_latest:%s", documentID)
}

// Begin marks a fresh request as the latest for documentID
func (r *LatestRegistry) Begin(ctx context.Context, documentID string) (string, error) {
	requestID := uuid.New().String()
	if err := r.redis.Set(ctx, latestKey(documentID), requestID, r.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to register request: %w", err)
	}
	return requestID, nil
}

func (r *LatestRegistry) Superseded(ctx context.Context, documentID, requestID string) (bool, error) {
	latest, err := r.redis.Get(ctx, latestKey(documentID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read latest request: %w", err)
	}
	return latest != requestID, nil
}

func (r *LatestRegistry) Finish(ctx context.Context, documentID, requestID string) error {
	if err := finishScript.Run(ctx, r.redis, []string{latestKey(documentID)}, requestID).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to release request: %w", err)
	}
	return nil
}

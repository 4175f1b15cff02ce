package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// redisKey namespaces the sorted set holding pending/in-flight tasks for
// crash recovery.
const redisKey = "sentinela:queue:tasks"

// RedisStore persists tasks to a Redis sorted set so a restarted process
// can rebuild its heap instead of losing in-flight work. The member is
// the JSON-encoded task; the score orders by (priority, enqueued_at)
// within float64 precision (priority dominates the integer part, enqueue
// time at second resolution breaks ties).
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client. Callers own the client's
// lifecycle (Close).
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Persist(ctx context.Context, t *Task) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	score := float64(t.Priority)*1e10 + float64(t.EnqueuedAt.Unix()%1e10)
	return s.client.ZAdd(ctx, redisKey, &redis.Z{Score: score, Member: payload}).Err()
}

func (s *RedisStore) Remove(ctx context.Context, taskID string) error {
	members, err := s.client.ZRange(ctx, redisKey, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("scan tasks: %w", err)
	}
	for _, m := range members {
		var t Task
		if err := json.Unmarshal([]byte(m), &t); err != nil {
			continue
		}
		if t.TaskID == taskID {
			return s.client.ZRem(ctx, redisKey, m).Err()
		}
	}
	return nil
}

// LoadAll reconstructs all persisted tasks, used on startup to rebuild
// the in-memory heap after a crash or restart.
func (s *RedisStore) LoadAll(ctx context.Context) ([]*Task, error) {
	members, err := s.client.ZRange(ctx, redisKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("scan tasks: %w", err)
	}

	tasks := make([]*Task, 0, len(members))
	for _, m := range members {
		var t Task
		if err := json.Unmarshal([]byte(m), &t); err != nil {
			continue
		}
		tasks = append(tasks, &t)
	}
	return tasks, nil
}

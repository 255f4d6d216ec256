package taskqueue

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	coreq "github.com/petrijr/reqflow/internal/taskqueue"
)

// RedisQueue implements the Queue interface using Redis.
//
// It uses a single Redis list with key:
//
//	<prefix>tasks
//
// Values are gob-encoded tasks. Result channels stay in the enqueueing
// process and are reattached when that process dequeues the task.
type RedisQueue struct {
	client  *redis.Client
	key     string
	replies coreq.Replies
}

// NewRedisQueue constructs a Redis-backed Queue.
// prefix is optional but recommended (e.g. "reqflow:").
func NewRedisQueue(client *redis.Client, prefix string) *RedisQueue {
	if prefix == "" {
		prefix = "reqflow:"
	}
	return &RedisQueue{
		client: client,
		key:    prefix + "tasks",
	}
}

// Ensure RedisQueue implements Queue.
var _ coreq.Queue = (*RedisQueue)(nil)

// Enqueue pushes a task onto the Redis list (LPUSH).
func (q *RedisQueue) Enqueue(ctx context.Context, t coreq.Task) error {
	data, err := coreq.EncodeTask(t)
	if err != nil {
		return err
	}
	q.replies.Track(t)
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		q.replies.Forget(t.ID)
		return err
	}
	return nil
}

// Dequeue blocks on BRPOP until a task is available or ctx is cancelled.
func (q *RedisQueue) Dequeue(ctx context.Context) (*coreq.Task, error) {
	for {
		// BRPop returns [key, value]
		res, err := q.client.BRPop(ctx, 0, q.key).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, err
		}
		if len(res) != 2 {
			slog.WarnContext(ctx, "redis_queue_unexpected_reply", slog.Any("reply", res))
			continue
		}

		task, err := coreq.DecodeTask([]byte(res[1]))
		if err != nil {
			return nil, err
		}
		q.replies.Attach(task)
		return task, nil
	}
}

// Len returns the approximate number of tasks queued (LLEN).
func (q *RedisQueue) Len() int {
	n, err := q.client.LLen(context.Background(), q.key).Result()
	if err != nil {
		slog.Warn("redis_queue_len_failed", slog.Any("error", err))
		return 0
	}
	return int(n)
}

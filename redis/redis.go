// Package redis provides Redis backends for reqflow: an event queue that
// feeds a worker and an event store for run journals.
package redis

import (
	"github.com/redis/go-redis/v9"

	"github.com/petrijr/reqflow"
	rstore "github.com/petrijr/reqflow/redis/internal/persistence"
	rqueue "github.com/petrijr/reqflow/redis/internal/taskqueue"
)

// NewRedisQueue returns a queue kept in a Redis list. Event types must be
// registered with reqflow.RegisterEvent. prefix defaults to "reqflow:".
func NewRedisQueue(client *redis.Client, prefix string) reqflow.Queue {
	return rqueue.NewRedisQueue(client, prefix)
}

// NewRedisEventStore returns an event store keeping one Redis list per
// runner. prefix defaults to "reqflow:".
func NewRedisEventStore(client *redis.Client, prefix string) *rstore.RedisEventStore {
	return rstore.NewRedisEventStore(client, prefix)
}

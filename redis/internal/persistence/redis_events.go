package persistence

import (
	"context"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	corep "github.com/petrijr/reqflow/internal/persistence"
	"github.com/petrijr/reqflow/pkg/api"
)

// RedisEventStore is an EventStore backed by Redis.
// It uses a simple key structure:
//
//	<prefix>events:<runner id>  => LIST of gob-encoded run events
//	<prefix>idx:runners         => SET of runner ids with events
type RedisEventStore struct {
	client *redis.Client
	prefix string
}

var _ corep.EventStore = (*RedisEventStore)(nil)

// NewRedisEventStore creates a RedisEventStore.
// prefix is optional but recommended (e.g. "reqflow:").
func NewRedisEventStore(client *redis.Client, prefix string) *RedisEventStore {
	if prefix == "" {
		prefix = "reqflow:"
	}
	return &RedisEventStore{
		client: client,
		prefix: prefix,
	}
}

func (r *RedisEventStore) keyEvents(runnerID string) string {
	return r.prefix + "events:" + runnerID
}

func (r *RedisEventStore) keyRunners() string {
	return r.prefix + "idx:runners"
}

func (r *RedisEventStore) AppendEvent(ctx context.Context, ev api.RunEvent) error {
	if err := corep.ValidateEvent(ev); err != nil {
		return err
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	data, err := corep.EncodeEvent(ev)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, r.keyEvents(ev.RunnerID), data)
	pipe.SAdd(ctx, r.keyRunners(), ev.RunnerID)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisEventStore) ListEvents(ctx context.Context, runnerID string) ([]api.RunEvent, error) {
	raw, err := r.client.LRange(ctx, r.keyEvents(runnerID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]api.RunEvent, 0, len(raw))
	for _, s := range raw {
		ev, err := corep.DecodeEvent([]byte(s))
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

// RunnerIDs returns the ids of runners with recorded events, sorted.
func (r *RedisEventStore) RunnerIDs(ctx context.Context) ([]string, error) {
	ids, err := r.client.SMembers(ctx, r.keyRunners()).Result()
	if err != nil {
		return nil, err
	}
	slices.Sort(ids)
	return ids, nil
}

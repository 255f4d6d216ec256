package taskqueue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	coreq "github.com/petrijr/reqflow/internal/taskqueue"
)

// pollInterval is how long Dequeue waits before looking for tasks again.
const pollInterval = 100 * time.Millisecond

// MongoQueue implements Queue on top of MongoDB.
//
// Collection schema:
//
//	{
//	  _id:        string,    // task ID
//	  payload:    []byte,    // gob-encoded Task
//	  created_at: int64,     // enqueue time, unix nanoseconds
//	}
//
// Tasks are claimed with FindOneAndDelete, so each task is delivered to
// exactly one consumer.
type MongoQueue struct {
	coll    *mongo.Collection
	replies coreq.Replies
}

// NewMongoQueue creates a Mongo-backed queue.
// dbName defaults to "reqflow", collName to "queue_tasks".
func NewMongoQueue(client *mongo.Client, dbName, collName string) *MongoQueue {
	if dbName == "" {
		dbName = "reqflow"
	}
	if collName == "" {
		collName = "queue_tasks"
	}
	return &MongoQueue{
		coll: client.Database(dbName).Collection(collName),
	}
}

// Ensure MongoQueue implements Queue.
var _ coreq.Queue = (*MongoQueue)(nil)

type mongoQueueDoc struct {
	ID        string `bson:"_id"`
	Payload   []byte `bson:"payload"`
	CreatedAt int64  `bson:"created_at"`
}

// Enqueue inserts a document for the given Task.
func (q *MongoQueue) Enqueue(ctx context.Context, t coreq.Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	data, err := coreq.EncodeTask(t)
	if err != nil {
		return err
	}

	created := t.EnqueuedAt
	if created.IsZero() {
		created = time.Now()
	}
	doc := mongoQueueDoc{
		ID:        t.ID,
		Payload:   data,
		CreatedAt: created.UnixNano(),
	}

	q.replies.Track(t)
	if _, err := q.coll.InsertOne(ctx, doc); err != nil {
		q.replies.Forget(t.ID)
		return err
	}
	return nil
}

// Dequeue blocks (via polling) until a task is available or ctx is cancelled.
func (q *MongoQueue) Dequeue(ctx context.Context) (*coreq.Task, error) {
	// Reusable timer for polling when no tasks are available.
	tmr := time.NewTimer(0)
	if !tmr.Stop() {
		select {
		case <-tmr.C:
		default:
		}
	}
	defer tmr.Stop()

	opts := options.FindOneAndDelete().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		var doc mongoQueueDoc
		err := q.coll.FindOneAndDelete(ctx, bson.M{}, opts).Decode(&doc)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				tmr.Reset(pollInterval)
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-tmr.C:
				}
				continue
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, err
		}

		task, err := coreq.DecodeTask(doc.Payload)
		if err != nil {
			return nil, err
		}
		task.ID = doc.ID
		q.replies.Attach(task)
		return task, nil
	}
}

// Len returns an approximate number of queued tasks.
func (q *MongoQueue) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	n, err := q.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		slog.Warn("mongo_queue_len_failed", slog.Any("error", err))
		return 0
	}
	return int(n)
}

package persistence

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	corep "github.com/petrijr/reqflow/internal/persistence"
	"github.com/petrijr/reqflow/pkg/api"
)

// MongoEventStore is an EventStore backed by a MongoDB collection. Events
// are listed in insertion order.
type MongoEventStore struct {
	coll *mongo.Collection
}

// Ensure it implements EventStore.
var _ corep.EventStore = (*MongoEventStore)(nil)

// NewMongoEventStore creates a Mongo-backed event store.
// dbName defaults to "reqflow" if empty, collName defaults to "run_events".
func NewMongoEventStore(client *mongo.Client, dbName, collName string) *MongoEventStore {
	if dbName == "" {
		dbName = "reqflow"
	}
	if collName == "" {
		collName = "run_events"
	}

	return &MongoEventStore{
		coll: client.Database(dbName).Collection(collName),
	}
}

type mongoEventDoc struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	RunnerID string             `bson:"runner_id"`
	Seq      int64              `bson:"seq"`
	At       time.Time          `bson:"at"`
	Type     string             `bson:"type"`
	UseCase  string             `bson:"use_case,omitempty"`
	Flow     string             `bson:"flow,omitempty"`
	Step     string             `bson:"step,omitempty"`
	Event    string             `bson:"event,omitempty"`
	Detail   string             `bson:"detail,omitempty"`
}

// EnsureIndexes creates the index used by ListEvents.
func (s *MongoEventStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "runner_id", Value: 1}, {Key: "_id", Value: 1}},
	})
	return err
}

func (s *MongoEventStore) AppendEvent(ctx context.Context, ev api.RunEvent) error {
	if err := corep.ValidateEvent(ev); err != nil {
		return err
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	doc := mongoEventDoc{
		RunnerID: ev.RunnerID,
		Seq:      ev.Seq,
		At:       ev.At.UTC(),
		Type:     string(ev.Type),
		UseCase:  ev.UseCase,
		Flow:     ev.Flow,
		Step:     ev.Step,
		Event:    ev.Event,
		Detail:   ev.Detail,
	}
	_, err := s.coll.InsertOne(ctx, doc)
	return err
}

func (s *MongoEventStore) ListEvents(ctx context.Context, runnerID string) ([]api.RunEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{"runner_id": runnerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []api.RunEvent
	for cur.Next(ctx) {
		var doc mongoEventDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, api.RunEvent{
			RunnerID: doc.RunnerID,
			Seq:      doc.Seq,
			At:       doc.At,
			Type:     api.RunEventType(doc.Type),
			UseCase:  doc.UseCase,
			Flow:     doc.Flow,
			Step:     doc.Step,
			Event:    doc.Event,
			Detail:   doc.Detail,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// RunnerIDs returns the ids of runners with recorded events, sorted.
func (s *MongoEventStore) RunnerIDs(ctx context.Context) ([]string, error) {
	raw, err := s.coll.Distinct(ctx, "runner_id", bson.M{})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(string); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

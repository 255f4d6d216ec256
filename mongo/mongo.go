// Package mongo provides MongoDB backends for reqflow: an event queue that
// feeds a worker and an event store for run journals.
package mongo

import (
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/petrijr/reqflow"
	mstore "github.com/petrijr/reqflow/mongo/internal/persistence"
	mqueue "github.com/petrijr/reqflow/mongo/internal/taskqueue"
)

// NewMongoQueue returns a queue kept in a MongoDB collection. Event types
// must be registered with reqflow.RegisterEvent. dbName defaults to
// "reqflow", collName to "queue_tasks".
func NewMongoQueue(client *mongo.Client, dbName, collName string) reqflow.Queue {
	return mqueue.NewMongoQueue(client, dbName, collName)
}

// NewMongoEventStore returns an event store using the given collection.
// dbName defaults to "reqflow", collName to "run_events".
func NewMongoEventStore(client *mongo.Client, dbName, collName string) *mstore.MongoEventStore {
	return mstore.NewMongoEventStore(client, dbName, collName)
}

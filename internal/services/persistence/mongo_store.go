package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/LeonardoBeccarini/iotmonitor/internal/model"
)

const stateDocID = "network_state"

type stateDocument struct {
	ID        string             `bson:"_id"`
	State     model.NetworkState `bson:"state"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

// MongoStore tiene un solo documento per rete, sostituito ad ogni salvataggio.
type MongoStore struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewMongoStore(coll *mongo.Collection, timeout time.Duration) *MongoStore {
	return &MongoStore{coll: coll, timeout: timeout}
}

func (m *MongoStore) target() string {
	return fmt.Sprintf("mongo:%s.%s", m.coll.Database().Name(), m.coll.Name())
}

func (m *MongoStore) Save(ctx context.Context, state model.NetworkState) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	doc := stateDocument{ID: stateDocID, State: state, UpdatedAt: time.Now().UTC()}
	opts := options.Replace().SetUpsert(true)
	if _, err := m.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts); err != nil {
		return writeErr(m.target(), CodeIO, err)
	}
	return nil
}

func (m *MongoStore) Load(ctx context.Context) (model.NetworkState, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var doc stateDocument
	err := m.coll.FindOne(ctx, bson.M{"_id": stateDocID}).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return model.NetworkState{}, readErr(m.target(), CodeIO, ErrNotFound)
	case err != nil:
		return model.NetworkState{}, readErr(m.target(), CodeIO, err)
	}
	return doc.State, nil
}

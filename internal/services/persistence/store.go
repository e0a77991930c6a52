package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/afero"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/LeonardoBeccarini/iotmonitor/internal/config"
	"github.com/LeonardoBeccarini/iotmonitor/internal/model"
)

// Store salva e ricarica la fotografia dello stato di rete.
type Store interface {
	Save(ctx context.Context, state model.NetworkState) error
	Load(ctx context.Context) (model.NetworkState, error)
}

// NopStore non persiste nulla (backend "none").
type NopStore struct{}

func (NopStore) Save(context.Context, model.NetworkState) error { return nil }

func (NopStore) Load(context.Context) (model.NetworkState, error) {
	return model.NetworkState{}, readErr("none", CodeIO, ErrNotFound)
}

// Open costruisce lo Store configurato. Il closer rilascia le connessioni aperte.
func Open(ctx context.Context, cfg config.PersistenceConfig, logger *slog.Logger) (Store, func(context.Context) error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	nop := func(context.Context) error { return nil }

	switch cfg.Backend {
	case "none":
		return NopStore{}, nop, nil
	case "file", "":
		codec, err := CodecByName(cfg.Codec)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("persistence: file store", "dir", cfg.Dir, "file", cfg.File, "codec", codec.Name())
		return NewFileStore(afero.NewOsFs(), cfg.Dir, cfg.File, codec), nop, nil
	case "mongo":
		timeout := cfg.Mongo.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		cctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		client, err := mongo.Connect(cctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return nil, nil, fmt.Errorf("persistence: mongo connect: %w", err)
		}
		if err := client.Ping(cctx, nil); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, fmt.Errorf("persistence: mongo ping: %w", err)
		}
		logger.Info("persistence: mongo store", "database", cfg.Mongo.Database, "collection", cfg.Mongo.Collection)
		coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
		return NewMongoStore(coll, timeout), client.Disconnect, nil
	default:
		return nil, nil, fmt.Errorf("persistence: unknown backend %q", cfg.Backend)
	}
}

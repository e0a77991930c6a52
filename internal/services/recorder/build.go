package recorder

import (
	"context"
	"fmt"
	"log/slog"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/LeonardoBeccarini/iotmonitor/internal/config"
	"github.com/LeonardoBeccarini/iotmonitor/internal/metrics"
	"github.com/LeonardoBeccarini/iotmonitor/pkg/rabbitmq"
)

// Build apre le sink abilitate in cfg. Se una sink non si apre, quelle già
// aperte vengono chiuse e l'errore risale (errore di configurazione).
func Build(ctx context.Context, cfg config.RecorderConfig, logger *slog.Logger, m *metrics.Metrics) (*Recorder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var sinks []Sink
	fail := func(err error) (*Recorder, error) {
		for _, s := range sinks {
			_ = s.Close()
		}
		return nil, err
	}

	if cfg.Influx.Enabled {
		if cfg.Influx.URL == "" || cfg.Influx.Token == "" || cfg.Influx.Org == "" || cfg.Influx.Bucket == "" {
			return fail(fmt.Errorf("recorder: influx config incomplete"))
		}
		client := influxdb2.NewClient(cfg.Influx.URL, cfg.Influx.Token)
		sinks = append(sinks, NewInfluxSink(client, cfg.Influx.Org, cfg.Influx.Bucket, cfg.Influx.Measurement, logger))
		logger.Info("recorder: influx sink enabled", "url", cfg.Influx.URL, "bucket", cfg.Influx.Bucket)
	}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return fail(fmt.Errorf("recorder: redis ping %s: %w", cfg.Redis.Addr, err))
		}
		sinks = append(sinks, NewRedisSink(rdb, cfg.Redis.TTL, cfg.Redis.History))
		logger.Info("recorder: redis sink enabled", "addr", cfg.Redis.Addr)
	}

	if cfg.Postgres.Enabled {
		pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
		if err != nil {
			return fail(fmt.Errorf("recorder: postgres pool: %w", err))
		}
		pg := NewPostgresSink(pool, pool.Close)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return fail(err)
		}
		sinks = append(sinks, pg)
		logger.Info("recorder: postgres sink enabled")
	}

	if cfg.MQTT.Enabled {
		client, err := rabbitmq.NewRabbitMQConn(ctx, &rabbitmq.RabbitMQConfig{
			Host:     cfg.MQTT.Host,
			Port:     cfg.MQTT.Port,
			User:     cfg.MQTT.User,
			Password: cfg.MQTT.Password,
			ClientID: cfg.MQTT.ClientID,
		}, logger)
		if err != nil {
			return fail(fmt.Errorf("recorder: %w", err))
		}
		pub := rabbitmq.NewPublisher(client, cfg.MQTT.TopicPrefix, byte(cfg.MQTT.QoS), cfg.WriteTimeout)
		sinks = append(sinks, NewMQTTSink(pub))
		logger.Info("recorder: mqtt sink enabled", "prefix", cfg.MQTT.TopicPrefix)
	}

	return New(Options{
		QueueSize:       cfg.QueueSize,
		WriteTimeout:    cfg.WriteTimeout,
		RatePerSecond:   cfg.RatePerSecond,
		Burst:           cfg.Burst,
		BreakerFailures: cfg.BreakerFailures,
		BreakerOpen:     cfg.BreakerOpen,
		BreakerInterval: cfg.BreakerInterval,
		Logger:          logger,
		Metrics:         m,
	}, sinks...), nil
}

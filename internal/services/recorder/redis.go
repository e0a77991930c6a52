package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LeonardoBeccarini/iotmonitor/internal/model/messages"
)

// RedisSink tiene l'ultimo valore di ogni sensore (con TTL) e una lista
// limitata degli eventi recenti di ogni zona.
type RedisSink struct {
	rdb     redis.UniversalClient
	ttl     time.Duration
	history int64
}

func NewRedisSink(rdb redis.UniversalClient, ttl time.Duration, history int) *RedisSink {
	if history <= 0 {
		history = 100
	}
	return &RedisSink{rdb: rdb, ttl: ttl, history: int64(history)}
}

func (s *RedisSink) Name() string { return "redis" }

func readingKey(sensorID int) string { return fmt.Sprintf("sensor:last:%d", sensorID) }

func zoneEventsKey(zoneID int) string { return fmt.Sprintf("zone:%d:events", zoneID) }

func (s *RedisSink) WriteReading(ctx context.Context, ev messages.ReadingEvent) error {
	return s.rdb.Set(ctx, readingKey(ev.SensorID), ev.Value, s.ttl).Err()
}

func (s *RedisSink) WriteZoneEvent(ctx context.Context, ev messages.ZoneEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	key := zoneEventsKey(ev.ZoneID)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, payload)
		pipe.LTrim(ctx, key, 0, s.history-1)
		return nil
	})
	return err
}

func (s *RedisSink) Close() error { return s.rdb.Close() }

package recorder

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/LeonardoBeccarini/iotmonitor/internal/model/messages"
)

// InfluxSink scrive in modo asincrono con la WriteAPI non bloccante; gli errori
// arrivano sul canale Errors() e vengono tracciati per l'health.
type InfluxSink struct {
	client      influxdb2.Client
	api         api.WriteAPI
	measurement string
	logger      *slog.Logger

	mu      sync.RWMutex
	lastErr time.Time
}

func NewInfluxSink(client influxdb2.Client, org, bucket, measurement string, logger *slog.Logger) *InfluxSink {
	if measurement == "" {
		measurement = "environment"
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &InfluxSink{
		client:      client,
		api:         client.WriteAPI(org, bucket),
		measurement: measurement,
		logger:      logger,
	}
	go func() {
		for err := range s.api.Errors() {
			if err != nil {
				s.mu.Lock()
				s.lastErr = time.Now()
				s.mu.Unlock()
				s.logger.Warn("influx: write error", "err", err)
			}
		}
	}()
	return s
}

func (s *InfluxSink) Name() string { return "influx" }

// LastErrorAge ritorna da quanto tempo non si verificano errori di scrittura.
func (s *InfluxSink) LastErrorAge() time.Duration {
	s.mu.RLock()
	t := s.lastErr
	s.mu.RUnlock()
	if t.IsZero() {
		return 99999 * time.Hour
	}
	return time.Since(t)
}

func (s *InfluxSink) WriteReading(_ context.Context, ev messages.ReadingEvent) error {
	s.api.WritePoint(readingPoint(s.measurement, ev))
	return nil
}

func (s *InfluxSink) WriteZoneEvent(_ context.Context, ev messages.ZoneEvent) error {
	s.api.WritePoint(zoneEventPoint(ev))
	return nil
}

func (s *InfluxSink) Close() error {
	s.api.Flush()
	s.client.Close()
	return nil
}

func readingPoint(measurement string, ev messages.ReadingEvent) *write.Point {
	tags := map[string]string{
		"sensor_type": ev.SensorType.String(),
		"sensor_id":   strconv.Itoa(ev.SensorID),
		"unit":        string(ev.Unit),
	}
	fields := map[string]interface{}{
		"value": ev.Value,
	}
	return influxdb2.NewPoint(measurement, tags, fields, timestampOrNow(ev.Timestamp))
}

func zoneEventPoint(ev messages.ZoneEvent) *write.Point {
	tags := map[string]string{
		"zone_id":     strconv.Itoa(ev.ZoneID),
		"kind":        ev.Kind,
		"sensor_type": ev.SensorType.String(),
	}
	fields := map[string]interface{}{
		"value":  ev.Value,
		"origin": ev.Origin,
		"detail": ev.Detail,
		"id":     ev.ID,
	}
	return influxdb2.NewPoint("zone_events", tags, fields, timestampOrNow(ev.Timestamp))
}

func timestampOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

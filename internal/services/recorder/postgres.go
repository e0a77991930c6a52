package recorder

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/LeonardoBeccarini/iotmonitor/internal/model/messages"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sensor_readings (
	time        TIMESTAMPTZ      NOT NULL,
	sensor_id   INTEGER          NOT NULL,
	sensor_type TEXT             NOT NULL,
	value       DOUBLE PRECISION NOT NULL,
	unit        TEXT             NOT NULL
);
CREATE TABLE IF NOT EXISTS zone_events (
	id          UUID PRIMARY KEY,
	time        TIMESTAMPTZ      NOT NULL,
	zone_id     INTEGER          NOT NULL,
	kind        TEXT             NOT NULL,
	origin      TEXT             NOT NULL,
	sensor_type TEXT             NOT NULL,
	value       DOUBLE PRECISION NOT NULL,
	detail      TEXT
);`

const (
	insertReadingSQL = `INSERT INTO sensor_readings (time, sensor_id, sensor_type, value, unit) VALUES ($1, $2, $3, $4, $5)`
	insertZoneSQL    = `INSERT INTO zone_events (id, time, zone_id, kind, origin, sensor_type, value, detail) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
)

// Execer è la parte di *pgxpool.Pool usata dalla sink.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PostgresSink struct {
	db    Execer
	close func()
}

// NewPostgresSink usa db per le scritture; closeFn (opzionale) chiude il pool.
func NewPostgresSink(db Execer, closeFn func()) *PostgresSink {
	return &PostgresSink{db: db, close: closeFn}
}

func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("postgres: create schema: %w", err)
	}
	return nil
}

func (s *PostgresSink) WriteReading(ctx context.Context, ev messages.ReadingEvent) error {
	_, err := s.db.Exec(ctx, insertReadingSQL,
		ev.Timestamp, ev.SensorID, ev.SensorType.String(), ev.Value, string(ev.Unit))
	return err
}

func (s *PostgresSink) WriteZoneEvent(ctx context.Context, ev messages.ZoneEvent) error {
	_, err := s.db.Exec(ctx, insertZoneSQL,
		ev.ID, ev.Timestamp, ev.ZoneID, ev.Kind, ev.Origin, ev.SensorType.String(), ev.Value, ev.Detail)
	return err
}

func (s *PostgresSink) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}

package messages

import (
	"time"

	"github.com/google/uuid"

	"github.com/LeonardoBeccarini/iotmonitor/internal/model/entities"
)

// ZoneEvent è emesso dal controller per ogni azione di controllo su una zona.
type ZoneEvent struct {
	ID         string              `json:"id"`
	Kind       string              `json:"kind"`
	Origin     string              `json:"origin"`
	ZoneID     int                 `json:"zone_id"`
	SensorType entities.SensorType `json:"sensor_type"`
	Value      float64             `json:"value"`
	Detail     string              `json:"detail"`
	Timestamp  time.Time           `json:"timestamp"`
}

func NewZoneEvent(kind, origin string, zoneID int, st entities.SensorType, value float64, detail string) ZoneEvent {
	return ZoneEvent{
		ID:         uuid.NewString(),
		Kind:       kind,
		Origin:     origin,
		ZoneID:     zoneID,
		SensorType: st,
		Value:      value,
		Detail:     detail,
		Timestamp:  time.Now().UTC(),
	}
}

package messages

import (
	"fmt"
	"time"

	"github.com/LeonardoBeccarini/iotmonitor/internal/model/entities"
)

// ReadingEvent è una singola lettura pubblicata da un sensore. È un valore
// immutabile: può essere condiviso tra goroutine senza sincronizzazione.
type ReadingEvent struct {
	SensorType entities.SensorType `json:"sensor_type"`
	Value      float64             `json:"value"`
	Unit       entities.Unit       `json:"unit"`
	SensorID   int                 `json:"sensor_id"`
	Timestamp  time.Time           `json:"timestamp"`
}

// NewReadingEvent ricava l'unità dal tipo e marca l'istante di creazione.
func NewReadingEvent(t entities.SensorType, value float64, sensorID int) ReadingEvent {
	return ReadingEvent{
		SensorType: t,
		Value:      value,
		Unit:       t.Unit(),
		SensorID:   sensorID,
		Timestamp:  time.Now().UTC(),
	}
}

func (e ReadingEvent) String() string {
	return fmt.Sprintf("%s=%.1f%s (sensor %d)", e.SensorType, e.Value, e.Unit, e.SensorID)
}

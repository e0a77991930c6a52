package recorder

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/LeonardoBeccarini/iotmonitor/internal/model/messages"
	"github.com/LeonardoBeccarini/iotmonitor/pkg/rabbitmq"
)

// MQTTSink rilancia letture ed eventi di zona sul broker, in sola uscita.
type MQTTSink struct {
	pub rabbitmq.IPublisher
}

func NewMQTTSink(pub rabbitmq.IPublisher) *MQTTSink {
	return &MQTTSink{pub: pub}
}

func (s *MQTTSink) Name() string { return "mqtt" }

func (s *MQTTSink) WriteReading(_ context.Context, ev messages.ReadingEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.pub.PublishTo(s.pub.Topic("readings", ev.SensorType.String(), strconv.Itoa(ev.SensorID)), payload)
}

func (s *MQTTSink) WriteZoneEvent(_ context.Context, ev messages.ZoneEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.pub.PublishTo(s.pub.Topic("zones", strconv.Itoa(ev.ZoneID), "events"), payload)
}

func (s *MQTTSink) Close() error {
	s.pub.Close()
	return nil
}

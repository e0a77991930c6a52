package rabbitmq

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var ErrPublishTimeout = errors.New("mqtt publish timed out")

// IPublisher pubblica payload su topic MQTT.
type IPublisher interface {
	PublishMessage(message interface{}) error
	PublishTo(topic string, payload []byte) error
	Topic(parts ...string) string
	Close()
}

// Publisher pubblica sotto un prefisso di topic comune.
type Publisher struct {
	client  mqtt.Client
	prefix  string
	qos     byte
	timeout time.Duration
}

func NewPublisher(client mqtt.Client, prefix string, qos byte, timeout time.Duration) *Publisher {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Publisher{
		client:  client,
		prefix:  strings.TrimSuffix(prefix, "/"),
		qos:     qos,
		timeout: timeout,
	}
}

// Topic costruisce il topic completo a partire dai segmenti.
func (p *Publisher) Topic(parts ...string) string {
	segs := make([]string, 0, len(parts)+1)
	if p.prefix != "" {
		segs = append(segs, p.prefix)
	}
	segs = append(segs, parts...)
	return strings.Join(segs, "/")
}

// PublishMessage pubblica sul solo prefisso; accetta string o []byte.
func (p *Publisher) PublishMessage(message interface{}) error {
	switch m := message.(type) {
	case string:
		return p.PublishTo(p.prefix, []byte(m))
	case []byte:
		return p.PublishTo(p.prefix, m)
	default:
		return fmt.Errorf("invalid message format %T, expected string or []byte", message)
	}
}

func (p *Publisher) PublishTo(topic string, payload []byte) error {
	token := p.client.Publish(topic, p.qos, false, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("%w: topic %s", ErrPublishTimeout, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish on %s: %w", topic, err)
	}
	return nil
}

func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}

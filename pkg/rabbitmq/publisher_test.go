package rabbitmq

import (
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct {
	mqtt.Token
	done bool
	err  error
}

func (t *fakeToken) Wait() bool                     { return t.done }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeClient struct {
	mqtt.Client
	token *fakeToken
	sent  []published
}

func (c *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	c.sent = append(c.sent, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return c.token
}

func (c *fakeClient) IsConnected() bool { return false }

func TestTopicJoinsPrefix(t *testing.T) {
	p := NewPublisher(&fakeClient{}, "iot/", 0, 0)
	if got := p.Topic("readings", "Temperature", "1"); got != "iot/readings/Temperature/1" {
		t.Fatalf("topic got %q", got)
	}
	p = NewPublisher(&fakeClient{}, "", 0, 0)
	if got := p.Topic("zones", "1"); got != "zones/1" {
		t.Fatalf("topic without prefix got %q", got)
	}
}

func TestPublishToUsesQoS(t *testing.T) {
	c := &fakeClient{token: &fakeToken{done: true}}
	p := NewPublisher(c, "iot", 1, time.Second)
	if err := p.PublishTo("iot/x", []byte("{}")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(c.sent) != 1 || c.sent[0].qos != 1 || c.sent[0].topic != "iot/x" {
		t.Fatalf("sent got %+v", c.sent)
	}
}

func TestPublishTimeoutAndError(t *testing.T) {
	c := &fakeClient{token: &fakeToken{done: false}}
	p := NewPublisher(c, "iot", 0, time.Millisecond)
	if err := p.PublishTo("iot/x", nil); !errors.Is(err, ErrPublishTimeout) {
		t.Fatalf("err got %v want ErrPublishTimeout", err)
	}

	boom := errors.New("broker gone")
	c.token = &fakeToken{done: true, err: boom}
	if err := p.PublishMessage("hello"); !errors.Is(err, boom) {
		t.Fatalf("err got %v want %v", err, boom)
	}
	if err := p.PublishMessage(42); err == nil {
		t.Fatalf("non string payload should be rejected")
	}
}

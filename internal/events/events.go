package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/apache/pulsar-client-go/pulsar"
)

// Audit event types emitted on membership and account mutations.
const (
	TypeGroupCreated   = "group.created"
	TypeMembersAdded   = "group.members.added"
	TypeMembersRemoved = "group.members.removed"
	TypeGroupDeleted   = "group.deleted"
	TypeUserDeleted    = "user.deleted"
)

// Event is the audit payload published after a successful mutation.
type Event struct {
	Type      string   `json:"type"`
	Group     string   `json:"group,omitempty"`
	Username  string   `json:"username,omitempty"`
	Emails    []string `json:"emails,omitempty"`
	Timestamp int64    `json:"timestamp"`
}

// Notifier is implemented by the Pulsar publisher and mocked in tests.
type Notifier interface {
	Publish(event Event) error
	Close()
}

// EventPublisher publishes audit events to a Pulsar topic.
type EventPublisher struct {
	client   pulsar.Client
	producer pulsar.Producer
}

// NewEventPublisher initializes the Pulsar client and producer.
func NewEventPublisher(pulsarURL, topic string) (*EventPublisher, error) {
	client, err := pulsar.NewClient(pulsar.ClientOptions{URL: pulsarURL})
	if err != nil {
		return nil, fmt.Errorf("could not create Pulsar client: %w", err)
	}

	producer, err := client.CreateProducer(pulsar.ProducerOptions{Topic: topic})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("could not create Pulsar producer: %w", err)
	}

	return &EventPublisher{client: client, producer: producer}, nil
}

// Publish serializes the event and sends it to the topic.
func (p *EventPublisher) Publish(event Event) error {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UTC().Unix()
	}

	message, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("could not serialize event payload: %w", err)
	}

	_, err = p.producer.Send(context.Background(), &pulsar.ProducerMessage{
		Payload: message,
	})
	if err != nil {
		return fmt.Errorf("could not send event: %w", err)
	}
	return nil
}

// Close cleans up the Pulsar producer and client.
func (p *EventPublisher) Close() {
	p.producer.Close()
	p.client.Close()
}

// NoopNotifier discards events; used when no broker is configured.
type NoopNotifier struct{}

func (NoopNotifier) Publish(Event) error { return nil }
func (NoopNotifier) Close()              {}

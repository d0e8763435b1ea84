// Package events publishes report change notifications so that downstream
// consumers (dashboards, archivers) can refresh without polling the store.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/domain"
)

// Publisher delivers report events.
type Publisher interface {
	Publish(ctx context.Context, ev domain.ReportEvent) error
	Close() error
}

type message struct {
	Kind     string    `json:"kind"`
	ReportID string    `json:"reportId"`
	Type     string    `json:"type"`
	At       time.Time `json:"at"`
}

// Encode renders an event as its JSON wire form.
func Encode(ev domain.ReportEvent) ([]byte, error) {
	return json.Marshal(message{
		Kind:     ev.Kind.String(),
		ReportID: ev.ReportID,
		Type:     ev.Type,
		At:       ev.At.UTC(),
	})
}

// Decode parses the JSON wire form of an event.
func Decode(data []byte) (domain.ReportEvent, error) {
	var m message
	if err := json.Unmarshal(data, &m); err != nil {
		return domain.ReportEvent{}, fmt.Errorf("unmarshal: %w", err)
	}
	kind, ok := domain.ParseEventKind(m.Kind)
	if !ok {
		return domain.ReportEvent{}, fmt.Errorf("unknown event kind %q", m.Kind)
	}
	return domain.ReportEvent{Kind: kind, ReportID: m.ReportID, Type: m.Type, At: m.At}, nil
}

// kafkaMessageWriter abstracts kafka.Writer for testability.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a topic keyed by report type, so events
// of one type stay ordered within a partition.
type KafkaPublisher struct {
	writer kafkaMessageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}}
}

// NewKafkaPublisherWith injects a writer; used by tests.
func NewKafkaPublisherWith(w kafkaMessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

func (k *KafkaPublisher) Publish(ctx context.Context, ev domain.ReportEvent) error {
	b, err := Encode(ev)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(ev.Type), Value: b})
}

func (k *KafkaPublisher) Close() error { return k.writer.Close() }

type noopPublisher struct{}

// NewNoopPublisher returns a publisher that drops every event.
func NewNoopPublisher() Publisher { return noopPublisher{} }

func (noopPublisher) Publish(context.Context, domain.ReportEvent) error { return nil }
func (noopPublisher) Close() error                                     { return nil }

// New returns a Kafka publisher, or a no-op one when no brokers are set.
func New(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		return NewNoopPublisher()
	}
	return NewKafkaPublisher(brokers, topic)
}

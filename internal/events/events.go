// Package events publishes room activity to Kafka for downstream
// consumers. Publishing is best effort and never blocks a session.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/rx3lixir/codetogether/pkg/logger"
)

const (
	RoomCreated  = "room.created"
	RoomRemoved  = "room.removed"
	CodeRan      = "code.ran"
	TestsRan     = "tests.ran"
	VersionSaved = "version.saved"
)

type Event struct {
	Type   string         `json:"type"`
	RoomID string         `json:"roomId"`
	At     time.Time      `json:"at"`
	Data   map[string]any `json:"data,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event)
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

func (Nop) Close() error { return nil }

// KafkaPublisher sends events keyed by room id, so one room's events
// stay ordered within a partition.
type KafkaPublisher struct {
	producer sarama.AsyncProducer
	topic    string
	log      *logger.Logger
	wg       sync.WaitGroup
}

// NewConfig returns the producer settings used for activity events
func NewConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Version = sarama.V2_8_0_0
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Retry.Max = 3
	config.Producer.Return.Errors = true
	config.Producer.Partitioner = sarama.NewHashPartitioner
	return config
}

func NewKafkaPublisher(brokers []string, topic string, log *logger.Logger) (*KafkaPublisher, error) {
	producer, err := sarama.NewAsyncProducer(brokers, NewConfig())
	if err != nil {
		return nil, err
	}
	return newKafkaPublisher(producer, topic, log), nil
}

func newKafkaPublisher(producer sarama.AsyncProducer, topic string, log *logger.Logger) *KafkaPublisher {
	p := &KafkaPublisher{producer: producer, topic: topic, log: log}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for err := range producer.Errors() {
			p.log.Warn("failed to publish event", "topic", p.topic, "error", err.Err)
		}
	}()

	return p
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) {
	value, err := json.Marshal(e)
	if err != nil {
		p.log.Error("failed to encode event", "type", e.Type, "error", err)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(e.RoomID),
		Value: sarama.ByteEncoder(value),
	}

	// A full input buffer means the brokers are behind; drop rather than
	// stall the caller
	select {
	case p.producer.Input() <- msg:
	case <-ctx.Done():
		p.log.Debug("event dropped", "type", e.Type, "room_id", e.RoomID)
	default:
		p.log.Warn("event dropped, producer buffer full", "type", e.Type, "room_id", e.RoomID)
	}
}

// Close flushes buffered events and stops the producer.
func (p *KafkaPublisher) Close() error {
	p.producer.AsyncClose()
	p.wg.Wait()
	return nil
}

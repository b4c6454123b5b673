// Package events publishes ingestion lifecycle notifications to Kafka so
// downstream consumers (a search indexer, a notification service) learn
// about new or removed documents without polling the store. Nothing in the
// core reads these events back; publication is fire-and-forget relative to
// the ingestion transaction that triggered it.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"github.com/trustgraph/core/pkg/config"
	"github.com/trustgraph/core/pkg/logger"
)

// Notifier is what pkg/ingest depends on, letting it accept either a
// Kafka-backed Publisher or a NoopPublisher in tests.
type Notifier interface {
	SbomIngested(ctx context.Context, sbomID uuid.UUID, documentID string) error
	AdvisoryIngested(ctx context.Context, advisoryID uuid.UUID, identifier string) error
	SbomDeleted(ctx context.Context, sbomID uuid.UUID) error
}

// Event types published by the ingestion pipeline.
const (
	TypeSbomIngested     = "sbom.ingested"
	TypeAdvisoryIngested = "advisory.ingested"
	TypeSbomDeleted      = "sbom.deleted"
)

// Event is the envelope for every published notification.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// SbomIngestedData is the payload of a TypeSbomIngested event.
type SbomIngestedData struct {
	SbomID     uuid.UUID `json:"sbom_id"`
	DocumentID string    `json:"document_id"`
}

// AdvisoryIngestedData is the payload of a TypeAdvisoryIngested event.
type AdvisoryIngestedData struct {
	AdvisoryID uuid.UUID `json:"advisory_id"`
	Identifier string    `json:"identifier"`
}

// SbomDeletedData is the payload of a TypeSbomDeleted event.
type SbomDeletedData struct {
	SbomID uuid.UUID `json:"sbom_id"`
}

// Publisher publishes ingestion events to a Kafka topic.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	source   string
	log      *logger.Logger
}

var (
	_ Notifier = (*Publisher)(nil)
	_ Notifier = NoopPublisher{}
)

// NewPublisher creates a Kafka-backed Publisher.
func NewPublisher(cfg config.EventsConfig, log *logger.Logger) (*Publisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Compression = sarama.CompressionSnappy

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &Publisher{
		producer: producer,
		topic:    cfg.Topic,
		source:   "trustgraph-core",
		log:      log.WithComponent("events"),
	}, nil
}

// Publish sends event to the configured topic, keyed by event.ID so Kafka
// partitions by document for ordering within one SBOM or advisory's history.
func (p *Publisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.ID),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send event: %w", err)
	}

	p.log.DebugContext(ctx, "event published",
		"type", event.Type, "partition", partition, "offset", offset)
	return nil
}

// SbomIngested publishes a TypeSbomIngested event.
func (p *Publisher) SbomIngested(ctx context.Context, sbomID uuid.UUID, documentID string) error {
	return p.Publish(ctx, Event{
		ID:        sbomID.String(),
		Type:      TypeSbomIngested,
		Source:    p.source,
		Timestamp: time.Now(),
		Data:      SbomIngestedData{SbomID: sbomID, DocumentID: documentID},
	})
}

// AdvisoryIngested publishes a TypeAdvisoryIngested event.
func (p *Publisher) AdvisoryIngested(ctx context.Context, advisoryID uuid.UUID, identifier string) error {
	return p.Publish(ctx, Event{
		ID:        advisoryID.String(),
		Type:      TypeAdvisoryIngested,
		Source:    p.source,
		Timestamp: time.Now(),
		Data:      AdvisoryIngestedData{AdvisoryID: advisoryID, Identifier: identifier},
	})
}

// SbomDeleted publishes a TypeSbomDeleted event.
func (p *Publisher) SbomDeleted(ctx context.Context, sbomID uuid.UUID) error {
	return p.Publish(ctx, Event{
		ID:        sbomID.String(),
		Type:      TypeSbomDeleted,
		Source:    p.source,
		Timestamp: time.Now(),
		Data:      SbomDeletedData{SbomID: sbomID},
	})
}

// Close closes the underlying producer.
func (p *Publisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopPublisher discards every event; used in tests and deployments that
// run without a Kafka broker.
type NoopPublisher struct{}

// SbomIngested discards the event.
func (NoopPublisher) SbomIngested(context.Context, uuid.UUID, string) error { return nil }

// AdvisoryIngested discards the event.
func (NoopPublisher) AdvisoryIngested(context.Context, uuid.UUID, string) error { return nil }

// SbomDeleted discards the event.
func (NoopPublisher) SbomDeleted(context.Context, uuid.UUID) error { return nil }

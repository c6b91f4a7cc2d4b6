// Package publisher fans audit events out to Kafka for downstream compliance
// consumers. The local store remains the system of record; a broker outage
// degrades to log warnings, never to lost decisions.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"vouch/internal/audit"
)

// DefaultTopic is the compliance audit topic.
const DefaultTopic = "vouch.audit.events"

// Kafka publishes audit events with franz-go. Produce is asynchronous;
// delivery failures are logged, not propagated.
type Kafka struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// KafkaOption configures the publisher.
type KafkaOption func(*Kafka)

// WithTopic overrides the audit topic.
func WithTopic(topic string) KafkaOption {
	return func(k *Kafka) {
		if topic != "" {
			k.topic = topic
		}
	}
}

// NewKafka connects to the brokers and ensures the audit topic exists.
func NewKafka(ctx context.Context, brokers []string, logger *slog.Logger, opts ...KafkaOption) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchMaxBytes(1<<20),
		kgo.RecordDeliveryTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	k := &Kafka{client: client, topic: DefaultTopic, logger: logger}
	for _, opt := range opts {
		opt(k)
	}

	if err := k.ensureTopic(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return k, nil
}

func (k *Kafka) ensureTopic(ctx context.Context) error {
	adm := kadm.NewClient(k.client)
	resp, err := adm.CreateTopics(ctx, 3, 1, nil, k.topic)
	if err != nil {
		return fmt.Errorf("ensure audit topic: %w", err)
	}
	for _, r := range resp {
		// Already-exists is fine; any other per-topic error is not.
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("ensure audit topic %q: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Publish produces the event keyed by verification ID so one verification's
// trail stays ordered within a partition.
func (k *Kafka) Publish(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(event.VerificationID.String()),
		Value: payload,
	}
	k.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil && k.logger != nil {
			k.logger.Warn("audit event produce failed",
				"verification_id", event.VerificationID,
				"action", event.Action,
				"error", err,
			)
		}
	})
	return nil
}

// Flush drains buffered records; call before Close on shutdown.
func (k *Kafka) Flush(ctx context.Context) error {
	return k.client.Flush(ctx)
}

// Close releases the client.
func (k *Kafka) Close() {
	k.client.Close()
}

var _ audit.Publisher = (*Kafka)(nil)

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// DefaultTopic is the decision outcome topic downstream consumers subscribe to.
const DefaultTopic = "vouch.verification.outcomes"

// Kafka publishes notifications with franz-go, keyed by subject so one
// subject's outcomes stay ordered.
type Kafka struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafka connects a notifier to the brokers.
func NewKafka(brokers []string, topic string, logger *slog.Logger) (*Kafka, error) {
	if topic == "" {
		topic = DefaultTopic
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.RecordDeliveryTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("notifier kafka client: %w", err)
	}
	return &Kafka{client: client, topic: topic, logger: logger}, nil
}

func (n *Kafka) Notify(ctx context.Context, notification Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	record := &kgo.Record{
		Topic: n.topic,
		Key:   []byte(notification.SubjectID.String()),
		Value: payload,
	}
	n.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil && n.logger != nil {
			n.logger.Warn("outcome notification produce failed",
				"subject_id", notification.SubjectID,
				"verification_id", notification.VerificationID,
				"error", err,
			)
		}
	})
	return nil
}

// Close drains buffered records with a bounded flush, then releases the
// client. Safe to defer from shutdown paths that no longer hold a context.
func (n *Kafka) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = n.client.Flush(ctx)
	n.client.Close()
}

var _ Notifier = (*Kafka)(nil)

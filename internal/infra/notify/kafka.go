package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"stayhub/internal/app/policies"
	"stayhub/internal/infra/outbox"
)

// KafkaNotifier hands notifications to the broker for the delivery service to
// pick up. Publish errors are logged and swallowed so a broker outage never
// blocks a booking.
type KafkaNotifier struct {
	Producer outbox.Producer
	Topic    string
	Logger   *slog.Logger
}

type message struct {
	Recipient string            `json:"recipient"`
	Kind      string            `json:"kind"`
	Subject   string            `json:"subject"`
	Body      string            `json:"body"`
	Meta      map[string]string `json:"meta,omitempty"`
	SentAt    time.Time         `json:"sent_at"`
}

func (n *KafkaNotifier) Notify(ctx context.Context, notification policies.Notification) error {
	payload, err := json.Marshal(message{
		Recipient: notification.Recipient,
		Kind:      notification.Kind,
		Subject:   notification.Subject,
		Body:      notification.Body,
		Meta:      notification.Meta,
		SentAt:    time.Now().UTC(),
	})
	if err != nil {
		n.log("notification encode failed", notification, err)
		return nil
	}
	topic := n.Topic
	if topic == "" {
		topic = "notifications.v1"
	}
	headers := map[string]string{"content-type": "application/json"}
	if err := n.Producer.Publish(ctx, topic, notification.Recipient, payload, headers); err != nil {
		n.log("notification publish failed", notification, err)
	}
	return nil
}

func (n *KafkaNotifier) log(msg string, notification policies.Notification, err error) {
	if n.Logger == nil {
		return
	}
	n.Logger.Warn(msg, "recipient", notification.Recipient, "kind", notification.Kind, "error", err)
}

// LogNotifier writes notifications to the log. Used in memory mode and tests.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) Notify(_ context.Context, notification policies.Notification) error {
	if n.Logger != nil {
		n.Logger.Info("notification",
			"recipient", notification.Recipient, "kind", notification.Kind, "subject", notification.Subject)
	}
	return nil
}

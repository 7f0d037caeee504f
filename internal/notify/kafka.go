package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"agendly/internal/kafkax"
)

// KafkaDispatcher publishes engine events to Kafka topics, one topic per
// event type, keyed by appointment id so per-appointment ordering holds.
type KafkaDispatcher struct {
	writer        *kafka.Writer
	logger        *slog.Logger
	reminderTopic string
	bookingTopic  string
}

type KafkaConfig struct {
	Brokers       string
	ReminderTopic string
	BookingTopic  string
}

func NewKafkaDispatcher(logger *slog.Logger, cfg KafkaConfig) *KafkaDispatcher {
	brokers := kafkax.SplitBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil
	}
	if cfg.ReminderTopic == "" {
		cfg.ReminderTopic = "agendly.reminder.due.v1"
	}
	if cfg.BookingTopic == "" {
		cfg.BookingTopic = "agendly.appointment.booked.v1"
	}
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Balancer: &kafka.Hash{},
	})
	return &KafkaDispatcher{
		writer:        writer,
		logger:        logger,
		reminderTopic: cfg.ReminderTopic,
		bookingTopic:  cfg.BookingTopic,
	}
}

func (d *KafkaDispatcher) Close() error {
	return d.writer.Close()
}

func (d *KafkaDispatcher) ReminderDue(ctx context.Context, evt ReminderEvent) error {
	return d.publish(ctx, d.reminderTopic, evt.AppointmentID, "reminder.due.v1", evt)
}

func (d *KafkaDispatcher) AppointmentBooked(ctx context.Context, evt BookingEvent) error {
	return d.publish(ctx, d.bookingTopic, evt.AppointmentID, "appointment.booked.v1", evt)
}

func (d *KafkaDispatcher) AppointmentCancelled(ctx context.Context, evt BookingEvent) error {
	return d.publish(ctx, d.bookingTopic, evt.AppointmentID, "appointment.cancelled.v1", evt)
}

func (d *KafkaDispatcher) publish(ctx context.Context, topic, key, eventType string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(uuid.NewString())},
			{Key: "event_type", Value: []byte(eventType)},
		},
	}
	msg.Headers = kafkax.InjectTraceHeaders(ctx, msg.Headers)
	return d.writer.WriteMessages(ctx, msg)
}

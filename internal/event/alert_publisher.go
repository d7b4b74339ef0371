package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"monitoring-service/internal/models"
)

// amqpChannel is the slice of the AMQP channel API the publisher uses.
type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AlertPublisher publishes raised alerts to the field_alert_events queue.
// It satisfies the alert service's NotificationSink. Sweep workers publish
// concurrently while HealthCheck reads from the HTTP path, so the counters
// and last-publish timestamp are atomics.
type AlertPublisher struct {
	conn    *RabbitMQConnection
	channel amqpChannel

	messagesPublished atomic.Int64
	messagesFailed    atomic.Int64
	lastPublishNanos  atomic.Int64
}

// NewAlertPublisher declares the durable queue once so individual publishes
// skip the declare round trip.
func NewAlertPublisher(conn *RabbitMQConnection) (*AlertPublisher, error) {
	return newAlertPublisher(conn, conn.Channel)
}

func newAlertPublisher(conn *RabbitMQConnection, channel amqpChannel) (*AlertPublisher, error) {
	_, err := channel.QueueDeclare(
		FieldAlertQueue, // queue name
		true,            // durable
		false,           // delete when unused
		false,           // exclusive
		false,           // no-wait
		nil,             // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	p := &AlertPublisher{
		conn:    conn,
		channel: channel,
	}
	p.lastPublishNanos.Store(time.Now().UnixNano())
	return p, nil
}

// PublishAlert delivers one raised alert. The caller treats failures as
// fire-and-forget; this method only reports them.
func (p *AlertPublisher) PublishAlert(ctx context.Context, alert *models.Alert, field *models.Field) error {
	payload := AlertEventPushModel{
		AlertID:    alert.ID,
		FieldID:    alert.FieldID,
		FarmerID:   field.FarmerID,
		HazardType: string(alert.HazardType),
		Severity:   string(alert.Severity),
		Message:    alert.Message,
		ValidUntil: alert.ValidUntil,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		p.messagesFailed.Add(1)
		return fmt.Errorf("failed to marshal alert event: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		"",              // exchange
		FieldAlertQueue, // routing key (queue name)
		false,           // mandatory
		false,           // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		p.messagesFailed.Add(1)
		return fmt.Errorf("failed to publish alert event: %w", err)
	}

	p.messagesPublished.Add(1)
	p.lastPublishNanos.Store(time.Now().UnixNano())

	slog.Info("Alert event published",
		"queue", FieldAlertQueue,
		"alert_id", alert.ID,
		"field_id", alert.FieldID,
		"severity", alert.Severity,
	)
	return nil
}

// HealthCheck reports the publisher's connection state and counters.
func (p *AlertPublisher) HealthCheck() PublisherHealthStatus {
	isHealthy := p.conn != nil && p.conn.Connection != nil && !p.conn.Connection.IsClosed()

	return PublisherHealthStatus{
		IsHealthy:         isHealthy,
		MessagesPublished: p.messagesPublished.Load(),
		MessagesFailed:    p.messagesFailed.Load(),
		LastPublishTime:   time.Unix(0, p.lastPublishNanos.Load()),
		Queue:             FieldAlertQueue,
	}
}

// PublisherHealthStatus represents the health status of the publisher.
type PublisherHealthStatus struct {
	IsHealthy         bool      `json:"is_healthy"`
	MessagesPublished int64     `json:"messages_published"`
	MessagesFailed    int64     `json:"messages_failed"`
	LastPublishTime   time.Time `json:"last_publish_time"`
	Queue             string    `json:"queue"`
}

package transmit

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/dsemenov/remindd/internal/models"
	"github.com/dsemenov/remindd/internal/schedule"
)

// The transmitter is what the delivery executor sends through.
var _ schedule.Transmitter = (*RabbitMQTransmitter)(nil)

const (
	// DefaultQueueName is the dispatch queue the chat gateway consumes.
	DefaultQueueName = "reminder_deliveries"
	// DefaultDLQName holds deliveries the gateway rejected permanently.
	DefaultDLQName = "reminder_deliveries_dlq"
	// DefaultExchangeName is the dispatch exchange.
	DefaultExchangeName = "reminder_dispatch"

	deliveryRoutingKey = "deliveries"
	dlqRoutingKey      = "dlq"
)

// RabbitMQTransmitter publishes delivery envelopes to the gateway's
// dispatch queue. Messages are persistent; failed deliveries dead-letter
// into the DLQ for inspection.
type RabbitMQTransmitter struct {
	conn         *amqp.Connection
	channel      *amqp.Channel
	queueName    string
	dlqName      string
	exchangeName string
}

// NewRabbitMQTransmitter connects to RabbitMQ and declares the dispatch
// topology.
func NewRabbitMQTransmitter(amqpURL string) (*RabbitMQTransmitter, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			_ = closeErr
		}
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	t := &RabbitMQTransmitter{
		conn:         conn,
		channel:      ch,
		queueName:    DefaultQueueName,
		dlqName:      DefaultDLQName,
		exchangeName: DefaultExchangeName,
	}

	if err := t.setup(); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			_ = closeErr
		}
		return nil, fmt.Errorf("failed to setup dispatch queues: %w", err)
	}

	return t, nil
}

// setup declares the exchange, the dispatch queue and its DLQ.
func (t *RabbitMQTransmitter) setup() error {
	err := t.channel.ExchangeDeclare(
		t.exchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = t.channel.QueueDeclare(
		t.dlqName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		amqp.Table{},
	)
	if err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}

	err = t.channel.QueueBind(
		t.dlqName,
		dlqRoutingKey,
		t.exchangeName,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to bind DLQ: %w", err)
	}

	queueArgs := amqp.Table{
		"x-dead-letter-exchange":    t.exchangeName,
		"x-dead-letter-routing-key": dlqRoutingKey,
	}
	_, err = t.channel.QueueDeclare(
		t.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		queueArgs,
	)
	if err != nil {
		return fmt.Errorf("failed to declare dispatch queue: %w", err)
	}

	err = t.channel.QueueBind(
		t.queueName,
		deliveryRoutingKey,
		t.exchangeName,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to bind dispatch queue: %w", err)
	}

	return nil
}

// Send publishes one reminder payload for the gateway to deliver. It
// satisfies the scheduling core's Transmitter interface.
func (t *RabbitMQTransmitter) Send(ctx context.Context, ownerID int64, kind models.PayloadKind, text, fileRef string) error {
	env := NewEnvelope(ownerID, kind, text, fileRef)

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	err = t.channel.PublishWithContext(
		ctx,
		t.exchangeName,
		deliveryRoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    env.ID.String(),
			Timestamp:    env.CreatedAt,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish delivery: %w", err)
	}

	return nil
}

// HealthCheck verifies the connection is usable.
func (t *RabbitMQTransmitter) HealthCheck(ctx context.Context) error {
	if t.conn == nil || t.conn.IsClosed() {
		return fmt.Errorf("rabbitmq connection is closed")
	}
	if t.channel == nil || t.channel.IsClosed() {
		return fmt.Errorf("rabbitmq channel is closed")
	}
	return nil
}

// Close closes the channel and connection.
func (t *RabbitMQTransmitter) Close() error {
	var err error
	if t.channel != nil {
		err = t.channel.Close()
	}
	if t.conn != nil {
		if closeErr := t.conn.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/dmitrijs2005/refkeeper/internal/logging"
)

const publishTimeout = 5 * time.Second

// publisher is the subset of *amqp.Channel used for publishing.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPNotifier publishes reset messages as persistent JSON to a durable queue.
type AMQPNotifier struct {
	conn    *amqp.Connection
	channel publisher
	queue   string
	logger  logging.Logger
}

// NewAMQPNotifier dials url and declares the durable queue.
func NewAMQPNotifier(url, queue string, l logging.Logger) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare a queue: %w", err)
	}

	return newAMQPNotifier(conn, ch, q.Name, l), nil
}

func newAMQPNotifier(conn *amqp.Connection, ch publisher, queue string, l logging.Logger) *AMQPNotifier {
	return &AMQPNotifier{
		conn:    conn,
		channel: ch,
		queue:   queue,
		logger:  l.With("module", "amqp_notifier", "queue", queue),
	}
}

func (n *AMQPNotifier) NotifyPasswordReset(ctx context.Context, msg PasswordResetMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal payload to JSON: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	messageID := uuid.NewString()
	err = n.channel.PublishWithContext(
		publishCtx,
		"",      // default exchange
		n.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    messageID,
			Timestamp:    time.Now(),
			Type:         "password_reset",
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish a message: %w", err)
	}

	n.logger.Info(ctx, "password reset published", "message_id", messageID, "user_id", msg.UserID)
	return nil
}

func (n *AMQPNotifier) Close() error {
	var firstErr error
	if n.channel != nil {
		if err := n.channel.Close(); err != nil {
			firstErr = err
		}
	}
	if n.conn != nil {
		if err := n.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

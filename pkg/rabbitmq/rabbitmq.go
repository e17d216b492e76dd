package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

// ErrPermanent marks a handler failure that redelivery cannot fix. Such
// messages are dropped (or dead-lettered by the broker) instead of requeued.
var ErrPermanent = errors.New("permanent")

// Handler processes one job taken from the queue.
type Handler func(ctx context.Context, jobType string, body []byte) error

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	log     *zap.Logger
	// amqp channels are not safe for concurrent publishing.
	mu sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL   string
	Queue string
}

// NewClient connects to RabbitMQ, opens a channel and declares the durable
// job queue.
func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	if cfg.Queue == "" {
		return nil, fmt.Errorf("rabbitmq queue name is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		cfg.Queue, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.Queue, err)
	}

	log.Info("RabbitMQ client connected", zap.String("queue", cfg.Queue))

	return &Client{
		conn:    conn,
		channel: ch,
		queue:   cfg.Queue,
		log:     log,
	}, nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Enqueue publishes a persistent job message. jobType travels in the AMQP
// type property so consumers can route without decoding the body.
func (c *Client) Enqueue(ctx context.Context, jobType string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.channel.Publish(
		"",      // exchange: default exchange
		c.queue, // routing key: the queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.New().String(),
			Type:         jobType,
			Timestamp:    time.Now(),
			Body:         payload,
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s job: %w", jobType, err)
	}
	return nil
}

// Consume delivers queued jobs to handler until ctx is cancelled or the
// channel closes. Messages are acknowledged manually: success acks, an
// ErrPermanent failure nacks without requeue, any other failure requeues.
func (c *Client) Consume(ctx context.Context, handler Handler) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		c.queue, // queue
		"",      // consumer tag
		false,   // auto-ack
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.log.Info("Waiting for jobs", zap.String("queue", c.queue))
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel for %s closed", c.queue)
			}
			deliver(ctx, msg, handler, c.log)
		}
	}
}

func deliver(ctx context.Context, msg amqp.Delivery, handler Handler, log *zap.Logger) {
	err := handler(ctx, msg.Type, msg.Body)
	switch {
	case err == nil:
		if ackErr := msg.Ack(false); ackErr != nil {
			log.Error("Failed to ack message", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(ackErr))
		}
	case errors.Is(err, ErrPermanent):
		log.Error("Dropping unprocessable message",
			zap.String("message_id", msg.MessageId),
			zap.String("type", msg.Type),
			zap.Error(err),
		)
		if nackErr := msg.Nack(false, false); nackErr != nil {
			log.Error("Failed to nack message", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(nackErr))
		}
	default:
		log.Warn("Requeueing message",
			zap.String("message_id", msg.MessageId),
			zap.String("type", msg.Type),
			zap.Error(err),
		)
		if nackErr := msg.Nack(false, true); nackErr != nil {
			log.Error("Failed to nack message", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(nackErr))
		}
	}
}

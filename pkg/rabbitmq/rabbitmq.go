// Package rabbitmq publishes and consumes book events over AMQP.
package rabbitmq

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bookshelf/internal/models"

	amqp "github.com/streadway/amqp"
)

// BookEventsQueue is the durable queue book events are routed to.
const BookEventsQueue = "book_events"

// channel is the part of *amqp.Channel the client uses.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel channel
	mu      sync.Mutex // amqp channels are not safe for concurrent publishing
	log     *slog.Logger
}

// NewClient connects to RabbitMQ, opens a channel and declares the book
// events queue.
func NewClient(cfg Config, log *slog.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	client, err := newClient(conn, ch, log)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	log.Info("RabbitMQ client connected", "queue", BookEventsQueue)
	return client, nil
}

func newClient(conn *amqp.Connection, ch channel, log *slog.Logger) (*Client, error) {
	if _, err := declareQueue(ch); err != nil {
		return nil, fmt.Errorf("failed to declare %s: %w", BookEventsQueue, err)
	}
	return &Client{conn: conn, channel: ch, log: log}, nil
}

func declareQueue(ch channel) (amqp.Queue, error) {
	return ch.QueueDeclare(
		BookEventsQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
}

// Close closes the RabbitMQ channel and connection.
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

// PublishBookEvent publishes event as a persistent JSON message on the book
// events queue.
func (c *Client) PublishBookEvent(event models.BookEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal book event: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err = c.channel.Publish(
		"",              // default exchange
		BookEventsQueue, // routing key: the queue name
		false,           // mandatory
		false,           // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         event.Type,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish book event: %w", err)
	}
	return nil
}

// ConsumeBookEvents starts a goroutine delivering decoded book events to
// handler. Messages are acked when handler returns nil; undecodable
// messages are rejected without requeue, handler errors are requeued.
func (c *Client) ConsumeBookEvents(handler func(models.BookEvent) error) error {
	queue, err := declareQueue(c.channel)
	if err != nil {
		return fmt.Errorf("failed to declare queue for consuming: %w", err)
	}

	msgs, err := c.channel.Consume(
		queue.Name,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			c.handleDelivery(msg, handler)
		}
	}()
	return nil
}

func (c *Client) handleDelivery(msg amqp.Delivery, handler func(models.BookEvent) error) {
	var event models.BookEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.log.Warn("dropping malformed book event", "delivery_tag", msg.DeliveryTag, "error", err)
		if err := msg.Reject(false); err != nil {
			c.log.Error("error rejecting message", "delivery_tag", msg.DeliveryTag, "error", err)
		}
		return
	}

	if err := handler(event); err != nil {
		c.log.Warn("error processing book event", "delivery_tag", msg.DeliveryTag, "error", err)
		if err := msg.Nack(false, true); err != nil {
			c.log.Error("error nacking message", "delivery_tag", msg.DeliveryTag, "error", err)
		}
		return
	}
	if err := msg.Ack(false); err != nil {
		c.log.Error("error acking message", "delivery_tag", msg.DeliveryTag, "error", err)
	}
}

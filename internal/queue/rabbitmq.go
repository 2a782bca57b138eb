package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/takio1981/my-todo-fullstack/internal/config"
	"github.com/takio1981/my-todo-fullstack/internal/observability"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// TaskEventsQueue carries task lifecycle events from the API to the worker.
const TaskEventsQueue = "task_events"

const maxRetries = 5

func SetupRabbitMQ(rabbitMQCfg *config.RabbitMQConfig) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error

	for i := 0; i < maxRetries; i++ {
		conn, err = amqp.Dial(rabbitMQCfg.URL)
		if err != nil {
			logrus.WithError(err).Warnf("Failed to connect to RabbitMQ (attempt %d/%d)", i+1, maxRetries)
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}

		break
	}

	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ after %d attempts: %w", maxRetries, err)
	}

	logrus.Info("RabbitMQ connection established successfully")
	return conn, nil
}

func CreateChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	return ch, nil
}

// queueDeclarer is satisfied by *amqp.Channel.
type queueDeclarer interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
}

func DeclareQueue(ch queueDeclarer, queueName string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return amqp.Queue{}, fmt.Errorf("failed to declare queue: %w", err)
	}

	return q, nil
}

// publishChannel is the part of *amqp.Channel the publisher needs.
type publishChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// Publisher sends JSON messages to durable queues on the default exchange over
// one long-lived channel. The channel is reopened if the broker closes it.
type Publisher struct {
	open   func() (publishChannel, error)
	queues []string

	mu       sync.Mutex
	ch       publishChannel
	declared map[string]bool
}

// NewPublisher opens the publishing channel and declares queues up front.
func NewPublisher(conn *amqp.Connection, queues ...string) (*Publisher, error) {
	return newPublisher(func() (publishChannel, error) {
		ch, err := CreateChannel(conn)
		if err != nil {
			return nil, err
		}
		return ch, nil
	}, queues...)
}

func newPublisher(open func() (publishChannel, error), queues ...string) (*Publisher, error) {
	p := &Publisher{open: open, queues: queues}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.channel(); err != nil {
		return nil, err
	}
	return p, nil
}

// channel returns the live channel, reopening and redeclaring as needed. Callers hold mu.
func (p *Publisher) channel() (publishChannel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}

	ch, err := p.open()
	if err != nil {
		return nil, err
	}
	p.ch = ch
	p.declared = make(map[string]bool, len(p.queues))

	for _, q := range p.queues {
		if err := p.declare(q); err != nil {
			return nil, err
		}
	}
	return ch, nil
}

func (p *Publisher) declare(queueName string) error {
	if p.declared[queueName] {
		return nil
	}
	if _, err := DeclareQueue(p.ch, queueName); err != nil {
		return err
	}
	p.declared[queueName] = true
	return nil
}

func (p *Publisher) Publish(ctx context.Context, queueName string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}
	if err := p.declare(queueName); err != nil {
		return err
	}

	err = ch.PublishWithContext(
		ctx,
		"",        // exchange
		queueName, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", queueName, err)
	}

	observability.GlobalMetrics.MessagePublished(queueName)
	return nil
}

// Close releases the publishing channel. The connection stays open.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.ch.IsClosed() {
		return nil
	}
	return p.ch.Close()
}

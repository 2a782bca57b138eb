package worker

import (
	"context"
	"fmt"

	"github.com/takio1981/my-todo-fullstack/internal/observability"
	"github.com/takio1981/my-todo-fullstack/internal/queue"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// StartWorker consumes task events until ctx is done or the delivery channel closes.
func StartWorker(ctx context.Context, conn *amqp.Connection, id int) error {
	ch, err := queue.CreateChannel(conn)
	if err != nil {
		return fmt.Errorf("worker %d: %w", id, err)
	}
	defer ch.Close()

	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("worker %d failed to set QoS: %w", id, err)
	}

	msgs, err := ch.Consume(
		queue.TaskEventsQueue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("worker %d failed to start consuming messages: %w", id, err)
	}

	logrus.Infof("Worker %d started", id)

	for {
		select {
		case <-ctx.Done():
			logrus.Infof("Worker %d stopping", id)
			return nil
		case msg, ok := <-msgs:
			if !ok {
				logrus.Warnf("Worker %d delivery channel closed", id)
				return nil
			}
			processDelivery(msg, id)
		}
	}
}

// processDelivery acks handled events and drops anything it cannot decode or route.
func processDelivery(msg amqp.Delivery, workerID int) {
	observability.GlobalMetrics.MessageConsumed(queue.TaskEventsQueue)

	event, err := decodeEvent(msg.Body)
	if err != nil {
		logrus.WithError(err).WithField("worker", workerID).Error("invalid payload")
		if err := msg.Nack(false, false); err != nil {
			logrus.WithError(err).Error("Failed to nack message")
		}
		return
	}

	if err := handleEvent(event, workerID); err != nil {
		logrus.WithError(err).WithField("worker", workerID).Error("Failed to handle task event")
		if err := msg.Nack(false, false); err != nil {
			logrus.WithError(err).Error("Failed to nack message")
		}
		return
	}

	if err := msg.Ack(false); err != nil {
		logrus.WithError(err).Error("Failed to ack message")
	}
}

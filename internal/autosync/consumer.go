// Package autosync implements the AMQP consumer that decodes watch-status
// events and dispatches them to the fan-out sync service set (spec
// component C9). Grounded on original_source's autosync/consumer.py for
// the exchange/queue topology and ack/reject policy.
package autosync

import (
	"context"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/kyoo-project/scanner/internal/autosync/models"
	"github.com/kyoo-project/scanner/internal/autosync/services"
)

const (
	exchangeName = "events.watched"
	queueName    = "autosync"
	routingKey   = "#"
	prefetch     = 20
)

// Consumer connects to the broker, declares the topology, and processes
// messages one at a time per channel (prefetch bounds in-flight count).
type Consumer struct {
	conn      *amqp.Connection
	aggregate *services.Aggregate
	log       *slog.Logger
}

func NewConsumer(conn *amqp.Connection, aggregate *services.Aggregate, log *slog.Logger) *Consumer {
	if log == nil {
		log = slog.Default()
	}
	return &Consumer{conn: conn, aggregate: aggregate, log: log.With("component", "autosync.consumer")}
}

// Run declares the topology and processes deliveries until ctx is
// cancelled or the channel errors.
func (c *Consumer) Run(ctx context.Context) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(exchangeName, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return err
	}
	q, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return err
	}
	if err := ch.QueueBind(q.Name, routingKey, exchangeName, false, nil); err != nil {
		return err
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		return err
	}

	deliveries, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	msg, err := models.Decode(d.Body)
	if err != nil {
		c.log.Error("failed to decode watch status message", "error", err)
		_ = d.Reject(false)
		return
	}

	if err := c.aggregate.Sync(ctx, &msg.Value); err != nil {
		c.log.Error("dispatch failed", "error", err)
		_ = d.Reject(false) // rejected, not requeued (spec.md §4.9).
		return
	}

	_ = d.Ack(false)
}

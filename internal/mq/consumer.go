package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// LogHandler обрабатывает одну запись лога из очереди.
// Ошибка возвращает сообщение в очередь (nack с requeue).
type LogHandler func(ctx context.Context, msg LogMessage) error

// LogConsumer потребляет записи логов из logs_queue.
// Используется log-drain'ом для просмотра потока логов системы.
type LogConsumer struct {
	conn     *Connection
	logger   *slog.Logger
	handler  LogHandler
	prefetch int
}

// NewLogConsumer создаёт LogConsumer.
func NewLogConsumer(conn *Connection, logger *slog.Logger, handler LogHandler) *LogConsumer {
	return &LogConsumer{
		conn:     conn,
		logger:   logger,
		handler:  handler,
		prefetch: 16,
	}
}

// Run потребляет сообщения до отмены контекста.
//
// Если соединения нет или оно разорвалось, цикл ждёт retryDelay
// и пробует снова: восстановлением самого соединения занимается
// Connection, consumer только переоткрывает подписку.
func (c *LogConsumer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		deliveries, err := c.setupConsume()
		if err != nil {
			c.logger.Warn("failed to start consuming, will retry",
				"queue", QueueLogs, "error", err, "delay", retryDelay)
			if err := sleepCtx(ctx, retryDelay); err != nil {
				return err
			}
			continue
		}

		c.logger.Info("consuming log messages", "queue", QueueLogs)

		if err := c.processDeliveries(ctx, deliveries); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("deliveries channel closed, resubscribing", "queue", QueueLogs)
			if err := sleepCtx(ctx, retryDelay); err != nil {
				return err
			}
		}
	}
}

// setupConsume открывает подписку на очередь логов.
func (c *LogConsumer) setupConsume() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, fmt.Errorf("no channel available")
	}

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(
		string(QueueLogs),
		"",    // consumer tag (auto-generated)
		false, // auto-ack (ack вручную)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}

	return deliveries, nil
}

// processDeliveries обрабатывает сообщения до закрытия канала.
func (c *LogConsumer) processDeliveries(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case raw, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("deliveries channel closed")
			}

			c.handleDelivery(ctx, raw)
		}
	}
}

// handleDelivery обрабатывает одно сообщение.
func (c *LogConsumer) handleDelivery(ctx context.Context, raw amqp.Delivery) {
	var msg LogMessage
	if err := json.Unmarshal(raw.Body, &msg); err != nil {
		c.logger.Error("failed to unmarshal log message",
			"error", err,
			"body", string(raw.Body),
		)
		// Некорректное сообщение переигрывать бессмысленно
		raw.Nack(false, false)
		return
	}

	if err := c.handler(ctx, msg); err != nil {
		c.logger.Error("log handler failed",
			"service", msg.Service,
			"error", err,
		)
		raw.Nack(false, true)
		return
	}

	raw.Ack(false)
}

// sleepCtx ждёт d или отмены контекста.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

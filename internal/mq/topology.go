package mq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Топология логов: log-service потребляет logs_queue.
const (
	ExchangeLogs Exchange = "logs"

	QueueLogs Queue = "logs_queue"

	RoutingKeyLog RoutingKey = "log"
)

// declareTopology объявляет exchange, очередь и binding для логов.
// Идемпотентно: повторное объявление с теми же параметрами безопасно.
func declareTopology(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(
		string(ExchangeLogs), // name
		"direct",             // type
		true,                 // durable
		false,                // auto-deleted
		false,                // internal
		false,                // no-wait
		nil,                  // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", ExchangeLogs, err)
	}

	_, err = ch.QueueDeclare(
		string(QueueLogs), // name
		true,              // durable
		false,             // delete when unused
		false,             // exclusive
		false,             // no-wait
		nil,               // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", QueueLogs, err)
	}

	err = ch.QueueBind(
		string(QueueLogs),     // queue name
		string(RoutingKeyLog), // routing key
		string(ExchangeLogs),  // exchange
		false,                 // no-wait
		nil,                   // arguments
	)
	if err != nil {
		return fmt.Errorf("bind queue %s to %s: %w", QueueLogs, ExchangeLogs, err)
	}

	return nil
}

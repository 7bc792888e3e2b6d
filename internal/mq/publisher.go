package mq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// LogMessage — сообщение для log-service.
//
// Формат согласован с потребителем: log-service читает logs_queue
// и сохраняет записи в хранилище логов.
type LogMessage struct {
	// Timestamp — время записи в UTC, ISO-8601.
	Timestamp string `json:"timestamp"`

	// Service — имя сервиса-отправителя.
	Service string `json:"service"`

	// Message — отформатированная строка лога.
	Message string `json:"message"`
}

// LogPublisher публикует записи логов в exchange logs.
type LogPublisher struct {
	conn    *Connection
	service string
}

// NewLogPublisher создаёт LogPublisher.
func NewLogPublisher(conn *Connection, service string) *LogPublisher {
	return &LogPublisher{
		conn:    conn,
		service: service,
	}
}

// PublishLog отправляет отформатированную строку лога в брокер.
//
// Если соединения нет — сообщение отбрасывается (не буферизируется,
// не ретраится): логи best-effort и не должны накапливаться в памяти.
func (p *LogPublisher) PublishLog(message string) error {
	if !p.conn.IsReady() {
		return nil
	}

	msg := LogMessage{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Service:   p.service,
		Message:   message,
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal log message: %w", err)
	}

	return p.conn.Publish(ExchangeLogs, RoutingKeyLog, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now(),
		Body:         body,
	})
}

package telemetry

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Severity — уровень записи лога.
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityError Severity = "ERROR"
	SeverityDebug Severity = "DEBUG"
)

// LogSink — удалённый приёмник записей логов.
// Реализуется mq.LogPublisher; в тестах подменяется заглушкой.
type LogSink interface {
	PublishLog(message string) error
}

// Emitter отправляет request-scoped записи логов.
//
// Каждая запись:
//   - синхронно пишется в консоль (дёшево, не пропускается)
//   - асинхронно отправляется в удалённый синк best-effort:
//     ошибка отправки логируется локально и никогда не доходит
//     до обработчика запроса
type Emitter struct {
	service string
	sink    LogSink
	out     io.Writer
	now     func() time.Time
}

// NewEmitter создаёт Emitter. sink может быть nil —
// тогда записи идут только в консоль.
func NewEmitter(service string, sink LogSink) *Emitter {
	return &Emitter{
		service: service,
		sink:    sink,
		out:     os.Stdout,
		now:     time.Now,
	}
}

// Info отправляет запись уровня INFO.
func (e *Emitter) Info(endpoint, correlationID, message string) {
	e.emit(SeverityInfo, endpoint, correlationID, message)
}

// Warn отправляет запись уровня WARN.
func (e *Emitter) Warn(endpoint, correlationID, message string) {
	e.emit(SeverityWarn, endpoint, correlationID, message)
}

// Error отправляет запись уровня ERROR.
func (e *Emitter) Error(endpoint, correlationID, message string) {
	e.emit(SeverityError, endpoint, correlationID, message)
}

// Debug отправляет запись уровня DEBUG.
func (e *Emitter) Debug(endpoint, correlationID, message string) {
	e.emit(SeverityDebug, endpoint, correlationID, message)
}

func (e *Emitter) emit(severity Severity, endpoint, correlationID, message string) {
	line := e.formatLine(severity, endpoint, correlationID, message)

	fmt.Fprintln(e.out, line)

	if e.sink == nil {
		return
	}

	go func() {
		if err := e.sink.PublishLog(line); err != nil {
			fmt.Fprintf(e.out, "[Logger] Failed to send log to RabbitMQ: %v\n", err)
		}
	}()
}

// formatLine собирает строку лога в согласованном между сервисами формате:
//
//	2024-01-01 10:00:00,123 INFO /study-sessions Correlation: <id> [planner-service] - message
func (e *Emitter) formatLine(severity Severity, endpoint, correlationID, message string) string {
	t := e.now()
	timestamp := fmt.Sprintf("%s,%03d", t.Format("2006-01-02 15:04:05"), t.Nanosecond()/1e6)
	return fmt.Sprintf("%s %s %s Correlation: %s [%s] - %s",
		timestamp, severity, endpoint, correlationID, e.service, message)
}

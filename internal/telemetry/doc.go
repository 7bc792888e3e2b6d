// Package telemetry обеспечивает наблюдаемость сервиса.
//
// Структура:
//   - logging.go — операционный structured logging через slog
//   - emitter.go — request-scoped логи: консоль синхронно,
//     RabbitMQ асинхронно best-effort
//   - metrics.go — Prometheus метрики и fire-and-forget отправка
//     метрик запросов в metrics-service
//
// Инвариант: ни одна операция telemetry не блокирует и не роняет
// основной путь запроса. Отказ синка или metrics-service приводит
// только к локальной строке в консоли.
package telemetry

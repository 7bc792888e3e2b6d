// Package mq предоставляет инфраструктуру для отправки логов в RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением (ленивая инициализация,
//     фоновый retry с фиксированной задержкой, graceful shutdown)
//   - topology.go   — объявление exchange, очереди и binding
//   - publisher.go  — публикация записей логов
//   - consumer.go   — чтение очереди логов (для log-drain)
//
// Топология:
//   - logs (direct) → logs_queue [routing: log]
//     Потребитель: log-service
//
// Соединение — process-wide shared state с явным жизненным циклом:
// Init / IsReady / Publish / Close. Отсутствие соединения никогда не
// блокирует и не роняет основной запрос — сообщения отбрасываются.
package mq

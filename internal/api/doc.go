// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go         — Handler с DI (хранилище, existence clients, verifier, телеметрия)
//   - routes.go          — регистрация маршрутов и цепочек middleware
//   - middleware.go      — middleware (recovery, CORS, correlation, telemetry, auth)
//   - response.go        — унифицированные JSON-ответы и обработка ошибок
//   - dto.go             — Data Transfer Objects (request/response)
//   - session_handler.go — обработчики для /study-sessions
//   - docs.go            — OpenAPI документ (dev only)
//
// Каждый запрос проходит фиксированный pipeline: назначение correlation
// id → проверка токена (кроме /healthz) → бизнес-обработчик → запись
// метрики. Метрика и удалённые логи best-effort и не влияют на ответ.
package api

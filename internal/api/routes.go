package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
//
// Порядок middleware фиксирован: correlation id назначается до
// аутентификации, аутентификация — до бизнес-логики, метрика
// снимается после формирования ответа. Health endpoint — без auth.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	open := Chain(
		h.Recovery(),
		h.CORS(),
		h.Correlation(),
		h.Telemetry(),
	)

	protected := Chain(
		h.Recovery(),
		h.CORS(),
		h.Correlation(),
		h.Telemetry(),
		h.Auth(),
	)

	// CORS preflight: до обработчика запрос не доходит,
	// CORS middleware отвечает 204 сам.
	mux.Handle("OPTIONS /", open(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	// Health — публичный endpoint
	mux.Handle("GET /healthz", open(http.HandlerFunc(h.Health)))

	// Study sessions
	mux.Handle("GET /study-sessions", protected(http.HandlerFunc(h.ListSessions)))
	mux.Handle("POST /study-sessions", protected(http.HandlerFunc(h.CreateSession)))
	mux.Handle("DELETE /study-sessions", protected(http.HandlerFunc(h.DeleteAllSessions)))
	mux.Handle("GET /study-sessions/{id}", protected(http.HandlerFunc(h.GetSession)))
	mux.Handle("PUT /study-sessions/{id}", protected(http.HandlerFunc(h.UpdateSession)))
	mux.Handle("DELETE /study-sessions/{id}", protected(http.HandlerFunc(h.DeleteSession)))
	mux.Handle("POST /study-sessions/{id}/complete", protected(http.HandlerFunc(h.CompleteSession)))
	mux.Handle("PUT /study-sessions/{id}/reschedule", protected(http.HandlerFunc(h.RescheduleSession)))

	// Интерактивная документация (dev only)
	if h.docsEnabled {
		mux.Handle("GET /docs", open(http.HandlerFunc(h.Docs)))
	}
}

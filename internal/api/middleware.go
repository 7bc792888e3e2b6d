package api

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/shaiso/Planner/internal/auth"
	"github.com/shaiso/Planner/internal/correlation"
	"github.com/shaiso/Planner/internal/telemetry"
)

// Middleware — функция-обёртка для http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain применяет middleware в порядке слева направо.
// Chain(m1, m2)(handler) = m1(m2(handler))
func Chain(middlewares ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// Recovery восстанавливается после паники.
func (h *Handler) Recovery() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					h.logger.Error("panic recovered",
						"error", err,
						"stack", string(debug.Stack()),
						"path", r.URL.Path,
					)
					InternalError(w, h.logger, nil)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// CORS проставляет CORS заголовки и отвечает на preflight запросы.
func (h *Handler) CORS() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", h.corsOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, "+correlation.Header)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Correlation извлекает или генерирует correlation id.
//
// Id попадает в контекст до любой логики обработчика и безусловно
// проставляется на заголовок ответа — и для успешных, и для
// ошибочных ответов. Установленный однажды id неизменен.
func (h *Handler) Correlation() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := correlation.FromRequest(r)
			w.Header().Set(correlation.Header, id)

			ctx := correlation.WithID(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Telemetry логирует запрос и отправляет метрику его длительности.
//
// Метрика уходит ровно один раз на запрос, независимо от того,
// какой ветвью был сформирован ответ (успех, 401, 400, 404).
// Отправка асинхронная и не добавляет задержки ответу.
func (h *Handler) Telemetry() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rw, r)

			duration := time.Since(start)
			correlationID := correlation.FromContext(r.Context())

			telemetry.RequestsTotal.WithLabelValues(
				r.Method, r.URL.Path, strconv.Itoa(rw.status)).Inc()
			telemetry.RequestDuration.WithLabelValues(
				r.Method, r.URL.Path).Observe(duration.Seconds())

			if h.metrics != nil {
				h.metrics.Record(r.URL.Path, r.Method, correlationID, duration)
			}

			h.emitter.Info(r.URL.Path, correlationID,
				fmt.Sprintf("%s %s -> %d (%dms)", r.Method, r.URL.Path, rw.status, duration.Milliseconds()))
		})
	}
}

// Auth проверяет bearer-токен и кладёт claims в контекст.
// При отказе запрос завершается 401 с причиной; обработчик не вызывается.
func (h *Handler) Auth() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			correlationID := correlation.FromContext(r.Context())

			credential, err := auth.FromHeader(r.Header.Get("Authorization"))
			if err != nil {
				h.emitter.Warn(r.URL.Path, correlationID, "rejected request: "+err.Error())
				if r.Header.Get("Authorization") == "" {
					Unauthorized(w, "Authorization header required")
				} else {
					Unauthorized(w, "Invalid Authorization header")
				}
				return
			}

			claims, err := h.verifier.Verify(credential)
			if err != nil {
				h.emitter.Warn(r.URL.Path, correlationID, "rejected request: "+err.Error())
				switch {
				case errors.Is(err, auth.ErrExpired):
					Unauthorized(w, "Token has expired")
				default:
					Unauthorized(w, "Invalid token")
				}
				return
			}

			ctx := auth.WithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// responseWriter — обёртка для захвата статуса ответа.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

package correlation

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Header — имя HTTP заголовка с correlation id.
// Входящее значение переиспользуется, исходящее проставляется на каждый ответ.
const Header = "x-correlation-id"

// ctxKey — приватный тип ключа контекста, защищает от коллизий.
type ctxKey struct{}

// FromRequest возвращает correlation id входящего запроса.
// Если заголовок отсутствует, генерируется новый UUID.
func FromRequest(r *http.Request) string {
	if id := r.Header.Get(Header); id != "" {
		return id
	}
	return uuid.NewString()
}

// WithID кладёт correlation id в контекст.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext извлекает correlation id из контекста.
// Возвращает пустую строку, если id не был установлен.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok {
		return id
	}
	return ""
}

package auth

import "context"

// claimsKey — приватный тип ключа контекста для claims.
type claimsKey struct{}

// WithClaims кладёт проверенные claims в контекст запроса.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext извлекает claims из контекста.
// Возвращает nil для неаутентифицированных запросов.
func ClaimsFromContext(ctx context.Context) *Claims {
	if claims, ok := ctx.Value(claimsKey{}).(*Claims); ok {
		return claims
	}
	return nil
}

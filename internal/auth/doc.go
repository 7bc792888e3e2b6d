// Package auth проверяет bearer-токены, выданные внешним auth-сервисом.
//
// Структура:
//   - verifier.go — извлечение credential из заголовка и проверка подписи
//
// Сервис не выпускает токены сам: проверяется только подпись (RS256 по
// публичному ключу или HS256 по shared secret) и срок действия.
package auth

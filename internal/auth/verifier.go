package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Ошибки проверки токена.
var (
	// ErrMalformed — заголовок Authorization отсутствует или не в форме "Bearer <token>".
	ErrMalformed = errors.New("malformed authorization header")

	// ErrExpired — подпись валидна, но срок действия токена истёк.
	ErrExpired = errors.New("token expired")

	// ErrInvalid — любая другая ошибка проверки (подпись, алгоритм, payload).
	ErrInvalid = errors.New("invalid token")
)

// Claims — типизированный payload токена.
//
// Декодируется один раз при проверке; доступ к полям через
// именованные аксессоры вместо map-lookup.
type Claims struct {
	// Email — email пользователя (опционально).
	Email string `json:"email,omitempty"`

	// Name — имя пользователя (опционально).
	Name string `json:"name,omitempty"`

	jwt.RegisteredClaims
}

// UserID возвращает идентификатор пользователя (claim "sub").
func (c *Claims) UserID() string {
	return c.Subject
}

// Verifier проверяет подпись и срок действия bearer-токенов.
//
// Если настроен публичный RSA ключ — проверяется только RS256.
// Иначе — только HS256 с shared secret. Семейства не смешиваются:
// на один запрос ровно одна попытка проверки.
type Verifier struct {
	publicKey *rsa.PublicKey
	secret    []byte
}

// Options — параметры создания Verifier.
type Options struct {
	// Secret — shared secret для HS256.
	Secret string

	// PublicKeyPEM — публичный ключ в PEM. Имеет приоритет над PublicKeyPath.
	PublicKeyPEM string

	// PublicKeyPath — путь к файлу с публичным ключом.
	PublicKeyPath string
}

// NewVerifier создаёт Verifier из опций.
func NewVerifier(opts Options) (*Verifier, error) {
	pem := opts.PublicKeyPEM
	if pem == "" && opts.PublicKeyPath != "" {
		data, err := os.ReadFile(opts.PublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read public key %s: %w", opts.PublicKeyPath, err)
		}
		pem = string(data)
	}

	v := &Verifier{secret: []byte(opts.Secret)}

	if pem != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
		if err != nil {
			return nil, fmt.Errorf("parse public key: %w", err)
		}
		v.publicKey = key
	}

	return v, nil
}

// FromHeader извлекает credential из заголовка Authorization.
// Ожидается форма "Bearer <token>".
func FromHeader(authorization string) (string, error) {
	if authorization == "" {
		return "", fmt.Errorf("%w: header required", ErrMalformed)
	}
	parts := strings.Split(authorization, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fmt.Errorf("%w: expected Bearer scheme", ErrMalformed)
	}
	return parts[1], nil
}

// Verify проверяет credential и возвращает декодированные claims.
//
// Возвращаемые ошибки различимы через errors.Is:
// ErrExpired при истёкшем сроке, ErrInvalid при любом другом отказе.
func (v *Verifier) Verify(credential string) (*Claims, error) {
	claims := &Claims{}

	var methods []string
	var keyFn jwt.Keyfunc

	if v.publicKey != nil {
		methods = []string{jwt.SigningMethodRS256.Alg()}
		keyFn = func(t *jwt.Token) (any, error) { return v.publicKey, nil }
	} else {
		methods = []string{jwt.SigningMethodHS256.Alg()}
		keyFn = func(t *jwt.Token) (any, error) { return v.secret, nil }
	}

	_, err := jwt.ParseWithClaims(credential, claims, keyFn,
		jwt.WithValidMethods(methods),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	return claims, nil
}

// ExpiresIn возвращает оставшееся время жизни токена.
// Возвращает 0, если claim "exp" отсутствует.
func (c *Claims) ExpiresIn(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}

package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestFromHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{name: "missing header", header: "", ok: false},
		{name: "no scheme", header: "sometoken", ok: false},
		{name: "wrong scheme", header: "Basic abc123", ok: false},
		{name: "too many parts", header: "Bearer a b", ok: false},
		{name: "valid", header: "Bearer sometoken", want: "sometoken", ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromHeader(tt.header)
			if tt.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != tt.want {
					t.Errorf("expected %q, got %q", tt.want, got)
				}
				return
			}
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

// signHS256 выпускает тестовый HS256 токен.
func signHS256(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestVerify_HS256(t *testing.T) {
	v, err := NewVerifier(Options{Secret: "test_secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token := signHS256(t, "test_secret", Claims{
		Email: "student@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := v.Verify(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID() != "42" {
		t.Errorf("expected subject 42, got %q", claims.UserID())
	}
	if claims.Email != "student@example.com" {
		t.Errorf("expected email claim, got %q", claims.Email)
	}
}

func TestVerify_Expired(t *testing.T) {
	v, _ := NewVerifier(Options{Secret: "test_secret"})

	token := signHS256(t, "test_secret", jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})

	_, err := v.Verify(token)
	if !errors.Is(err, ErrExpired) {
		t.Errorf("expected ErrExpired, got %v", err)
	}
}

func TestVerify_Invalid(t *testing.T) {
	v, _ := NewVerifier(Options{Secret: "test_secret"})

	tests := []struct {
		name  string
		token string
	}{
		{
			name: "wrong secret",
			token: signHS256(t, "other_secret", jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			}),
		},
		{name: "garbage", token: "not.a.token"},
		{name: "empty", token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestVerify_RS256(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	v, err := NewVerifier(Options{Secret: "unused", PublicKeyPEM: string(pubPEM)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rsToken, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	claims, err := v.Verify(rsToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID() != "7" {
		t.Errorf("expected subject 7, got %q", claims.UserID())
	}

	// С настроенным публичным ключом HS256 токены отклоняются:
	// fallback между семействами алгоритмов запрещён.
	hsToken := signHS256(t, "unused", jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	if _, err := v.Verify(hsToken); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for HS256 token, got %v", err)
	}
}

func TestClaims_ExpiresIn(t *testing.T) {
	// NumericDate усекает время до секунд.
	now := time.Now().Truncate(time.Second)

	with := Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}}
	if got := with.ExpiresIn(now); got != time.Hour {
		t.Errorf("expected 1h remaining, got %v", got)
	}

	var without Claims
	if got := without.ExpiresIn(now); got != 0 {
		t.Errorf("expected 0 without exp claim, got %v", got)
	}
}

func TestNewVerifier_BadKey(t *testing.T) {
	_, err := NewVerifier(Options{PublicKeyPEM: "not a pem"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

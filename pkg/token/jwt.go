package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/mitchellh/mapstructure"
)

type Engine interface {
	// Generate creates a token string containing the obj and expiration.
	Generate(expiration time.Duration, obj any) (string, error)

	// Verify checks the signature and expiry, then decodes the embedded object
	// into obj, which must be a pointer.
	Verify(token string, obj any) error
}

// payloadClaims wraps an arbitrary object so every token shares one claim
// layout. The object survives signing as a map and is decoded back with
// mapstructure on Verify.
type payloadClaims struct {
	jwt.RegisteredClaims
	Object any `json:"obj"`
}

type hmacEngine struct {
	secret []byte
}

func NewEngine(secret string) Engine {
	return &hmacEngine{secret: []byte(secret)}
}

func (e *hmacEngine) Generate(expiration time.Duration, obj any) (string, error) {
	now := time.Now()

	return jwt.NewWithClaims(jwt.SigningMethodHS256, payloadClaims{
		Object: obj,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}).SignedString(e.secret)
}

func (e *hmacEngine) Verify(token string, obj any) error {
	var claims payloadClaims
	if _, err := jwt.ParseWithClaims(token, &claims, e.keyOf); err != nil {
		return err
	}

	return mapstructure.Decode(claims.Object, obj)
}

func (e *hmacEngine) keyOf(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}

	return e.secret, nil
}

// Package session is the identity gate: staff sign in (manual name entry
// or an external provider handled by the client) and carry a signed
// token on every request.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/myron98980/halloween-party-app/internal/clock"
)

var ErrInvalidToken = errors.New("invalid session token")

// Identity is the staff member behind a request. Nombre feeds
// vendedorNombre on every ticket they register.
type Identity struct {
	Nombre string
	Email  string
	UID    string
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

const defaultTTL = 24 * time.Hour

func NewManager(secret string, clk clock.Clock) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    defaultTTL,
		clock:  clk,
	}
}

// Issue signs a session token for the identity.
func (m *Manager) Issue(identity Identity) (string, error) {
	now := m.clock.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"name":  identity.Nombre,
		"email": identity.Email,
		"sub":   identity.UID,
		"iat":   now.Unix(),
		"exp":   now.Add(m.ttl).Unix(),
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session token, returning the identity
// embedded in it.
func (m *Manager) Verify(tokenString string) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.clock.Now))
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}

	identity := Identity{}
	if name, ok := claims["name"].(string); ok {
		identity.Nombre = name
	}
	if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}
	if sub, ok := claims["sub"].(string); ok {
		identity.UID = sub
	}
	if identity.Nombre == "" {
		return Identity{}, ErrInvalidToken
	}
	return identity, nil
}

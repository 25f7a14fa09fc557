// Package auth issues and verifies session tokens and tracks live sessions in Redis.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cory-johannsen/fitquest/internal/config"
)

var (
	// ErrTokenMissing is returned when a request carries no bearer token.
	ErrTokenMissing = errors.New("session token is required")
	// ErrTokenInvalid is returned for a malformed, mis-signed, or foreign token.
	ErrTokenInvalid = errors.New("session token is invalid")
	// ErrTokenExpired is returned once a token's exp claim has passed.
	ErrTokenExpired = errors.New("session token is expired")
	// ErrSessionNotFound is returned when a token's session was revoked or has lapsed.
	ErrSessionNotFound = errors.New("session not found")
)

// Claims are the validated contents of a session token.
type Claims struct {
	SessionID string
	UserID    int64
	PlayerID  *int64
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TTL returns how long the session remains valid after now.
func (c Claims) TTL(now time.Time) time.Duration {
	return c.ExpiresAt.Sub(now)
}

// sessionClaims is the wire form of a session token.
type sessionClaims struct {
	jwt.RegisteredClaims
	PlayerID *int64 `json:"player_id,omitempty"`
	Role     string `json:"role"`
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer builds an Issuer from auth configuration.
//
// Precondition: cfg must have passed config validation.
func NewIssuer(cfg config.AuthConfig) *Issuer {
	return &Issuer{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		ttl:    cfg.TokenTTL,
		now:    time.Now,
	}
}

// Issue creates a signed token for the user with a fresh session ID.
// playerID is nil until the user has created a player.
//
// Postcondition: The returned Claims describe exactly what the token asserts.
func (i *Issuer) Issue(userID int64, playerID *int64, role string) (string, Claims, error) {
	now := i.now().UTC().Truncate(time.Second)
	claims := Claims{
		SessionID: uuid.NewString(),
		UserID:    userID,
		PlayerID:  playerID,
		Role:      role,
		IssuedAt:  now,
		ExpiresAt: now.Add(i.ttl),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        claims.SessionID,
			Issuer:    i.issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
		PlayerID: playerID,
		Role:     role,
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("signing session token: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies a token's signature, issuer, and expiry.
//
// Postcondition: Returns the claims, or ErrTokenMissing, ErrTokenInvalid, or ErrTokenExpired.
func (i *Issuer) Parse(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, ErrTokenMissing
	}

	var parsed sessionClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}

	userID, err := strconv.ParseInt(parsed.Subject, 10, 64)
	if err != nil || userID <= 0 || parsed.ID == "" {
		return Claims{}, ErrTokenInvalid
	}
	c := Claims{
		SessionID: parsed.ID,
		UserID:    userID,
		PlayerID:  parsed.PlayerID,
		Role:      parsed.Role,
		ExpiresAt: parsed.ExpiresAt.Time.UTC(),
	}
	if parsed.IssuedAt != nil {
		c.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return c, nil
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return ErrTokenExpired
	}
	return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
}

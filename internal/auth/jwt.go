package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenManager issues and validates session access tokens: HS256 JWTs whose
// subject is the user id and whose ID (jti) is the session record id.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenManager creates a new token manager.
// secret must be at least 32 characters for HS256 security.
// A zero ttl issues tokens that never expire; the session record still
// bounds their lifetime.
func NewTokenManager(secret string, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// SessionClaims identifies the session behind an access token.
type SessionClaims struct {
	UserID    string
	SessionID string
}

// Issue creates a signed access token for a session.
func (m *TokenManager) Issue(userID, sessionID string) (string, error) {
	if userID == "" || sessionID == "" {
		return "", errors.New("user and session id are required")
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:  userID,
		ID:       sessionID,
		Issuer:   m.issuer,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if m.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Validate parses and validates an access token.
func (m *TokenManager) Validate(tokenString string) (SessionClaims, error) {
	if tokenString == "" {
		return SessionClaims{}, fmt.Errorf("token is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return SessionClaims{}, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return SessionClaims{}, fmt.Errorf("invalid token claims")
	}

	if claims.Issuer != m.issuer {
		return SessionClaims{}, fmt.Errorf("invalid issuer: expected %s, got %s", m.issuer, claims.Issuer)
	}
	if claims.Subject == "" || claims.ID == "" {
		return SessionClaims{}, fmt.Errorf("token has no subject or session id")
	}

	return SessionClaims{UserID: claims.Subject, SessionID: claims.ID}, nil
}

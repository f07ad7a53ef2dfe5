// Package auth verifies the access tokens issued by the backend's auth
// service and carries the current user through request contexts.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainerrors "github.com/galeriaarte/galeria-server/internal/errors"
)

const (
	// DefaultAudience is the audience the backend puts on user tokens.
	DefaultAudience = "authenticated"

	// HS256 needs at least 256 bits of key.
	minSecretSize = 32
)

// Claims are the access token claims the gallery reads.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// User is the authenticated caller.
type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

// Verifier checks HS256 access tokens signed with the backend's JWT secret.
type Verifier struct {
	secret   []byte
	audience string
}

// NewVerifier creates a verifier. An empty audience uses DefaultAudience.
func NewVerifier(secret, audience string) (*Verifier, error) {
	if len(secret) < minSecretSize {
		return nil, fmt.Errorf("JWT secret must be at least %d characters, got %d", minSecretSize, len(secret))
	}
	if audience == "" {
		audience = DefaultAudience
	}
	return &Verifier{secret: []byte(secret), audience: audience}, nil
}

// Verify parses and validates a token and returns its user. Failures are
// UNAUTHORIZED domain errors.
func (v *Verifier) Verify(tokenString string) (*User, error) {
	if tokenString == "" {
		return nil, domainerrors.Unauthorized("token is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	},
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domainerrors.Wrap(err, domainerrors.CodeUnauthorized, "token expired")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domainerrors.Unauthorized("invalid token claims")
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnauthorized, "invalid token subject")
	}

	return &User{ID: id, Email: claims.Email, Role: claims.Role}, nil
}

// Issue signs a token for user, valid for ttl. The backend issues tokens in
// production; this serves local development and tests.
func (v *Verifier) Issue(user User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings{v.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: user.Email,
		Role:  user.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

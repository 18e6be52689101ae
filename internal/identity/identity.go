// Package identity turns an optional bearer credential into a caller identity.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrNoToken = errors.New("no bearer token")

// Identity is an authenticated caller.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// Resolver exchanges a bearer token for an identity.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*Identity, error)
}

// BearerToken extracts the token from an Authorization header value.
// It returns "" when the header is absent or not a bearer credential.
func BearerToken(header string) string {
	const prefix = "bearer "
	header = strings.TrimSpace(header)
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// ResolveOptional returns nil for a missing or unusable token instead of an
// error, so the caller is treated as anonymous.
func ResolveOptional(ctx context.Context, r Resolver, header string, logger *logrus.Logger) *Identity {
	token := BearerToken(header)
	if token == "" {
		return nil
	}

	id, err := r.Resolve(ctx, token)
	if err != nil {
		logger.WithError(err).Debug("Bearer token rejected, continuing as anonymous")
		return nil
	}
	return id
}

type userClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// JWTResolver verifies HS256 access tokens issued by the auth provider.
type JWTResolver struct {
	secret   []byte
	audience string
}

// NewJWTResolver creates a resolver for tokens signed with secret. An empty
// audience skips the audience check.
func NewJWTResolver(secret, audience string) *JWTResolver {
	return &JWTResolver{
		secret:   []byte(secret),
		audience: audience,
	}
}

func (r *JWTResolver) Resolve(_ context.Context, tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, ErrNoToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if r.audience != "" {
		opts = append(opts, jwt.WithAudience(r.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &userClaims{}, func(token *jwt.Token) (any, error) {
		return r.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*userClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject UUID: %w", err)
	}

	return &Identity{
		UserID: userID.String(),
		Email:  strings.TrimSpace(claims.Email),
		Role:   claims.Role,
	}, nil
}

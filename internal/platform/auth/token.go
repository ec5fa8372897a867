package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dentaldesk/clinic/internal/session"
)

const tokenIssuer = "dental-clinic"

var ErrTokenRevoked = errors.New("token has been revoked")

// Claims are carried by the bearer token handed out at login.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Issuer signs and verifies HS256 session tokens and remembers which ones it
// handed out so logout can revoke them.
type Issuer struct {
	key      []byte
	ttl      time.Duration
	registry *TokenRegistry
	now      func() time.Time
}

func NewIssuer(signingKey []byte, ttl time.Duration, registry *TokenRegistry) *Issuer {
	return &Issuer{key: signingKey, ttl: ttl, registry: registry, now: time.Now}
}

// Registry returns the token registry, or nil.
func (i *Issuer) Registry() *TokenRegistry { return i.registry }

// Issue returns a signed token for user.
func (i *Issuer) Issue(user *session.User) (string, *Claims, error) {
	now := i.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Username: user.Username,
		Role:     string(user.Role),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	if i.registry != nil {
		i.registry.Track(claims.ID, user.ID, claims.ExpiresAt.Time)
	}
	return signed, claims, nil
}

// Parse verifies signature, issuer and expiry, and rejects revoked tokens.
func (i *Issuer) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if i.registry != nil && i.registry.IsRevoked(claims.ID) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// RevokeUser revokes every token issued to userID plus the given jti, which
// may predate this process and therefore be unknown to the registry. The
// revocations are then persisted; on a persist error they still hold for
// the life of this process.
func (i *Issuer) RevokeUser(ctx context.Context, userID, jti string, expiresAt time.Time) (int, error) {
	if i.registry == nil {
		return 0, nil
	}
	if jti != "" {
		i.registry.Revoke(jti, expiresAt)
	}
	n := i.registry.RevokeAllForUser(userID)
	return n, i.registry.Persist(ctx, i.now())
}

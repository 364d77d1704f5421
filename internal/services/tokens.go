package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/sessions"
)

// Claims are the session token claims: sub is the user id.
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// UserID parses the subject as an ObjectID.
func (c *Claims) UserID() (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(c.Subject)
}

// TokenIssuer signs and checks HS256 session tokens and consults the
// revocation list on every parse.
type TokenIssuer struct {
	secret  []byte
	ttl     time.Duration
	revoker sessions.Revoker
	now     func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration, revoker sessions.Revoker) *TokenIssuer {
	if revoker == nil {
		revoker = sessions.NewMemoryRevoker()
	}
	return &TokenIssuer{
		secret:  []byte(secret),
		ttl:     ttl,
		revoker: revoker,
		now:     time.Now,
	}
}

func (t *TokenIssuer) TTL() time.Duration { return t.ttl }

// Issue returns a signed token for u and its expiry.
func (t *TokenIssuer) Issue(u *models.User) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	claims := Claims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.Hex(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse validates the token signature, expiry and revocation state.
func (t *TokenIssuer) Parse(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, ErrInvalidSession
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrInvalidSession
	}
	revoked, err := t.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// Revoke denies the token's jti until it would have expired anyway.
func (t *TokenIssuer) Revoke(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ID == "" {
		return nil
	}
	until := t.now().Add(t.ttl)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	return t.revoker.Revoke(ctx, claims.ID, until)
}

var errCodeGen = errors.New("generate verification code")

// newVerificationCode returns a random six-digit code.
func newVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errCodeGen, err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Package auth issues and verifies the JWT access/refresh pairs used by the
// HTTP API and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
)

// TokenKind separates access tokens from refresh tokens
type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token has been revoked")
)

// Claims carried by both token kinds
type Claims struct {
	jwt.RegisteredClaims
	Kind TokenKind `json:"token_type"`
	Role string    `json:"role,omitempty"`
}

// TokenPair is returned by login and refresh
type TokenPair struct {
	Access           string    `json:"access"`
	Refresh          string    `json:"refresh"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Issuer signs tokens with an HMAC secret and remembers revoked refresh
// tokens until they would have expired anyway.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	revoked    *ttlcache.Cache[string, struct{}]
	now        func() time.Time
}

// NewIssuer creates an Issuer. Call Stop to end the revocation sweeper.
func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("auth: signing secret cannot be empty")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, fmt.Errorf("auth: token lifetimes must be positive, got %s/%s", accessTTL, refreshTTL)
	}
	revoked := ttlcache.New[string, struct{}](
		ttlcache.WithDisableTouchOnHit[string, struct{}](),
	)
	go revoked.Start()

	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		revoked:    revoked,
		now:        time.Now,
	}, nil
}

// Stop ends the background expiry of revoked ids
func (i *Issuer) Stop() {
	i.revoked.Stop()
}

// Issue signs a new access/refresh pair for the user
func (i *Issuer) Issue(userID, role string) (*TokenPair, error) {
	now := i.now()
	access, accessExp, err := i.sign(userID, role, AccessToken, now, i.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := i.sign(userID, role, RefreshToken, now, i.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		Access:           access,
		Refresh:          refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (i *Issuer) sign(userID, role string, kind TokenKind, now time.Time, ttl time.Duration) (string, time.Time, error) {
	exp := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Kind: kind,
		Role: role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, exp, nil
}

// Parse verifies signature, expiry and kind. Revoked tokens are rejected.
func (i *Issuer) Parse(token string, kind TokenKind) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: expected %s token, got %s", ErrInvalidToken, kind, claims.Kind)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: missing subject or id", ErrInvalidToken)
	}
	if i.revoked.Has(claims.ID) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke blacklists the token id until its expiry
func (i *Issuer) Revoke(claims *Claims) {
	i.revoked.Set(claims.ID, struct{}{}, i.remaining(claims))
}

func (i *Issuer) remaining(claims *Claims) time.Duration {
	if claims.ExpiresAt != nil {
		if left := claims.ExpiresAt.Sub(i.now()); left > 0 {
			return left
		}
	}
	return time.Minute
}

// Rotate exchanges a refresh token for a new pair and revokes the old one.
// Of two concurrent rotations of the same token only one succeeds.
func (i *Issuer) Rotate(refresh string) (*Claims, *TokenPair, error) {
	claims, err := i.Parse(refresh, RefreshToken)
	if err != nil {
		return nil, nil, err
	}
	if _, found := i.revoked.GetOrSet(claims.ID, struct{}{},
		ttlcache.WithTTL[string, struct{}](i.remaining(claims))); found {
		return nil, nil, ErrTokenRevoked
	}
	pair, err := i.Issue(claims.Subject, claims.Role)
	if err != nil {
		return nil, nil, err
	}
	return claims, pair, nil
}

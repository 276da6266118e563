// Package auth mints and parses the HS256 session tokens. Access and
// refresh tokens carry their class in the claims and are signed with
// different secrets, so one class can never pass for the other.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClass tells access tokens from refresh tokens.
type TokenClass string

const (
	AccessToken  TokenClass = "access"
	RefreshToken TokenClass = "refresh"
)

// Claims are the registered claims plus the identity and class.
type Claims struct {
	jwt.RegisteredClaims
	UserID string     `json:"uid"`
	Class  TokenClass `json:"cls"`
}

// Keys holds one HMAC secret per token class.
type Keys struct {
	Access  []byte
	Refresh []byte
}

type Issuer struct {
	keys       Keys
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewIssuer validates the key pair and lifetimes. Secrets must be non-empty
// and distinct, and the access lifetime must be shorter than the refresh one.
func NewIssuer(keys Keys, accessTTL, refreshTTL time.Duration) (*Issuer, error) {
	if len(keys.Access) == 0 || len(keys.Refresh) == 0 {
		return nil, errors.New("token secrets must not be empty")
	}
	if string(keys.Access) == string(keys.Refresh) {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if accessTTL <= 0 || accessTTL >= refreshTTL {
		return nil, fmt.Errorf("access ttl %s must be positive and shorter than refresh ttl %s", accessTTL, refreshTTL)
	}
	return &Issuer{keys: keys, accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}, nil
}

// WithClock replaces the issuer's time source.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

func (i *Issuer) IssueAccessToken(userID string) (string, error) {
	return i.issue(userID, AccessToken, i.accessTTL, i.keys.Access)
}

func (i *Issuer) IssueRefreshToken(userID string) (string, error) {
	return i.issue(userID, RefreshToken, i.refreshTTL, i.keys.Refresh)
}

func (i *Issuer) issue(userID string, class TokenClass, ttl time.Duration, key []byte) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
		Class:  class,
	})
	return token.SignedString(key)
}

func (i *Issuer) keyFor(class TokenClass) ([]byte, bool) {
	switch class {
	case AccessToken:
		return i.keys.Access, true
	case RefreshToken:
		return i.keys.Refresh, true
	default:
		return nil, false
	}
}

// Parse verifies tokenString and returns its claims. The verification key
// is chosen by the embedded class; a valid token of the other class yields
// common.ErrWrongTokenClass. Every other failure wraps
// common.ErrInvalidToken, expiry additionally wraps common.ErrTokenExpired.
func (i *Issuer) Parse(tokenString string, expected TokenClass) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		c, ok := t.Claims.(*Claims)
		if !ok {
			return nil, common.ErrInvalidToken
		}
		key, ok := i.keyFor(c.Class)
		if !ok {
			return nil, common.ErrInvalidToken
		}
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, common.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}
	if claims.Class != expected {
		return nil, common.ErrWrongTokenClass
	}

	return claims, nil
}

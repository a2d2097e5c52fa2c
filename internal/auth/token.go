// Package auth issues and verifies session tokens, hashes passwords and
// decides which role may perform which action.
package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"servicepulse/backend/internal/config"
	"servicepulse/backend/internal/models"
)

var ErrInvalidToken = errors.New("auth: invalid or expired token")

// Claims carry the identity; the role is trusted only after the signature
// has been verified.
type Claims struct {
	Role     string `json:"role"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	VendorID string `json:"vendor_id,omitempty"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewTokenIssuer(cfg config.AuthConfig) *TokenIssuer {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &TokenIssuer{
		secret: []byte(cfg.JWTSecret),
		ttl:    ttl,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
}

// Issue signs an HS256 token for identity.
func (t *TokenIssuer) Issue(identity models.Identity) (string, error) {
	now := t.now()
	claims := Claims{
		Role:     identity.Role,
		Name:     identity.Name,
		Email:    identity.Email,
		VendorID: identity.VendorID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns the identity it carries.
func (t *TokenIssuer) Parse(tokenString string) (models.Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !models.ValidRole(claims.Role) {
		return models.Identity{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}

	return models.Identity{
		ID:       claims.Subject,
		Role:     claims.Role,
		Name:     claims.Name,
		Email:    claims.Email,
		VendorID: claims.VendorID,
	}, nil
}

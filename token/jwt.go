package token

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrMissingKey is returned when a JWTFactory has no signing key.
var ErrMissingKey = errors.New("token: missing signing key")

// JWTConfig configures a JWTFactory.
type JWTConfig struct {
	// Issuer is the iss claim.
	Issuer string

	// Audience is the aud claim. Optional.
	Audience string

	// SigningMethod signs the tokens.
	// Default: jwt.SigningMethodHS256
	SigningMethod jwt.SigningMethod

	// Key is the signing key. For HMAC methods it is a []byte; for RSA and
	// ECDSA it is the private key.
	Key any

	// VerifyKey verifies tokens in Parse. Defaults to Key, which suits HMAC.
	VerifyKey any

	// KeyID is written to the kid header when set.
	KeyID string
}

// Claims are the claims of a structured token.
type Claims struct {
	jwt.RegisteredClaims
	ClientID string `json:"client_id"`
	Scope    string `json:"scope,omitempty"`
	TokenUse Kind   `json:"token_use"`
}

// JWTFactory generates signed, self-describing token values.
type JWTFactory struct {
	config JWTConfig
}

// NewJWTFactory creates a JWTFactory.
func NewJWTFactory(config JWTConfig) (*JWTFactory, error) {
	if config.Key == nil {
		return nil, ErrMissingKey
	}
	if config.SigningMethod == nil {
		config.SigningMethod = jwt.SigningMethodHS256
	}
	if config.VerifyKey == nil {
		config.VerifyKey = config.Key
	}
	return &JWTFactory{config: config}, nil
}

// GenerateToken implements Factory.
func (f *JWTFactory) GenerateToken(_ context.Context, req *Request) (*Token, error) {
	now := req.now()
	exp := req.Expiry()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   f.config.Issuer,
			Subject:  req.Subject,
			IssuedAt: jwt.NewNumericDate(now),
			ID:       uuid.NewString(),
		},
		ClientID: req.ClientID,
		Scope:    req.Scope.String(),
		TokenUse: req.Kind,
	}
	if f.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{f.config.Audience}
	}
	if !exp.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}

	t := jwt.NewWithClaims(f.config.SigningMethod, claims)
	if f.config.KeyID != "" {
		t.Header["kid"] = f.config.KeyID
	}

	signed, err := t.SignedString(f.config.Key)
	if err != nil {
		return nil, fmt.Errorf("token: sign: %w", err)
	}

	return &Token{
		Value:     signed,
		Kind:      req.Kind,
		ClientID:  req.ClientID,
		Scope:     slices.Clone(req.Scope),
		Subject:   req.Subject,
		IssuedAt:  now,
		ExpiresAt: exp,
	}, nil
}

// Parse verifies value and returns its claims.
func (f *JWTFactory) Parse(value string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{f.config.SigningMethod.Alg()}),
	}
	if f.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(f.config.Issuer))
	}
	if f.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(f.config.Audience))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(value, claims, func(*jwt.Token) (any, error) {
		return f.config.VerifyKey, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("token: parse: %w", err)
	}
	return claims, nil
}

var _ Factory = (*JWTFactory)(nil)

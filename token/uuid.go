package token

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// UUIDFactory generates opaque values from two random UUIDs.
type UUIDFactory struct{}

// NewUUIDFactory creates a UUIDFactory.
func NewUUIDFactory() *UUIDFactory {
	return &UUIDFactory{}
}

// GenerateToken implements Factory.
func (UUIDFactory) GenerateToken(_ context.Context, req *Request) (*Token, error) {
	a, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	b, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}

	return &Token{
		Value:     strings.ReplaceAll(a.String()+b.String(), "-", ""),
		Kind:      req.Kind,
		ClientID:  req.ClientID,
		Scope:     slices.Clone(req.Scope),
		Subject:   req.Subject,
		IssuedAt:  req.now(),
		ExpiresAt: req.Expiry(),
	}, nil
}

var _ Factory = UUIDFactory{}

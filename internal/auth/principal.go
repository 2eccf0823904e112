// Package auth resolves the caller of a request from a bearer token.
package auth

import (
	"context"

	"github.com/Freeeeeet/tutorhub/internal/model"
	"github.com/google/uuid"
)

// Principal is the authenticated caller passed explicitly into services.
type Principal struct {
	UserID uuid.UUID
	Role   model.Role
}

func (p Principal) IsTutor() bool {
	return p.Role == model.RoleTutor
}

func (p Principal) IsStudent() bool {
	return p.Role == model.RoleStudent
}

type principalKey struct{}

// WithPrincipal stores p in ctx. Only the HTTP middleware should call it.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored by WithPrincipal.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

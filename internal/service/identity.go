package service

import (
	"context"
	"slices"

	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
)

// Identity is the authenticated caller of a service operation.
type Identity struct {
	UserID   uuid.UUID  `json:"user_id"`
	Username string     `json:"username"`
	Role     model.Role `json:"role"`
	Approved bool       `json:"approved"`
}

// IdentityOf builds the identity of an authenticated user.
func IdentityOf(u *model.User) Identity {
	return Identity{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		Approved: u.IsActive,
	}
}

// SystemIdentity is used by offline tools acting without a login.
func SystemIdentity(name string) Identity {
	return Identity{Username: name, Role: model.RoleAdmin, Approved: true}
}

func (i Identity) IsAdmin() bool {
	return i.Role == model.RoleAdmin
}

// Can reports whether the identity's role grants the privilege code.
func (i Identity) Can(privilege string) bool {
	return i.Approved && slices.Contains(i.Role.Privileges(), privilege)
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// requireApproved returns the caller, or ErrPermissionDenied when the
// context carries no approved identity.
func requireApproved(ctx context.Context) (Identity, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok || !id.Approved {
		return Identity{}, ErrPermissionDenied
	}
	return id, nil
}

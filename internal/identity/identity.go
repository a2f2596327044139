// Package identity carries the authenticated caller into marketplace operations.
// Operations take an Identity argument; nothing reads it from ambient state.
package identity

import (
	"context"
	"strings"
)

type Role string

const (
	RoleCreator Role = "creator"
	RoleBrand   Role = "brand"
	RoleAdmin   Role = "admin"
)

func ParseRole(v string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(v))) {
	case RoleCreator:
		return RoleCreator, true
	case RoleBrand:
		return RoleBrand, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// Identity is the caller as asserted by the identity provider.
// ChannelID is only set for creators that linked a channel.
type Identity struct {
	UserID    string
	Role      Role
	ChannelID string
}

func (i Identity) IsZero() bool { return i.UserID == "" }

func (i Identity) Is(role Role) bool { return i.UserID != "" && i.Role == role }

func Creator(userID string) Identity { return Identity{UserID: userID, Role: RoleCreator} }

func Brand(userID string) Identity { return Identity{UserID: userID, Role: RoleBrand} }

func Admin(userID string) Identity { return Identity{UserID: userID, Role: RoleAdmin} }

type ctxKey int

const identityKey ctxKey = 1

func WithIdentity(ctx context.Context, id Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityKey, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

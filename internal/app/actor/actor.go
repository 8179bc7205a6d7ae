package actor

import (
	"errors"
	"strings"
)

// Actor identifies who is performing an operation. Handlers receive it as an
// explicit parameter; nothing is read from ambient request state.
type Actor struct {
	ID   string
	Role Role
}

type Role string

const (
	RoleCustomer Role = "customer"
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
	// RoleSystem is used by schedulers and background workers.
	RoleSystem Role = "system"
)

var (
	ErrActorRequired = errors.New("actor: actor is required")
	ErrForbidden     = errors.New("actor: operation not allowed for this actor")
)

func New(id string, role Role) (Actor, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Actor{}, ErrActorRequired
	}
	switch role {
	case RoleCustomer, RoleOwner, RoleAdmin, RoleSystem:
	default:
		return Actor{}, errors.New("actor: unknown role")
	}
	return Actor{ID: id, Role: role}, nil
}

func (a Actor) Is(role Role) bool { return a.Role == role }

// Privileged reports whether the actor bypasses ownership checks.
func (a Actor) Privileged() bool {
	return a.Role == RoleAdmin || a.Role == RoleSystem
}

package internal

import (
	"context"
	"time"
)

// Actor is the acting principal resolved by the identity collaborator.
// The engine never authenticates; it trusts the resolved employee id and
// role handed to it by the transport layer.
type Actor struct {
	EmployeeID int64
	Role       string
}

// Roles recognized by the approval machinery.
const (
	RoleEmployee   = "employee"
	RoleManager    = "manager"
	RoleHRAdmin    = "hr_admin"
	RoleSuperAdmin = "super_admin"
)

func (a Actor) IsManager() bool {
	return a.Role == RoleManager || a.IsAdmin()
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleHRAdmin || a.Role == RoleSuperAdmin
}

func (a Actor) IsSuperAdmin() bool {
	return a.Role == RoleSuperAdmin
}

type ctxKey string

const actorKey ctxKey = "actor"

func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok
}

func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if
// duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}

package auth

import "context"

type contextKey struct{}

// Identity is the authenticated caller as resolved by the external identity
// service. The engine trusts these ids and never re-authenticates.
type Identity struct {
	EmployeeID int64
	EmployerID int64
	Role       string
}

const (
	RoleEmployee = "employee"
	RoleEmployer = "employer"
)

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

func EmployeeID(ctx context.Context) int64 {
	id, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return id.EmployeeID
}

func EmployerID(ctx context.Context) int64 {
	id, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return id.EmployerID
}

func IsEmployer(ctx context.Context) bool {
	id, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return id.Role == RoleEmployer
}

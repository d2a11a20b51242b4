package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/birrflow/birrflow-backend/internal/authz"
	"github.com/birrflow/birrflow-backend/pkg/enums"
)

type contextKey string

const (
	ctxAccountID contextKey = "account_id"
	ctxRole      contextKey = "actor_role"
)

func AccountIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccountID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// WithAccountID injects the account identifier into the context.
func WithAccountID(ctx context.Context, accountID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAccountID, accountID)
}

// WithRole injects the actor role into the context for downstream handlers.
func WithRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}

// ActorFromContext rebuilds the policy actor from the request context. The
// second return is false when the context lacks valid credentials.
func ActorFromContext(ctx context.Context) (authz.Actor, bool) {
	id, err := uuid.Parse(AccountIDFromContext(ctx))
	if err != nil {
		return authz.Actor{}, false
	}
	role := enums.AccountRole(RoleFromContext(ctx))
	if !role.IsValid() {
		return authz.Actor{}, false
	}
	return authz.Actor{ID: id, Role: role, IsActive: true}, true
}

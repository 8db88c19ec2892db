package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/gatherly/backend/internal/domain"
)

// Resolver is the identity/auth collaborator: it turns a bearer token into
// the acting user. Profile storage and credential checking live outside
// this system.
type Resolver interface {
	Resolve(ctx context.Context, token string) (domain.Actor, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, token string) (domain.Actor, error)

func (f ResolverFunc) Resolve(ctx context.Context, token string) (domain.Actor, error) {
	return f(ctx, token)
}

// TokenResolver treats the token as the user id itself, with an optional
// blocklist. It stands in for the real identity service in local and dev
// environments.
type TokenResolver struct {
	Blocked map[uuid.UUID]bool
}

func (r *TokenResolver) Resolve(_ context.Context, token string) (domain.Actor, error) {
	id, err := uuid.Parse(token)
	if err != nil {
		return domain.Actor{}, domain.NewAuthorization("invalid token")
	}
	return domain.Actor{ID: id, Blocked: r.Blocked[id]}, nil
}

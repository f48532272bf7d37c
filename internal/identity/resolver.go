// Package identity resolves bearer tokens to verified identities. The
// chat core never verifies tokens itself; it only consumes the result.
package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/koyo/danmu/internal/domain"
)

// Resolver classifies a token. Implementations must never fail the
// caller: an absent or unresolvable token yields a fresh guest identity,
// and the connection proceeds.
type Resolver interface {
	Resolve(ctx context.Context, token string) domain.Identity
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, token string) domain.Identity

func (f ResolverFunc) Resolve(ctx context.Context, token string) domain.Identity {
	return f(ctx, token)
}

func newGuest() domain.Identity {
	return domain.NewGuest(uuid.NewString()[:12])
}

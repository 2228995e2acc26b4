package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoCredentials means the request carried no Authorization header at all.
// Such requests are served anonymously where the endpoint allows it.
var ErrNoCredentials = errors.New("authorization header is empty")

// ExtractBearerToken extracts the token from a Bearer authorization header
func ExtractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrNoCredentials
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", fmt.Errorf("invalid authorization header format, expected 'Bearer <token>'")
	}

	return parts[1], nil
}

// Actor is the verified identity behind a request.
type Actor struct {
	// Firebase user id. E.g., "Xk3lQ8aP1bV..."
	ID    string
	Email string
}

type actorKey struct{}

// WithActor returns a copy of ctx carrying actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor stored in ctx, or false for anonymous requests.
func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok && actor.ID != ""
}

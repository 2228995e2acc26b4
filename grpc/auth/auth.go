package auth

import (
	"context"
	"errors"
	"log"
	"net/http"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	pkgAuth "github.com/pagenote-project/pagenote/pkg/auth"
	yaHttp "github.com/pagenote-project/pagenote/pkg/http"
)

type Auth interface {
	Verify(ctx context.Context, token string) (pkgAuth.Actor, error)
}

// Middleware verifies the bearer token of every request and stores the actor
// in the request context. Requests without an Authorization header pass
// through anonymously; handlers decide whether they need an actor.
func Middleware(authClient Auth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := pkgAuth.ExtractBearerToken(r.Header.Get("Authorization"))
			if errors.Is(err, pkgAuth.ErrNoCredentials) {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				yaHttp.WriteError(w, http.StatusUnauthorized, err.Error())
				return
			}
			actor, err := authClient.Verify(r.Context(), token)
			if err != nil {
				log.Printf("Rejected token: %v", err)
				yaHttp.WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(pkgAuth.WithActor(r.Context(), actor)))
		})
	}
}

// UnaryInterceptor is the gRPC counterpart of Middleware.
func UnaryInterceptor(authClient Auth) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, request any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		metadatas, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return handler(ctx, request)
		}
		key := metadatas.Get("Authorization")
		if len(key) == 0 {
			return handler(ctx, request)
		}
		if len(key) != 1 {
			return nil, status.Errorf(codes.Unauthenticated, "multiple authorization tokens")
		}
		token, err := pkgAuth.ExtractBearerToken(key[0])
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		actor, err := authClient.Verify(ctx, token)
		if err != nil {
			return nil, status.Errorf(codes.Unauthenticated, "invalid token: %v", err)
		}
		return handler(pkgAuth.WithActor(ctx, actor), request)
	}
}

package server

import (
	"context"
	"crypto/subtle"
	"strings"

	"streamcatalog/internal/service"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
)

// AuthMiddleware validates the admin Bearer token for the given operations
func AuthMiddleware(token string, operations ...string) middleware.Middleware {
	protected := make(map[string]struct{}, len(operations))
	for _, op := range operations {
		protected[op] = struct{}{}
	}

	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			// Get transport info
			tr, ok := transport.FromServerContext(ctx)
			if !ok {
				return nil, errors.Unauthorized("UNAUTHORIZED", "missing transport info")
			}

			if _, ok := protected[tr.Operation()]; ok {
				// Extract Authorization header
				authHeader := tr.RequestHeader().Get("Authorization")
				if authHeader == "" {
					return nil, errors.Unauthorized("UNAUTHORIZED", "missing Authorization header")
				}

				// Check Bearer token format
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) != 2 || parts[0] != "Bearer" {
					return nil, errors.Unauthorized("UNAUTHORIZED", "invalid Authorization header format")
				}

				// Validate token
				if token == "" || subtle.ConstantTimeCompare([]byte(parts[1]), []byte(token)) != 1 {
					return nil, errors.Unauthorized("UNAUTHORIZED", "invalid token")
				}
			}

			return handler(ctx, req)
		}
	}
}

// IdentityMiddleware extracts the X-User-Id header. Requests without it
// run as anonymous and the use cases decide whether that is allowed.
func IdentityMiddleware() middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			// Get transport info
			tr, ok := transport.FromServerContext(ctx)
			if !ok {
				return handler(ctx, req)
			}

			if userID := strings.TrimSpace(tr.RequestHeader().Get("X-User-Id")); userID != "" {
				ctx = service.NewUserContext(ctx, userID)
			}

			return handler(ctx, req)
		}
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"streamcatalog/internal/biz"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

func TestToHTTPError(t *testing.T) {
	l := log.NewHelper(log.NewFilter(log.DefaultLogger, log.FilterLevel(log.LevelFatal)))

	tests := []struct {
		name   string
		err    error
		code   int
		reason string
	}{
		{"invalid rating", biz.ErrInvalidRating, 422, "INVALID_RATING"},
		{"wrapped not found", fmt.Errorf("failed to get: %w", biz.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"invalid argument", biz.ErrInvalidArgument, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"invalid kind", biz.ErrInvalidContentKind, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"anonymous", biz.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"credentials", biz.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"duplicate user", biz.ErrDuplicateRegistration, http.StatusConflict, "DUPLICATE_REGISTRATION"},
		{"duplicate season", biz.ErrDuplicateSeason, http.StatusConflict, "DUPLICATE_SEASON"},
		{"duplicate episode", biz.ErrDuplicateEpisode, http.StatusConflict, "DUPLICATE_EPISODE"},
		{"upstream", fmt.Errorf("%w: upload", biz.ErrUpstreamUnavailable), http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE"},
		{"kratos passthrough", kerrors.Forbidden("NOPE", "no"), http.StatusForbidden, "NOPE"},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := kerrors.FromError(toHTTPError(l, tt.err))
			if int(se.Code) != tt.code || se.Reason != tt.reason {
				t.Fatalf("got %d %s, want %d %s", se.Code, se.Reason, tt.code, tt.reason)
			}
		})
	}

	if toHTTPError(l, nil) != nil {
		t.Fatal("nil error must map to nil")
	}
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     interface{}
		wantErr bool
	}{
		{"valid search", &SearchRequest{Kind: "movie", Limit: 5}, false},
		{"bad kind", &SearchRequest{Kind: "book"}, true},
		{"limit too large", &SearchRequest{Kind: "show", Limit: 101}, true},
		{"register ok", &RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "secret1"}, false},
		{"register short name", &RegisterRequest{Username: "al", Email: "alice@example.com", Password: "secret1"}, true},
		{"register bad email", &RegisterRequest{Username: "alice", Email: "nope", Password: "secret1"}, true},
		{"content without thumbnail", &CreateContentRequest{Kind: "movie", Title: "t", Description: "d"}, true},
		{"content ok", &CreateContentRequest{Kind: "show", Title: "t", Description: "d", Thumbnail: &biz.Upload{Filename: "a.png"}}, false},
		{"season zero", &AddSeasonRequest{ShowId: "s1"}, true},
		{"rating range bound", &FilterRequest{Kind: "movie", MinRating: ptr(11.0)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRequest(tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateRequest error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && kerrors.FromError(err).Code != http.StatusBadRequest {
				t.Fatalf("validation error code = %d, want 400", kerrors.FromError(err).Code)
			}
		})
	}
}

func TestUserContext(t *testing.T) {
	ctx := context.Background()
	if got := UserIDFromContext(ctx); got != "" {
		t.Fatalf("anonymous context returned %q", got)
	}
	if got := UserIDFromContext(NewUserContext(ctx, "u1")); got != "u1" {
		t.Fatalf("UserIDFromContext = %q, want u1", got)
	}
}

func ptr[T any](v T) *T { return &v }

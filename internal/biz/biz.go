package biz

import (
	"context"
	"errors"

	"github.com/google/wire"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	NewRatingUseCase,
	NewRecommendUseCase,
	NewCatalogUseCase,
	NewInteractionUseCase,
	NewUserUseCase,
)

// Domain errors
var (
	ErrInvalidRating         = errors.New("rating must be between 1 and 10")
	ErrNotFound              = errors.New("not found")
	ErrDuplicateRegistration = errors.New("email or username already registered")
	ErrUpstreamUnavailable   = errors.New("upstream unavailable")
	ErrInvalidContentKind    = errors.New("content type must be movie or show")
	ErrDuplicateSeason       = errors.New("season number already exists for show")
	ErrDuplicateEpisode      = errors.New("episode number already exists for season")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrUnauthenticated       = errors.New("authentication required")
)

// Transaction runs fn inside a single database transaction. Repositories
// called with the ctx passed to fn join that transaction.
type Transaction interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

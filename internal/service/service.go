package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"streamcatalog/internal/biz"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-playground/validator/v10"
	"github.com/google/wire"
)

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(
	NewCatalogService,
	NewInteractionService,
	NewUserService,
	NewHealthService,
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateRequest checks struct tags and reports every failing field.
func validateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return kerrors.BadRequest("INVALID_ARGUMENT", err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
	}
	return kerrors.BadRequest("INVALID_ARGUMENT", strings.Join(msgs, "; "))
}

// toHTTPError maps domain errors onto kratos errors. Anything unexpected
// is logged and hidden behind a 500.
func toHTTPError(l *log.Helper, err error) error {
	if err == nil {
		return nil
	}

	var se *kerrors.Error
	switch {
	case errors.As(err, &se):
		return se
	case errors.Is(err, biz.ErrInvalidRating):
		return kerrors.New(422, "INVALID_RATING", err.Error())
	case errors.Is(err, biz.ErrInvalidArgument), errors.Is(err, biz.ErrInvalidContentKind):
		return kerrors.BadRequest("INVALID_ARGUMENT", err.Error())
	case errors.Is(err, biz.ErrUnauthenticated):
		return kerrors.Unauthorized("UNAUTHENTICATED", "missing X-User-Id header")
	case errors.Is(err, biz.ErrInvalidCredentials):
		return kerrors.Unauthorized("INVALID_CREDENTIALS", biz.ErrInvalidCredentials.Error())
	case errors.Is(err, biz.ErrNotFound):
		return kerrors.NotFound("NOT_FOUND", err.Error())
	case errors.Is(err, biz.ErrDuplicateRegistration):
		return kerrors.Conflict("DUPLICATE_REGISTRATION", biz.ErrDuplicateRegistration.Error())
	case errors.Is(err, biz.ErrDuplicateSeason):
		return kerrors.Conflict("DUPLICATE_SEASON", err.Error())
	case errors.Is(err, biz.ErrDuplicateEpisode):
		return kerrors.Conflict("DUPLICATE_EPISODE", err.Error())
	case errors.Is(err, biz.ErrUpstreamUnavailable):
		l.Warnf("upstream failure: %v", err)
		return kerrors.ServiceUnavailable("UPSTREAM_UNAVAILABLE", "media storage is unavailable")
	}

	l.Errorf("unhandled error: %v", err)
	return kerrors.InternalServer("INTERNAL", "internal error")
}

type userIDKey struct{}

// NewUserContext stores the caller identity.
func NewUserContext(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext returns the caller identity, empty when anonymous.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

func parseKind(s string) (biz.ContentKind, error) {
	kind, err := biz.ParseContentKind(s)
	if err != nil {
		return "", kerrors.BadRequest("INVALID_ARGUMENT", err.Error())
	}
	return kind, nil
}

package biz

import (
	"context"
	"fmt"
	"math"

	"github.com/go-kratos/kratos/v2/log"
)

const (
	minRatingValue = 1
	maxRatingValue = 10
)

// RatingUseCase handles rating submission and blended rating reads
type RatingUseCase struct {
	contentRepo ContentRepo
	ratingRepo  RatingRepo
	userRepo    UserRepo
	tx          Transaction
	log         *log.Helper
}

// NewRatingUseCase creates a new RatingUseCase instance
func NewRatingUseCase(contentRepo ContentRepo, ratingRepo RatingRepo, userRepo UserRepo, tx Transaction, logger log.Logger) *RatingUseCase {
	return &RatingUseCase{
		contentRepo: contentRepo,
		ratingRepo:  ratingRepo,
		userRepo:    userRepo,
		tx:          tx,
		log:         log.NewHelper(logger),
	}
}

// roundRating rounds half away from zero to one decimal place.
func roundRating(v float64) float64 {
	return math.Round(v*10) / 10
}

// BlendRating combines the aggregate of user ratings with the external
// rating. Without user ratings the external rating stands alone.
func BlendRating(agg *RatingAggregate, external float64) float64 {
	if agg == nil || agg.Count == 0 {
		return roundRating(external)
	}
	return roundRating((agg.Mean + external) / 2)
}

// SubmitRating inserts or overwrites the caller's rating for a content item
// and returns the recomputed blended rating.
func (uc *RatingUseCase) SubmitRating(ctx context.Context, userID string, ref ContentRef, value int32) (float64, error) {
	if userID == "" {
		return 0, ErrUnauthenticated
	}
	if value < minRatingValue || value > maxRatingValue {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidRating, value)
	}

	var average float64
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		content, err := uc.contentRepo.GetContent(ctx, ref)
		if err != nil {
			return err
		}
		if _, err := uc.userRepo.GetUser(ctx, userID); err != nil {
			return err
		}

		if err := uc.ratingRepo.UpsertRating(ctx, &Rating{
			UserID: userID,
			Ref:    ref,
			Value:  value,
		}); err != nil {
			return fmt.Errorf("failed to upsert rating: %w", err)
		}

		agg, err := uc.ratingRepo.GetRatingAggregate(ctx, ref)
		if err != nil {
			return fmt.Errorf("failed to get rating aggregate: %w", err)
		}
		average = BlendRating(agg, content.ExternalRating)
		return nil
	})
	if err != nil {
		return 0, err
	}

	uc.ratingRepo.InvalidateAggregate(ctx, ref)
	uc.log.Debugf("rating %d by user %s for %s, average now %.1f", value, userID, ref, average)
	return average, nil
}

// AverageRating returns the blended rating of a single content item.
func (uc *RatingUseCase) AverageRating(ctx context.Context, ref ContentRef) (float64, error) {
	content, err := uc.contentRepo.GetContent(ctx, ref)
	if err != nil {
		return 0, err
	}
	agg, err := uc.ratingRepo.GetRatingAggregate(ctx, ref)
	if err != nil {
		return 0, fmt.Errorf("failed to get rating aggregate: %w", err)
	}
	return BlendRating(agg, content.ExternalRating), nil
}

// Rate attaches blended ratings to content, one aggregate query per kind.
// Output order matches input order.
func (uc *RatingUseCase) Rate(ctx context.Context, items []*Content) ([]*RatedContent, error) {
	idsByKind := make(map[ContentKind][]string)
	for _, c := range items {
		idsByKind[c.Kind] = append(idsByKind[c.Kind], c.ID)
	}

	aggs := make(map[ContentKind]map[string]*RatingAggregate, len(idsByKind))
	for kind, ids := range idsByKind {
		m, err := uc.ratingRepo.RatingAggregates(ctx, kind, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to get rating aggregates: %w", err)
		}
		aggs[kind] = m
	}

	out := make([]*RatedContent, 0, len(items))
	for _, c := range items {
		out = append(out, &RatedContent{
			Content:       c,
			AverageRating: BlendRating(aggs[c.Kind][c.ID], c.ExternalRating),
		})
	}
	return out, nil
}

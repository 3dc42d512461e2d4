package biz

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
)

const (
	recommendLimit = 10
	affinityLimit  = 5
	globalLimit    = 5
)

// RecommendUseCase builds per-user content recommendations
type RecommendUseCase struct {
	contentRepo ContentRepo
	userRepo    UserRepo
	rating      *RatingUseCase
	log         *log.Helper
}

// NewRecommendUseCase creates a new RecommendUseCase instance
func NewRecommendUseCase(contentRepo ContentRepo, userRepo UserRepo, rating *RatingUseCase, logger log.Logger) *RecommendUseCase {
	return &RecommendUseCase{
		contentRepo: contentRepo,
		userRepo:    userRepo,
		rating:      rating,
		log:         log.NewHelper(logger),
	}
}

// Recommend returns at most ten items of kind for userID. Anonymous callers
// (empty userID) and users without a preference get the global top list.
// Otherwise the top genre matches come first, followed by global top items
// not already listed.
func (uc *RecommendUseCase) Recommend(ctx context.Context, userID string, kind ContentKind) ([]*RatedContent, error) {
	pref, err := uc.preference(ctx, userID)
	if err != nil {
		return nil, err
	}

	var items []*Content
	if pref == nil {
		items, err = uc.contentRepo.TopContent(ctx, kind, nil, recommendLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to get top %s list: %w", kind, err)
		}
	} else {
		genre := ""
		if pref.Genre != nil {
			genre = *pref.Genre
		}

		byGenre, err := uc.contentRepo.TopContent(ctx, kind, &genre, affinityLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s list for genre %q: %w", kind, genre, err)
		}
		top, err := uc.contentRepo.TopContent(ctx, kind, nil, globalLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to get top %s list: %w", kind, err)
		}
		items = MergeUnique(byGenre, top)
	}

	return uc.rating.Rate(ctx, items)
}

func (uc *RecommendUseCase) preference(ctx context.Context, userID string) (*UserPreference, error) {
	if userID == "" {
		return nil, nil
	}
	pref, err := uc.userRepo.GetPreference(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user preference: %w", err)
	}
	return pref, nil
}

// MergeUnique concatenates lists and drops repeated identities, keeping the
// first occurrence. The result is not re-sorted.
func MergeUnique(lists ...[]*Content) []*Content {
	size := 0
	for _, l := range lists {
		size += len(l)
	}

	seen := make(map[ContentRef]struct{}, size)
	merged := make([]*Content, 0, size)
	for _, l := range lists {
		for _, c := range l {
			if _, ok := seen[c.Ref()]; ok {
				continue
			}
			seen[c.Ref()] = struct{}{}
			merged = append(merged, c)
		}
	}
	return merged
}

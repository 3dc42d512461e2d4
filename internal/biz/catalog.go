package biz

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

const (
	thumbnailFolder = "thumbnails"
	videoFolder     = "videos"
	defaultTopLimit = 10
	maxTopLimit     = 100
)

// CatalogUseCase handles movies, shows, seasons and episodes
type CatalogUseCase struct {
	contentRepo ContentRepo
	seasonRepo  SeasonRepo
	rating      *RatingUseCase
	ratings     ExternalRatingSource
	blobs       BlobStore
	tx          Transaction
	log         *log.Helper
}

// NewCatalogUseCase creates a new CatalogUseCase instance
func NewCatalogUseCase(contentRepo ContentRepo, seasonRepo SeasonRepo, rating *RatingUseCase, ratings ExternalRatingSource, blobs BlobStore, tx Transaction, logger log.Logger) *CatalogUseCase {
	return &CatalogUseCase{
		contentRepo: contentRepo,
		seasonRepo:  seasonRepo,
		rating:      rating,
		ratings:     ratings,
		blobs:       blobs,
		tx:          tx,
		log:         log.NewHelper(logger),
	}
}

func newID() (string, error) {
	// UUID v7 ids sort by creation time, which the top lists use as tie break.
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return id.String(), nil
}

// CreateContent uploads media, fetches the external rating and stores a new
// movie or show. Nothing is stored if an upload fails.
func (uc *CatalogUseCase) CreateContent(ctx context.Context, req *CreateContentRequest) (*RatedContent, error) {
	if req.Kind != KindMovie && req.Kind != KindShow {
		return nil, ErrInvalidContentKind
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidArgument)
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidArgument)
	}
	if req.Thumbnail == nil {
		return nil, fmt.Errorf("%w: thumbnail is required", ErrInvalidArgument)
	}
	if req.Kind == KindMovie && req.Video == nil {
		return nil, fmt.Errorf("%w: video is required for movies", ErrInvalidArgument)
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}

	content := &Content{
		ID:          id,
		Kind:        req.Kind,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Genre:       req.Genre,
		Year:        req.Year,
	}

	content.ThumbnailURL, err = uc.upload(ctx, thumbnailFolder, req.Thumbnail)
	if err != nil {
		return nil, err
	}
	if req.Kind == KindMovie {
		content.VideoURL, err = uc.upload(ctx, videoFolder, req.Video)
		if err != nil {
			uc.discard(ctx, content.ThumbnailURL)
			return nil, err
		}
	}

	content.ExternalRating = uc.fetchExternalRating(ctx, content.Title)

	if err := uc.contentRepo.CreateContent(ctx, content); err != nil {
		uc.discard(ctx, content.ThumbnailURL, content.VideoURL)
		return nil, fmt.Errorf("failed to create %s: %w", content.Kind, err)
	}

	uc.log.Infof("created %s %s (%q)", content.Kind, content.ID, content.Title)
	return &RatedContent{Content: content, AverageRating: BlendRating(nil, content.ExternalRating)}, nil
}

func (uc *CatalogUseCase) upload(ctx context.Context, folder string, file *Upload) (string, error) {
	url, err := uc.blobs.Upload(ctx, folder, file)
	if err != nil {
		return "", fmt.Errorf("%w: upload %s to %s: %v", ErrUpstreamUnavailable, file.Filename, folder, err)
	}
	if url == "" {
		return "", fmt.Errorf("%w: upload %s to %s returned no url", ErrUpstreamUnavailable, file.Filename, folder)
	}
	return url, nil
}

// discard removes media whose owning record was never stored.
func (uc *CatalogUseCase) discard(ctx context.Context, urls ...string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := uc.blobs.Delete(ctx, url); err != nil {
			uc.log.Warnf("failed to delete orphaned media %s: %v", url, err)
		}
	}
}

// fetchExternalRating never fails; an unavailable source yields 0.
func (uc *CatalogUseCase) fetchExternalRating(ctx context.Context, title string) float64 {
	rating, err := uc.ratings.FetchRating(ctx, title)
	if err != nil {
		uc.log.Warnf("failed to fetch external rating for '%s': %v", title, err)
		return 0
	}
	return rating
}

// GetContent retrieves a movie or show with its blended rating
func (uc *CatalogUseCase) GetContent(ctx context.Context, ref ContentRef) (*RatedContent, error) {
	content, err := uc.contentRepo.GetContent(ctx, ref)
	if err != nil {
		return nil, err
	}
	rated, err := uc.rating.Rate(ctx, []*Content{content})
	if err != nil {
		return nil, err
	}
	return rated[0], nil
}

// GetShow retrieves a show with seasons and episodes in number order
func (uc *CatalogUseCase) GetShow(ctx context.Context, id string) (*ShowDetail, error) {
	rated, err := uc.GetContent(ctx, ContentRef{Kind: KindShow, ID: id})
	if err != nil {
		return nil, err
	}
	seasons, err := uc.seasonRepo.ListSeasons(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list seasons: %w", err)
	}
	return &ShowDetail{RatedContent: *rated, Seasons: seasons}, nil
}

// RefreshExternalRating re-reads the external rating and stores it.
func (uc *CatalogUseCase) RefreshExternalRating(ctx context.Context, ref ContentRef) (*RatedContent, error) {
	content, err := uc.contentRepo.GetContent(ctx, ref)
	if err != nil {
		return nil, err
	}
	content.ExternalRating = uc.fetchExternalRating(ctx, content.Title)
	if err := uc.contentRepo.UpdateExternalRating(ctx, ref, content.ExternalRating); err != nil {
		return nil, fmt.Errorf("failed to update external rating: %w", err)
	}
	rated, err := uc.rating.Rate(ctx, []*Content{content})
	if err != nil {
		return nil, err
	}
	return rated[0], nil
}

// AddSeason adds a season to a show; season numbers are unique per show.
func (uc *CatalogUseCase) AddSeason(ctx context.Context, showID string, number int32) (*Season, error) {
	if number < 1 {
		return nil, fmt.Errorf("%w: season number must be positive", ErrInvalidArgument)
	}
	id, err := newID()
	if err != nil {
		return nil, err
	}
	season := &Season{ID: id, ShowID: showID, SeasonNumber: number}

	err = uc.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := uc.contentRepo.GetContent(ctx, ContentRef{Kind: KindShow, ID: showID}); err != nil {
			return err
		}
		return uc.seasonRepo.CreateSeason(ctx, season)
	})
	if err != nil {
		return nil, err
	}
	return season, nil
}

// AddEpisode uploads the episode video and adds it to a season; episode
// numbers are unique per season.
func (uc *CatalogUseCase) AddEpisode(ctx context.Context, req *CreateEpisodeRequest) (*Episode, error) {
	if req.EpisodeNumber < 1 {
		return nil, fmt.Errorf("%w: episode number must be positive", ErrInvalidArgument)
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidArgument)
	}
	if req.Video == nil {
		return nil, fmt.Errorf("%w: video is required", ErrInvalidArgument)
	}

	season, err := uc.seasonRepo.GetSeason(ctx, req.SeasonID)
	if err != nil {
		return nil, err
	}
	for _, e := range season.Episodes {
		if e.EpisodeNumber == req.EpisodeNumber {
			return nil, fmt.Errorf("%w: season %d episode %d", ErrDuplicateEpisode, season.SeasonNumber, req.EpisodeNumber)
		}
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}
	folder := fmt.Sprintf("%s/%s/season_%d", videoFolder, season.ShowID, season.SeasonNumber)
	url, err := uc.upload(ctx, folder, req.Video)
	if err != nil {
		return nil, err
	}

	episode := &Episode{
		ID:            id,
		SeasonID:      season.ID,
		EpisodeNumber: req.EpisodeNumber,
		Title:         strings.TrimSpace(req.Title),
		VideoURL:      url,
	}
	if err := uc.seasonRepo.CreateEpisode(ctx, episode); err != nil {
		uc.discard(ctx, url)
		return nil, err
	}
	return episode, nil
}

// Search matches titles case-insensitively anywhere in the string. An empty
// query lists everything in arrival order.
func (uc *CatalogUseCase) Search(ctx context.Context, q *SearchQuery) (*ContentPage, error) {
	items, next, err := uc.contentRepo.SearchContent(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", q.Kind, err)
	}
	rated, err := uc.rating.Rate(ctx, items)
	if err != nil {
		return nil, err
	}
	return &ContentPage{Items: rated, NextCursor: next}, nil
}

// Filter applies genre and year in storage and the blended rating range
// afterwards, since the blend is computed at read time.
func (uc *CatalogUseCase) Filter(ctx context.Context, q *FilterQuery) ([]*RatedContent, error) {
	if q.MinRating != nil && q.MaxRating != nil && *q.MinRating > *q.MaxRating {
		return []*RatedContent{}, nil
	}

	items, err := uc.contentRepo.FilterContent(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to filter %s: %w", q.Kind, err)
	}
	rated, err := uc.rating.Rate(ctx, items)
	if err != nil {
		return nil, err
	}

	out := make([]*RatedContent, 0, len(rated))
	for _, rc := range rated {
		if q.MinRating != nil && rc.AverageRating < *q.MinRating {
			continue
		}
		if q.MaxRating != nil && rc.AverageRating > *q.MaxRating {
			continue
		}
		out = append(out, rc)
	}
	return out, nil
}

// Top lists content by external rating, highest first.
func (uc *CatalogUseCase) Top(ctx context.Context, kind ContentKind, limit int) ([]*RatedContent, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	if limit > maxTopLimit {
		limit = maxTopLimit
	}
	items, err := uc.contentRepo.TopContent(ctx, kind, nil, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top %s list: %w", kind, err)
	}
	return uc.rating.Rate(ctx, items)
}

// SelectEpisode resolves which episode of a show to play. With both ids
// given it is exactly that episode, or nil when it does not exist in the
// show. Otherwise it is the first episode of the first season.
func (uc *CatalogUseCase) SelectEpisode(ctx context.Context, showID string, seasonID, episodeID *string) (*Episode, error) {
	if _, err := uc.contentRepo.GetContent(ctx, ContentRef{Kind: KindShow, ID: showID}); err != nil {
		return nil, err
	}
	seasons, err := uc.seasonRepo.ListSeasons(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seasons: %w", err)
	}
	return PickEpisode(seasons, seasonID, episodeID), nil
}

// PickEpisode applies the SelectEpisode rules to the loaded seasons of one
// show. Supplying only one of the ids falls back to the default episode.
func PickEpisode(seasons []*Season, seasonID, episodeID *string) *Episode {
	if seasonID == nil || *seasonID == "" || episodeID == nil || *episodeID == "" {
		return DefaultEpisode(seasons)
	}
	for _, s := range seasons {
		if s.ID != *seasonID {
			continue
		}
		for _, e := range s.Episodes {
			if e.ID == *episodeID {
				return e
			}
		}
		return nil
	}
	return nil
}

// DefaultEpisode returns the lowest numbered episode of the lowest numbered
// season, or nil if there are no seasons or that season has no episodes.
func DefaultEpisode(seasons []*Season) *Episode {
	if len(seasons) == 0 {
		return nil
	}

	first := seasons[0]
	for _, s := range seasons[1:] {
		if s.SeasonNumber < first.SeasonNumber {
			first = s
		}
	}
	if len(first.Episodes) == 0 {
		return nil
	}

	episodes := make([]*Episode, len(first.Episodes))
	copy(episodes, first.Episodes)
	sort.SliceStable(episodes, func(i, j int) bool {
		return episodes[i].EpisodeNumber < episodes[j].EpisodeNumber
	})
	return episodes[0]
}

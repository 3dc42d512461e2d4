package service

import (
	"context"
	"strings"

	"streamcatalog/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
)

// CatalogService serves content browsing, publishing and recommendations
type CatalogService struct {
	catalog     *biz.CatalogUseCase
	recommend   *biz.RecommendUseCase
	interaction *biz.InteractionUseCase
	log         *log.Helper
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(catalog *biz.CatalogUseCase, recommend *biz.RecommendUseCase, interaction *biz.InteractionUseCase, logger log.Logger) *CatalogService {
	return &CatalogService{
		catalog:     catalog,
		recommend:   recommend,
		interaction: interaction,
		log:         log.NewHelper(logger),
	}
}

// CreateContent publishes a movie or show with its media
func (s *CatalogService) CreateContent(ctx context.Context, req *CreateContentRequest) (*CreateContentReply, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var genre *string
	if req.Genre != nil && strings.TrimSpace(*req.Genre) != "" {
		g := strings.TrimSpace(*req.Genre)
		genre = &g
	}

	rc, err := s.catalog.CreateContent(ctx, &biz.CreateContentRequest{
		Kind:        biz.ContentKind(req.Kind),
		Title:       req.Title,
		Description: req.Description,
		Genre:       genre,
		Year:        req.Year,
		Thumbnail:   req.Thumbnail,
		Video:       req.Video,
	})
	if err != nil {
		return nil, toHTTPError(s.log, err)
	}
	return &CreateContentReply{ContentItem: *contentToItem(rc)}, nil
}

func (s *CatalogService) GetMovie(ctx context.Context, req *ContentRequest) (*ContentItem, error) {
	req.Kind = string(biz.KindMovie)
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	rc, err := s.catalog.GetContent(ctx, biz.ContentRef{Kind: biz.KindMovie, ID: req.Id})
	if err != nil {
		return nil, toHTTPError(s.log, err)
	}
	return contentToItem(rc), nil
}

// GetShow returns a show with seasons and episodes in number order
func (s *CatalogService) GetShow(ctx context.Context, req *ContentRequest) (*ShowReply, error) {
	req.Kind = string(biz.KindShow)
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	detail, err := s.catalog.GetShow(ctx, req.Id)
	if err != nil {
		return nil, toHTTPError(s.log, err)
	}
	return &ShowReply{
		ContentItem: *contentToItem(&detail.RatedContent),
		Seasons:     seasonsToItems(detail.Seasons),
	}, nil
}

// Search lists content whose title contains q, one page at a time
func (s *CatalogService) Search(ctx context.Context, req *SearchRequest) (*ContentListReply, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	page, err := s.catalog.Search(ctx, &biz.SearchQuery{
		Kind:   biz.ContentKind(req.Kind),
		Q:      strings.TrimSpace(req.Q),
		Limit:  req.Limit,
		Cursor: req.Cursor,
	})
	if err != nil {
		return nil, toHTTPError(s.log, err)
	}
	return &ContentListReply{
		Items:      contentsToItems(page.Items),
		NextCursor: page.NextCursor,
	}, nil
}

func (s *CatalogService) Filter(ctx context.Context, req *FilterRequest) (*ContentListReply, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	items, err := s.catalog.Filter(ctx, &biz.FilterQuery{
		Kind:      biz.ContentKind(req.Kind),
		Genre:     req.Genre,
		Year:      req.Year,
		MinRating: req.MinRating,
		MaxRating: req.MaxRating,
	})
	if err != nil {
		return nil, toHTTPError(s.log, err)
	}
	return &ContentListReply{Items: contentsToItems(items)}, nil
}

func (s *CatalogService) Top(ctx context.Context, req *TopRequest) (*ContentListReply, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	items, err := s.catalog.Top(ctx, biz.ContentKind(req.Kind), int(req.Limit))
	if err != nil {
		return nil, toHTTPError(s.log, err)
	}
	return &ContentListReply{Items: contentsToItems(items)}, nil
}

// Recommend builds the caller's recommendation list; anonymous callers get
// the top list.
func (s *CatalogService) Recommend(ctx context.Context, req *RecommendRequest) (*ContentListReply, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	kind := biz.KindMovie
	if req.Type != "" {
		kind = biz.ContentKind(req.Type)
	}
	items, err := s.recommend.Recommend(ctx, UserIDFromContext(ctx), kind)
	if err != nil {
		return nil, toHTTPError(s.log, err)
	}
	return &ContentListReply{Items: contentsToItems(items)}, nil
}

func (s *CatalogService) RefreshExternalRating(ctx context.Context, req *ContentRequest) (*ContentItem, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	rc, err := s.catalog.RefreshExternalRating(ctx, biz.ContentRef{Kind: biz.ContentKind(req.Kind), ID: req.Id})
	if err != nil {
		return nil, toHTTPError(s.log, err)
	}
	return contentToItem(rc), nil
}

func (s *CatalogService) AddSeason(ctx context.Context, req *AddSeasonRequest) (*SeasonReply, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	season, err := s.catalog.AddSeason(ctx, req.ShowId, req.SeasonNumber)
	if err != nil {
		return nil, toHTTPError(s.log, err)
	}
	return &SeasonReply{SeasonItem: *seasonToItem(season)}, nil
}

func (s *CatalogService) AddEpisode(ctx context.Context, req *AddEpisodeRequest) (*EpisodeReply, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	episode, err := s.catalog.AddEpisode(ctx, &biz.CreateEpisodeRequest{
		SeasonID:      req.SeasonId,
		EpisodeNumber: req.EpisodeNumber,
		Title:         req.Title,
		Video:         req.Video,
	})
	if err != nil {
		return nil, toHTTPError(s.log, err)
	}
	return &EpisodeReply{EpisodeItem: *episodeToItem(episode)}, nil
}

// Watch assembles the watch page: content, comments and, for shows, the
// season list with the selected episode.
func (s *CatalogService) Watch(ctx context.Context, req *WatchRequest) (*WatchReply, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	ref := biz.ContentRef{Kind: biz.ContentKind(req.Kind), ID: req.Id}

	reply := &WatchReply{}
	if ref.Kind == biz.KindShow {
		detail, err := s.catalog.GetShow(ctx, ref.ID)
		if err != nil {
			return nil, toHTTPError(s.log, err)
		}
		reply.Content = contentToItem(&detail.RatedContent)
		reply.Seasons = seasonsToItems(detail.Seasons)
		reply.Episode = episodeToItem(biz.PickEpisode(detail.Seasons, req.SeasonId, req.EpisodeId))
	} else {
		rc, err := s.catalog.GetContent(ctx, ref)
		if err != nil {
			return nil, toHTTPError(s.log, err)
		}
		reply.Content = contentToItem(rc)
	}

	comments, err := s.interaction.ListComments(ctx, ref, biz.SortNewest)
	if err != nil {
		return nil, toHTTPError(s.log, err)
	}
	reply.Comments = commentsToItems(comments)
	return reply, nil
}

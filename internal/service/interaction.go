package service

import (
	"context"

	"streamcatalog/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
)

// InteractionService serves ratings, comments and watch history
type InteractionService struct {
	rating      *biz.RatingUseCase
	interaction *biz.InteractionUseCase
	log         *log.Helper
}

// NewInteractionService creates a new InteractionService
func NewInteractionService(rating *biz.RatingUseCase, interaction *biz.InteractionUseCase, logger log.Logger) *InteractionService {
	return &InteractionService{
		rating:      rating,
		interaction: interaction,
		log:         log.NewHelper(logger),
	}
}

// SubmitRating records the caller's rating and returns the new blended average
func (s *InteractionService) SubmitRating(ctx context.Context, req *SubmitRatingRequest) (*SubmitRatingReply, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	ref := biz.ContentRef{Kind: biz.ContentKind(req.Kind), ID: req.Id}

	avg, err := s.rating.SubmitRating(ctx, UserIDFromContext(ctx), ref, req.Rating)
	if err != nil {
		return nil, toHTTPError(s.log, err)
	}
	return &SubmitRatingReply{
		Kind:          req.Kind,
		ContentId:     req.Id,
		Rating:        req.Rating,
		AverageRating: avg,
	}, nil
}

func (s *InteractionService) AddComment(ctx context.Context, req *AddCommentRequest) (*CommentReply, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	ref := biz.ContentRef{Kind: biz.ContentKind(req.Kind), ID: req.Id}

	comment, err := s.interaction.AddComment(ctx, UserIDFromContext(ctx), ref, req.Text)
	if err != nil {
		return nil, toHTTPError(s.log, err)
	}
	return &CommentReply{CommentItem: *commentToItem(comment)}, nil
}

func (s *InteractionService) ListComments(ctx context.Context, req *ListCommentsRequest) (*ListCommentsReply, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	ref := biz.ContentRef{Kind: biz.ContentKind(req.Kind), ID: req.Id}

	comments, err := s.interaction.ListComments(ctx, ref, biz.ParseCommentSort(req.Sort))
	if err != nil {
		return nil, toHTTPError(s.log, err)
	}
	return &ListCommentsReply{Items: commentsToItems(comments)}, nil
}

func (s *InteractionService) LikeComment(ctx context.Context, req *LikeCommentRequest) (*CommentItem, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	comment, err := s.interaction.LikeComment(ctx, UserIDFromContext(ctx), req.Id)
	if err != nil {
		return nil, toHTTPError(s.log, err)
	}
	return commentToItem(comment), nil
}

// RecordWatch appends to the caller's watch history
func (s *InteractionService) RecordWatch(ctx context.Context, req *ContentRequest) (*WatchHistoryReply, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	ref := biz.ContentRef{Kind: biz.ContentKind(req.Kind), ID: req.Id}

	entry, err := s.interaction.AddWatchHistory(ctx, UserIDFromContext(ctx), ref)
	if err != nil {
		return nil, toHTTPError(s.log, err)
	}
	return &WatchHistoryReply{WatchHistoryItem: *historyToItem(entry)}, nil
}

func (s *InteractionService) ListWatchHistory(ctx context.Context, _ *ListWatchHistoryRequest) (*ListWatchHistoryReply, error) {
	userID := UserIDFromContext(ctx)
	if userID == "" {
		return nil, toHTTPError(s.log, biz.ErrUnauthenticated)
	}
	entries, err := s.interaction.ListWatchHistory(ctx, userID)
	if err != nil {
		return nil, toHTTPError(s.log, err)
	}
	reply := &ListWatchHistoryReply{Items: make([]*WatchHistoryItem, 0, len(entries))}
	for _, e := range entries {
		reply.Items = append(reply.Items, historyToItem(e))
	}
	return reply, nil
}

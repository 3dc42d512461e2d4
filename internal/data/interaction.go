package data

import (
	"context"
	"errors"
	"fmt"

	"streamcatalog/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type commentRepo struct {
	data *Data
	log  *log.Helper
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(data *Data, logger log.Logger) biz.CommentRepo {
	return &commentRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *commentRepo) CreateComment(ctx context.Context, c *biz.Comment) error {
	m := &Comment{
		ID:          c.ID,
		UserID:      c.UserID,
		ContentKind: string(c.Ref.Kind),
		ContentID:   c.Ref.ID,
		Body:        c.Text,
		Likes:       c.Likes,
	}
	if err := r.data.DB(ctx).Omit(clause.Associations).Create(m).Error; err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	c.CreatedAt = m.CreatedAt
	return nil
}

func (r *commentRepo) GetComment(ctx context.Context, id string) (*biz.Comment, error) {
	var m Comment
	if err := r.data.DB(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: comment %s", biz.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return commentToBiz(&m), nil
}

func (r *commentRepo) ListComments(ctx context.Context, ref biz.ContentRef, sort biz.CommentSort) ([]*biz.Comment, error) {
	db := r.data.DB(ctx).
		Where("content_kind = ? AND content_id = ?", string(ref.Kind), ref.ID)

	if sort == biz.SortPopular {
		db = db.Order("likes DESC")
	}

	var ms []Comment
	if err := db.Order("created_at DESC").Order("id DESC").Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	out := make([]*biz.Comment, 0, len(ms))
	for i := range ms {
		out = append(out, commentToBiz(&ms[i]))
	}
	return out, nil
}

func (r *commentRepo) AddLike(ctx context.Context, userID, commentID string) (bool, error) {
	result := r.data.DB(ctx).Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&CommentLike{UserID: userID, CommentID: commentID})
	if result.Error != nil {
		return false, fmt.Errorf("failed to like comment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	err := r.data.DB(ctx).
		Model(&Comment{}).
		Where("id = ?", commentID).
		UpdateColumn("likes", gorm.Expr("likes + ?", 1)).Error
	if err != nil {
		return false, fmt.Errorf("failed to bump likes: %w", err)
	}
	return true, nil
}

func commentToBiz(m *Comment) *biz.Comment {
	return &biz.Comment{
		ID:        m.ID,
		UserID:    m.UserID,
		Ref:       biz.ContentRef{Kind: biz.ContentKind(m.ContentKind), ID: m.ContentID},
		Text:      m.Body,
		Likes:     m.Likes,
		CreatedAt: m.CreatedAt,
	}
}

type watchHistoryRepo struct {
	data *Data
	log  *log.Helper
}

// NewWatchHistoryRepo creates a new watch history repository
func NewWatchHistoryRepo(data *Data, logger log.Logger) biz.WatchHistoryRepo {
	return &watchHistoryRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *watchHistoryRepo) CreateWatchHistory(ctx context.Context, e *biz.WatchHistoryEntry) error {
	m := &WatchHistory{
		ID:          e.ID,
		UserID:      e.UserID,
		ContentKind: string(e.Ref.Kind),
		ContentID:   e.Ref.ID,
		WatchedAt:   e.WatchedAt,
	}
	if err := r.data.DB(ctx).Omit(clause.Associations).Create(m).Error; err != nil {
		return fmt.Errorf("failed to record watch history: %w", err)
	}
	return nil
}

func (r *watchHistoryRepo) ListWatchHistory(ctx context.Context, userID string) ([]*biz.WatchHistoryEntry, error) {
	var ms []WatchHistory
	err := r.data.DB(ctx).
		Where("user_id = ?", userID).
		Order("watched_at DESC").
		Order("id DESC").
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list watch history: %w", err)
	}

	out := make([]*biz.WatchHistoryEntry, 0, len(ms))
	for _, m := range ms {
		out = append(out, &biz.WatchHistoryEntry{
			ID:        m.ID,
			UserID:    m.UserID,
			Ref:       biz.ContentRef{Kind: biz.ContentKind(m.ContentKind), ID: m.ContentID},
			WatchedAt: m.WatchedAt,
		})
	}
	return out, nil
}

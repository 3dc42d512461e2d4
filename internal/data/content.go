package data

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"streamcatalog/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type contentRepo struct {
	data *Data
	log  *log.Helper
}

// NewContentRepo creates a new movie and show repository
func NewContentRepo(data *Data, logger log.Logger) biz.ContentRepo {
	return &contentRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func tableFor(kind biz.ContentKind) (string, error) {
	switch kind {
	case biz.KindMovie:
		return Movie{}.TableName(), nil
	case biz.KindShow:
		return Show{}.TableName(), nil
	}
	return "", fmt.Errorf("%w: %q", biz.ErrInvalidContentKind, kind)
}

func (r *contentRepo) table(ctx context.Context, kind biz.ContentKind) (*gorm.DB, error) {
	name, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	return r.data.DB(ctx).Table(name), nil
}

func (r *contentRepo) CreateContent(ctx context.Context, c *biz.Content) error {
	var model interface{}
	switch c.Kind {
	case biz.KindMovie:
		model = &Movie{
			ID:             c.ID,
			Title:          c.Title,
			Description:    c.Description,
			Genre:          c.Genre,
			Year:           c.Year,
			ExternalRating: c.ExternalRating,
			ThumbnailURL:   c.ThumbnailURL,
			VideoURL:       c.VideoURL,
		}
	case biz.KindShow:
		model = &Show{
			ID:             c.ID,
			Title:          c.Title,
			Description:    c.Description,
			Genre:          c.Genre,
			Year:           c.Year,
			ExternalRating: c.ExternalRating,
			ThumbnailURL:   c.ThumbnailURL,
		}
	default:
		return fmt.Errorf("%w: %q", biz.ErrInvalidContentKind, c.Kind)
	}

	if err := r.data.DB(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create %s: %w", c.Kind, err)
	}

	switch m := model.(type) {
	case *Movie:
		c.CreatedAt = m.CreatedAt
	case *Show:
		c.CreatedAt = m.CreatedAt
	}
	return nil
}

func (r *contentRepo) GetContent(ctx context.Context, ref biz.ContentRef) (*biz.Content, error) {
	db, err := r.table(ctx, ref.Kind)
	if err != nil {
		return nil, err
	}

	var row contentRow
	if err := db.Where("id = ?", ref.ID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", biz.ErrNotFound, ref)
		}
		return nil, fmt.Errorf("failed to get %s: %w", ref, err)
	}
	return rowToBiz(ref.Kind, &row), nil
}

func (r *contentRepo) TopContent(ctx context.Context, kind biz.ContentKind, genre *string, limit int) ([]*biz.Content, error) {
	db, err := r.table(ctx, kind)
	if err != nil {
		return nil, err
	}

	if genre != nil {
		db = db.Where("LOWER(COALESCE(genre, '')) LIKE ? ESCAPE '\\'", containsPattern(*genre))
	}

	var rows []contentRow
	err = db.Order("external_rating DESC").Order("created_at ASC").Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list top %s: %w", kind, err)
	}
	return rowsToBiz(kind, rows), nil
}

func (r *contentRepo) SearchContent(ctx context.Context, q *biz.SearchQuery) ([]*biz.Content, *string, error) {
	// Decode cursor to get offset
	offset := 0
	if q.Cursor != nil && *q.Cursor != "" {
		var err error
		offset, err = decodeCursor(*q.Cursor)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", biz.ErrInvalidArgument, err)
		}
	}

	db, err := r.table(ctx, q.Kind)
	if err != nil {
		return nil, nil, err
	}

	if q.Q != "" {
		db = db.Where("LOWER(title) LIKE ? ESCAPE '\\'", containsPattern(q.Q))
	}

	// Apply pagination - fetch limit+1 to detect if there are more pages
	limit := int(q.Limit)
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	var rows []contentRow
	err = db.Order("created_at ASC").Order("id ASC").
		Offset(offset).
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to search %s: %w", q.Kind, err)
	}

	// Check if there's a next page
	var next *string
	if len(rows) > limit {
		rows = rows[:limit]
		cursor := encodeCursor(offset + limit)
		next = &cursor
	}

	return rowsToBiz(q.Kind, rows), next, nil
}

func (r *contentRepo) FilterContent(ctx context.Context, q *biz.FilterQuery) ([]*biz.Content, error) {
	db, err := r.table(ctx, q.Kind)
	if err != nil {
		return nil, err
	}

	if q.Genre != nil && *q.Genre != "" {
		db = db.Where("LOWER(COALESCE(genre, '')) LIKE ? ESCAPE '\\'", containsPattern(*q.Genre))
	}
	if q.Year != nil {
		db = db.Where("year = ?", *q.Year)
	}

	var rows []contentRow
	if err := db.Order("created_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to filter %s: %w", q.Kind, err)
	}
	return rowsToBiz(q.Kind, rows), nil
}

func (r *contentRepo) UpdateExternalRating(ctx context.Context, ref biz.ContentRef, rating float64) error {
	db, err := r.table(ctx, ref.Kind)
	if err != nil {
		return err
	}

	result := db.Where("id = ?", ref.ID).Updates(map[string]interface{}{
		"external_rating": rating,
		"updated_at":      gorm.Expr("CURRENT_TIMESTAMP"),
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update rating of %s: %w", ref, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", biz.ErrNotFound, ref)
	}
	return nil
}

func rowToBiz(kind biz.ContentKind, row *contentRow) *biz.Content {
	c := &biz.Content{
		ID:             row.ID,
		Kind:           kind,
		Title:          row.Title,
		Description:    row.Description,
		Genre:          row.Genre,
		Year:           row.Year,
		ExternalRating: row.ExternalRating,
		ThumbnailURL:   row.ThumbnailURL,
		CreatedAt:      row.CreatedAt,
	}
	if kind == biz.KindMovie {
		c.VideoURL = row.VideoURL
	}
	return c
}

func rowsToBiz(kind biz.ContentKind, rows []contentRow) []*biz.Content {
	out := make([]*biz.Content, 0, len(rows))
	for i := range rows {
		out = append(out, rowToBiz(kind, &rows[i]))
	}
	return out
}

// containsPattern builds a lower-cased LIKE pattern matching s anywhere.
func containsPattern(s string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(s))
	return "%" + escaped + "%"
}

// encodeCursor encodes an offset into a base64 cursor string
func encodeCursor(offset int) string {
	return base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

// decodeCursor decodes a base64 cursor string back to an offset
func decodeCursor(cursor string) (int, error) {
	decoded, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("invalid cursor encoding: %w", err)
	}

	offset, err := strconv.Atoi(string(decoded))
	if err != nil {
		return 0, fmt.Errorf("invalid cursor format: %w", err)
	}
	if offset < 0 {
		return 0, fmt.Errorf("invalid cursor offset: %d", offset)
	}

	return offset, nil
}

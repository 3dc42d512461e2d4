package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"streamcatalog/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const aggregateTTL = 15 * time.Minute

type ratingRepo struct {
	data *Data
	log  *log.Helper
}

// NewRatingRepo creates a new rating repository
func NewRatingRepo(data *Data, logger log.Logger) biz.RatingRepo {
	return &ratingRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// Aggregates are cached under a per-content version. Invalidation bumps the
// version, so a value computed before a write and stored after it lands on a
// key that is never read again.
func versionKey(kind biz.ContentKind, id string) string {
	return fmt.Sprintf("rating:ver:%s:%s", kind, id)
}

func aggregateKey(kind biz.ContentKind, id, version string) string {
	return fmt.Sprintf("rating:agg:%s:%s:%s", kind, id, version)
}

func (r *ratingRepo) UpsertRating(ctx context.Context, rating *biz.Rating) error {
	dbRating := &Rating{
		UserID:      rating.UserID,
		ContentKind: string(rating.Ref.Kind),
		ContentID:   rating.Ref.ID,
		Rating:      rating.Value,
	}

	// Use GORM's ON CONFLICT clause for upsert
	result := r.data.DB(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "content_kind"}, {Name: "content_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "updated_at"}),
	}).Create(dbRating)

	if result.Error != nil {
		return fmt.Errorf("failed to upsert rating: %w", result.Error)
	}

	return nil
}

func (r *ratingRepo) GetRating(ctx context.Context, userID string, ref biz.ContentRef) (*biz.Rating, error) {
	var m Rating
	err := r.data.DB(ctx).
		Where("user_id = ? AND content_kind = ? AND content_id = ?", userID, string(ref.Kind), ref.ID).
		Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: rating of %s by %s", biz.ErrNotFound, ref, userID)
		}
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}
	return &biz.Rating{UserID: m.UserID, Ref: ref, Value: m.Rating}, nil
}

func (r *ratingRepo) GetRatingAggregate(ctx context.Context, ref biz.ContentRef) (*biz.RatingAggregate, error) {
	aggs, err := r.RatingAggregates(ctx, ref.Kind, []string{ref.ID})
	if err != nil {
		return nil, err
	}
	if agg, ok := aggs[ref.ID]; ok {
		return agg, nil
	}
	return &biz.RatingAggregate{}, nil
}

func (r *ratingRepo) RatingAggregates(ctx context.Context, kind biz.ContentKind, ids []string) (map[string]*biz.RatingAggregate, error) {
	out := make(map[string]*biz.RatingAggregate, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	// Reads inside a transaction must see uncommitted writes, so skip the cache there.
	if r.data.rdb == nil || inTx(ctx) {
		return r.queryAggregates(ctx, kind, ids)
	}

	keys, cached := r.cachedAggregates(ctx, kind, ids)
	misses := make([]string, 0, len(ids))
	for _, id := range ids {
		agg, ok := cached[id]
		if !ok {
			misses = append(misses, id)
			continue
		}
		if agg.Count > 0 {
			out[id] = agg
		}
	}
	if len(misses) == 0 {
		r.log.Debugf("cache hit for %d %s rating aggregates", len(ids), kind)
		return out, nil
	}

	fresh, err := r.queryAggregates(ctx, kind, misses)
	if err != nil {
		return nil, err
	}
	r.storeAggregates(ctx, keys, misses, fresh)
	for id, agg := range fresh {
		out[id] = agg
	}
	return out, nil
}

func (r *ratingRepo) queryAggregates(ctx context.Context, kind biz.ContentKind, ids []string) (map[string]*biz.RatingAggregate, error) {
	var rows []struct {
		ContentID string
		Mean      float64
		Count     int64
	}
	err := r.data.DB(ctx).
		Model(&Rating{}).
		Select("content_id, AVG(rating) AS mean, COUNT(*) AS count").
		Where("content_kind = ? AND content_id IN ?", string(kind), ids).
		Group("content_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get rating aggregates: %w", err)
	}

	out := make(map[string]*biz.RatingAggregate, len(rows))
	for _, row := range rows {
		out[row.ContentID] = &biz.RatingAggregate{Mean: row.Mean, Count: row.Count}
	}
	return out, nil
}

// cachedAggregates returns the versioned cache key of every id and the
// aggregates found under those keys. Cache errors yield misses.
func (r *ratingRepo) cachedAggregates(ctx context.Context, kind biz.ContentKind, ids []string) (map[string]string, map[string]*biz.RatingAggregate) {
	verKeys := make([]string, len(ids))
	for i, id := range ids {
		verKeys[i] = versionKey(kind, id)
	}
	versions, err := r.data.rdb.MGet(ctx, verKeys...).Result()
	if err != nil {
		r.log.Warnf("failed to read rating aggregate versions: %v", err)
		return nil, nil
	}

	keys := make(map[string]string, len(ids))
	aggKeys := make([]string, len(ids))
	for i, id := range ids {
		version := "0"
		if v, ok := versions[i].(string); ok {
			version = v
		}
		aggKeys[i] = aggregateKey(kind, id, version)
		keys[id] = aggKeys[i]
	}

	values, err := r.data.rdb.MGet(ctx, aggKeys...).Result()
	if err != nil {
		r.log.Warnf("failed to read cached rating aggregates: %v", err)
		return keys, nil
	}

	hits := make(map[string]*biz.RatingAggregate, len(ids))
	for i, id := range ids {
		cached, ok := values[i].(string)
		if !ok {
			continue
		}
		var agg biz.RatingAggregate
		if err := json.Unmarshal([]byte(cached), &agg); err == nil {
			hits[id] = &agg
		}
	}
	return keys, hits
}

// storeAggregates caches the freshly queried aggregates. Unrated ids are
// cached as zero so they do not hit the database on every read.
func (r *ratingRepo) storeAggregates(ctx context.Context, keys map[string]string, ids []string, fresh map[string]*biz.RatingAggregate) {
	if keys == nil {
		return
	}

	pipe := r.data.rdb.Pipeline()
	for _, id := range ids {
		agg, ok := fresh[id]
		if !ok {
			agg = &biz.RatingAggregate{}
		}
		data, err := json.Marshal(agg)
		if err != nil {
			continue
		}
		pipe.Set(ctx, keys[id], data, aggregateTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		r.log.Warnf("failed to cache rating aggregates: %v", err)
	}
}

func (r *ratingRepo) InvalidateAggregate(ctx context.Context, ref biz.ContentRef) {
	if r.data.rdb == nil {
		return
	}
	if err := r.data.rdb.Incr(ctx, versionKey(ref.Kind, ref.ID)).Err(); err != nil {
		r.log.Warnf("failed to invalidate rating aggregate %s: %v", ref, err)
	}
}

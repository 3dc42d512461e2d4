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

type seasonRepo struct {
	data *Data
	log  *log.Helper
}

// NewSeasonRepo creates a new season and episode repository
func NewSeasonRepo(data *Data, logger log.Logger) biz.SeasonRepo {
	return &seasonRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *seasonRepo) CreateSeason(ctx context.Context, s *biz.Season) error {
	m := &Season{
		ID:           s.ID,
		ShowID:       s.ShowID,
		SeasonNumber: s.SeasonNumber,
	}
	if err := r.data.DB(ctx).Omit(clause.Associations).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: season %d of show %s", biz.ErrDuplicateSeason, s.SeasonNumber, s.ShowID)
		}
		return fmt.Errorf("failed to create season: %w", err)
	}
	return nil
}

func (r *seasonRepo) GetSeason(ctx context.Context, id string) (*biz.Season, error) {
	var m Season
	err := r.data.DB(ctx).
		Preload("Episodes", func(db *gorm.DB) *gorm.DB {
			return db.Order("episode_number ASC")
		}).
		Where("id = ?", id).
		Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: season %s", biz.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get season: %w", err)
	}
	return seasonToBiz(&m), nil
}

func (r *seasonRepo) ListSeasons(ctx context.Context, showID string) ([]*biz.Season, error) {
	var ms []Season
	err := r.data.DB(ctx).
		Preload("Episodes", func(db *gorm.DB) *gorm.DB {
			return db.Order("episode_number ASC")
		}).
		Where("show_id = ?", showID).
		Order("season_number ASC").
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list seasons: %w", err)
	}

	out := make([]*biz.Season, 0, len(ms))
	for i := range ms {
		out = append(out, seasonToBiz(&ms[i]))
	}
	return out, nil
}

func (r *seasonRepo) CreateEpisode(ctx context.Context, e *biz.Episode) error {
	m := &Episode{
		ID:            e.ID,
		SeasonID:      e.SeasonID,
		EpisodeNumber: e.EpisodeNumber,
		Title:         e.Title,
		VideoURL:      e.VideoURL,
	}
	if err := r.data.DB(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: episode %d of season %s", biz.ErrDuplicateEpisode, e.EpisodeNumber, e.SeasonID)
		}
		return fmt.Errorf("failed to create episode: %w", err)
	}
	return nil
}

func seasonToBiz(m *Season) *biz.Season {
	s := &biz.Season{
		ID:           m.ID,
		ShowID:       m.ShowID,
		SeasonNumber: m.SeasonNumber,
		Episodes:     make([]*biz.Episode, 0, len(m.Episodes)),
	}
	for i := range m.Episodes {
		s.Episodes = append(s.Episodes, episodeToBiz(&m.Episodes[i]))
	}
	return s
}

func episodeToBiz(m *Episode) *biz.Episode {
	return &biz.Episode{
		ID:            m.ID,
		SeasonID:      m.SeasonID,
		EpisodeNumber: m.EpisodeNumber,
		Title:         m.Title,
		VideoURL:      m.VideoURL,
	}
}

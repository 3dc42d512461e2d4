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

type userRepo struct {
	data *Data
	log  *log.Helper
}

// NewUserRepo creates a new user repository
func NewUserRepo(data *Data, logger log.Logger) biz.UserRepo {
	return &userRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *userRepo) CreateUser(ctx context.Context, u *biz.User) error {
	m := &User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
	}
	if err := r.data.DB(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", biz.ErrDuplicateRegistration, u.Email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	u.CreatedAt = m.CreatedAt
	return nil
}

func (r *userRepo) GetUser(ctx context.Context, id string) (*biz.User, error) {
	return r.findUser(ctx, "id = ?", id)
}

func (r *userRepo) GetUserByEmail(ctx context.Context, email string) (*biz.User, error) {
	return r.findUser(ctx, "email = ?", email)
}

func (r *userRepo) findUser(ctx context.Context, cond string, arg string) (*biz.User, error) {
	var m User
	if err := r.data.DB(ctx).Where(cond, arg).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", biz.ErrNotFound, arg)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &biz.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
	}, nil
}

func (r *userRepo) UserExists(ctx context.Context, email, username string) (bool, error) {
	var count int64
	err := r.data.DB(ctx).
		Model(&User{}).
		Where("email = ? OR username = ?", email, username).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return count > 0, nil
}

func (r *userRepo) GetPreference(ctx context.Context, userID string) (*biz.UserPreference, error) {
	var m UserPreference
	if err := r.data.DB(ctx).Where("user_id = ?", userID).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: preference of %s", biz.ErrNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get preference: %w", err)
	}
	return &biz.UserPreference{
		UserID:           m.UserID,
		Genre:            m.Genre,
		LastWatchedMovie: m.LastWatchedMovieID,
		LastWatchedShow:  m.LastWatchedShowID,
	}, nil
}

func (r *userRepo) SavePreference(ctx context.Context, p *biz.UserPreference) error {
	m := &UserPreference{
		UserID:             p.UserID,
		Genre:              p.Genre,
		LastWatchedMovieID: p.LastWatchedMovie,
		LastWatchedShowID:  p.LastWatchedShow,
	}
	err := r.data.DB(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"genre", "last_watched_movie_id", "last_watched_show_id", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return fmt.Errorf("failed to save preference: %w", err)
	}
	return nil
}

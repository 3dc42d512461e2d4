package data

import (
	"time"
)

// Movie represents the movies table
type Movie struct {
	ID             string  `gorm:"primaryKey;size:64"`
	Title          string  `gorm:"not null;size:150;index:idx_movies_title"`
	Description    string  `gorm:"not null;type:text"`
	Genre          *string `gorm:"size:100;index:idx_movies_genre"`
	Year           *int32  `gorm:"index:idx_movies_year"`
	ExternalRating float64 `gorm:"not null;default:0;index:idx_movies_external_rating"`
	ThumbnailURL   string  `gorm:"column:thumbnail_url;not null;size:250"`
	VideoURL       string  `gorm:"column:video_url;not null;size:250"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName overrides the table name
func (Movie) TableName() string {
	return "movies"
}

// Show represents the shows table. Media lives on episodes.
type Show struct {
	ID             string  `gorm:"primaryKey;size:64"`
	Title          string  `gorm:"not null;size:150;index:idx_shows_title"`
	Description    string  `gorm:"not null;type:text"`
	Genre          *string `gorm:"size:100;index:idx_shows_genre"`
	Year           *int32  `gorm:"index:idx_shows_year"`
	ExternalRating float64 `gorm:"not null;default:0;index:idx_shows_external_rating"`
	ThumbnailURL   string  `gorm:"column:thumbnail_url;not null;size:250"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Seasons []Season `gorm:"foreignKey:ShowID;constraint:OnDelete:CASCADE"`
}

func (Show) TableName() string {
	return "shows"
}

type Season struct {
	ID           string `gorm:"primaryKey;size:64"`
	ShowID       string `gorm:"not null;size:64;uniqueIndex:uq_season_show_number"`
	SeasonNumber int32  `gorm:"not null;uniqueIndex:uq_season_show_number;check:season_number >= 1"`

	CreatedAt time.Time `gorm:"autoCreateTime"`

	Episodes []Episode `gorm:"foreignKey:SeasonID;constraint:OnDelete:CASCADE"`
}

func (Season) TableName() string {
	return "seasons"
}

type Episode struct {
	ID            string `gorm:"primaryKey;size:64"`
	SeasonID      string `gorm:"not null;size:64;uniqueIndex:uq_episode_season_number"`
	EpisodeNumber int32  `gorm:"not null;uniqueIndex:uq_episode_season_number;check:episode_number >= 1"`
	Title         string `gorm:"not null;size:150"`
	VideoURL      string `gorm:"column:video_url;not null;size:250"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Episode) TableName() string {
	return "episodes"
}

// contentRow scans either content table; shows leave VideoURL empty.
type contentRow struct {
	ID             string
	Title          string
	Description    string
	Genre          *string
	Year           *int32
	ExternalRating float64
	ThumbnailURL   string `gorm:"column:thumbnail_url"`
	VideoURL       string `gorm:"column:video_url"`
	CreatedAt      time.Time
}

// Rating represents the ratings table. A rating targets exactly one
// movie or show through the content_kind/content_id pair.
type Rating struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      string    `gorm:"not null;size:64;uniqueIndex:uq_rating_user_content"`
	ContentKind string    `gorm:"not null;size:10;uniqueIndex:uq_rating_user_content;index:idx_ratings_content;check:chk_ratings_kind,content_kind IN ('movie','show')"`
	ContentID   string    `gorm:"not null;size:64;uniqueIndex:uq_rating_user_content;index:idx_ratings_content"`
	Rating      int32     `gorm:"not null;check:rating >= 1 AND rating <= 10"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`

	// Foreign key
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName overrides the table name
func (Rating) TableName() string {
	return "ratings"
}

type Comment struct {
	ID          string    `gorm:"primaryKey;size:64"`
	UserID      string    `gorm:"not null;size:64;index"`
	ContentKind string    `gorm:"not null;size:10;index:idx_comments_content;check:chk_comments_kind,content_kind IN ('movie','show')"`
	ContentID   string    `gorm:"not null;size:64;index:idx_comments_content"`
	Body        string    `gorm:"not null;type:text"`
	Likes       int64     `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (Comment) TableName() string {
	return "comments"
}

// CommentLike records one like per user per comment.
type CommentLike struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    string    `gorm:"not null;size:64;uniqueIndex:uq_like_user_comment"`
	CommentID string    `gorm:"not null;size:64;uniqueIndex:uq_like_user_comment"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Comment Comment `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE"`
}

func (CommentLike) TableName() string {
	return "comment_likes"
}

type WatchHistory struct {
	ID          string    `gorm:"primaryKey;size:64"`
	UserID      string    `gorm:"not null;size:64;index:idx_history_user"`
	ContentKind string    `gorm:"not null;size:10;check:chk_history_kind,content_kind IN ('movie','show')"`
	ContentID   string    `gorm:"not null;size:64"`
	WatchedAt   time.Time `gorm:"not null;index:idx_history_user"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (WatchHistory) TableName() string {
	return "watch_history"
}

type User struct {
	ID           string    `gorm:"primaryKey;size:64"`
	Username     string    `gorm:"not null;size:80;uniqueIndex"`
	Email        string    `gorm:"not null;size:120;uniqueIndex"`
	PasswordHash string    `gorm:"not null;size:128"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

type UserPreference struct {
	ID                 uint      `gorm:"primaryKey"`
	UserID             string    `gorm:"not null;size:64;uniqueIndex"`
	Genre              *string   `gorm:"size:100"`
	LastWatchedMovieID *string   `gorm:"size:64"`
	LastWatchedShowID  *string   `gorm:"size:64"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (UserPreference) TableName() string {
	return "user_preferences"
}

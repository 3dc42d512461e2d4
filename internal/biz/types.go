package biz

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// ContentKind distinguishes the two top-level catalog entities.
type ContentKind string

const (
	KindMovie ContentKind = "movie"
	KindShow  ContentKind = "show"
)

// ParseContentKind accepts "movie" or "show" in any case.
func ParseContentKind(s string) (ContentKind, error) {
	switch ContentKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindMovie:
		return KindMovie, nil
	case KindShow:
		return KindShow, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidContentKind, s)
}

// ContentRef points at exactly one movie or show.
type ContentRef struct {
	Kind ContentKind
	ID   string
}

func (r ContentRef) String() string {
	return string(r.Kind) + ":" + r.ID
}

// Content is a movie or a show. VideoURL is only set for movies; show
// media lives on episodes.
type Content struct {
	ID             string
	Kind           ContentKind
	Title          string
	Description    string
	Genre          *string
	Year           *int32
	ExternalRating float64
	ThumbnailURL   string
	VideoURL       string
	CreatedAt      time.Time
}

func (c *Content) Ref() ContentRef {
	return ContentRef{Kind: c.Kind, ID: c.ID}
}

// RatedContent pairs content with its blended rating at read time.
type RatedContent struct {
	*Content
	AverageRating float64
}

// Season belongs to a show and holds episodes ordered by number.
type Season struct {
	ID           string
	ShowID       string
	SeasonNumber int32
	Episodes     []*Episode
}

type Episode struct {
	ID            string
	SeasonID      string
	EpisodeNumber int32
	Title         string
	VideoURL      string
}

// ShowDetail is a show with its seasons and episodes loaded.
type ShowDetail struct {
	RatedContent
	Seasons []*Season
}

type Rating struct {
	UserID string
	Ref    ContentRef
	Value  int32
}

// RatingAggregate is the mean of user ratings for one content item.
type RatingAggregate struct {
	Mean  float64
	Count int64
}

type CommentSort string

const (
	SortNewest  CommentSort = "new"
	SortPopular CommentSort = "popular"
)

// ParseCommentSort falls back to SortNewest for unknown values.
func ParseCommentSort(s string) CommentSort {
	if CommentSort(strings.ToLower(s)) == SortPopular {
		return SortPopular
	}
	return SortNewest
}

type Comment struct {
	ID        string
	UserID    string
	Ref       ContentRef
	Text      string
	Likes     int64
	CreatedAt time.Time
}

type WatchHistoryEntry struct {
	ID        string
	UserID    string
	Ref       ContentRef
	WatchedAt time.Time
}

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// UserPreference drives the genre-affinity branch of recommendations.
type UserPreference struct {
	UserID           string
	Genre            *string
	LastWatchedMovie *string
	LastWatchedShow  *string
}

// Upload is a file handed to the blob store.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// CreateContentRequest carries the fields needed to publish a movie or show.
type CreateContentRequest struct {
	Kind        ContentKind
	Title       string
	Description string
	Genre       *string
	Year        *int32
	Thumbnail   *Upload
	Video       *Upload
}

type CreateEpisodeRequest struct {
	SeasonID      string
	EpisodeNumber int32
	Title         string
	Video         *Upload
}

// SearchQuery is a title search with offset cursor pagination.
type SearchQuery struct {
	Kind   ContentKind
	Q      string
	Limit  int32
	Cursor *string
}

type ContentPage struct {
	Items      []*RatedContent
	NextCursor *string
}

// FilterQuery narrows content by genre, year and blended rating range.
type FilterQuery struct {
	Kind      ContentKind
	Genre     *string
	Year      *int32
	MinRating *float64
	MaxRating *float64
}

// ContentRepo persists movies and shows.
type ContentRepo interface {
	CreateContent(ctx context.Context, c *Content) error
	GetContent(ctx context.Context, ref ContentRef) (*Content, error)
	// TopContent orders by external rating descending, ties by arrival.
	// A non-nil genre restricts results to genres containing it.
	TopContent(ctx context.Context, kind ContentKind, genre *string, limit int) ([]*Content, error)
	SearchContent(ctx context.Context, q *SearchQuery) ([]*Content, *string, error)
	FilterContent(ctx context.Context, q *FilterQuery) ([]*Content, error)
	UpdateExternalRating(ctx context.Context, ref ContentRef, rating float64) error
}

// SeasonRepo persists seasons and episodes of shows.
type SeasonRepo interface {
	CreateSeason(ctx context.Context, s *Season) error
	// GetSeason loads the season with its episodes ordered by number.
	GetSeason(ctx context.Context, id string) (*Season, error)
	ListSeasons(ctx context.Context, showID string) ([]*Season, error)
	CreateEpisode(ctx context.Context, e *Episode) error
}

type RatingRepo interface {
	UpsertRating(ctx context.Context, r *Rating) error
	GetRating(ctx context.Context, userID string, ref ContentRef) (*Rating, error)
	GetRatingAggregate(ctx context.Context, ref ContentRef) (*RatingAggregate, error)
	// RatingAggregates returns aggregates keyed by content id; ids with no
	// ratings are absent.
	RatingAggregates(ctx context.Context, kind ContentKind, ids []string) (map[string]*RatingAggregate, error)
	InvalidateAggregate(ctx context.Context, ref ContentRef)
}

type CommentRepo interface {
	CreateComment(ctx context.Context, c *Comment) error
	GetComment(ctx context.Context, id string) (*Comment, error)
	ListComments(ctx context.Context, ref ContentRef, sort CommentSort) ([]*Comment, error)
	// AddLike records a like and bumps the counter; it reports false when
	// the user already liked the comment.
	AddLike(ctx context.Context, userID, commentID string) (bool, error)
}

type WatchHistoryRepo interface {
	CreateWatchHistory(ctx context.Context, e *WatchHistoryEntry) error
	ListWatchHistory(ctx context.Context, userID string) ([]*WatchHistoryEntry, error)
}

type UserRepo interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	// UserExists reports whether the email or username is taken.
	UserExists(ctx context.Context, email, username string) (bool, error)
	GetPreference(ctx context.Context, userID string) (*UserPreference, error)
	SavePreference(ctx context.Context, p *UserPreference) error
}

// ExternalRatingSource looks up a third-party rating by title.
type ExternalRatingSource interface {
	FetchRating(ctx context.Context, title string) (float64, error)
}

// BlobStore uploads media and returns a publicly resolvable URL.
type BlobStore interface {
	Upload(ctx context.Context, folder string, file *Upload) (string, error)
	// Delete removes media previously returned by Upload.
	Delete(ctx context.Context, url string) error
}

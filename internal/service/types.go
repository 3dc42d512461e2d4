package service

import (
	"io"
	"net/http"
	"time"

	"streamcatalog/internal/biz"
)

// created marks a reply as a newly created resource.
type created struct{}

func (created) HTTPStatus() int {
	return http.StatusCreated
}

// ContentItem is a movie or show as returned by every listing.
type ContentItem struct {
	Id             string    `json:"id"`
	Kind           string    `json:"kind"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Genre          *string   `json:"genre"`
	Year           *int32    `json:"year"`
	ExternalRating float64   `json:"external_rating"`
	AverageRating  float64   `json:"average_rating"`
	ThumbnailUrl   string    `json:"thumbnail_url"`
	VideoUrl       string    `json:"video_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type EpisodeItem struct {
	Id            string `json:"id"`
	SeasonId      string `json:"season_id"`
	EpisodeNumber int32  `json:"episode_number"`
	Title         string `json:"title"`
	VideoUrl      string `json:"video_url"`
}

type SeasonItem struct {
	Id           string         `json:"id"`
	ShowId       string         `json:"show_id"`
	SeasonNumber int32          `json:"season_number"`
	Episodes     []*EpisodeItem `json:"episodes"`
}

type CommentItem struct {
	Id        string    `json:"id"`
	UserId    string    `json:"user_id"`
	Kind      string    `json:"kind"`
	ContentId string    `json:"content_id"`
	Text      string    `json:"text"`
	Likes     int64     `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
}

type WatchHistoryItem struct {
	Id        string    `json:"id"`
	Kind      string    `json:"kind"`
	ContentId string    `json:"content_id"`
	WatchedAt time.Time `json:"watched_at"`
}

type UserItem struct {
	Id        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// ContentRequest addresses one movie or show.
type ContentRequest struct {
	Kind string `json:"kind" validate:"required,oneof=movie show"`
	Id   string `json:"id" validate:"required"`
}

// CreateContentRequest is decoded from a multipart form.
type CreateContentRequest struct {
	Kind        string      `json:"kind" validate:"required,oneof=movie show"`
	Title       string      `json:"title" validate:"required,max=150"`
	Description string      `json:"description" validate:"required"`
	Genre       *string     `json:"genre" validate:"omitempty,max=100"`
	Year        *int32      `json:"year" validate:"omitempty,gte=1870,lte=3000"`
	Thumbnail   *biz.Upload `json:"-" validate:"required"`
	Video       *biz.Upload `json:"-"`
}

// Close releases the uploaded file handles.
func (r *CreateContentRequest) Close() error {
	closeUpload(r.Thumbnail)
	closeUpload(r.Video)
	return nil
}

type CreateContentReply struct {
	created
	ContentItem
}

type ShowReply struct {
	ContentItem
	Seasons []*SeasonItem `json:"seasons"`
}

type SearchRequest struct {
	Kind   string  `json:"kind" validate:"required,oneof=movie show"`
	Q      string  `json:"q"`
	Limit  int32   `json:"limit" validate:"gte=0,lte=100"`
	Cursor *string `json:"cursor"`
}

type FilterRequest struct {
	Kind      string   `json:"kind" validate:"required,oneof=movie show"`
	Genre     *string  `json:"genre"`
	Year      *int32   `json:"year"`
	MinRating *float64 `json:"min_rating" validate:"omitempty,gte=0,lte=10"`
	MaxRating *float64 `json:"max_rating" validate:"omitempty,gte=0,lte=10"`
}

type TopRequest struct {
	Kind  string `json:"kind" validate:"required,oneof=movie show"`
	Limit int32  `json:"limit" validate:"gte=0,lte=100"`
}

type RecommendRequest struct {
	Type string `json:"type" validate:"omitempty,oneof=movie show"`
}

type ContentListReply struct {
	Items      []*ContentItem `json:"items"`
	NextCursor *string        `json:"next_cursor,omitempty"`
}

type AddSeasonRequest struct {
	ShowId       string `json:"id" validate:"required"`
	SeasonNumber int32  `json:"season_number" validate:"required,gte=1"`
}

type SeasonReply struct {
	created
	SeasonItem
}

// AddEpisodeRequest is decoded from a multipart form.
type AddEpisodeRequest struct {
	SeasonId      string      `json:"id" validate:"required"`
	EpisodeNumber int32       `json:"episode_number" validate:"required,gte=1"`
	Title         string      `json:"title" validate:"required,max=150"`
	Video         *biz.Upload `json:"-" validate:"required"`
}

func (r *AddEpisodeRequest) Close() error {
	closeUpload(r.Video)
	return nil
}

type EpisodeReply struct {
	created
	EpisodeItem
}

type WatchRequest struct {
	Kind      string  `json:"kind" validate:"required,oneof=movie show"`
	Id        string  `json:"id" validate:"required"`
	SeasonId  *string `json:"season_id"`
	EpisodeId *string `json:"episode_id"`
}

// WatchReply is the composite view of the watch page.
type WatchReply struct {
	Content  *ContentItem   `json:"content"`
	Seasons  []*SeasonItem  `json:"seasons,omitempty"`
	Episode  *EpisodeItem   `json:"episode"`
	Comments []*CommentItem `json:"comments"`
}

type SubmitRatingRequest struct {
	Kind   string `json:"kind" validate:"required,oneof=movie show"`
	Id     string `json:"id" validate:"required"`
	Rating int32  `json:"rating"`
}

type SubmitRatingReply struct {
	Kind          string  `json:"kind"`
	ContentId     string  `json:"content_id"`
	Rating        int32   `json:"rating"`
	AverageRating float64 `json:"average_rating"`
}

type AddCommentRequest struct {
	Kind string `json:"kind" validate:"required,oneof=movie show"`
	Id   string `json:"id" validate:"required"`
	Text string `json:"text" validate:"required,max=2000"`
}

type CommentReply struct {
	created
	CommentItem
}

type ListCommentsRequest struct {
	Kind string `json:"kind" validate:"required,oneof=movie show"`
	Id   string `json:"id" validate:"required"`
	Sort string `json:"sort"`
}

type ListCommentsReply struct {
	Items []*CommentItem `json:"items"`
}

type LikeCommentRequest struct {
	Id string `json:"id" validate:"required"`
}

type WatchHistoryReply struct {
	created
	WatchHistoryItem
}

type ListWatchHistoryRequest struct{}

type ListWatchHistoryReply struct {
	Items []*WatchHistoryItem `json:"items"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=20"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type RegisterReply struct {
	created
	UserItem
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginReply struct {
	User *UserItem `json:"user"`
}

type SetPreferenceRequest struct {
	Genre *string `json:"genre" validate:"omitempty,max=100"`
}

type PreferenceReply struct {
	Genre            *string `json:"genre"`
	LastWatchedMovie *string `json:"last_watched_movie"`
	LastWatchedShow  *string `json:"last_watched_show"`
}

type HealthRequest struct{}

type HealthReply struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	DB        struct {
		Status  string `json:"status"`
		Message string `json:"message,omitempty"`
	} `json:"db"`

	code int
}

func (r *HealthReply) HTTPStatus() int {
	if r.code == 0 {
		return http.StatusOK
	}
	return r.code
}

func closeUpload(u *biz.Upload) {
	if u == nil {
		return
	}
	if c, ok := u.Body.(io.Closer); ok {
		_ = c.Close()
	}
}

func contentToItem(rc *biz.RatedContent) *ContentItem {
	return &ContentItem{
		Id:             rc.ID,
		Kind:           string(rc.Kind),
		Title:          rc.Title,
		Description:    rc.Description,
		Genre:          rc.Genre,
		Year:           rc.Year,
		ExternalRating: rc.ExternalRating,
		AverageRating:  rc.AverageRating,
		ThumbnailUrl:   rc.ThumbnailURL,
		VideoUrl:       rc.VideoURL,
		CreatedAt:      rc.CreatedAt,
	}
}

func contentsToItems(items []*biz.RatedContent) []*ContentItem {
	out := make([]*ContentItem, 0, len(items))
	for _, rc := range items {
		out = append(out, contentToItem(rc))
	}
	return out
}

func episodeToItem(e *biz.Episode) *EpisodeItem {
	if e == nil {
		return nil
	}
	return &EpisodeItem{
		Id:            e.ID,
		SeasonId:      e.SeasonID,
		EpisodeNumber: e.EpisodeNumber,
		Title:         e.Title,
		VideoUrl:      e.VideoURL,
	}
}

func seasonToItem(s *biz.Season) *SeasonItem {
	item := &SeasonItem{
		Id:           s.ID,
		ShowId:       s.ShowID,
		SeasonNumber: s.SeasonNumber,
		Episodes:     make([]*EpisodeItem, 0, len(s.Episodes)),
	}
	for _, e := range s.Episodes {
		item.Episodes = append(item.Episodes, episodeToItem(e))
	}
	return item
}

func seasonsToItems(seasons []*biz.Season) []*SeasonItem {
	out := make([]*SeasonItem, 0, len(seasons))
	for _, s := range seasons {
		out = append(out, seasonToItem(s))
	}
	return out
}

func commentToItem(c *biz.Comment) *CommentItem {
	return &CommentItem{
		Id:        c.ID,
		UserId:    c.UserID,
		Kind:      string(c.Ref.Kind),
		ContentId: c.Ref.ID,
		Text:      c.Text,
		Likes:     c.Likes,
		CreatedAt: c.CreatedAt,
	}
}

func commentsToItems(comments []*biz.Comment) []*CommentItem {
	out := make([]*CommentItem, 0, len(comments))
	for _, c := range comments {
		out = append(out, commentToItem(c))
	}
	return out
}

func historyToItem(e *biz.WatchHistoryEntry) *WatchHistoryItem {
	return &WatchHistoryItem{
		Id:        e.ID,
		Kind:      string(e.Ref.Kind),
		ContentId: e.Ref.ID,
		WatchedAt: e.WatchedAt,
	}
}

func userToItem(u *biz.User) *UserItem {
	return &UserItem{
		Id:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

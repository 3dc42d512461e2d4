package biz

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-kratos/kratos/v2/log"
)

type ratingKey struct {
	userID string
	ref    ContentRef
}

type likeKey struct {
	userID    string
	commentID string
}

// memStore is an in-memory implementation of every repository plus a
// Transaction that restores a snapshot when fn fails.
type memStore struct {
	contents    []Content
	seasons     []Season
	episodes    []Episode
	ratings     map[ratingKey]int32
	comments    []Comment
	likes       map[likeKey]bool
	history     []WatchHistoryEntry
	users       []User
	prefs       map[string]UserPreference
	invalidated []ContentRef
	failNext    error
}

func newMemStore() *memStore {
	return &memStore{
		ratings: map[ratingKey]int32{},
		likes:   map[likeKey]bool{},
		prefs:   map[string]UserPreference{},
	}
}

func (m *memStore) snapshot() *memStore {
	c := *m
	c.contents = append([]Content(nil), m.contents...)
	c.seasons = append([]Season(nil), m.seasons...)
	c.episodes = append([]Episode(nil), m.episodes...)
	c.comments = append([]Comment(nil), m.comments...)
	c.history = append([]WatchHistoryEntry(nil), m.history...)
	c.users = append([]User(nil), m.users...)
	c.ratings = make(map[ratingKey]int32, len(m.ratings))
	for k, v := range m.ratings {
		c.ratings[k] = v
	}
	c.likes = make(map[likeKey]bool, len(m.likes))
	for k, v := range m.likes {
		c.likes[k] = v
	}
	c.prefs = make(map[string]UserPreference, len(m.prefs))
	for k, v := range m.prefs {
		c.prefs[k] = v
	}
	return &c
}

func (m *memStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	saved := m.snapshot()
	if err := fn(ctx); err != nil {
		invalidated := m.invalidated
		*m = *saved
		m.invalidated = invalidated
		return err
	}
	return nil
}

func (m *memStore) takeFailure() error {
	err := m.failNext
	m.failNext = nil
	return err
}

// ContentRepo

func (m *memStore) CreateContent(ctx context.Context, c *Content) error {
	if err := m.takeFailure(); err != nil {
		return err
	}
	m.contents = append(m.contents, *c)
	return nil
}

func (m *memStore) GetContent(ctx context.Context, ref ContentRef) (*Content, error) {
	for i := range m.contents {
		if m.contents[i].Kind == ref.Kind && m.contents[i].ID == ref.ID {
			c := m.contents[i]
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%s %s: %w", ref.Kind, ref.ID, ErrNotFound)
}

func genreOf(c *Content) string {
	if c.Genre == nil {
		return ""
	}
	return *c.Genre
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (m *memStore) TopContent(ctx context.Context, kind ContentKind, genre *string, limit int) ([]*Content, error) {
	var out []*Content
	for i := range m.contents {
		c := m.contents[i]
		if c.Kind != kind {
			continue
		}
		if genre != nil && !containsFold(genreOf(&c), *genre) {
			continue
		}
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExternalRating > out[j].ExternalRating
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) SearchContent(ctx context.Context, q *SearchQuery) ([]*Content, *string, error) {
	var out []*Content
	for i := range m.contents {
		c := m.contents[i]
		if c.Kind == q.Kind && containsFold(c.Title, q.Q) {
			out = append(out, &c)
		}
	}
	return out, nil, nil
}

func (m *memStore) FilterContent(ctx context.Context, q *FilterQuery) ([]*Content, error) {
	var out []*Content
	for i := range m.contents {
		c := m.contents[i]
		if c.Kind != q.Kind {
			continue
		}
		if q.Genre != nil && !containsFold(genreOf(&c), *q.Genre) {
			continue
		}
		if q.Year != nil && (c.Year == nil || *c.Year != *q.Year) {
			continue
		}
		out = append(out, &c)
	}
	return out, nil
}

func (m *memStore) UpdateExternalRating(ctx context.Context, ref ContentRef, rating float64) error {
	for i := range m.contents {
		if m.contents[i].Ref() == ref {
			m.contents[i].ExternalRating = rating
			return nil
		}
	}
	return ErrNotFound
}

// SeasonRepo

func (m *memStore) CreateSeason(ctx context.Context, s *Season) error {
	for _, existing := range m.seasons {
		if existing.ShowID == s.ShowID && existing.SeasonNumber == s.SeasonNumber {
			return ErrDuplicateSeason
		}
	}
	m.seasons = append(m.seasons, *s)
	return nil
}

func (m *memStore) GetSeason(ctx context.Context, id string) (*Season, error) {
	for _, s := range m.seasons {
		if s.ID == id {
			return m.withEpisodes(s), nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) withEpisodes(s Season) *Season {
	s.Episodes = nil
	for _, e := range m.episodes {
		if e.SeasonID == s.ID {
			e := e
			s.Episodes = append(s.Episodes, &e)
		}
	}
	sort.SliceStable(s.Episodes, func(i, j int) bool {
		return s.Episodes[i].EpisodeNumber < s.Episodes[j].EpisodeNumber
	})
	return &s
}

func (m *memStore) ListSeasons(ctx context.Context, showID string) ([]*Season, error) {
	var out []*Season
	for _, s := range m.seasons {
		if s.ShowID == showID {
			out = append(out, m.withEpisodes(s))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SeasonNumber < out[j].SeasonNumber
	})
	return out, nil
}

func (m *memStore) CreateEpisode(ctx context.Context, e *Episode) error {
	if err := m.takeFailure(); err != nil {
		return err
	}
	for _, existing := range m.episodes {
		if existing.SeasonID == e.SeasonID && existing.EpisodeNumber == e.EpisodeNumber {
			return ErrDuplicateEpisode
		}
	}
	m.episodes = append(m.episodes, *e)
	return nil
}

// RatingRepo

func (m *memStore) UpsertRating(ctx context.Context, r *Rating) error {
	if err := m.takeFailure(); err != nil {
		return err
	}
	m.ratings[ratingKey{userID: r.UserID, ref: r.Ref}] = r.Value
	return nil
}

func (m *memStore) GetRating(ctx context.Context, userID string, ref ContentRef) (*Rating, error) {
	v, ok := m.ratings[ratingKey{userID: userID, ref: ref}]
	if !ok {
		return nil, ErrNotFound
	}
	return &Rating{UserID: userID, Ref: ref, Value: v}, nil
}

func (m *memStore) ratingCount(ref ContentRef) int {
	n := 0
	for k := range m.ratings {
		if k.ref == ref {
			n++
		}
	}
	return n
}

func (m *memStore) GetRatingAggregate(ctx context.Context, ref ContentRef) (*RatingAggregate, error) {
	var sum, count int64
	for k, v := range m.ratings {
		if k.ref == ref {
			sum += int64(v)
			count++
		}
	}
	if count == 0 {
		return &RatingAggregate{}, nil
	}
	return &RatingAggregate{Mean: float64(sum) / float64(count), Count: count}, nil
}

func (m *memStore) RatingAggregates(ctx context.Context, kind ContentKind, ids []string) (map[string]*RatingAggregate, error) {
	out := map[string]*RatingAggregate{}
	for _, id := range ids {
		agg, _ := m.GetRatingAggregate(ctx, ContentRef{Kind: kind, ID: id})
		if agg.Count > 0 {
			out[id] = agg
		}
	}
	return out, nil
}

func (m *memStore) InvalidateAggregate(ctx context.Context, ref ContentRef) {
	m.invalidated = append(m.invalidated, ref)
}

// CommentRepo

func (m *memStore) CreateComment(ctx context.Context, c *Comment) error {
	m.comments = append(m.comments, *c)
	return nil
}

func (m *memStore) GetComment(ctx context.Context, id string) (*Comment, error) {
	for _, c := range m.comments {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) ListComments(ctx context.Context, ref ContentRef, by CommentSort) ([]*Comment, error) {
	var out []*Comment
	for _, c := range m.comments {
		if c.Ref == ref {
			c := c
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if by == SortPopular && out[i].Likes != out[j].Likes {
			return out[i].Likes > out[j].Likes
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *memStore) AddLike(ctx context.Context, userID, commentID string) (bool, error) {
	key := likeKey{userID: userID, commentID: commentID}
	if m.likes[key] {
		return false, nil
	}
	m.likes[key] = true
	for i := range m.comments {
		if m.comments[i].ID == commentID {
			m.comments[i].Likes++
		}
	}
	return true, nil
}

// WatchHistoryRepo

func (m *memStore) CreateWatchHistory(ctx context.Context, e *WatchHistoryEntry) error {
	m.history = append(m.history, *e)
	return nil
}

func (m *memStore) ListWatchHistory(ctx context.Context, userID string) ([]*WatchHistoryEntry, error) {
	var out []*WatchHistoryEntry
	for i := len(m.history) - 1; i >= 0; i-- {
		if m.history[i].UserID == userID {
			e := m.history[i]
			out = append(out, &e)
		}
	}
	return out, nil
}

// UserRepo

func (m *memStore) CreateUser(ctx context.Context, u *User) error {
	if err := m.takeFailure(); err != nil {
		return err
	}
	m.users = append(m.users, *u)
	return nil
}

func (m *memStore) GetUser(ctx context.Context, id string) (*User, error) {
	for _, u := range m.users {
		if u.ID == id {
			u := u
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
}

func (m *memStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) UserExists(ctx context.Context, email, username string) (bool, error) {
	for _, u := range m.users {
		if u.Email == email || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) GetPreference(ctx context.Context, userID string) (*UserPreference, error) {
	p, ok := m.prefs[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *memStore) SavePreference(ctx context.Context, p *UserPreference) error {
	m.prefs[p.UserID] = *p
	return nil
}

// collaborators

type stubRatingSource struct {
	rating float64
	err    error
	calls  []string
}

func (s *stubRatingSource) FetchRating(ctx context.Context, title string) (float64, error) {
	s.calls = append(s.calls, title)
	return s.rating, s.err
}

type stubBlobStore struct {
	failFolder string
	uploads    []string
	deleted    []string
}

func (s *stubBlobStore) Upload(ctx context.Context, folder string, file *Upload) (string, error) {
	if s.failFolder != "" && strings.HasPrefix(folder, s.failFolder) {
		return "", errors.New("connection reset")
	}
	key := folder + "/" + file.Filename
	s.uploads = append(s.uploads, key)
	return "https://cdn.test/" + key, nil
}

func (s *stubBlobStore) Delete(ctx context.Context, url string) error {
	s.deleted = append(s.deleted, strings.TrimPrefix(url, "https://cdn.test/"))
	return nil
}

// fixture wires use cases over one memStore.
type fixture struct {
	store       *memStore
	source      *stubRatingSource
	blobs       *stubBlobStore
	rating      *RatingUseCase
	recommend   *RecommendUseCase
	catalog     *CatalogUseCase
	interaction *InteractionUseCase
	users       *UserUseCase
}

func newFixture() *fixture {
	logger := log.DefaultLogger
	store := newMemStore()
	source := &stubRatingSource{}
	blobs := &stubBlobStore{}

	rating := NewRatingUseCase(store, store, store, store, logger)
	users := NewUserUseCase(store, store, logger)
	users.hashCost = 4

	return &fixture{
		store:       store,
		source:      source,
		blobs:       blobs,
		rating:      rating,
		recommend:   NewRecommendUseCase(store, store, rating, logger),
		catalog:     NewCatalogUseCase(store, store, rating, source, blobs, store, logger),
		interaction: NewInteractionUseCase(store, store, store, store, store, logger),
		users:       users,
	}
}

func strPtr(s string) *string { return &s }

// addContent stores content directly with a predictable id.
func (f *fixture) addContent(kind ContentKind, id, title, genre string, external float64) *Content {
	c := Content{ID: id, Kind: kind, Title: title, ExternalRating: external}
	if genre != "" {
		c.Genre = strPtr(genre)
	}
	f.store.contents = append(f.store.contents, c)
	return &c
}

func (f *fixture) addUser(id string) {
	f.store.users = append(f.store.users, User{ID: id, Username: id, Email: id + "@example.com"})
}

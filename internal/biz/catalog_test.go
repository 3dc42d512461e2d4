package biz

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestDefaultEpisode(t *testing.T) {
	e := func(id string, n int32) *Episode { return &Episode{ID: id, EpisodeNumber: n} }

	tests := []struct {
		name    string
		seasons []*Season
		want    string
	}{
		{
			name: "first episode of first season",
			seasons: []*Season{
				{ID: "s1", SeasonNumber: 1, Episodes: []*Episode{e("s1e1", 1), e("s1e2", 2)}},
				{ID: "s2", SeasonNumber: 2, Episodes: []*Episode{e("s2e1", 1)}},
			},
			want: "s1e1",
		},
		{
			name: "seasons and episodes out of order",
			seasons: []*Season{
				{ID: "s2", SeasonNumber: 2, Episodes: []*Episode{e("s2e1", 1)}},
				{ID: "s1", SeasonNumber: 1, Episodes: []*Episode{e("s1e3", 3), e("s1e2", 2)}},
			},
			want: "s1e2",
		},
		{
			name:    "no seasons",
			seasons: nil,
			want:    "",
		},
		{
			name: "first season has no episodes",
			seasons: []*Season{
				{ID: "s1", SeasonNumber: 1},
				{ID: "s2", SeasonNumber: 2, Episodes: []*Episode{e("s2e1", 1)}},
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultEpisode(tt.seasons)
			if tt.want == "" {
				if got != nil {
					t.Errorf("DefaultEpisode() = %s, want nil", got.ID)
				}
				return
			}
			if got == nil || got.ID != tt.want {
				t.Errorf("DefaultEpisode() = %v, want %s", got, tt.want)
			}
		})
	}
}

func upload(name string) *Upload {
	return &Upload{Filename: name, Body: strings.NewReader("data")}
}

func seedShow(t *testing.T, f *fixture) (show *Content, s1, s2 *Season) {
	t.Helper()
	ctx := context.Background()
	show = f.addContent(KindShow, "show", "Dark", "Drama", 8)

	var err error
	if s2, err = f.catalog.AddSeason(ctx, show.ID, 2); err != nil {
		t.Fatal(err)
	}
	if s1, err = f.catalog.AddSeason(ctx, show.ID, 1); err != nil {
		t.Fatal(err)
	}
	for _, ep := range []struct {
		season *Season
		number int32
	}{{s1, 2}, {s1, 1}, {s2, 1}} {
		if _, err := f.catalog.AddEpisode(ctx, &CreateEpisodeRequest{
			SeasonID:      ep.season.ID,
			EpisodeNumber: ep.number,
			Title:         "Episode",
			Video:         upload("ep.mp4"),
		}); err != nil {
			t.Fatal(err)
		}
	}
	return show, s1, s2
}

func TestSelectEpisode(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	show, s1, s2 := seedShow(t, f)
	other := f.addContent(KindShow, "other", "Other", "", 1)

	detail, err := f.catalog.GetShow(ctx, show.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(detail.Seasons) != 2 || detail.Seasons[0].ID != s1.ID {
		t.Fatalf("seasons not ordered by number: %+v", detail.Seasons)
	}
	s1e1 := detail.Seasons[0].Episodes[0]
	s2e1 := detail.Seasons[1].Episodes[0]
	if s1e1.EpisodeNumber != 1 {
		t.Fatalf("episodes not ordered by number")
	}

	def, err := f.catalog.SelectEpisode(ctx, show.ID, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if def == nil || def.ID != s1e1.ID {
		t.Errorf("default selection = %v, want S1E1", def)
	}

	onlySeason, err := f.catalog.SelectEpisode(ctx, show.ID, strPtr(s2.ID), nil)
	if err != nil {
		t.Fatal(err)
	}
	if onlySeason == nil || onlySeason.ID != s1e1.ID {
		t.Errorf("partial selection should fall back to default, got %v", onlySeason)
	}

	explicit, err := f.catalog.SelectEpisode(ctx, show.ID, strPtr(s2.ID), strPtr(s2e1.ID))
	if err != nil {
		t.Fatal(err)
	}
	if explicit == nil || explicit.ID != s2e1.ID {
		t.Errorf("explicit selection = %v, want S2E1", explicit)
	}

	mismatched, err := f.catalog.SelectEpisode(ctx, show.ID, strPtr(s1.ID), strPtr(s2e1.ID))
	if err != nil || mismatched != nil {
		t.Errorf("episode from another season = %v, %v; want nil, nil", mismatched, err)
	}

	foreign, err := f.catalog.SelectEpisode(ctx, other.ID, strPtr(s2.ID), strPtr(s2e1.ID))
	if err != nil || foreign != nil {
		t.Errorf("season of another show = %v, %v; want nil, nil", foreign, err)
	}

	empty, err := f.catalog.SelectEpisode(ctx, other.ID, nil, nil)
	if err != nil || empty != nil {
		t.Errorf("show without seasons = %v, %v; want nil, nil", empty, err)
	}

	if _, err := f.catalog.SelectEpisode(ctx, "missing", nil, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing show error = %v, want ErrNotFound", err)
	}
}

func TestPickEpisode(t *testing.T) {
	s1e1 := &Episode{ID: "s1e1", SeasonID: "s1", EpisodeNumber: 1}
	s1e2 := &Episode{ID: "s1e2", SeasonID: "s1", EpisodeNumber: 2}
	s2e1 := &Episode{ID: "s2e1", SeasonID: "s2", EpisodeNumber: 1}
	seasons := []*Season{
		{ID: "s1", SeasonNumber: 1, Episodes: []*Episode{s1e1, s1e2}},
		{ID: "s2", SeasonNumber: 2, Episodes: []*Episode{s2e1}},
	}

	tests := []struct {
		name      string
		seasonID  *string
		episodeID *string
		want      *Episode
	}{
		{name: "default", want: s1e1},
		{name: "season only", seasonID: strPtr("s2"), want: s1e1},
		{name: "episode only", episodeID: strPtr("s2e1"), want: s1e1},
		{name: "empty ids", seasonID: strPtr(""), episodeID: strPtr(""), want: s1e1},
		{name: "explicit", seasonID: strPtr("s1"), episodeID: strPtr("s1e2"), want: s1e2},
		{name: "episode of another season", seasonID: strPtr("s1"), episodeID: strPtr("s2e1")},
		{name: "unknown season", seasonID: strPtr("s9"), episodeID: strPtr("s1e1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PickEpisode(seasons, tt.seasonID, tt.episodeID); got != tt.want {
				t.Errorf("PickEpisode = %v, want %v", got, tt.want)
			}
		})
	}

	if got := PickEpisode(nil, nil, nil); got != nil {
		t.Errorf("PickEpisode without seasons = %v, want nil", got)
	}
}

func TestAddSeasonAndEpisodeUniqueness(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	show, s1, _ := seedShow(t, f)

	if _, err := f.catalog.AddSeason(ctx, show.ID, 1); !errors.Is(err, ErrDuplicateSeason) {
		t.Errorf("duplicate season error = %v", err)
	}
	_, err := f.catalog.AddEpisode(ctx, &CreateEpisodeRequest{SeasonID: s1.ID, EpisodeNumber: 1, Title: "Again", Video: upload("x.mp4")})
	if !errors.Is(err, ErrDuplicateEpisode) {
		t.Errorf("duplicate episode error = %v", err)
	}
	if _, err := f.catalog.AddSeason(ctx, "missing", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("season on missing show error = %v", err)
	}
	if _, err := f.catalog.AddSeason(ctx, show.ID, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("season zero error = %v", err)
	}
	if _, err := f.catalog.AddEpisode(ctx, &CreateEpisodeRequest{SeasonID: "missing", EpisodeNumber: 1, Title: "x", Video: upload("x.mp4")}); !errors.Is(err, ErrNotFound) {
		t.Errorf("episode on missing season error = %v", err)
	}

	want := "videos/show/season_1/ep.mp4"
	found := false
	for _, key := range f.blobs.uploads {
		if key == want {
			found = true
		}
	}
	if !found {
		t.Errorf("episode video not uploaded under %s: %v", want, f.blobs.uploads)
	}
}

func TestCreateContent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.source.rating = 7.4

	rc, err := f.catalog.CreateContent(ctx, &CreateContentRequest{
		Kind:        KindMovie,
		Title:       "  Arrival ",
		Description: "Linguists and heptapods",
		Genre:       strPtr("Sci-Fi"),
		Thumbnail:   upload("arrival.jpg"),
		Video:       upload("arrival.mp4"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if rc.Title != "Arrival" || rc.ExternalRating != 7.4 || rc.AverageRating != 7.4 {
		t.Errorf("created = %+v", rc.Content)
	}
	if rc.ThumbnailURL != "https://cdn.test/thumbnails/arrival.jpg" || rc.VideoURL != "https://cdn.test/videos/arrival.mp4" {
		t.Errorf("unexpected media urls %q %q", rc.ThumbnailURL, rc.VideoURL)
	}
	if !reflect.DeepEqual(f.source.calls, []string{"Arrival"}) {
		t.Errorf("rating source calls = %v", f.source.calls)
	}

	stored, err := f.store.GetContent(ctx, rc.Ref())
	if err != nil {
		t.Fatal(err)
	}
	if stored.ExternalRating != 7.4 {
		t.Errorf("stored external rating = %v", stored.ExternalRating)
	}
}

func TestCreateContentRatingSourceDown(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.source.err = errors.New("timeout")

	rc, err := f.catalog.CreateContent(ctx, &CreateContentRequest{
		Kind:        KindShow,
		Title:       "Severance",
		Description: "Work-life balance",
		Thumbnail:   upload("sev.png"),
	})
	if err != nil {
		t.Fatalf("rating source failure must not block creation: %v", err)
	}
	if rc.ExternalRating != 0 || rc.VideoURL != "" {
		t.Errorf("created = %+v", rc.Content)
	}
}

func TestCreateContentUploadFailure(t *testing.T) {
	tests := []struct {
		name        string
		failFolder  string
		wantDeleted []string
	}{
		{name: "thumbnail", failFolder: "thumbnails"},
		{name: "video", failFolder: "videos", wantDeleted: []string{"thumbnails/heat.jpg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.blobs.failFolder = tt.failFolder

			_, err := f.catalog.CreateContent(context.Background(), &CreateContentRequest{
				Kind:        KindMovie,
				Title:       "Heat",
				Description: "Cops and robbers",
				Thumbnail:   upload("heat.jpg"),
				Video:       upload("heat.mp4"),
			})
			if !errors.Is(err, ErrUpstreamUnavailable) {
				t.Fatalf("error = %v, want ErrUpstreamUnavailable", err)
			}
			if len(f.store.contents) != 0 {
				t.Errorf("content persisted despite failed upload")
			}
			if !reflect.DeepEqual(f.blobs.deleted, tt.wantDeleted) {
				t.Errorf("deleted = %v, want %v", f.blobs.deleted, tt.wantDeleted)
			}
		})
	}
}

func TestCreateContentStorageFailureDiscardsMedia(t *testing.T) {
	f := newFixture()
	f.store.failNext = errors.New("connection lost")

	_, err := f.catalog.CreateContent(context.Background(), &CreateContentRequest{
		Kind:        KindMovie,
		Title:       "Heat",
		Description: "Cops and robbers",
		Thumbnail:   upload("heat.jpg"),
		Video:       upload("heat.mp4"),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	want := []string{"thumbnails/heat.jpg", "videos/heat.mp4"}
	if !reflect.DeepEqual(f.blobs.deleted, want) {
		t.Errorf("deleted = %v, want %v", f.blobs.deleted, want)
	}
}

func TestAddEpisodeLeavesNoOrphanedVideo(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, s1, _ := seedShow(t, f)
	uploads := len(f.blobs.uploads)

	_, err := f.catalog.AddEpisode(ctx, &CreateEpisodeRequest{SeasonID: s1.ID, EpisodeNumber: 2, Title: "Again", Video: upload("again.mp4")})
	if !errors.Is(err, ErrDuplicateEpisode) {
		t.Fatalf("duplicate episode error = %v", err)
	}
	if len(f.blobs.uploads) != uploads {
		t.Errorf("duplicate episode uploaded a video: %v", f.blobs.uploads[uploads:])
	}

	f.store.failNext = errors.New("connection lost")
	if _, err := f.catalog.AddEpisode(ctx, &CreateEpisodeRequest{SeasonID: s1.ID, EpisodeNumber: 3, Title: "Three", Video: upload("three.mp4")}); err == nil {
		t.Fatal("expected storage error")
	}
	want := []string{"videos/show/season_1/three.mp4"}
	if !reflect.DeepEqual(f.blobs.deleted, want) {
		t.Errorf("deleted = %v, want %v", f.blobs.deleted, want)
	}
}

func TestCreateContentValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tests := []struct {
		name string
		req  *CreateContentRequest
		want error
	}{
		{name: "bad kind", req: &CreateContentRequest{Kind: "anime", Title: "x", Description: "x", Thumbnail: upload("a")}, want: ErrInvalidContentKind},
		{name: "no title", req: &CreateContentRequest{Kind: KindShow, Title: " ", Description: "x", Thumbnail: upload("a")}, want: ErrInvalidArgument},
		{name: "no thumbnail", req: &CreateContentRequest{Kind: KindShow, Title: "x", Description: "x"}, want: ErrInvalidArgument},
		{name: "movie without video", req: &CreateContentRequest{Kind: KindMovie, Title: "x", Description: "x", Thumbnail: upload("a")}, want: ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.catalog.CreateContent(ctx, tt.req); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
	if len(f.blobs.uploads) != 0 {
		t.Errorf("validation failures uploaded files: %v", f.blobs.uploads)
	}
}

func TestFilterByBlendedRange(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.addContent(KindMovie, "low", "Low", "Drama", 2)
	f.addContent(KindMovie, "mid", "Mid", "Drama", 5)
	f.addContent(KindMovie, "high", "High", "Drama", 9)
	f.addContent(KindMovie, "other", "Other", "Comedy", 5)
	f.addUser("u1")
	// mid blends to (9+5)/2 = 7
	if _, err := f.rating.SubmitRating(ctx, "u1", ContentRef{Kind: KindMovie, ID: "mid"}, 9); err != nil {
		t.Fatal(err)
	}

	f64 := func(v float64) *float64 { return &v }
	tests := []struct {
		name string
		q    FilterQuery
		want []string
	}{
		{name: "inclusive bounds", q: FilterQuery{Kind: KindMovie, Genre: strPtr("drama"), MinRating: f64(2), MaxRating: f64(7)}, want: []string{"low", "mid"}},
		{name: "min only", q: FilterQuery{Kind: KindMovie, MinRating: f64(5)}, want: []string{"mid", "high", "other"}},
		{name: "max only", q: FilterQuery{Kind: KindMovie, MaxRating: f64(5)}, want: []string{"low", "other"}},
		{name: "no bounds", q: FilterQuery{Kind: KindMovie, Genre: strPtr("DRAMA")}, want: []string{"low", "mid", "high"}},
		{name: "inverted bounds", q: FilterQuery{Kind: KindMovie, MinRating: f64(8), MaxRating: f64(1)}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.catalog.Filter(ctx, &tt.q)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Errorf("Filter() = %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestTopAndRefresh(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.addContent(KindShow, "a", "A", "", 3)
	f.addContent(KindShow, "b", "B", "", 3)
	f.addContent(KindShow, "c", "C", "", 9)

	top, err := f.catalog.Top(ctx, KindShow, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids(top), []string{"c", "a", "b"}) {
		t.Errorf("Top() = %v", ids(top))
	}

	f.source.rating = 9.5
	rc, err := f.catalog.RefreshExternalRating(ctx, ContentRef{Kind: KindShow, ID: "b"})
	if err != nil {
		t.Fatal(err)
	}
	if rc.ExternalRating != 9.5 {
		t.Errorf("refreshed rating = %v", rc.ExternalRating)
	}
	top, err = f.catalog.Top(ctx, KindShow, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids(top), []string{"b"}) {
		t.Errorf("Top(1) after refresh = %v", ids(top))
	}
}

package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"streamcatalog/internal/biz"
	"streamcatalog/internal/service"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

const maxFormMemory = 32 << 20

const (
	OperationCreateContent    = "/streamcatalog.v1.Catalog/CreateContent"
	OperationGetMovie         = "/streamcatalog.v1.Catalog/GetMovie"
	OperationGetShow          = "/streamcatalog.v1.Catalog/GetShow"
	OperationSearch           = "/streamcatalog.v1.Catalog/Search"
	OperationFilter           = "/streamcatalog.v1.Catalog/Filter"
	OperationTop              = "/streamcatalog.v1.Catalog/Top"
	OperationRecommend        = "/streamcatalog.v1.Catalog/Recommend"
	OperationRefreshRating    = "/streamcatalog.v1.Catalog/RefreshExternalRating"
	OperationAddSeason        = "/streamcatalog.v1.Catalog/AddSeason"
	OperationAddEpisode       = "/streamcatalog.v1.Catalog/AddEpisode"
	OperationWatch            = "/streamcatalog.v1.Catalog/Watch"
	OperationSubmitRating     = "/streamcatalog.v1.Interaction/SubmitRating"
	OperationAddComment       = "/streamcatalog.v1.Interaction/AddComment"
	OperationListComments     = "/streamcatalog.v1.Interaction/ListComments"
	OperationLikeComment      = "/streamcatalog.v1.Interaction/LikeComment"
	OperationRecordWatch      = "/streamcatalog.v1.Interaction/RecordWatch"
	OperationListWatchHistory = "/streamcatalog.v1.Interaction/ListWatchHistory"
	OperationRegister         = "/streamcatalog.v1.User/Register"
	OperationLogin            = "/streamcatalog.v1.User/Login"
	OperationSetPreference    = "/streamcatalog.v1.User/SetPreference"
	OperationHealth           = "/streamcatalog.v1.Health/Check"
)

// adminOperations require the admin Bearer token.
var adminOperations = []string{
	OperationCreateContent,
	OperationRefreshRating,
	OperationAddSeason,
	OperationAddEpisode,
}

// handle binds the request, runs it through the server middleware chain and
// encodes the reply.
func handle[Req any, Reply any](op string, bind func(khttp.Context, *Req) error, call func(context.Context, *Req) (Reply, error)) khttp.HandlerFunc {
	return func(ctx khttp.Context) error {
		var in Req
		if c, ok := any(&in).(io.Closer); ok {
			defer c.Close()
		}
		defer removeMultipart(ctx.Request())

		if bind != nil {
			if err := bind(ctx, &in); err != nil {
				return err
			}
		}
		khttp.SetOperation(ctx, op)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(ctx, req.(*Req))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(http.StatusOK, out)
	}
}

func bindQuery[Req any](ctx khttp.Context, in *Req) error {
	return ctx.BindQuery(in)
}

func bindVars[Req any](ctx khttp.Context, in *Req) error {
	return ctx.BindVars(in)
}

func bindBody[Req any](ctx khttp.Context, in *Req) error {
	return ctx.Bind(in)
}

func bindBodyVars[Req any](ctx khttp.Context, in *Req) error {
	if err := ctx.Bind(in); err != nil {
		return err
	}
	return ctx.BindVars(in)
}

func bindVarsQuery[Req any](ctx khttp.Context, in *Req) error {
	if err := ctx.BindVars(in); err != nil {
		return err
	}
	return ctx.BindQuery(in)
}

// RegisterRoutes mounts every endpoint on srv. Fixed paths are registered
// before the {id} routes they would otherwise shadow.
func RegisterRoutes(srv *khttp.Server, catalog *service.CatalogService, interaction *service.InteractionService, users *service.UserService, health *service.HealthService) {
	r := srv.Route("/")

	r.GET("/healthz", handle(OperationHealth, nil, health.Check))

	r.POST("/v1/users", handle(OperationRegister, bindBody[service.RegisterRequest], users.Register))
	r.POST("/v1/sessions", handle(OperationLogin, bindBody[service.LoginRequest], users.Login))
	r.PUT("/v1/users/me/preference", handle(OperationSetPreference, bindBody[service.SetPreferenceRequest], users.SetPreference))
	r.GET("/v1/users/me/history", handle(OperationListWatchHistory, nil, interaction.ListWatchHistory))

	r.GET("/v1/recommendations", handle(OperationRecommend, bindQuery[service.RecommendRequest], catalog.Recommend))
	r.GET("/v1/watch/{kind}/{id}", handle(OperationWatch, bindVarsQuery[service.WatchRequest], catalog.Watch))
	r.POST("/v1/comments/{id}/likes", handle(OperationLikeComment, bindVars[service.LikeCommentRequest], interaction.LikeComment))

	r.POST("/v1/shows/{id}/seasons", handle(OperationAddSeason, bindBodyVars[service.AddSeasonRequest], catalog.AddSeason))
	r.POST("/v1/seasons/{id}/episodes", handle(OperationAddEpisode, bindEpisodeForm, catalog.AddEpisode))

	for _, kind := range []string{string(biz.KindMovie), string(biz.KindShow)} {
		base := "/v1/" + kind + "s"
		withKind := func(bind func(khttp.Context, *service.ContentRequest) error) func(khttp.Context, *service.ContentRequest) error {
			return func(ctx khttp.Context, in *service.ContentRequest) error {
				if err := bind(ctx, in); err != nil {
					return err
				}
				in.Kind = kind
				return nil
			}
		}

		r.GET(base+"/filter", handle(OperationFilter, func(ctx khttp.Context, in *service.FilterRequest) error {
			if err := ctx.BindQuery(in); err != nil {
				return err
			}
			in.Kind = kind
			return nil
		}, catalog.Filter))
		r.GET(base+"/top", handle(OperationTop, func(ctx khttp.Context, in *service.TopRequest) error {
			if err := ctx.BindQuery(in); err != nil {
				return err
			}
			in.Kind = kind
			return nil
		}, catalog.Top))
		r.GET(base, handle(OperationSearch, func(ctx khttp.Context, in *service.SearchRequest) error {
			if err := ctx.BindQuery(in); err != nil {
				return err
			}
			in.Kind = kind
			return nil
		}, catalog.Search))
		r.POST(base, handle(OperationCreateContent, bindContentForm(kind), catalog.CreateContent))

		r.POST(base+"/{id}/ratings", handle(OperationSubmitRating, func(ctx khttp.Context, in *service.SubmitRatingRequest) error {
			if err := bindBodyVars(ctx, in); err != nil {
				return err
			}
			in.Kind = kind
			return nil
		}, interaction.SubmitRating))
		r.GET(base+"/{id}/comments", handle(OperationListComments, func(ctx khttp.Context, in *service.ListCommentsRequest) error {
			if err := bindVarsQuery(ctx, in); err != nil {
				return err
			}
			in.Kind = kind
			return nil
		}, interaction.ListComments))
		r.POST(base+"/{id}/comments", handle(OperationAddComment, func(ctx khttp.Context, in *service.AddCommentRequest) error {
			if err := bindBodyVars(ctx, in); err != nil {
				return err
			}
			in.Kind = kind
			return nil
		}, interaction.AddComment))
		r.POST(base+"/{id}/watch", handle(OperationRecordWatch, withKind(bindVars[service.ContentRequest]), interaction.RecordWatch))
		r.POST(base+"/{id}/external-rating", handle(OperationRefreshRating, withKind(bindVars[service.ContentRequest]), catalog.RefreshExternalRating))
	}

	r.GET("/v1/movies/{id}", handle(OperationGetMovie, bindVars[service.ContentRequest], catalog.GetMovie))
	r.GET("/v1/shows/{id}", handle(OperationGetShow, bindVars[service.ContentRequest], catalog.GetShow))
}

func bindContentForm(kind string) func(khttp.Context, *service.CreateContentRequest) error {
	return func(ctx khttp.Context, in *service.CreateContentRequest) error {
		r := ctx.Request()
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return kerrors.BadRequest("INVALID_FORM", err.Error())
		}

		in.Kind = kind
		in.Title = r.FormValue("title")
		in.Description = r.FormValue("description")
		if genre := r.FormValue("genre"); genre != "" {
			in.Genre = &genre
		}
		if year := r.FormValue("year"); year != "" {
			v, err := strconv.ParseInt(year, 10, 32)
			if err != nil {
				return kerrors.BadRequest("INVALID_FORM", "year must be a number")
			}
			y := int32(v)
			in.Year = &y
		}

		var err error
		if in.Thumbnail, err = formFile(r, "thumbnail"); err != nil {
			return err
		}
		if in.Video, err = formFile(r, "video"); err != nil {
			return err
		}
		return nil
	}
}

func bindEpisodeForm(ctx khttp.Context, in *service.AddEpisodeRequest) error {
	r := ctx.Request()
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return kerrors.BadRequest("INVALID_FORM", err.Error())
	}
	if err := ctx.BindVars(in); err != nil {
		return err
	}

	in.Title = r.FormValue("title")
	if n := r.FormValue("episode_number"); n != "" {
		v, err := strconv.ParseInt(n, 10, 32)
		if err != nil {
			return kerrors.BadRequest("INVALID_FORM", "episode_number must be a number")
		}
		in.EpisodeNumber = int32(v)
	}

	var err error
	in.Video, err = formFile(r, "video")
	return err
}

// formFile returns nil when the field is absent.
func formFile(r *http.Request, field string) (*biz.Upload, error) {
	f, fh, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, kerrors.BadRequest("INVALID_FORM", err.Error())
	}
	return &biz.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}, nil
}

func removeMultipart(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

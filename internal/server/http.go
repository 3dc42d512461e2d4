package server

import (
	"net/http"

	"streamcatalog/internal/conf"
	"streamcatalog/internal/service"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

const mediaPrefix = "/media/"

// Custom response encoder to let replies choose their status code
func customResponseEncoder(w http.ResponseWriter, r *http.Request, v interface{}) error {
	// Check if response has status code metadata
	type StatusResponse interface {
		HTTPStatus() int
	}

	if sr, ok := v.(StatusResponse); ok {
		w.WriteHeader(sr.HTTPStatus())
	}

	// Use default encoder for the response body
	return khttp.DefaultResponseEncoder(w, r, v)
}

// NewHTTPServer new an HTTP server.
func NewHTTPServer(
	c *conf.Server,
	auth *conf.Auth,
	storage *conf.Storage,
	catalog *service.CatalogService,
	interaction *service.InteractionService,
	users *service.UserService,
	health *service.HealthService,
	logger log.Logger,
) *khttp.Server {
	var token string
	if auth != nil {
		token = auth.Token
	}

	var opts = []khttp.ServerOption{
		khttp.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
			AuthMiddleware(token, adminOperations...),
			IdentityMiddleware(),
		),
		khttp.ResponseEncoder(customResponseEncoder),
	}
	if c != nil && c.Http != nil {
		if c.Http.Network != "" {
			opts = append(opts, khttp.Network(c.Http.Network))
		}
		if c.Http.Addr != "" {
			opts = append(opts, khttp.Address(c.Http.Addr))
		}
		if c.Http.Timeout != nil {
			opts = append(opts, khttp.Timeout(c.Http.Timeout.AsDuration()))
		}
	}
	srv := khttp.NewServer(opts...)
	RegisterRoutes(srv, catalog, interaction, users, health)

	// The local blob store is served from /media/.
	if storage != nil && (storage.Driver == "" || storage.Driver == "local") && storage.Root != "" {
		srv.HandlePrefix(mediaPrefix, http.StripPrefix(mediaPrefix, http.FileServer(http.Dir(storage.Root))))
	}
	return srv
}

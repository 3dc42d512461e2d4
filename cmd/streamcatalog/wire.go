//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"streamcatalog/internal/biz"
	"streamcatalog/internal/conf"
	"streamcatalog/internal/data"
	"streamcatalog/internal/server"
	"streamcatalog/internal/service"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireApp init kratos application.
func wireApp(*conf.Server, *conf.Auth, *conf.Data, *conf.Storage, *conf.RatingSource, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		server.ProviderSet,
		data.ProviderSet,
		biz.ProviderSet,
		service.ProviderSet,
		wire.Bind(new(service.Pinger), new(*data.Data)),
		newApp,
	))
}

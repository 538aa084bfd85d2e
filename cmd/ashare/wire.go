//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"ashare/internal/app"
)

// InitializeApp builds App via Wire. The cleanup closes providers, the
// HTTP client and the database pool.
func InitializeApp(ctx context.Context, path app.ConfigPath) (*App, func(), error) {
	wire.Build(
		app.LoaderSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

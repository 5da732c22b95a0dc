//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	"siostam-backend/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideMetrics,
	ProvideGitSyncer,
	ProvideSourceProvider,
	ProvideConfigSource,
	ProvideRenderer,
	ProvideStore,
	ProvideHub,
	ProvideNotifier,
	ProvideScheduler,
	ProvideWSHandler,
	ProvideHandler,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, source config.Source, logger *zap.Logger) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}

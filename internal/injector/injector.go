//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"
)

func InitializeApp(path ConfigPath, level LogLevel) (*App, error) {
	wire.Build(
		ProvideConfig,
		ProvideLogger,
		ProvidePersister,
		wire.Struct(new(App), "*"),
	)
	return nil, nil
}

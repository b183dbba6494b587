package injector

import (
	"net/http"

	"github.com/zeusync/ppersist/internal/config"
	"github.com/zeusync/ppersist/internal/core/observability/log"
	"github.com/zeusync/ppersist/internal/core/schema/registry"
	"github.com/zeusync/ppersist/pkg/ppersist"
)

// ConfigPath is the optional YAML file given on the command line.
type ConfigPath string

// LogLevel overrides the configured log level when not empty.
type LogLevel string

// App bundles what a command needs.
type App struct {
	Config    *config.Config
	Logger    *log.Logger
	Persister *ppersist.Persister
}

func ProvideConfig(path ConfigPath, level LogLevel) (*config.Config, error) {
	cfg, err := config.Load(string(path))
	if err != nil {
		return nil, err
	}
	if level != "" {
		cfg.Log.Level = string(level)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func ProvideLogger(cfg *config.Config) *log.Logger {
	return cfg.Logger()
}

func ProvidePersister(cfg *config.Config, logger *log.Logger) *ppersist.Persister {
	return ppersist.New(
		ppersist.WithLogger(logger),
		ppersist.WithRegistry(registry.Default()),
		ppersist.WithMaxDepth(cfg.Decode.MaxDepth),
		ppersist.WithMaxBlobSize(cfg.Decode.MaxBlobSize),
		ppersist.WithHTTPClient(&http.Client{Timeout: cfg.Fetch.Timeout}),
		ppersist.WithFetchLimit(cfg.Fetch.MaxBytes),
		ppersist.WithUserAgent(cfg.Fetch.UserAgent),
	)
}

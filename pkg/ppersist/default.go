package ppersist

import (
	"context"
	"sync"

	"github.com/zeusync/ppersist/internal/core/observability/log"
	"github.com/zeusync/ppersist/internal/core/record"
	"github.com/zeusync/ppersist/pkg/value"
)

var (
	defaultPersister *Persister
	defaultOnce      sync.Once
)

// Default returns the Persister behind the package-level functions. It logs
// through the first logger built by log.New, if any.
func Default() *Persister {
	defaultOnce.Do(func() {
		defaultPersister = New(WithLogger(log.Provide()))
	})
	return defaultPersister
}

func CanSave(v any) bool { return Default().CanSave(v) }

func Encode(b *value.Bundle) ([]byte, error) { return Default().Encode(b) }

func EncodeUnchecked(b *value.Bundle) ([]byte, error) { return Default().EncodeUnchecked(b) }

func Decode(blob []byte, opts ...LoadOption) (*value.Bundle, error) {
	return Default().Decode(blob, opts...)
}

func Save(path string, b *value.Bundle) error { return Default().Save(path, b) }

func SaveDict(path string, m map[string]any) error { return Default().SaveDict(path, m) }

func SaveUnchecked(path string, b *value.Bundle) error { return Default().SaveUnchecked(path, b) }

func Load(path string, opts ...LoadOption) (*record.Record, error) {
	return Default().Load(path, opts...)
}

func LoadDict(path string, opts ...LoadOption) (*value.Bundle, error) {
	return Default().LoadDict(path, opts...)
}

func Fetch(ctx context.Context, url string) (*record.Record, error) {
	return Default().Fetch(ctx, url)
}

func NewSaver(path string) *Saver { return Default().NewSaver(path) }

func WithSaver(path string, fn func(*Saver) error) error { return Default().WithSaver(path, fn) }

// Package ppersist saves and loads named values as self-describing binary
// blobs. Loading is gated by an allow-list: a blob that references any type
// outside it is rejected before anything is constructed.
//
// Saveable values are nil, bool, int, int32, int64, float32, float64,
// complex64, complex128, string, *value.Array (non-object dtypes),
// *value.Frame, *value.Series, *value.Index and the collections []any,
// value.List, value.Tuple, *value.Set, *value.FrozenSet and map[string]any
// holding saveable values.
package ppersist

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zeusync/ppersist/internal/core/codec"
	"github.com/zeusync/ppersist/internal/core/observability/log"
	"github.com/zeusync/ppersist/internal/core/record"
	"github.com/zeusync/ppersist/internal/core/schema/registry"
	"github.com/zeusync/ppersist/pkg/value"
)

const (
	DefaultMaxBlobSize  = 256 << 20
	DefaultFetchLimit   = 64 << 20
	DefaultFetchTimeout = 30 * time.Second
	DefaultUserAgent    = "ppersist/1"
)

type (
	Error     = codec.Error
	ErrorCode = codec.ErrorCode
	Opaque    = codec.Opaque
	TypeTable = codec.TypeTable
	Record    = record.Record
	Registry  = registry.Registry
	Tag       = registry.Tag
)

var (
	ErrValidation   = codec.ErrValidation
	ErrUnsafeType   = codec.ErrUnsafeType
	ErrDecode       = codec.ErrDecode
	ErrSessionState = codec.ErrSessionState

	ErrFieldNotFound   = record.ErrFieldNotFound
	ErrIndexOutOfRange = record.ErrIndexOutOfRange
)

// NewTypeTable returns an empty table of types that trusted loads may construct.
func NewTypeTable() *TypeTable { return codec.NewTypeTable() }

// Persister carries the logger, allow-list and limits shared by save and load.
type Persister struct {
	logger      log.Log
	registry    *registry.Registry
	types       *codec.TypeTable
	encoder     *codec.Encoder
	client      *http.Client
	maxDepth    int
	maxBlobSize int64
	fetchLimit  int64
	userAgent   string
}

type Option func(*Persister)

func WithLogger(l log.Log) Option {
	return func(p *Persister) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithZapLogger(z *zap.Logger) Option {
	return func(p *Persister) {
		if z != nil {
			p.logger = log.FromZap(z)
		}
	}
}

// WithRegistry replaces the default allow-list, typically with a narrower one.
func WithRegistry(r *registry.Registry) Option {
	return func(p *Persister) {
		if r != nil {
			p.registry = r
		}
	}
}

// WithTypes supplies the types a Trusted load may construct.
func WithTypes(tt *codec.TypeTable) Option {
	return func(p *Persister) {
		p.types = tt
	}
}

func WithMaxDepth(n int) Option {
	return func(p *Persister) {
		if n > 0 {
			p.maxDepth = n
		}
	}
}

func WithMaxBlobSize(n int64) Option {
	return func(p *Persister) {
		if n > 0 {
			p.maxBlobSize = n
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(p *Persister) {
		if c != nil {
			p.client = c
		}
	}
}

// WithFetchLimit caps the response body size Fetch accepts.
func WithFetchLimit(n int64) Option {
	return func(p *Persister) {
		if n > 0 {
			p.fetchLimit = n
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(p *Persister) {
		if ua != "" {
			p.userAgent = ua
		}
	}
}

func New(opts ...Option) *Persister {
	p := &Persister{
		logger:      log.Nop(),
		registry:    registry.Default(),
		client:      &http.Client{Timeout: DefaultFetchTimeout},
		maxDepth:    codec.DefaultMaxDepth,
		maxBlobSize: DefaultMaxBlobSize,
		fetchLimit:  DefaultFetchLimit,
		userAgent:   DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.encoder = codec.NewEncoder(codec.WithEncoderLogger(p.logger))
	return p
}

func (p *Persister) Logger() log.Log { return p.logger }

func (p *Persister) Registry() *registry.Registry { return p.registry }

type loadOptions struct {
	trusted bool
}

type LoadOption func(*loadOptions)

// Trusted disables the allow-list for one load. Types outside it are logged
// as cautions and built from the type table or returned as *Opaque.
// Only use it on blobs you produced yourself.
func Trusted() LoadOption {
	return func(o *loadOptions) {
		o.trusted = true
	}
}

func (p *Persister) decoder(opts []LoadOption) *codec.Decoder {
	var lo loadOptions
	for _, opt := range opts {
		opt(&lo)
	}
	return codec.NewDecoder(p.registry,
		codec.WithTrusted(lo.trusted),
		codec.WithTypes(p.types),
		codec.WithLogger(p.logger),
		codec.WithMaxDepth(p.maxDepth))
}

// CanSave reports whether v can be saved. A refusal is logged with the
// offending type and path.
func (p *Persister) CanSave(v any) bool {
	err := value.Check(v)
	if err == nil {
		return true
	}
	p.logger.Info("Value cannot be saved", log.String("type", fmt.Sprintf("%T", v)), log.Error(err))
	return false
}

func (p *Persister) Encode(b *value.Bundle) ([]byte, error) {
	return p.encoder.Encode(b)
}

// EncodeUnchecked skips the value classifier. The result may hold arbitrary
// Go types that a gated load rejects.
func (p *Persister) EncodeUnchecked(b *value.Bundle) ([]byte, error) {
	return p.encoder.EncodeUnchecked(b)
}

// Decode returns the stored bundle, including the reserved names entry.
func (p *Persister) Decode(blob []byte, opts ...LoadOption) (*value.Bundle, error) {
	if int64(len(blob)) > p.maxBlobSize {
		return nil, codec.NewDecodeError(fmt.Sprintf("blob of %d bytes exceeds the %d byte limit", len(blob), p.maxBlobSize), nil)
	}
	return p.decoder(opts).Decode(blob)
}

// Save writes b to path. Nothing is written unless every entry validates.
func (p *Persister) Save(path string, b *value.Bundle) error {
	blob, err := p.Encode(b)
	if err != nil {
		return err
	}
	return p.write(path, blob, b)
}

// SaveDict saves m with its keys in sorted order.
func (p *Persister) SaveDict(path string, m map[string]any) error {
	return p.Save(path, bundleFromMap(m))
}

// SaveUnchecked writes b without classifying its values.
func (p *Persister) SaveUnchecked(path string, b *value.Bundle) error {
	blob, err := p.EncodeUnchecked(b)
	if err != nil {
		return err
	}
	return p.write(path, blob, b)
}

// Load reads path and projects it into a record.
func (p *Persister) Load(path string, opts ...LoadOption) (*record.Record, error) {
	b, err := p.loadBundle(path, opts)
	if err != nil {
		return nil, err
	}
	return record.Project(b)
}

// LoadDict reads path into a bundle without the reserved names entry.
func (p *Persister) LoadDict(path string, opts ...LoadOption) (*value.Bundle, error) {
	b, err := p.loadBundle(path, opts)
	if err != nil {
		return nil, err
	}
	b.Delete(value.NamesKey)
	return b, nil
}

func (p *Persister) loadBundle(path string, opts []LoadOption) (*value.Bundle, error) {
	blob, err := p.read(path)
	if err != nil {
		return nil, err
	}
	b, err := p.Decode(blob, opts...)
	if err != nil {
		p.logger.Warn("Load failed", log.String("path", path), log.Error(err))
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	p.logger.Debug("Loaded bundle", log.String("path", path), log.Int("size", len(blob)))
	return b, nil
}

func (p *Persister) read(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	blob, err := io.ReadAll(io.LimitReader(f, p.maxBlobSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return blob, nil
}

// write stores blob next to path under a temporary name and renames it into place.
func (p *Persister) write(path string, blob []byte, b *value.Bundle) error {
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}

	var names []string
	if b != nil {
		names = b.Names()
	}
	p.logger.Debug("Saved bundle",
		log.String("path", path),
		log.Strings("names", names),
		log.Int("size", len(blob)))
	return nil
}

func bundleFromMap(m map[string]any) *value.Bundle {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b := value.NewBundle()
	for _, k := range keys {
		b.Set(k, m[k])
	}
	return b
}

package codec

import (
	"fmt"

	"github.com/zeusync/ppersist/internal/core/observability/log"
	"github.com/zeusync/ppersist/internal/core/schema/registry"
	"github.com/zeusync/ppersist/pkg/value"
)

const DefaultMaxDepth = 256

// Decoder turns blobs back into bundles. In gated mode (the default) it refuses
// any blob that references a tag outside its registry before constructing anything.
type Decoder struct {
	registry *registry.Registry
	types    *TypeTable
	logger   log.Log
	trusted  bool
	maxDepth int
}

type DecoderOption func(*Decoder)

// WithTrusted switches off the allow-list. Tags outside it are logged as
// cautions and resolved through the type table, or kept as *Opaque.
// Never use it on input from an untrusted source.
func WithTrusted(trusted bool) DecoderOption {
	return func(d *Decoder) {
		d.trusted = trusted
	}
}

// WithTypes supplies the Go types trusted decoding may instantiate.
func WithTypes(tt *TypeTable) DecoderOption {
	return func(d *Decoder) {
		d.types = tt
	}
}

func WithLogger(l log.Log) DecoderOption {
	return func(d *Decoder) {
		if l != nil {
			d.logger = l
		}
	}
}

func WithMaxDepth(n int) DecoderOption {
	return func(d *Decoder) {
		if n > 0 {
			d.maxDepth = n
		}
	}
}

// NewDecoder creates a decoder gated by reg; a nil reg means registry.Default().
func NewDecoder(reg *registry.Registry, opts ...DecoderOption) *Decoder {
	if reg == nil {
		reg = registry.Default()
	}
	d := &Decoder{
		registry: reg,
		logger:   log.Nop(),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Decoder) Trusted() bool { return d.trusted }

// Decode parses blob, checks every tag against the registry and only then
// builds the values. The returned bundle keeps the stored key order and still
// holds the __names__ entry.
func (d *Decoder) Decode(blob []byte) (*value.Bundle, error) {
	body, err := unframe(blob)
	if err != nil {
		return nil, err
	}
	root, err := parseBody(body, d.maxDepth)
	if err != nil {
		return nil, err
	}
	if err := d.gate(root); err != nil {
		return nil, err
	}

	b := &builder{decoder: d}
	out := value.NewBundle()
	for i, key := range root.keys {
		v, err := b.build(root.items[i])
		if err != nil {
			return nil, err
		}
		if err := checkEscape(v, key); err != nil {
			return nil, err
		}
		out.Set(key, v)
	}

	d.logger.Debug("Decoded bundle",
		log.Strings("names", out.Names()),
		log.Bool("trusted", d.trusted),
		log.Int("body_size", len(body)))

	return out, nil
}

// gate checks tags in document order. Gated mode stops at the first
// disallowed tag; trusted mode logs each distinct one once.
func (d *Decoder) gate(root *node) error {
	cautioned := make(map[registry.Tag]struct{})
	return root.walk(func(n *node) error {
		if n.kind != kindGlobal || d.registry.IsAllowed(n.tag) {
			return nil
		}
		if !d.trusted {
			d.logger.Warn("Rejected blob", log.String("tag", n.tag.String()))
			return NewUnsafeTypeError(n.tag)
		}
		if _, seen := cautioned[n.tag]; !seen {
			cautioned[n.tag] = struct{}{}
			d.logger.Warn("Trusted decode constructs a type outside the allow-list",
				log.String("tag", n.tag.String()))
		}
		return nil
	})
}

// Tags lists the distinct tags a blob references, in first-seen order,
// without constructing anything.
func Tags(blob []byte) ([]registry.Tag, error) {
	body, err := unframe(blob)
	if err != nil {
		return nil, err
	}
	root, err := parseBody(body, DefaultMaxDepth)
	if err != nil {
		return nil, err
	}

	var tags []registry.Tag
	seen := make(map[registry.Tag]struct{})
	_ = root.walk(func(n *node) error {
		if n.kind != kindGlobal {
			return nil
		}
		if _, ok := seen[n.tag]; !ok {
			seen[n.tag] = struct{}{}
			tags = append(tags, n.tag)
		}
		return nil
	})
	return tags, nil
}

type builder struct {
	decoder *Decoder
}

func (b *builder) build(n *node) (any, error) {
	switch n.kind {
	case kindNone:
		return nil, nil
	case kindBool:
		return n.b, nil
	case kindInt:
		return int(n.i), nil
	case kindFloat:
		return n.f, nil
	case kindString:
		return n.s, nil
	case kindBytes:
		return n.raw, nil
	case kindList:
		return b.items(n)
	case kindTuple:
		items, err := b.items(n)
		if err != nil {
			return nil, err
		}
		return value.Tuple(items), nil
	case kindDict:
		out := make(map[string]any, len(n.keys))
		for i, key := range n.keys {
			v, err := b.build(n.items[i])
			if err != nil {
				return nil, err
			}
			out[key] = v
		}
		return out, nil
	case kindGlobal:
		return b.resolve(n.tag)
	case kindReduce:
		return b.reduce(n)
	default:
		return nil, decodeErrorf("unknown node kind %d", n.kind)
	}
}

func (b *builder) items(n *node) ([]any, error) {
	out := make([]any, len(n.items))
	for i, child := range n.items {
		v, err := b.build(child)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (b *builder) reduce(n *node) (any, error) {
	callable, err := b.build(n.items[0])
	if err != nil {
		return nil, err
	}
	cls, ok := callable.(*class)
	if !ok {
		return nil, decodeErrorf("reduce target is %T, want a class", callable)
	}
	args, err := b.items(n.items[1])
	if err != nil {
		return nil, err
	}
	v, err := cls.call(args, nil)
	if err != nil {
		return nil, NewDecodeError("construct "+cls.tag.String(), err)
	}
	return v, nil
}

// resolve binds a tag that already passed the gate to a constructor.
func (b *builder) resolve(tag registry.Tag) (*class, error) {
	if ctor, ok := constructors[tag]; ok {
		if b.decoder.trusted || b.decoder.registry.IsAllowed(tag) {
			return &class{tag: tag, call: ctor}, nil
		}
	}
	if !b.decoder.trusted {
		if b.decoder.registry.IsAllowed(tag) {
			return nil, decodeErrorf("no constructor for allowed tag %s", tag)
		}
		return nil, NewUnsafeTypeError(tag)
	}

	if t, ok := b.decoder.types.lookup(tag); ok {
		return &class{tag: tag, call: func(args []any, _ map[string]any) (any, error) {
			return instantiate(t, args)
		}}, nil
	}
	return &class{tag: tag, call: func(args []any, _ map[string]any) (any, error) {
		return &Opaque{Tag: tag, Args: args}, nil
	}}, nil
}

// checkEscape rejects constructor-only values that ended up in a value position.
func checkEscape(v any, path string) error {
	if isInternal(v) {
		return decodeErrorf("%s holds a bare %T", path, v)
	}
	switch x := v.(type) {
	case []any:
		return escapeItems(x, path)
	case value.Tuple:
		return escapeItems(x, path)
	case map[string]any:
		for k, item := range x {
			if err := checkEscape(item, path+"."+k); err != nil {
				return err
			}
		}
	case *value.Array:
		if x.DType() == value.Object {
			return escapeItems(x.Items(), path)
		}
	case *Opaque:
		return escapeItems(x.Args, path+"("+x.Tag.String()+")")
	}
	return nil
}

func escapeItems(items []any, path string) error {
	for i, item := range items {
		if err := checkEscape(item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

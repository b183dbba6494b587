package codec

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/zeusync/ppersist/internal/core/schema/registry"
)

// node is one parsed body item. Parsing never constructs anything beyond nodes.
type node struct {
	kind  kind
	b     bool
	i     int64
	f     float64
	s     string
	raw   []byte
	tag   registry.Tag
	keys  []string
	items []*node
}

type parser struct {
	rd       *bytes.Reader
	dec      *msgpack.Decoder
	maxDepth int
}

// parseBody parses the whole body into a tree rooted at a dict node.
func parseBody(body []byte, maxDepth int) (*node, error) {
	rd := bytes.NewReader(body)
	p := &parser{rd: rd, dec: msgpack.NewDecoder(rd), maxDepth: maxDepth}

	root, err := p.node(0)
	if err != nil {
		return nil, err
	}
	if root.kind != kindDict {
		return nil, decodeErrorf("top-level node is %s, want dict", root.kind)
	}
	if p.rd.Len() != 0 {
		return nil, decodeErrorf("%d trailing bytes after top-level node", p.rd.Len())
	}
	return root, nil
}

func (p *parser) node(depth int) (*node, error) {
	if depth > p.maxDepth {
		return nil, decodeErrorf("nesting deeper than %d", p.maxDepth)
	}

	k, err := p.dec.DecodeUint8()
	if err != nil {
		return nil, NewDecodeError("read node kind", err)
	}
	n := &node{kind: kind(k)}

	switch n.kind {
	case kindNone:
	case kindBool:
		n.b, err = p.dec.DecodeBool()
	case kindInt:
		n.i, err = p.dec.DecodeInt64()
	case kindFloat:
		n.f, err = p.dec.DecodeFloat64()
	case kindString:
		n.s, err = p.dec.DecodeString()
	case kindBytes:
		n.raw, err = p.dec.DecodeBytes()
		if err == nil && n.raw == nil {
			n.raw = []byte{}
		}
	case kindList, kindTuple:
		var count int
		if count, err = p.length(p.dec.DecodeArrayLen); err != nil {
			return nil, err
		}
		n.items = make([]*node, 0, count)
		for i := 0; i < count; i++ {
			child, err := p.node(depth + 1)
			if err != nil {
				return nil, err
			}
			n.items = append(n.items, child)
		}
	case kindDict:
		err = p.dict(n, depth)
	case kindGlobal:
		if n.tag.Namespace, err = p.dec.DecodeString(); err == nil {
			n.tag.Name, err = p.dec.DecodeString()
		}
	case kindReduce:
		var callable, args *node
		if callable, err = p.node(depth + 1); err != nil {
			return nil, err
		}
		if args, err = p.node(depth + 1); err != nil {
			return nil, err
		}
		if args.kind != kindTuple {
			return nil, decodeErrorf("reduce arguments are %s, want tuple", args.kind)
		}
		n.items = []*node{callable, args}
	default:
		return nil, decodeErrorf("unknown node kind %d", k)
	}

	if err != nil {
		if _, ok := err.(*Error); ok {
			return nil, err
		}
		return nil, NewDecodeError("read "+n.kind.String()+" node", err)
	}
	return n, nil
}

func (p *parser) dict(n *node, depth int) error {
	count, err := p.length(p.dec.DecodeMapLen)
	if err != nil {
		return err
	}
	n.keys = make([]string, 0, count)
	n.items = make([]*node, 0, count)
	seen := make(map[string]struct{}, count)
	for i := 0; i < count; i++ {
		key, err := p.dec.DecodeString()
		if err != nil {
			return NewDecodeError("read dict key", err)
		}
		if _, dup := seen[key]; dup {
			return decodeErrorf("duplicate dict key %q", key)
		}
		seen[key] = struct{}{}
		child, err := p.node(depth + 1)
		if err != nil {
			return err
		}
		n.keys = append(n.keys, key)
		n.items = append(n.items, child)
	}
	return nil
}

// length reads a container length and bounds it by the bytes left, since every
// element takes at least one byte.
func (p *parser) length(read func() (int, error)) (int, error) {
	count, err := read()
	if err != nil {
		return 0, NewDecodeError("read container length", err)
	}
	if count < 0 {
		return 0, decodeErrorf("nil container")
	}
	if count > p.rd.Len() {
		return 0, decodeErrorf("container of %d elements exceeds the %d bytes left", count, p.rd.Len())
	}
	return count, nil
}

// walk visits n and its descendants in document order, stopping at the first error.
func (n *node) walk(visit func(*node) error) error {
	if err := visit(n); err != nil {
		return err
	}
	for _, child := range n.items {
		if err := child.walk(visit); err != nil {
			return err
		}
	}
	return nil
}

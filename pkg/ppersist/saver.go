package ppersist

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/zeusync/ppersist/internal/core/codec"
	"github.com/zeusync/ppersist/internal/core/observability/log"
	"github.com/zeusync/ppersist/pkg/value"
)

type saverState uint8

const (
	saverNew saverState = iota
	saverOpen
	saverClosed
)

func (s saverState) String() string {
	switch s {
	case saverNew:
		return "new"
	case saverOpen:
		return "open"
	default:
		return "closed"
	}
}

// Saver accumulates named values and writes them to one file on Close.
// Each Save validates its value immediately. Saver is safe for concurrent use.
type Saver struct {
	p    *Persister
	path string
	id   uuid.UUID

	mu     sync.Mutex
	state  saverState
	bundle *value.Bundle
}

func (p *Persister) NewSaver(path string) *Saver {
	return &Saver{p: p, path: path, id: uuid.New(), bundle: value.NewBundle()}
}

func (s *Saver) ID() uuid.UUID { return s.id }

func (s *Saver) Path() string { return s.path }

func (s *Saver) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != saverNew {
		return codec.NewSessionStateError("open a " + s.state.String() + " saver")
	}
	s.state = saverOpen
	s.p.logger.Debug("Saver opened", log.String("session", s.id.String()), log.String("path", s.path))
	return nil
}

// Save records v under name, replacing an earlier value of the same name.
func (s *Saver) Save(name string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != saverOpen {
		return codec.NewSessionStateError("save to a " + s.state.String() + " saver")
	}
	if !value.ValidName(name) {
		return codec.NewValidationError(name, "invalid name", nil)
	}
	if name == value.NamesKey {
		return codec.NewValidationError(name, "reserved name", nil)
	}
	if err := value.Check(v); err != nil {
		return codec.NewValidationError(name, "unsupported value", err)
	}
	s.bundle.Set(name, v)
	return nil
}

// Close writes the accumulated values once. The saver is closed even when
// the write fails.
func (s *Saver) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != saverOpen {
		return codec.NewSessionStateError("close a " + s.state.String() + " saver")
	}
	s.state = saverClosed
	return s.p.Save(s.path, s.bundle)
}

// abort closes the saver without writing.
func (s *Saver) abort() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = saverClosed
	s.p.logger.Debug("Saver aborted", log.String("session", s.id.String()), log.String("path", s.path))
}

// WithSaver opens a saver on path, runs fn and closes it. If fn fails,
// nothing is written and fn's error is returned.
func (p *Persister) WithSaver(path string, fn func(*Saver) error) error {
	s := p.NewSaver(path)
	if err := s.Open(); err != nil {
		return err
	}
	if err := fn(s); err != nil {
		s.abort()
		return err
	}
	if err := s.Close(); err != nil && !errors.Is(err, codec.ErrSessionState) {
		return err
	}
	return nil
}

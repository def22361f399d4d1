package entity

import (
	"context"
	"log/slog"
	"sync"

	"github.com/specialistvlad/osgraph/internal/entityid"
	"github.com/specialistvlad/osgraph/internal/store"
	"github.com/specialistvlad/osgraph/internal/writer"
)

// Factory creates fresh, zero-valued instances of registered entity types by
// class name. registry.Registry implements it.
type Factory interface {
	New(class string) (any, bool)
}

// Session binds entities to a persistence port. All entities created through,
// or loaded from, a session persist through it.
type Session struct {
	store  store.Store
	writer *writer.Writer
	types  Factory
	logger *slog.Logger

	writerCfg writer.Config

	// rootMu guards the read-then-create sequence of GetRoot.
	rootMu sync.Mutex
	// edgeLocks serializes edge list updates per node id across every
	// in-memory copy of that node.
	edgeLocks keyedMutex
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the logger used by the session and its writer.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// WithWriterConfig tunes the session's background writer.
func WithWriterConfig(cfg writer.Config) SessionOption {
	return func(s *Session) { s.writerCfg = cfg }
}

// NewSession creates a session over st. types may be nil when only the
// built-in root node is ever loaded.
func NewSession(st store.Store, types Factory, opts ...SessionOption) *Session {
	s := &Session{
		store:     st,
		types:     types,
		logger:    slog.Default(),
		writerCfg: writer.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.writer = writer.New(st, s.writerCfg, s.logger)
	return s
}

// Store returns the session's persistence port.
func (s *Session) Store() store.Store { return s.store }

// Logger returns the session logger.
func (s *Session) Logger() *slog.Logger { return s.logger }

// Flush waits until every snapshot enqueued before the call has been written
// and returns the first background write error since the previous flush.
func (s *Session) Flush(ctx context.Context) error {
	return s.writer.Flush(ctx)
}

// Close flushes and stops the background writer. The store itself is owned
// by the caller and is left open.
func (s *Session) Close(ctx context.Context) error {
	return s.writer.Close(ctx)
}

func (s *Session) newInstance(class string) (Entity, error) {
	if class == entityid.RootClass {
		return &Root{}, nil
	}
	if s.types == nil {
		return nil, ErrUnknownType
	}
	v, ok := s.types.New(class)
	if !ok {
		return nil, ErrUnknownType
	}
	ent, ok := v.(Entity)
	if !ok {
		return nil, ErrUnknownType
	}
	return ent, nil
}

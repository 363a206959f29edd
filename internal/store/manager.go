package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/roach88/rolodex/internal/contact"
)

// Manager hands out one shared Store per database name.
//
// Concurrent opens of the same name share a single attempt: the first caller
// opens and migrates, the rest wait for its result. A successful handle is
// cached and returned to every later caller without touching the schema
// again. A failed attempt is reported to everyone who waited on it and is
// not cached, so the next Open tries again.
type Manager struct {
	dir  string
	opts Options

	group singleflight.Group

	mu     sync.Mutex
	stores map[string]*Store
}

// NewManager returns a Manager that keeps databases under dir.
// opts.SchemaVersion is ignored; each Open names its version.
func NewManager(dir string, opts Options) *Manager {
	return &Manager{
		dir:    dir,
		opts:   opts,
		stores: make(map[string]*Store),
	}
}

// Path returns the file used for the named database.
func (m *Manager) Path(name string) string {
	return filepath.Join(m.dir, name+".db")
}

// Open returns the Store for name at version, opening and migrating it on
// first use. A version of zero means CurrentSchemaVersion.
func (m *Manager) Open(ctx context.Context, name string, version int) (*Store, error) {
	if name == "" {
		return nil, contact.Errorf(contact.InvalidArgument, "open", "empty database name")
	}
	if version == 0 {
		version = CurrentSchemaVersion
	}

	if s, ok := m.cached(name); ok {
		return checkVersion(s, version)
	}

	ch := m.group.DoChan(name, func() (any, error) {
		if s, ok := m.cached(name); ok {
			return s, nil
		}
		if err := os.MkdirAll(m.dir, 0o755); err != nil {
			return nil, classify("open", fmt.Errorf("create data dir: %w", err))
		}
		opts := m.opts
		opts.SchemaVersion = version
		// The open outlives any single waiter.
		s, err := Open(context.WithoutCancel(ctx), m.Path(name), opts)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.stores[name] = s
		m.mu.Unlock()
		return s, nil
	})

	select {
	case <-ctx.Done():
		return nil, contact.E(contact.Timeout, "open", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return checkVersion(res.Val.(*Store), version)
	}
}

func (m *Manager) cached(name string) (*Store, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stores[name]
	return s, ok
}

// checkVersion rejects a cached handle opened at a different version.
func checkVersion(s *Store, version int) (*Store, error) {
	if s.Version() != version {
		return nil, contact.Errorf(contact.NotSupported, "open",
			"%s is open at schema version %d, not %d", filepath.Base(s.Path()), s.Version(), version)
	}
	return s, nil
}

// Close closes every cached store.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var firstErr error
	for name, s := range m.stores {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s: %w", name, err)
		}
		delete(m.stores, name)
	}
	return firstErr
}

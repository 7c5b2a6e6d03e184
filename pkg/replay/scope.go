package replay

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// ScopeOptions controls how a scope coexists with active ones.
type ScopeOptions struct {
	// Name labels the scope in logs and errors, usually the test name.
	Name string
	// Isolated lets the scope nest inside an active one. The outer scope is
	// suspended until this one exits.
	Isolated bool
	// SharedArchive lets the scope use an archive file already used by an
	// active scope. The last scope to exit wins.
	SharedArchive bool
}

// Manager tracks the active scopes of one execution context.
type Manager struct {
	global *Global

	mu     sync.Mutex
	active []*Scope
}

// DefaultManager installs scopes into http.DefaultTransport.
var DefaultManager = NewManager(DefaultGlobal)

// NewManager returns a manager installing scopes through g.
func NewManager(g *Global) *Manager {
	return &Manager{global: g}
}

// Scope is one active engine and its global installation.
type Scope struct {
	ID   string
	Name string

	m       *Manager
	engine  *Engine
	inst    *Installation
	archive string
	log     *slog.Logger

	exited  bool
	exitErr error
}

// Enter builds an engine for cfg and installs it as the process-wide
// transport. When cfg.Transport is nil, recording uses the transport that
// was in place before any scope of this manager was entered.
func (m *Manager) Enter(cfg Config, opts ScopeOptions) (*Scope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	name := opts.Name
	if name == "" {
		name = id
	}

	if n := len(m.active); n > 0 && !opts.Isolated {
		return nil, &ScopeConflictError{Active: m.active[n-1].Name}
	}

	var archive string
	if file, ok := cfg.Source.(*FileSource); ok {
		archive = file.absPath()
		for _, s := range m.active {
			if s.archive == archive && !opts.SharedArchive {
				return nil, &ScopeConflictError{Active: s.Name, Archive: file.Path}
			}
		}
	}

	if cfg.Transport == nil {
		cfg.Transport = m.global.base()
	}
	engine, err := New(cfg)
	if err != nil {
		return nil, err
	}

	s := &Scope{
		ID:      id,
		Name:    name,
		m:       m,
		engine:  engine,
		archive: archive,
		log:     engine.log.With("scope", name),
	}
	s.inst = m.global.Install(engine.Transport())
	m.active = append(m.active, s)

	s.log.Debug("scope entered", "id", id, "depth", len(m.active))
	return s, nil
}

// Active returns the innermost active scope, or nil.
func (m *Manager) Active() *Scope {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n := len(m.active); n > 0 {
		return m.active[n-1]
	}
	return nil
}

// Engine returns the scope's engine.
func (s *Scope) Engine() *Engine { return s.engine }

// Client returns a wrapper client served by the scope's engine.
func (s *Scope) Client() *Client { return NewClient(s.engine) }

// Exit uninstalls the scope, resumes the enclosing one and persists what was
// recorded. Scopes may exit in any order; a scope left while a later one is
// still active is removed from under it. Later calls return the result of the
// first one.
func (s *Scope) Exit() error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.exited {
		return s.exitErr
	}
	s.exited = true
	m.active = slices.DeleteFunc(m.active, func(a *Scope) bool { return a == s })
	s.inst.Uninstall()
	s.exitErr = s.engine.Close()
	s.log.Debug("scope exited", "id", s.ID, "depth", len(m.active))
	return s.exitErr
}

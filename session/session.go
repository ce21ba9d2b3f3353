package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/personamesh/affect"
	"github.com/hupe1980/personamesh/config"
	"github.com/hupe1980/personamesh/consolidate"
	"github.com/hupe1980/personamesh/core"
	"github.com/hupe1980/personamesh/drive"
	"github.com/hupe1980/personamesh/fusion"
	"github.com/hupe1980/personamesh/identity"
	"github.com/hupe1980/personamesh/logging"
	"github.com/hupe1980/personamesh/memory"
	"github.com/hupe1980/personamesh/router"
)

// StoreOpener opens the persistence boundary for one session. The returned
// close func is invoked when the session ends. Both stores may be backed by
// the same handle (memory/sqlite implements both interfaces).
type StoreOpener func(sessionID string) (core.RecordStore, core.CanonStore, func() error, error)

// Options configures a Manager using the functional options pattern.
type Options struct {
	// Config supplies tunables for every component. Defaults to
	// config.Default() if the zero value is passed.
	Config config.Config

	// Logger provides structured logging. Defaults to NoOp if nil.
	Logger logging.Logger

	// UserID identifies the conversation partner for relationship lines.
	UserID string

	// Now overrides the clock for all sessions. Defaults to time.Now in UTC.
	Now func() time.Time

	// StoreOpener attaches a persistent store per session. Nil means
	// sessions are purely in-memory.
	StoreOpener StoreOpener
}

// Session bundles one conversation's component stack. All state is private
// to the session; concurrent turns are serialized by the router.
type Session struct {
	ID        string
	CreatedAt time.Time

	router *router.Router
	ledger *identity.Ledger
	mem    *memory.Store
	canon  core.CanonStore
	closer func() error
}

// SetFact records a canon fact and writes it through to the session store
// when one is attached.
func (s *Session) SetFact(ctx context.Context, key, value string, lock bool) error {
	if err := s.ledger.SetFact(key, value, lock); err != nil {
		return err
	}
	if s.canon != nil {
		return s.ledger.SyncTo(ctx, s.canon)
	}
	return nil
}

// ProcessTurn runs one turn through the session's router.
func (s *Session) ProcessTurn(ctx context.Context, ev core.Event) (core.ContextBundle, error) {
	return s.router.ProcessTurn(ctx, ev)
}

// Sleep runs an end-of-session consolidation without ending the session.
func (s *Session) Sleep(ctx context.Context) (consolidate.Result, error) {
	return s.router.Sleep(ctx)
}

// Introspect reports the session's component state.
func (s *Session) Introspect() router.Diagnostics {
	return s.router.Introspect()
}

// Ledger exposes the session's identity ledger for canon management.
func (s *Session) Ledger() *identity.Ledger { return s.ledger }

// Memory exposes the session's memory store for inspection.
func (s *Session) Memory() *memory.Store { return s.mem }

// Manager owns the live sessions of a process. It is safe for concurrent
// access; each session's components are created exactly once and never
// shared with another session.
type Manager struct {
	mu       sync.Mutex
	opts     Options
	sessions map[string]*Session
}

// NewManager constructs a Manager with optional overrides.
func NewManager(optFns ...func(o *Options)) *Manager {
	opts := Options{
		Config: config.Default(),
		Logger: logging.NoOpLogger{},
		UserID: "user",
		Now:    func() time.Time { return time.Now().UTC() },
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Config == (config.Config{}) {
		opts.Config = config.Default()
	}
	return &Manager{opts: opts, sessions: make(map[string]*Session)}
}

// WithConfig overrides the component configuration.
func WithConfig(cfg config.Config) func(o *Options) {
	return func(o *Options) { o.Config = cfg }
}

// WithLogger sets the manager logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithUserID sets the conversation partner id used in relationship lines.
func WithUserID(id string) func(o *Options) {
	return func(o *Options) { o.UserID = id }
}

// WithClock overrides the clock for all sessions.
func WithClock(now func() time.Time) func(o *Options) {
	return func(o *Options) { o.Now = now }
}

// WithStoreOpener attaches per-session persistent storage.
func WithStoreOpener(open StoreOpener) func(o *Options) {
	return func(o *Options) { o.StoreOpener = open }
}

// Get returns an existing session or creates a new one lazily.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[sessionID]; ok {
		return sess, nil
	}
	return m.createLocked(ctx, sessionID)
}

// Create forces the creation of a session with the given id. It fails if the
// session already exists.
func (m *Manager) Create(ctx context.Context, sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; ok {
		return nil, fmt.Errorf("session %q already exists", sessionID)
	}
	return m.createLocked(ctx, sessionID)
}

// End flushes the session through a final consolidation pass, closes its
// store and removes it from the manager.
func (m *Manager) End(ctx context.Context, sessionID string) (consolidate.Result, error) {
	m.mu.Lock()
	sess, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()
	if !ok {
		return consolidate.Result{}, fmt.Errorf("unknown session %q", sessionID)
	}

	res, err := sess.router.Sleep(ctx)
	if sess.closer != nil {
		if cerr := sess.closer(); cerr != nil && err == nil {
			err = fmt.Errorf("close session store: %w", cerr)
		}
	}
	return res, err
}

// Sessions returns the ids of all live sessions, sorted.
func (m *Manager) Sessions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// createLocked wires a fresh component stack; caller must hold the lock.
func (m *Manager) createLocked(ctx context.Context, sessionID string) (*Session, error) {
	cfg := m.opts.Config

	var (
		records core.RecordStore
		canon   core.CanonStore
		closer  func() error
	)
	if m.opts.StoreOpener != nil {
		var err error
		records, canon, closer, err = m.opts.StoreOpener(sessionID)
		if err != nil {
			return nil, fmt.Errorf("open session store: %w", err)
		}
	}

	ledger := identity.NewLedger(cfg.Fusion.LineLimit)
	if canon != nil {
		if err := ledger.LoadFrom(ctx, canon); err != nil {
			return nil, fmt.Errorf("load canon facts: %w", err)
		}
	}

	mem := memory.NewStore(cfg.Memory)
	if records != nil {
		if err := mem.LoadFrom(ctx, records); err != nil {
			return nil, fmt.Errorf("load records: %w", err)
		}
	}

	schedOpts := []func(o *consolidate.Options){consolidate.WithLogger(m.opts.Logger)}
	if records != nil {
		schedOpts = append(schedOpts, consolidate.WithRecordStore(records))
	}
	sched := consolidate.New(mem, cfg.Consolidation, schedOpts...)

	r := router.New(
		cfg.Router,
		affect.NewState(cfg.Affect),
		drive.NewEngine(cfg.Drive),
		ledger,
		mem,
		sched,
		fusion.NewComposer(cfg.Fusion, ledger, fusion.WithLogger(m.opts.Logger)),
		router.WithLogger(m.opts.Logger),
		router.WithUserID(m.opts.UserID),
		router.WithClock(m.opts.Now),
	)

	sess := &Session{
		ID:        sessionID,
		CreatedAt: m.opts.Now(),
		router:    r,
		ledger:    ledger,
		mem:       mem,
		canon:     canon,
		closer:    closer,
	}
	m.sessions[sessionID] = sess
	return sess, nil
}

// Package personamesh provides a high-level façade over the session Manager
// and the retention components (affect, drives, identity, memory, fusion)
// enabling rapid construction of long-running companion agents. Most
// applications interact with this package by:
//  1. Creating a PersonaMesh via New() (optionally attaching a persistent
//     store and a text-generation backend)
//  2. Feeding turns via ProcessTurn, or Respond to also generate a reply
//  3. Ending sessions (EndSession) to flush memory through consolidation
//
// The façade delegates sequencing to router.Router per session while keeping
// setup and usage ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply a sqlite
// store, a real backend and a structured logger.
package personamesh

import (
	"context"

	"github.com/hupe1980/personamesh/config"
	"github.com/hupe1980/personamesh/consolidate"
	"github.com/hupe1980/personamesh/core"
	"github.com/hupe1980/personamesh/logging"
	"github.com/hupe1980/personamesh/model"
	"github.com/hupe1980/personamesh/router"
	"github.com/hupe1980/personamesh/session"
)

// Version of the module. Bumped manually on release.
const Version = "0.1.0"

// Options configures the PersonaMesh instance.
type Options struct {
	// Config supplies tunables for every component.
	Config config.Config

	// Backend generates replies in Respond. Nil disables Respond.
	Backend model.Backend

	// StoreOpener attaches per-session persistent storage.
	StoreOpener session.StoreOpener

	// UserID identifies the conversation partner for relationship lines.
	UserID string

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// PersonaMesh is the high-level façade aggregating the session manager and
// the optional generation backend.
type PersonaMesh struct {
	opts    Options
	manager *session.Manager
}

// New creates a new PersonaMesh instance with optional overrides.
func New(optFns ...func(o *Options)) *PersonaMesh {
	opts := Options{
		Config: config.Default(),
		UserID: "user",
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	m := session.NewManager(
		session.WithConfig(opts.Config),
		session.WithLogger(opts.Logger),
		session.WithUserID(opts.UserID),
		session.WithStoreOpener(opts.StoreOpener),
	)

	return &PersonaMesh{opts: opts, manager: m}
}

// Session returns (creating if needed) the session with the given id.
func (p *PersonaMesh) Session(ctx context.Context, sessionID string) (*session.Session, error) {
	return p.manager.Get(ctx, sessionID)
}

// ProcessTurn feeds one event through the session's retention pipeline and
// returns the fused context bundle.
func (p *PersonaMesh) ProcessTurn(ctx context.Context, sessionID string, ev core.Event) (core.ContextBundle, error) {
	sess, err := p.manager.Get(ctx, sessionID)
	if err != nil {
		return core.ContextBundle{}, err
	}
	return sess.ProcessTurn(ctx, ev)
}

// Respond processes the turn and generates a reply with the configured
// backend, injecting the fused bundle as the system prompt.
func (p *PersonaMesh) Respond(
	ctx context.Context,
	sessionID string,
	ev core.Event,
	prompt string,
) (string, core.ContextBundle, error) {
	if p.opts.Backend == nil {
		return "", core.ContextBundle{}, core.ErrNoBackend
	}
	bundle, err := p.ProcessTurn(ctx, sessionID, ev)
	if err != nil {
		return "", core.ContextBundle{}, err
	}
	resp, err := p.opts.Backend.Generate(ctx, model.Request{
		System: bundle.Render(),
		Prompt: prompt,
	})
	if err != nil {
		return "", bundle, err
	}
	return resp.Text, bundle, nil
}

// EndSession flushes the session and removes it.
func (p *PersonaMesh) EndSession(ctx context.Context, sessionID string) (consolidate.Result, error) {
	return p.manager.End(ctx, sessionID)
}

// Introspect reports the component state of a session.
func (p *PersonaMesh) Introspect(ctx context.Context, sessionID string) (router.Diagnostics, error) {
	sess, err := p.manager.Get(ctx, sessionID)
	if err != nil {
		return router.Diagnostics{}, err
	}
	return sess.Introspect(), nil
}

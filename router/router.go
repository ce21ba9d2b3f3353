package router

import (
	"context"
	"fmt"
	"strings"
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
)

// State of the turn-processing machine.
type State int

const (
	// StateIdle means no turn is in flight.
	StateIdle State = iota
	// StateProcessing means a turn is being processed.
	StateProcessing
	// StateConsolidating means a consolidation cycle holds the session.
	StateConsolidating
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProcessing:
		return "processing"
	case StateConsolidating:
		return "consolidating"
	default:
		return "unknown"
	}
}

// trendWindow bounds how many recent records feed the continuity trend.
const trendWindow = 5

// Diagnostics is the synchronous introspection view for external test and
// debug tooling.
type Diagnostics struct {
	State       string                `json:"state"`
	Affect      core.AffectSnapshot   `json:"affect"`
	Drives      core.DriveSnapshot    `json:"drives"`
	ShortTerm   []core.ShortTermEntry `json:"short_term"`
	RecordCount int                   `json:"record_count"`
	QueueDepth  int                   `json:"queue_depth"`
}

// Options configures a Router.
type Options struct {
	// Logger for turn reporting. Defaults to NoOp.
	Logger logging.Logger

	// UserID identifies the conversation partner for relationship lines.
	UserID string

	// Now overrides the clock, used by Sleep and tests. Defaults to
	// time.Now in UTC.
	Now func() time.Time
}

// Router drives the turn state machine for exactly one agent session. All
// component state it touches belongs to that session; nothing is shared
// across routers.
type Router struct {
	mu      sync.Mutex
	cond    *sync.Cond
	state   State
	next    uint64
	serving uint64

	affect   *affect.State
	drives   *drive.Engine
	identity *identity.Ledger
	mem      *memory.Store
	sched    *consolidate.Scheduler
	composer *fusion.Composer

	cfg         config.RouterConfig
	opts        Options
	lastEventAt time.Time
}

// New wires a router over the session's components.
func New(
	cfg config.RouterConfig,
	affectState *affect.State,
	drives *drive.Engine,
	ledger *identity.Ledger,
	mem *memory.Store,
	sched *consolidate.Scheduler,
	composer *fusion.Composer,
	optFns ...func(o *Options),
) *Router {
	opts := Options{Logger: logging.NoOpLogger{}, UserID: "user", Now: func() time.Time { return time.Now().UTC() }}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	r := &Router{
		affect:   affectState,
		drives:   drives,
		identity: ledger,
		mem:      mem,
		sched:    sched,
		composer: composer,
		cfg:      cfg,
		opts:     opts,
	}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// WithLogger sets the router logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithUserID sets the conversation partner identity.
func WithUserID(id string) func(o *Options) {
	return func(o *Options) { o.UserID = id }
}

// WithClock overrides the router clock.
func WithClock(now func() time.Time) func(o *Options) {
	return func(o *Options) { o.Now = now }
}

// State returns the current machine state.
func (r *Router) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// acquire takes a FIFO ticket and blocks until it is this caller's turn and
// the machine is idle. Returns an error when the waiting queue is full.
func (r *Router) acquire() (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if int(r.next-r.serving) >= r.cfg.QueueCapacity {
		return 0, fmt.Errorf("turn queue full (%d waiting)", r.next-r.serving)
	}
	ticket := r.next
	r.next++
	for r.serving != ticket || r.state != StateIdle {
		r.cond.Wait()
	}
	r.state = StateProcessing
	return ticket, nil
}

// release returns the machine to idle and admits the next ticket.
func (r *Router) release() {
	r.mu.Lock()
	r.state = StateIdle
	r.serving++
	r.cond.Broadcast()
	r.mu.Unlock()
}

// ProcessTurn runs one full interaction cycle for the event and returns the
// fused context bundle. Events arriving while another turn is in flight are
// processed strictly in arrival order. When ctx is cancelled after the memory
// append, the append stays and ErrTurnAborted is returned instead of a
// partial bundle.
func (r *Router) ProcessTurn(ctx context.Context, ev core.Event) (core.ContextBundle, error) {
	if _, err := r.acquire(); err != nil {
		return core.ContextBundle{}, err
	}
	defer r.release()

	start := time.Now()
	bundle, err := r.process(ctx, ev)

	if sl, ok := r.opts.Logger.(*logging.SessionLogger); ok {
		sl.LogTurn(ev.ID, time.Since(start), bundle.SizeInTokens, err)
	} else if err != nil {
		r.opts.Logger.Error("turn failed", "event_id", ev.ID, "error", err)
	} else {
		r.opts.Logger.Debug("turn completed", "event_id", ev.ID, "bundle_tokens", bundle.SizeInTokens)
	}
	return bundle, err
}

func (r *Router) process(ctx context.Context, ev core.Event) (core.ContextBundle, error) {
	elapsed := time.Duration(0)
	if !r.lastEventAt.IsZero() && ev.Timestamp.After(r.lastEventAt) {
		elapsed = ev.Timestamp.Sub(r.lastEventAt)
	}

	summary := summarize(ev)
	if guard := r.identity.Guard(summary); !guard.Consistent {
		r.opts.Logger.Warn("event conflicts with canon",
			"event_id", ev.ID, "fact", guard.Key, "error", guard.Err())
	}

	pre := r.affect.Snapshot()
	entry := core.ShortTermEntry{
		EventID:    ev.ID,
		Timestamp:  ev.Timestamp,
		Summary:    summary,
		Affect:     pre,
		Importance: importance(ev.AffectDelta, pre),
		Tags:       ev.TopicTags,
		Sensitive:  ev.Sensitive,
	}
	if err := r.mem.Append(entry); err != nil {
		return core.ContextBundle{}, fmt.Errorf("append short-term entry: %w", err)
	}

	if err := r.affect.Update(ev.AffectDelta, elapsed); err != nil {
		return core.ContextBundle{}, err
	}
	snap := r.affect.Snapshot()
	r.drives.Update(elapsed, snap, r.mem.Trend(trendWindow))

	if r.mem.HasPending() || (r.cfg.IdleThreshold > 0 && elapsed > r.cfg.IdleThreshold) {
		r.setState(StateConsolidating)
		if _, err := r.sched.RunCycle(ctx, ev.Timestamp); err != nil {
			r.opts.Logger.Warn("consolidation cycle failed", "error", err)
		}
		r.setState(StateProcessing)
	}

	r.lastEventAt = ev.Timestamp

	// The event is recorded either way; only bundle production aborts.
	if ctx.Err() != nil {
		return core.ContextBundle{}, fmt.Errorf("%w: %v", core.ErrTurnAborted, ctx.Err())
	}

	hits := r.mem.Query(ev.TopicTags, 3, ev.Timestamp)
	bundle := r.composer.Compose(snap, r.drives.Snapshot(), hits,
		r.identity.CoreLine(), r.identity.RelationshipLine(r.opts.UserID), 0)
	return bundle, nil
}

func (r *Router) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Sleep runs an end-of-session consolidation over the whole short-term
// window and lets the drives rest. It participates in the same FIFO as
// ProcessTurn, so queued events finish first.
func (r *Router) Sleep(ctx context.Context) (consolidate.Result, error) {
	if _, err := r.acquire(); err != nil {
		return consolidate.Result{}, err
	}
	defer r.release()

	r.setState(StateConsolidating)
	defer r.setState(StateProcessing)

	res, err := r.sched.Sleep(ctx, r.opts.Now())
	if err != nil {
		return res, err
	}
	r.drives.Rest()
	return res, nil
}

// Introspect returns the current component state for external debug tooling.
func (r *Router) Introspect() Diagnostics {
	r.mu.Lock()
	state := r.state
	depth := int(r.next - r.serving)
	r.mu.Unlock()

	return Diagnostics{
		State:       state.String(),
		Affect:      r.affect.Snapshot(),
		Drives:      r.drives.Snapshot(),
		ShortTerm:   r.mem.ShortTerm(),
		RecordCount: r.mem.RecordCount(),
		QueueDepth:  depth,
	}
}

// summarize derives a short-term summary from the event's tags and affect
// signal; the raw text stays behind its opaque handle.
func summarize(ev core.Event) string {
	emotion := ev.AffectDelta.Emotion
	if emotion == "" {
		emotion = "neutral"
	}
	if len(ev.TopicTags) == 0 {
		return fmt.Sprintf("an exchange (%s)", emotion)
	}
	return fmt.Sprintf("talked about %s (%s)", strings.Join(ev.TopicTags, ", "), emotion)
}

// importance blends the incoming signal with the carried emotional state,
// echoing how strongly the moment landed.
func importance(delta core.AffectDelta, snap core.AffectSnapshot) float64 {
	v := 0.6*delta.Intensity + 0.4*snap.Intensity
	if v > 1 {
		v = 1
	}
	if v < 0 {
		v = 0
	}
	return v
}

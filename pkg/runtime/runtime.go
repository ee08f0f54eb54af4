package runtime

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	werrors "github.com/vango-go/weft/internal/errors"
	"github.com/vango-go/weft/pkg/dom"
	"github.com/vango-go/weft/pkg/vdom"
)

// State is the scheduling state of a Runtime.
type State uint8

const (
	// Idle means no update is running and no render is scheduled.
	Idle State = iota

	// Queuing means an effect or update chain is executing. Dispatches
	// made now are queued and processed before the chain ends.
	Queuing

	// RenderPending means a render is scheduled for the next frame.
	RenderPending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Queuing:
		return "queuing"
	case RenderPending:
		return "render-pending"
	default:
		return "unknown"
	}
}

// Runtime runs one App: it feeds messages through Update, runs effects
// by tier and renders View into a Target. A Runtime and everything it
// touches belong to one goroutine, the one its Scheduler runs callbacks
// on.
type Runtime[Model, Msg any] struct {
	app    App[Model, Msg]
	target Target
	sched  Scheduler
	opts   options
	logger *slog.Logger

	model  Model
	tree   *vdom.Node
	events *vdom.Events

	queuing   bool
	queue     []Msg
	immediate bool
	dirty     bool

	framePending bool
	frame        FrameHandle
	paintFrames  map[FrameHandle]struct{}

	beforePaint []func(Actions[Msg])
	afterPaint  []func(Actions[Msg])

	contexts map[string]*contextEntry
	listener dom.ListenerID

	started bool
	closed  bool
}

// New creates a runtime rendering into target. Nothing runs until Start.
func New[Model, Msg any](app App[Model, Msg], target Target, sched Scheduler, opts ...Option) (*Runtime[Model, Msg], error) {
	if app.Init == nil || app.Update == nil || app.View == nil {
		return nil, werrors.New("E104").Wrap(ErrNilApp)
	}
	if target == nil || sched == nil {
		return nil, errors.New("runtime: target and scheduler are required")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Runtime[Model, Msg]{
		app:         app,
		target:      target,
		sched:       sched,
		opts:        o,
		logger:      o.logger.With("runtime", o.name),
		events:      vdom.NewEvents(),
		paintFrames: make(map[FrameHandle]struct{}),
		contexts:    make(map[string]*contextEntry),
	}, nil
}

// Start runs Init and renders the first view synchronously. Messages
// dispatched before Start are processed after Init's effects.
func (r *Runtime[Model, Msg]) Start() error {
	if r.started {
		return werrors.New("E105").Wrap(ErrAlreadyStarted)
	}
	r.started = true
	if r.opts.root != nil {
		r.listener = r.opts.root.AddEventListener(ContextRequestEvent, r.answerContext)
	}

	model, effect := r.app.Init()
	r.model = model
	r.dirty = true
	r.immediate = true
	r.tick(effect)
	return nil
}

// Model returns the current model.
func (r *Runtime[Model, Msg]) Model() Model { return r.model }

// Tree returns the last rendered tree.
func (r *Runtime[Model, Msg]) Tree() *vdom.Node { return r.tree }

// Events returns the registry of the last render.
func (r *Runtime[Model, Msg]) Events() *vdom.Events { return r.events }

// State reports the scheduling state.
func (r *Runtime[Model, Msg]) State() State {
	switch {
	case r.queuing:
		return Queuing
	case r.framePending:
		return RenderPending
	default:
		return Idle
	}
}

// Dispatch implements Actions.
func (r *Runtime[Model, Msg]) Dispatch(msg Msg, immediate bool) {
	if r.closed {
		return
	}
	r.queue = append(r.queue, msg)
	if immediate {
		r.immediate = true
	}
	if r.queuing || !r.started {
		return
	}
	r.tick(None[Msg]())
}

// Emit implements Actions.
func (r *Runtime[Model, Msg]) Emit(name string, payload any) {
	if em, ok := r.target.(Emitter); ok {
		if err := em.Emit(name, payload); err != nil {
			r.logger.Error("emit failed", "event", name, "error", err)
		}
		return
	}
	if r.opts.root == nil {
		r.logger.Debug("emit without root", "event", name)
		return
	}
	ev := dom.NewEvent(name, true)
	ev.Detail = payload
	r.opts.root.DispatchEvent(ev)
}

// Root implements Actions.
func (r *Runtime[Model, Msg]) Root() *dom.Node { return r.opts.root }

// HandleEvent decodes an event fired at path and dispatches the message
// its handler produces. Events that fail to decode, have no handler or
// produce a message of the wrong type are dropped.
func (r *Runtime[Model, Msg]) HandleEvent(ev vdom.Event, path vdom.Path, name string, immediate bool) {
	if r.closed {
		return
	}
	v, err := r.events.Handle(path, name, ev)
	if err != nil {
		reason := "decode"
		if errors.Is(err, vdom.ErrNoHandler) {
			reason = "no_handler"
		}
		r.logger.Debug("event dropped", "path", path.String(), "event", name, "reason", reason, "error", err)
		r.opts.metrics.recordDropped(reason)
		return
	}
	msg, ok := v.(Msg)
	if !ok {
		r.logger.Warn("event dropped",
			"path", path.String(),
			"event", name,
			"error", werrors.New("E002").WithValue(v).Error(),
			"type", fmt.Sprintf("%T", v))
		r.opts.metrics.recordDropped("type")
		return
	}
	r.Dispatch(msg, immediate)
}

// Decide reports whether the handler for name at path would dispatch
// a message for ev. It is the reconciler's Decider.
func (r *Runtime[Model, Msg]) Decide(path vdom.Path, name string, ev vdom.Event) bool {
	v, err := r.events.Peek(path, name, ev)
	if err != nil {
		return false
	}
	_, ok := v.(Msg)
	return ok
}

// tick runs effect's synchronous effects and every message they queue,
// then renders or schedules a render.
func (r *Runtime[Model, Msg]) tick(effect Effect[Msg]) {
	if r.closed {
		return
	}
	r.queuing = true
	for {
		for _, f := range effect.synchronous {
			f(r)
		}
		r.beforePaint = append(r.beforePaint, effect.beforePaint...)
		r.afterPaint = append(r.afterPaint, effect.afterPaint...)

		if len(r.queue) == 0 {
			break
		}
		msg := r.queue[0]
		var zero Msg
		r.queue[0] = zero
		r.queue = r.queue[1:]
		effect = r.update(msg)
		r.dirty = true
	}
	r.queue = nil
	r.queuing = false

	if r.closed {
		return
	}
	if r.immediate {
		r.immediate = false
		if r.framePending {
			r.sched.CancelFrame(r.frame)
			r.framePending = false
		}
		r.render()
		return
	}
	if r.dirty && !r.framePending {
		r.framePending = true
		r.frame = r.sched.ScheduleFrame(func() {
			r.framePending = false
			r.render()
		})
	}
}

func (r *Runtime[Model, Msg]) update(msg Msg) Effect[Msg] {
	_, span := r.opts.tracer.Start(r.opts.ctx, "weft.update",
		trace.WithAttributes(attribute.String("weft.runtime", r.opts.name)))
	defer span.End()

	model, effect := r.app.Update(r.model, msg)
	r.model = model
	r.opts.metrics.recordUpdate()
	return effect
}

// render diffs a fresh view against the previous one, pushes the patch
// and schedules accumulated paint effects.
func (r *Runtime[Model, Msg]) render() {
	if r.closed {
		return
	}
	r.dirty = false
	start := time.Now()
	_, span := r.opts.tracer.Start(r.opts.ctx, "weft.render",
		trace.WithAttributes(attribute.String("weft.runtime", r.opts.name)))

	tree := r.app.View(r.model)
	if r.logger.Enabled(r.opts.ctx, slog.LevelDebug) {
		if keys := vdom.DuplicateKeys(tree); len(keys) > 0 {
			r.logger.Debug("duplicate keys treated as positional", "keys", keys)
		}
	}
	patch, events := vdom.Diff(r.events, r.tree, tree)
	r.tree, r.events = tree, events

	changes := patch.Count()
	if !patch.IsEmpty() {
		if err := r.target.Push(patch); err != nil {
			r.logger.Error("patch failed", "error", werrors.FromError(err, "E010").Error())
			r.opts.metrics.recordPatchError()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.SetAttributes(attribute.Int("weft.patch_changes", changes))
	span.End()
	r.opts.metrics.recordRender(time.Since(start), changes)

	if len(r.beforePaint) > 0 {
		effects := r.beforePaint
		r.beforePaint = nil
		r.sched.ScheduleMicrotask(func() {
			r.tick(Effect[Msg]{synchronous: effects})
		})
	}
	if len(r.afterPaint) > 0 {
		effects := r.afterPaint
		r.afterPaint = nil
		var h FrameHandle
		h = r.sched.ScheduleFrame(func() {
			delete(r.paintFrames, h)
			r.tick(Effect[Msg]{synchronous: effects})
		})
		r.paintFrames[h] = struct{}{}
	}
}

// Shutdown stops the runtime. Pending frames are cancelled, context
// subscribers are dropped and later dispatches are ignored.
func (r *Runtime[Model, Msg]) Shutdown() {
	if r.closed {
		return
	}
	r.closed = true
	if r.framePending {
		r.sched.CancelFrame(r.frame)
		r.framePending = false
	}
	for h := range r.paintFrames {
		r.sched.CancelFrame(h)
	}
	clear(r.paintFrames)
	if r.opts.root != nil && r.listener != 0 {
		r.opts.root.RemoveEventListener(ContextRequestEvent, r.listener)
	}
	for _, e := range r.contexts {
		e.subs = nil
	}
	r.queue = nil
	r.beforePaint = nil
	r.afterPaint = nil
}

var _ Actions[struct{}] = (*Runtime[struct{}, struct{}])(nil)

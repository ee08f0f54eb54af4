package runtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vango-go/weft/pkg/reconcile"
)

var (
	// ErrLoopClosed is returned when posting to a stopped loop.
	ErrLoopClosed = errors.New("runtime: loop closed")

	// ErrLoopFull is returned by TryPost when the task queue is full.
	ErrLoopFull = errors.New("runtime: loop queue full")
)

// DefaultFrameInterval is the frame period of a Loop.
const DefaultFrameInterval = 16 * time.Millisecond

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithFrameInterval sets the frame period.
func WithFrameInterval(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithQueueSize sets the capacity of the task queue.
func WithQueueSize(n int) LoopOption {
	return func(l *Loop) {
		if n > 0 {
			l.tasks = make(chan func(), n)
		}
	}
}

// WithPanicHandler makes the loop recover panics raised by tasks, report
// them to f and stop. Without a handler a panic crashes the process.
func WithPanicHandler(f func(recovered any)) LoopOption {
	return func(l *Loop) { l.onPanic = f }
}

// WithLoopLogger sets the loop's logger.
func WithLoopLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) { l.logger = logger }
}

// Loop is a single-goroutine event loop. Work posted from any goroutine
// runs on the loop in order; after every task the microtask queue is
// drained; frame callbacks run together once per frame interval. Loop
// implements Scheduler and reconcile.Clock.
//
// ScheduleMicrotask, ScheduleFrame and CancelFrame must be called from
// the loop goroutine. Post, TryPost, AfterFunc and Stop are safe from any
// goroutine.
type Loop struct {
	tasks    chan func()
	interval time.Duration
	onPanic  func(any)
	logger   *slog.Logger

	microtasks []func()

	frames     map[FrameHandle]func()
	frameOrder []FrameHandle
	nextFrame  FrameHandle
	frameArmed bool

	done     chan struct{}
	stopOnce sync.Once
	running  atomic.Bool
}

// NewLoop creates a loop. Call Run to start it.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		tasks:    make(chan func(), 1024),
		interval: DefaultFrameInterval,
		logger:   slog.Default(),
		frames:   make(map[FrameHandle]func()),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run processes tasks until ctx is cancelled or Stop is called. It
// returns ctx.Err() on cancellation and nil after Stop.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return errors.New("runtime: loop already running")
	}
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		case <-l.done:
			return nil
		case f := <-l.tasks:
			if !l.exec(f) {
				return nil
			}
		}
	}
}

// exec runs one task and then the microtasks it queued. It reports false
// when a recovered panic stopped the loop.
func (l *Loop) exec(f func()) (ok bool) {
	if l.onPanic != nil {
		defer func() {
			if r := recover(); r != nil {
				ok = false
				l.logger.Error("loop task panicked", "panic", r)
				l.Stop()
				l.onPanic(r)
			}
		}()
	}
	f()
	l.drainMicrotasks()
	return true
}

func (l *Loop) drainMicrotasks() {
	for len(l.microtasks) > 0 {
		f := l.microtasks[0]
		l.microtasks[0] = nil
		l.microtasks = l.microtasks[1:]
		f()
	}
	l.microtasks = nil
}

// Post queues f to run on the loop, blocking while the queue is full.
func (l *Loop) Post(f func()) error {
	select {
	case <-l.done:
		return ErrLoopClosed
	default:
	}
	select {
	case l.tasks <- f:
		return nil
	case <-l.done:
		return ErrLoopClosed
	}
}

// TryPost queues f without blocking.
func (l *Loop) TryPost(f func()) error {
	select {
	case <-l.done:
		return ErrLoopClosed
	default:
	}
	select {
	case l.tasks <- f:
		return nil
	default:
		return ErrLoopFull
	}
}

// Stop ends Run. Queued tasks are discarded.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

// Done is closed once the loop has stopped.
func (l *Loop) Done() <-chan struct{} { return l.done }

// ScheduleMicrotask implements Scheduler.
func (l *Loop) ScheduleMicrotask(f func()) {
	l.microtasks = append(l.microtasks, f)
}

// ScheduleFrame implements Scheduler.
func (l *Loop) ScheduleFrame(f func()) FrameHandle {
	l.nextFrame++
	h := l.nextFrame
	l.frames[h] = f
	l.frameOrder = append(l.frameOrder, h)
	if !l.frameArmed {
		l.frameArmed = true
		time.AfterFunc(l.interval, func() { _ = l.Post(l.runFrame) })
	}
	return h
}

// CancelFrame implements Scheduler.
func (l *Loop) CancelFrame(h FrameHandle) {
	delete(l.frames, h)
}

// runFrame runs the callbacks scheduled before the frame started; those
// scheduled while it runs wait for the next frame.
func (l *Loop) runFrame() {
	l.frameArmed = false
	order := l.frameOrder
	l.frameOrder = nil
	for _, h := range order {
		f, ok := l.frames[h]
		if !ok {
			continue
		}
		delete(l.frames, h)
		f()
		l.drainMicrotasks()
	}
}

// Now implements reconcile.Clock.
func (l *Loop) Now() time.Time { return time.Now() }

// AfterFunc implements reconcile.Clock. f runs on the loop.
func (l *Loop) AfterFunc(d time.Duration, f func()) reconcile.Timer {
	t := &loopTimer{}
	t.t = time.AfterFunc(d, func() {
		_ = l.Post(func() {
			if t.stopped.Load() {
				return
			}
			f()
		})
	})
	return t
}

type loopTimer struct {
	t       *time.Timer
	stopped atomic.Bool
}

func (t *loopTimer) Stop() bool {
	if t.stopped.Swap(true) {
		return false
	}
	return t.t.Stop()
}

var (
	_ Scheduler       = (*Loop)(nil)
	_ reconcile.Clock = (*Loop)(nil)
)

// Package runtimetest provides deterministic schedulers and clocks for
// tests of code built on pkg/runtime and pkg/reconcile.
package runtimetest

import (
	"sort"
	"time"

	"github.com/vango-go/weft/pkg/reconcile"
	"github.com/vango-go/weft/pkg/runtime"
)

// Scheduler is a runtime.Scheduler that runs nothing until told to.
// Microtasks run on RunMicrotasks; frame callbacks run on Frame.
type Scheduler struct {
	microtasks []func()
	frames     map[runtime.FrameHandle]func()
	order      []runtime.FrameHandle
	next       runtime.FrameHandle

	// Cancelled counts CancelFrame calls for live handles.
	Cancelled int
}

// NewScheduler returns an idle scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{frames: make(map[runtime.FrameHandle]func())}
}

// ScheduleMicrotask implements runtime.Scheduler.
func (s *Scheduler) ScheduleMicrotask(f func()) {
	s.microtasks = append(s.microtasks, f)
}

// ScheduleFrame implements runtime.Scheduler.
func (s *Scheduler) ScheduleFrame(f func()) runtime.FrameHandle {
	s.next++
	s.frames[s.next] = f
	s.order = append(s.order, s.next)
	return s.next
}

// CancelFrame implements runtime.Scheduler.
func (s *Scheduler) CancelFrame(h runtime.FrameHandle) {
	if _, ok := s.frames[h]; ok {
		s.Cancelled++
		delete(s.frames, h)
	}
}

// PendingMicrotasks returns the number of queued microtasks.
func (s *Scheduler) PendingMicrotasks() int { return len(s.microtasks) }

// PendingFrames returns the number of live frame callbacks.
func (s *Scheduler) PendingFrames() int { return len(s.frames) }

// RunMicrotasks drains the microtask queue, including microtasks queued
// while it runs.
func (s *Scheduler) RunMicrotasks() {
	for len(s.microtasks) > 0 {
		f := s.microtasks[0]
		s.microtasks = s.microtasks[1:]
		f()
	}
}

// Frame runs the frame callbacks scheduled so far, draining microtasks
// after each. Callbacks scheduled during the frame wait for the next one.
// It reports whether any callback ran.
func (s *Scheduler) Frame() bool {
	order := s.order
	s.order = nil
	ran := false
	for _, h := range order {
		f, ok := s.frames[h]
		if !ok {
			continue
		}
		delete(s.frames, h)
		ran = true
		f()
		s.RunMicrotasks()
	}
	return ran
}

// Flush runs microtasks and frames until both queues are empty.
func (s *Scheduler) Flush() {
	s.RunMicrotasks()
	for s.Frame() {
	}
}

// Clock is a reconcile.Clock whose time only moves on Advance.
type Clock struct {
	now    time.Time
	timers []*timer
	seq    int
}

type timer struct {
	at      time.Time
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func (t *timer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// NewClock returns a clock set to a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now implements reconcile.Clock.
func (c *Clock) Now() time.Time { return c.now }

// AfterFunc implements reconcile.Clock.
func (c *Clock) AfterFunc(d time.Duration, f func()) reconcile.Timer {
	c.seq++
	t := &timer{at: c.now.Add(d), seq: c.seq, f: f}
	c.timers = append(c.timers, t)
	return t
}

// Pending returns the number of timers that have neither fired nor been
// stopped.
func (c *Clock) Pending() int {
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Advance moves time forward by d, firing due timers in deadline order.
// Timers created by a firing timer fire too when they fall due within d.
func (c *Clock) Advance(d time.Duration) {
	end := c.now.Add(d)
	for {
		t := c.nextDue(end)
		if t == nil {
			break
		}
		c.now = t.at
		t.fired = true
		t.f()
	}
	c.now = end
	c.compact()
}

func (c *Clock) nextDue(end time.Time) *timer {
	live := make([]*timer, 0, len(c.timers))
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(end) {
			live = append(live, t)
		}
	}
	if len(live) == 0 {
		return nil
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].at.Equal(live[j].at) {
			return live[i].seq < live[j].seq
		}
		return live[i].at.Before(live[j].at)
	})
	return live[0]
}

func (c *Clock) compact() {
	kept := c.timers[:0]
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			kept = append(kept, t)
		}
	}
	c.timers = kept
}

var (
	_ runtime.Scheduler = (*Scheduler)(nil)
	_ reconcile.Clock   = (*Clock)(nil)
)

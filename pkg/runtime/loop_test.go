package runtime_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vango-go/weft/pkg/runtime"
)

func runLoop(t *testing.T, opts ...runtime.LoopOption) *runtime.Loop {
	t.Helper()
	loop := runtime.NewLoop(opts...)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return loop
}

// await posts f and waits for it to finish on the loop.
func await(t *testing.T, loop *runtime.Loop, f func()) {
	t.Helper()
	finished := make(chan struct{})
	if err := loop.Post(func() { f(); close(finished) }); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
}

func TestLoopRunsTasksThenMicrotasks(t *testing.T) {
	loop := runLoop(t)
	var order []string
	done := make(chan struct{})

	err := loop.Post(func() {
		order = append(order, "task 1")
		loop.ScheduleMicrotask(func() {
			order = append(order, "micro 1")
			loop.ScheduleMicrotask(func() { order = append(order, "micro 2") })
		})
	})
	if err != nil {
		t.Fatal(err)
	}
	_ = loop.Post(func() {
		order = append(order, "task 2")
		close(done)
	})
	<-done

	want := []string{"task 1", "micro 1", "micro 2", "task 2"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestLoopFrames(t *testing.T) {
	loop := runLoop(t, runtime.WithFrameInterval(time.Millisecond))
	ran := make(chan string, 4)

	await(t, loop, func() {
		cancelled := loop.ScheduleFrame(func() { ran <- "cancelled" })
		loop.ScheduleFrame(func() {
			ran <- "first"
			loop.ScheduleFrame(func() { ran <- "next frame" })
		})
		loop.CancelFrame(cancelled)
	})

	for _, want := range []string{"first", "next frame"} {
		select {
		case got := <-ran:
			if got != want {
				t.Fatalf("frame callback = %s, want %s", got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("frame %s did not run", want)
		}
	}
}

func TestLoopAfterFunc(t *testing.T) {
	loop := runLoop(t)
	fired := make(chan struct{})
	stopped := make(chan struct{}, 1)

	await(t, loop, func() {
		loop.AfterFunc(time.Millisecond, func() { close(fired) })
		timer := loop.AfterFunc(time.Millisecond, func() { stopped <- struct{}{} })
		if !timer.Stop() {
			t.Error("Stop() = false for a pending timer")
		}
		if timer.Stop() {
			t.Error("second Stop() = true")
		}
	})
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
	// Give a stopped timer the chance to misbehave.
	await(t, loop, func() {})
	select {
	case <-stopped:
		t.Error("stopped timer fired")
	default:
	}
}

func TestLoopStop(t *testing.T) {
	loop := runtime.NewLoop(runtime.WithQueueSize(1))
	if err := loop.TryPost(func() {}); err != nil {
		t.Fatalf("TryPost() error = %v", err)
	}
	if err := loop.TryPost(func() {}); !errors.Is(err, runtime.ErrLoopFull) {
		t.Errorf("TryPost() on a full queue = %v, want ErrLoopFull", err)
	}

	done := make(chan error, 1)
	go func() { done <- loop.Run(context.Background()) }()
	loop.Stop()
	if err := <-done; err != nil {
		t.Errorf("Run() after Stop = %v, want nil", err)
	}
	if err := loop.Post(func() {}); !errors.Is(err, runtime.ErrLoopClosed) {
		t.Errorf("Post() after Stop = %v, want ErrLoopClosed", err)
	}
	if err := loop.TryPost(func() {}); !errors.Is(err, runtime.ErrLoopClosed) {
		t.Errorf("TryPost() after Stop = %v, want ErrLoopClosed", err)
	}
}

func TestLoopContextCancel(t *testing.T) {
	loop := runtime.NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := loop.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
	select {
	case <-loop.Done():
	default:
		t.Error("Done() not closed after cancellation")
	}
}

func TestLoopPanicHandler(t *testing.T) {
	recovered := make(chan any, 1)
	loop := runtime.NewLoop(runtime.WithPanicHandler(func(r any) { recovered <- r }))
	done := make(chan error, 1)
	go func() { done <- loop.Run(context.Background()) }()

	_ = loop.Post(func() { panic("boom") })
	select {
	case r := <-recovered:
		if r != "boom" {
			t.Errorf("recovered = %v, want boom", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("panic not reported")
	}
	if err := <-done; err != nil {
		t.Errorf("Run() = %v, want nil", err)
	}
}

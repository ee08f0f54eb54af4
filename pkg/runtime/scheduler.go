package runtime

// FrameHandle identifies a scheduled frame callback.
type FrameHandle uint64

// Scheduler supplies the two cooperative suspension points a runtime
// uses: microtasks, which run after the current task and before the next
// frame, and frame callbacks, which run once per display frame.
//
// All callbacks run on the goroutine that owns the runtime.
type Scheduler interface {
	ScheduleMicrotask(f func())
	ScheduleFrame(f func()) FrameHandle
	CancelFrame(h FrameHandle)
}

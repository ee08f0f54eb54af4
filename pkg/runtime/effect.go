package runtime

import "github.com/vango-go/weft/pkg/dom"

// Effect is the side-effect half of an update result. Effects run in
// three tiers:
//
//   - synchronous effects run before any queued message is processed;
//   - before-paint effects run in a microtask right after the next render;
//   - after-paint effects run in the frame after the next render.
//
// Each effect receives the runtime's Actions.
type Effect[Msg any] struct {
	synchronous []func(Actions[Msg])
	beforePaint []func(Actions[Msg])
	afterPaint  []func(Actions[Msg])
}

// None is the empty effect.
func None[Msg any]() Effect[Msg] { return Effect[Msg]{} }

// From wraps f as a synchronous effect.
func From[Msg any](f func(Actions[Msg])) Effect[Msg] {
	return Effect[Msg]{synchronous: []func(Actions[Msg]){f}}
}

// BeforePaint wraps f as an effect that runs after the next render and
// before the host paints it.
func BeforePaint[Msg any](f func(Actions[Msg])) Effect[Msg] {
	return Effect[Msg]{beforePaint: []func(Actions[Msg]){f}}
}

// AfterPaint wraps f as an effect that runs once the next render has been
// painted.
func AfterPaint[Msg any](f func(Actions[Msg])) Effect[Msg] {
	return Effect[Msg]{afterPaint: []func(Actions[Msg]){f}}
}

// Batch combines effects, keeping their order within each tier.
func Batch[Msg any](effects ...Effect[Msg]) Effect[Msg] {
	var out Effect[Msg]
	for _, e := range effects {
		out.synchronous = append(out.synchronous, e.synchronous...)
		out.beforePaint = append(out.beforePaint, e.beforePaint...)
		out.afterPaint = append(out.afterPaint, e.afterPaint...)
	}
	return out
}

// IsNone reports whether e has no effects in any tier.
func (e Effect[Msg]) IsNone() bool {
	return len(e.synchronous) == 0 && len(e.beforePaint) == 0 && len(e.afterPaint) == 0
}

// MapEffect converts an effect over messages A into one over B. Messages
// dispatched by the wrapped effects pass through f.
func MapEffect[A, B any](e Effect[A], f func(A) B) Effect[B] {
	lift := func(fs []func(Actions[A])) []func(Actions[B]) {
		if len(fs) == 0 {
			return nil
		}
		out := make([]func(Actions[B]), len(fs))
		for i, fn := range fs {
			out[i] = func(a Actions[B]) { fn(mappedActions[A, B]{inner: a, f: f}) }
		}
		return out
	}
	return Effect[B]{
		synchronous: lift(e.synchronous),
		beforePaint: lift(e.beforePaint),
		afterPaint:  lift(e.afterPaint),
	}
}

type mappedActions[A, B any] struct {
	inner Actions[B]
	f     func(A) B
}

func (m mappedActions[A, B]) Dispatch(msg A, immediate bool) { m.inner.Dispatch(m.f(msg), immediate) }
func (m mappedActions[A, B]) Emit(name string, payload any)  { m.inner.Emit(name, payload) }
func (m mappedActions[A, B]) Provide(key string, value any)  { m.inner.Provide(key, value) }
func (m mappedActions[A, B]) Root() *dom.Node                { return m.inner.Root() }

package runtime

import (
	"github.com/vango-go/weft/pkg/dom"
	"github.com/vango-go/weft/pkg/vdom"
)

// App is an application in model/update/view form. All three functions
// are required.
type App[Model, Msg any] struct {
	Init   func() (Model, Effect[Msg])
	Update func(Model, Msg) (Model, Effect[Msg])
	View   func(Model) *vdom.Node
}

// Actions is what an effect may do.
type Actions[Msg any] interface {
	// Dispatch queues msg. With immediate set the render that follows is
	// synchronous instead of waiting for the next frame.
	Dispatch(msg Msg, immediate bool)

	// Emit raises a named event carrying payload to the host.
	Emit(name string, payload any)

	// Provide publishes value under key to descendants that request it.
	Provide(key string, value any)

	// Root returns the mount point, or nil when the runtime renders to a
	// remote target.
	Root() *dom.Node
}

// Target receives the patches a runtime produces. *reconcile.Reconciler
// is the local target; pkg/server supplies a remote one.
type Target interface {
	Push(p vdom.Patch) error
}

// Emitter is implemented by targets that deliver Emit themselves. Without
// one, Emit dispatches a bubbling event on the runtime's root.
type Emitter interface {
	Emit(name string, payload any) error
}

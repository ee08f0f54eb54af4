package runtime

import "github.com/vango-go/weft/pkg/dom"

// ContextRequestEvent is the type of the event that carries a
// ContextRequest up the live tree.
const ContextRequestEvent = "context-request"

// ContextRequest asks the nearest ancestor runtime that provides Context
// for its value. It travels as the Detail of a bubbling
// ContextRequestEvent; the first runtime that provides the key answers
// and stops propagation.
//
// Callback receives the value and a function that ends the subscription.
// With Subscribe set, Callback runs again every time the provider calls
// Provide for the key.
type ContextRequest struct {
	Context   string
	Callback  func(value any, unsubscribe func())
	Subscribe bool
}

type subscriber struct {
	id       uint64
	callback func(value any, unsubscribe func())
}

type contextEntry struct {
	value  any
	subs   []subscriber
	nextID uint64
}

func (e *contextEntry) subscribe(cb func(any, func())) func() {
	e.nextID++
	id := e.nextID
	e.subs = append(e.subs, subscriber{id: id, callback: cb})
	return func() { e.unsubscribe(id) }
}

func (e *contextEntry) unsubscribe(id uint64) {
	for i, s := range e.subs {
		if s.id == id {
			e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
			return
		}
	}
}

func (e *contextEntry) notify() {
	subs := append([]subscriber(nil), e.subs...)
	for _, s := range subs {
		id := s.id
		s.callback(e.value, func() { e.unsubscribe(id) })
	}
}

// Provide implements Actions. Existing subscribers are notified of the
// new value.
func (r *Runtime[Model, Msg]) Provide(key string, value any) {
	e, ok := r.contexts[key]
	if !ok {
		e = &contextEntry{}
		r.contexts[key] = e
	}
	e.value = value
	e.notify()
}

// answerContext serves context requests bubbling through the root.
// Requests raised on the root itself belong to the runtime's own host and
// are left for its ancestors.
func (r *Runtime[Model, Msg]) answerContext(ev *dom.Event) {
	if ev.Target == r.opts.root {
		return
	}
	req, ok := ev.Detail.(*ContextRequest)
	if !ok || req.Callback == nil {
		return
	}
	e, ok := r.contexts[req.Context]
	if !ok {
		return
	}
	ev.StopPropagation()
	unsubscribe := func() {}
	if req.Subscribe {
		unsubscribe = e.subscribe(req.Callback)
	}
	req.Callback(e.value, unsubscribe)
}

// RequestContext raises a context request from node. It reports whether
// a provider answered.
func RequestContext(node *dom.Node, key string, subscribe bool, callback func(value any, unsubscribe func())) bool {
	answered := false
	req := &ContextRequest{
		Context:   key,
		Subscribe: subscribe,
		Callback: func(value any, unsubscribe func()) {
			answered = true
			callback(value, unsubscribe)
		},
	}
	ev := dom.NewEvent(ContextRequestEvent, true)
	ev.Detail = req
	node.DispatchEvent(ev)
	return answered
}

package vdom

import (
	"errors"
	"fmt"
)

// ErrNoHandler is returned by Events.Handle when nothing is registered for
// the event at the given path.
var ErrNoHandler = errors.New("vdom: no handler registered")

type handler struct {
	attr   Attribute
	mapper Mapper
}

// Events is the event registry: the handlers of the currently rendered tree
// addressed by structural path and event name, plus the paths that have
// dispatched events recently.
//
// Events is not safe for concurrent use. It is owned by one runtime and
// mutated only by Diff and Handle on that runtime's goroutine.
type Events struct {
	handlers   map[string]handler
	dispatched map[Path]struct{}
	next       map[Path]struct{}

	// staged holds registrations made during a diff. They are committed
	// after every stale registration has been removed, so a node that moved
	// onto a path another node just vacated keeps its handler.
	staged map[string]handler
}

// NewEvents creates an empty registry.
func NewEvents() *Events {
	return &Events{
		handlers:   make(map[string]handler),
		dispatched: make(map[Path]struct{}),
		next:       make(map[Path]struct{}),
	}
}

// Len returns the number of registered handlers.
func (e *Events) Len() int {
	return len(e.handlers)
}

// Has reports whether a handler is registered for name at path.
func (e *Events) Has(path Path, name string) bool {
	_, ok := e.handlers[path.EventKey(name)]
	return ok
}

// Lookup returns the event binding registered for name at path.
func (e *Events) Lookup(path Path, name string) (Attribute, bool) {
	h, ok := e.handlers[path.EventKey(name)]
	return h.attr, ok
}

// IsControlled reports whether the node at path dispatched an event since
// the previous render. Form fields at such paths may have been edited by
// the host and are always resynchronised.
func (e *Events) IsControlled(path Path) bool {
	_, ok := e.dispatched[path]
	return ok
}

// Handle decodes ev with the handler for name at path and runs the result
// through the handler's mapper chain. The path is recorded as dispatched
// whether or not decoding succeeds.
func (e *Events) Handle(path Path, name string, ev Event) (any, error) {
	e.next[path] = struct{}{}
	return e.decode(path, name, ev)
}

// Peek decodes like Handle without recording the path.
func (e *Events) Peek(path Path, name string, ev Event) (any, error) {
	return e.decode(path, name, ev)
}

func (e *Events) decode(path Path, name string, ev Event) (any, error) {
	h, ok := e.handlers[path.EventKey(name)]
	if !ok || h.attr.Handler == nil {
		return nil, fmt.Errorf("%w: %s on %s", ErrNoHandler, name, path)
	}
	msg, err := h.attr.Handler(ev)
	if err != nil {
		return nil, err
	}
	if h.mapper != nil {
		msg = h.mapper(msg)
	}
	return msg, nil
}

// tick rotates the dispatched-path sets at the start of a diff.
func (e *Events) tick() {
	e.dispatched = e.next
	e.next = make(map[Path]struct{})
}

func (e *Events) add(mapper Mapper, path Path, a Attribute) {
	if e.staged == nil {
		e.staged = make(map[string]handler)
	}
	e.staged[path.EventKey(a.Name)] = handler{attr: a, mapper: mapper}
}

// commit publishes the registrations staged by the last diff.
func (e *Events) commit() {
	for k, h := range e.staged {
		e.handlers[k] = h
	}
	e.staged = nil
}

func (e *Events) remove(path Path, name string) {
	delete(e.handlers, path.EventKey(name))
}

type registration struct {
	node   *Node
	path   Path
	mapper Mapper
}

// addChild registers every handler in the subtree rooted at node, which
// sits at index below parent.
func (e *Events) addChild(mapper Mapper, parent Path, index int, node *Node) {
	stack := []registration{{node: node, path: parent.Child(index, node.Key), mapper: mapper}}
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		m := compose(r.mapper, r.node.Mapper)
		for _, a := range r.node.Attrs {
			if a.Kind == AttrEvent {
				e.add(m, r.path, a)
			}
		}
		for i, child := range r.node.Children {
			stack = append(stack, registration{node: child, path: r.path.Child(i, child.Key), mapper: m})
		}
	}
}

// addChildren registers the handlers of nodes inserted at first and after.
func (e *Events) addChildren(mapper Mapper, parent Path, first int, nodes []*Node) {
	for i, n := range nodes {
		e.addChild(mapper, parent, first+i, n)
	}
}

// removeChild unregisters every handler in the subtree rooted at node.
func (e *Events) removeChild(parent Path, index int, node *Node) {
	stack := []registration{{node: node, path: parent.Child(index, node.Key)}}
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, a := range r.node.Attrs {
			if a.Kind == AttrEvent {
				e.remove(r.path, a.Name)
			}
		}
		for i, child := range r.node.Children {
			stack = append(stack, registration{node: child, path: r.path.Child(i, child.Key)})
		}
	}
}

// compose returns a mapper applying inner first, then outer.
func compose(outer, inner Mapper) Mapper {
	switch {
	case inner == nil:
		return outer
	case outer == nil:
		return inner
	default:
		return func(msg any) any { return outer(inner(msg)) }
	}
}

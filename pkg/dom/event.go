package dom

// ListenerID identifies a registered listener for removal.
type ListenerID uint64

type listener struct {
	id ListenerID
	fn func(*Event)
}

// Event is dispatched through a live tree.
type Event struct {
	Type    string
	Bubbles bool

	// Detail carries an arbitrary payload for custom events.
	Detail any

	// Fields holds host event data (key, clientX, ...) reported with the
	// event. Target-relative fields such as target.value are read from the
	// target node by listeners.
	Fields map[string]any

	Target        *Node
	CurrentTarget *Node

	defaultPrevented   bool
	propagationStopped bool
}

// NewEvent creates an event of the given type.
func NewEvent(typ string, bubbles bool) *Event {
	return &Event{Type: typ, Bubbles: bubbles}
}

// PreventDefault cancels the event's default action.
func (e *Event) PreventDefault() { e.defaultPrevented = true }

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// StopPropagation stops the event reaching further ancestors.
func (e *Event) StopPropagation() { e.propagationStopped = true }

// PropagationStopped reports whether StopPropagation was called.
func (e *Event) PropagationStopped() bool { return e.propagationStopped }

// AddEventListener registers fn for events of type typ on n.
func (n *Node) AddEventListener(typ string, fn func(*Event)) ListenerID {
	n.doc.nextID++
	id := n.doc.nextID
	if n.listeners == nil {
		n.listeners = make(map[string][]listener)
	}
	n.listeners[typ] = append(n.listeners[typ], listener{id: id, fn: fn})
	return id
}

// RemoveEventListener unregisters the listener with id.
func (n *Node) RemoveEventListener(typ string, id ListenerID) {
	ls := n.listeners[typ]
	for i, l := range ls {
		if l.id == id {
			ls = append(ls[:i:i], ls[i+1:]...)
			break
		}
	}
	if len(ls) == 0 {
		delete(n.listeners, typ)
		return
	}
	n.listeners[typ] = ls
}

// ListenerCount returns the number of listeners for typ on n.
func (n *Node) ListenerCount(typ string) int {
	return len(n.listeners[typ])
}

// DispatchEvent delivers ev to n and, when it bubbles, to each ancestor
// until propagation is stopped. It reports whether the default action
// should still run.
func (n *Node) DispatchEvent(ev *Event) bool {
	ev.Target = n
	for cur := n; cur != nil; cur = cur.Parent() {
		ev.CurrentTarget = cur
		// Copy so listeners may add or remove listeners while running.
		ls := append([]listener(nil), cur.listeners[ev.Type]...)
		for _, l := range ls {
			l.fn(ev)
		}
		if ev.propagationStopped || !ev.Bubbles {
			break
		}
	}
	ev.CurrentTarget = nil
	return !ev.defaultPrevented
}

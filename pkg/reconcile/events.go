package reconcile

import (
	"strings"
	"time"

	"github.com/vango-go/weft/pkg/dom"
	"github.com/vango-go/weft/pkg/vdom"
)

// binding is the live state of one event type on one node.
type binding struct {
	attr     vdom.Attribute
	listener dom.ListenerID

	// Throttle state: whether and when the window last opened.
	fired     bool
	lastFired time.Time

	// delivered is the last occurrence handed to the Handler, checked by
	// the debounce timer so one occurrence is never delivered twice.
	delivered uint64
	timer     Timer
}

func (b *binding) cancel() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

// bind attaches or reconfigures the listener for a.Name on m. A node has at
// most one native listener per event type.
func (r *Reconciler) bind(m *meta, a vdom.Attribute) {
	if m.bindings == nil {
		m.bindings = make(map[string]*binding)
	}
	if b, ok := m.bindings[a.Name]; ok {
		b.attr = a
		return
	}
	b := &binding{attr: a}
	name := a.Name
	b.listener = m.node.AddEventListener(name, func(ev *dom.Event) {
		r.fire(m, name, ev)
	})
	m.bindings[name] = b
}

func (r *Reconciler) unbind(m *meta, name string) {
	b, ok := m.bindings[name]
	if !ok {
		return
	}
	b.cancel()
	m.node.RemoveEventListener(name, b.listener)
	delete(m.bindings, name)
}

func (r *Reconciler) fire(m *meta, name string, ev *dom.Event) {
	b, ok := m.bindings[name]
	if !ok {
		return
	}
	a := b.attr
	payload := eventPayload(ev, a.Include)

	if a.PreventDefault != vdom.Never || a.StopPropagation != vdom.Never {
		accepted := true
		if (a.PreventDefault == vdom.Possible || a.StopPropagation == vdom.Possible) && r.decide != nil {
			accepted = r.decide(m.path(), name, payload)
		}
		if applies(a.PreventDefault, accepted) {
			ev.PreventDefault()
		}
		if applies(a.StopPropagation, accepted) {
			ev.StopPropagation()
		}
	}

	r.occurrence++
	id := r.occurrence

	if a.Throttle <= 0 && a.Debounce <= 0 {
		r.deliver(m, b, name, payload, id)
		return
	}

	if a.Throttle > 0 {
		now := r.clock.Now()
		if !b.fired || now.Sub(b.lastFired) >= a.Throttle {
			b.fired = true
			b.lastFired = now
			r.deliver(m, b, name, payload, id)
		}
	}

	if a.Debounce > 0 {
		b.cancel()
		b.timer = r.clock.AfterFunc(a.Debounce, func() {
			b.timer = nil
			if b.delivered == id {
				return
			}
			r.deliver(m, b, name, payload, id)
		})
	}
}

func (r *Reconciler) deliver(m *meta, b *binding, name string, payload vdom.Event, id uint64) {
	b.delivered = id
	if r.handler == nil {
		return
	}
	r.handler(payload, m.path(), name, b.attr.Immediate)
}

func applies(p vdom.Policy, accepted bool) bool {
	switch p {
	case vdom.Always:
		return true
	case vdom.Possible:
		return accepted
	default:
		return false
	}
}

// eventPayload copies the host event's fields and resolves include paths
// of the form target.<name> and currentTarget.<name> against the nodes.
func eventPayload(ev *dom.Event, include []string) vdom.Event {
	fields := make(map[string]any, len(ev.Fields)+len(include))
	for k, v := range ev.Fields {
		fields[k] = v
	}
	for _, path := range include {
		if _, ok := fields[path]; ok {
			continue
		}
		var n *dom.Node
		var name string
		switch {
		case strings.HasPrefix(path, "target."):
			n, name = ev.Target, strings.TrimPrefix(path, "target.")
		case strings.HasPrefix(path, "currentTarget."):
			n, name = ev.CurrentTarget, strings.TrimPrefix(path, "currentTarget.")
		default:
			continue
		}
		if n == nil {
			continue
		}
		if v, ok := nodeField(n, name); ok {
			fields[path] = v
		}
	}
	return vdom.Event{Type: ev.Type, Fields: fields}
}

func nodeField(n *dom.Node, name string) (any, bool) {
	if v, ok := n.Property(name); ok {
		return v, true
	}
	switch name {
	case "checked", "selected", "disabled":
		return n.HasAttribute(name), true
	case "tagName":
		return strings.ToUpper(n.Tag()), true
	case "textContent":
		return n.TextContent(), true
	}
	if v, ok := n.Attribute(name); ok {
		return v, true
	}
	if name == "value" {
		return "", true
	}
	return nil, false
}

package reconcile

import (
	"github.com/vango-go/weft/pkg/dom"
	"github.com/vango-go/weft/pkg/vdom"
)

type syncedAttr struct {
	added   func(r *Reconciler, n *dom.Node, value string)
	removed func(n *dom.Node)
}

// synced lists attributes whose presence has a side effect beyond the
// markup: focusing or playing on mount, or mirroring a DOM property.
var synced = map[string]syncedAttr{
	"autofocus": {
		added: func(r *Reconciler, n *dom.Node, _ string) {
			r.mounted = append(r.mounted, func() {
				if n.Connected() {
					n.Focus()
				}
			})
		},
	},
	"autoplay": {
		added: func(r *Reconciler, n *dom.Node, _ string) {
			r.mounted = append(r.mounted, func() {
				if n.Connected() {
					n.Play()
				}
			})
		},
	},
	"checked":  boolMirror("checked"),
	"selected": boolMirror("selected"),
	"disabled": boolMirror("disabled"),
	"value": {
		added:   func(_ *Reconciler, n *dom.Node, v string) { n.SetProperty("value", v) },
		removed: func(n *dom.Node) { n.SetProperty("value", "") },
	},
}

func boolMirror(name string) syncedAttr {
	return syncedAttr{
		added:   func(_ *Reconciler, n *dom.Node, _ string) { n.SetProperty(name, true) },
		removed: func(n *dom.Node) { n.SetProperty(name, false) },
	}
}

func (r *Reconciler) setAttr(m *meta, a vdom.Attribute) {
	switch a.Kind {
	case vdom.AttrAttribute:
		m.node.SetAttribute(a.Name, a.Value)
		if s, ok := synced[a.Name]; ok && s.added != nil {
			s.added(r, m.node, a.Value)
		}
	case vdom.AttrProperty:
		m.node.SetProperty(a.Name, a.Property)
	case vdom.AttrEvent:
		r.bind(m, a)
	}
}

func (r *Reconciler) removeAttr(m *meta, a vdom.Attribute) {
	switch a.Kind {
	case vdom.AttrAttribute:
		m.node.RemoveAttribute(a.Name)
		if s, ok := synced[a.Name]; ok && s.removed != nil {
			s.removed(m.node)
		}
	case vdom.AttrProperty:
		m.node.DeleteProperty(a.Name)
	case vdom.AttrEvent:
		r.unbind(m, a.Name)
	}
}

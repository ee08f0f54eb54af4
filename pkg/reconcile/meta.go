package reconcile

import (
	"github.com/vango-go/weft/pkg/dom"
	"github.com/vango-go/weft/pkg/vdom"
)

// meta mirrors one rendered virtual node. The tree of metas gives direct
// parent and child access without walking the live tree, where fragments
// have no node of their own.
type meta struct {
	kind vdom.Kind
	key  string

	// node is the live node. A fragment's node is a comment marker placed
	// before the live nodes of its descendants.
	node *dom.Node

	// parent is used for navigation only; ownership runs from children.
	parent   *meta
	children []*meta

	bindings map[string]*binding
}

func (m *meta) isFragment() bool { return m.kind == vdom.KindFragment }

// container returns the live node that holds m's children.
func (m *meta) container() *dom.Node {
	for m.isFragment() && m.parent != nil {
		m = m.parent
	}
	return m.node
}

// last returns the last live node belonging to m.
func (m *meta) last() *dom.Node {
	for m.isFragment() && len(m.children) > 0 {
		m = m.children[len(m.children)-1]
	}
	return m.node
}

// liveNodes returns every top-level live node belonging to m in order:
// m's own node, plus the flattened nodes of a fragment's descendants.
func (m *meta) liveNodes() []*dom.Node {
	if !m.isFragment() {
		return []*dom.Node{m.node}
	}
	var out []*dom.Node
	stack := []*meta{m}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, c.node)
		if !c.isFragment() {
			continue
		}
		for i := len(c.children) - 1; i >= 0; i-- {
			stack = append(stack, c.children[i])
		}
	}
	return out
}

// ref returns the live node before which a child inserted at index must
// go. Nil means append to the container.
func (m *meta) ref(index int) *dom.Node {
	if index < len(m.children) {
		return m.children[index].node
	}
	if !m.isFragment() {
		return nil
	}
	return m.last().NextSibling()
}

// index returns m's position among its siblings.
func (m *meta) index() int {
	if m.parent == nil {
		return 0
	}
	for i, c := range m.parent.children {
		if c == m {
			return i
		}
	}
	return -1
}

// path rebuilds m's structural path from the mount point.
func (m *meta) path() vdom.Path {
	var chain []*meta
	for c := m; c.parent != nil; c = c.parent {
		chain = append(chain, c)
	}
	p := vdom.Root
	for i := len(chain) - 1; i >= 0; i-- {
		c := chain[i]
		p = p.Child(c.index(), c.key)
	}
	return p
}

func (m *meta) insertChildren(at int, children []*meta) {
	for _, c := range children {
		c.parent = m
	}
	m.children = append(m.children[:at], append(append([]*meta(nil), children...), m.children[at:]...)...)
}

func (m *meta) removeChild(at int) *meta {
	c := m.children[at]
	m.children = append(m.children[:at], m.children[at+1:]...)
	return c
}

// walk visits m and its descendants depth first.
func (m *meta) walk(fn func(*meta)) {
	stack := []*meta{m}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(c)
		for i := len(c.children) - 1; i >= 0; i-- {
			stack = append(stack, c.children[i])
		}
	}
}

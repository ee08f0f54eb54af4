// Package reconcile applies patches produced by vdom.Diff to a live tree.
//
// A Reconciler keeps a metadata tree parallel to the rendered nodes. Patch
// addresses are resolved against the metadata, never by searching the
// live tree, so fragments (which have no live node of their own) and keyed
// moves cost no more than the children they touch. Event listeners are
// attached once per node and event type and report back through a Handler
// with the node's structural path.
package reconcile

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/vango-go/weft/pkg/dom"
	"github.com/vango-go/weft/pkg/vdom"
)

// ErrOutOfSync is returned by Push when a patch addresses a node the live
// tree does not have. The live tree is left as far as the patch got.
var ErrOutOfSync = errors.New("reconcile: patch does not match live tree")

// Handler receives events fired by the live tree: the host payload with
// the binding's Include fields resolved, the structural path of the node,
// the event name and whether the binding asked for an immediate render.
type Handler func(ev vdom.Event, path vdom.Path, name string, immediate bool)

// Decider reports whether the handler at path would accept ev. It backs
// the Possible policy for PreventDefault and StopPropagation.
type Decider func(path vdom.Path, name string, ev vdom.Event) bool

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithClock sets the clock used for throttle and debounce timers.
func WithClock(c Clock) Option {
	return func(r *Reconciler) { r.clock = c }
}

// WithDecider sets the Possible-policy hook.
func WithDecider(d Decider) Option {
	return func(r *Reconciler) { r.decide = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) { r.logger = l }
}

// Reconciler owns a mount container and everything rendered into it.
type Reconciler struct {
	doc     *dom.Document
	root    *meta
	handler Handler
	decide  Decider
	clock   Clock
	logger  *slog.Logger

	occurrence uint64

	// mounted collects focus and playback requests raised while a patch
	// applies; they run once the whole patch is in place.
	mounted []func()
}

// New takes ownership of container. Any children it has are removed.
func New(container *dom.Node, handler Handler, opts ...Option) *Reconciler {
	r := &Reconciler{
		doc:     container.Document(),
		root:    &meta{kind: vdom.KindElement, node: container},
		handler: handler,
		clock:   SystemClock{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	for c := container.FirstChild(); c != nil; c = container.FirstChild() {
		_ = container.RemoveChild(c)
	}
	return r
}

// Root returns the mount container.
func (r *Reconciler) Root() *dom.Node { return r.root.node }

// Push applies p to the live tree. The patch is fully applied before Push
// returns; no listener or timer runs in between.
func (r *Reconciler) Push(p vdom.Patch) error {
	type work struct {
		m *meta
		p vdom.Patch
	}
	stack := []work{{m: r.root, p: p}}
	var err error
	for len(stack) > 0 && err == nil {
		w := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, c := range w.p.Changes {
			if err = r.apply(w.m, c); err != nil {
				break
			}
		}
		if err != nil {
			break
		}
		if w.p.Removed > 0 {
			if w.p.Removed > len(w.m.children) {
				err = fmt.Errorf("%w: remove %d of %d children", ErrOutOfSync, w.p.Removed, len(w.m.children))
				break
			}
			for i := 0; i < w.p.Removed; i++ {
				r.remove(w.m, len(w.m.children)-1)
			}
		}
		for i := len(w.p.Children) - 1; i >= 0; i-- {
			child := w.p.Children[i]
			if child.Index < 0 || child.Index >= len(w.m.children) {
				err = fmt.Errorf("%w: child patch at %d of %d", ErrOutOfSync, child.Index, len(w.m.children))
				break
			}
			stack = append(stack, work{m: w.m.children[child.Index], p: child})
		}
	}

	mounted := r.mounted
	r.mounted = nil
	for _, f := range mounted {
		f()
	}
	if err != nil {
		r.logger.Error("patch failed", "error", err)
	}
	return err
}

func (r *Reconciler) apply(m *meta, c vdom.Change) error {
	switch c.Kind {
	case vdom.ChangeReplaceText:
		if m.kind != vdom.KindText {
			return fmt.Errorf("%w: replace text on %s", ErrOutOfSync, m.kind)
		}
		m.node.SetData(c.Content)

	case vdom.ChangeReplaceInnerHTML:
		if m.kind != vdom.KindRawHTML {
			return fmt.Errorf("%w: replace inner html on %s", ErrOutOfSync, m.kind)
		}
		if err := m.node.SetInnerHTML(c.Content); err != nil {
			return err
		}

	case vdom.ChangeUpdate:
		for _, a := range c.Removed {
			r.removeAttr(m, a)
		}
		for _, a := range c.Added {
			r.setAttr(m, a)
		}

	case vdom.ChangeInsert:
		if c.Before < 0 || c.Before > len(m.children) {
			return fmt.Errorf("%w: insert at %d of %d", ErrOutOfSync, c.Before, len(m.children))
		}
		ref := m.ref(c.Before)
		frag := r.doc.CreateDocumentFragment()
		metas := make([]*meta, len(c.Nodes))
		for i, n := range c.Nodes {
			metas[i] = r.build(n, frag)
		}
		if err := m.container().InsertBefore(frag, ref); err != nil {
			return err
		}
		m.insertChildren(c.Before, metas)

	case vdom.ChangeMove:
		if c.Before < 0 || c.Before >= len(m.children) {
			return fmt.Errorf("%w: move before %d of %d", ErrOutOfSync, c.Before, len(m.children))
		}
		from := -1
		for i := c.Before; i < len(m.children); i++ {
			if m.children[i].key == c.Key {
				from = i
				break
			}
		}
		if from < 0 {
			return fmt.Errorf("%w: no child keyed %q after %d", ErrOutOfSync, c.Key, c.Before)
		}
		if from == c.Before {
			return nil
		}
		moved := m.children[from]
		ref := m.children[c.Before].node
		container := m.container()
		for _, n := range moved.liveNodes() {
			if err := container.InsertBefore(n, ref); err != nil {
				return err
			}
		}
		m.removeChild(from)
		m.insertChildren(c.Before, []*meta{moved})

	case vdom.ChangeRemove:
		if c.Index < 0 || c.Index >= len(m.children) {
			return fmt.Errorf("%w: remove %d of %d", ErrOutOfSync, c.Index, len(m.children))
		}
		r.remove(m, c.Index)

	case vdom.ChangeReplace:
		if c.Index < 0 || c.Index >= len(m.children) {
			return fmt.Errorf("%w: replace %d of %d", ErrOutOfSync, c.Index, len(m.children))
		}
		old := m.children[c.Index]
		frag := r.doc.CreateDocumentFragment()
		next := r.build(c.Node, frag)
		if err := m.container().InsertBefore(frag, old.node); err != nil {
			return err
		}
		r.remove(m, c.Index)
		m.insertChildren(c.Index, []*meta{next})

	default:
		return fmt.Errorf("%w: unknown change %s", ErrOutOfSync, c.Kind)
	}
	return nil
}

// remove detaches the child at index, cancelling its timers first.
func (r *Reconciler) remove(m *meta, index int) {
	old := m.removeChild(index)
	old.walk(func(c *meta) {
		for _, b := range c.bindings {
			b.cancel()
		}
	})
	container := m.container()
	for _, n := range old.liveNodes() {
		_ = container.RemoveChild(n)
	}
	old.parent = nil
}

// build creates the live nodes for v, appending them to into, and returns
// the metadata subtree.
func (r *Reconciler) build(v *vdom.Node, into *dom.Node) *meta {
	type item struct {
		v      *vdom.Node
		parent *meta
		into   *dom.Node
	}
	var root *meta
	stack := []item{{v: v, into: into}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		m := &meta{kind: it.v.Kind, key: it.v.Key, parent: it.parent}
		switch it.v.Kind {
		case vdom.KindText:
			m.node = r.doc.CreateTextNode(it.v.Content)
		case vdom.KindFragment:
			m.node = r.doc.CreateComment("")
		default:
			m.node = r.doc.CreateElementNS(it.v.Namespace, it.v.Tag)
			for _, a := range it.v.Attrs {
				r.setAttr(m, a)
			}
			if it.v.Kind == vdom.KindRawHTML {
				if err := m.node.SetInnerHTML(it.v.Content); err != nil {
					r.logger.Warn("raw html rejected", "tag", it.v.Tag, "error", err)
				}
			}
		}
		_ = it.into.AppendChild(m.node)

		if it.parent == nil {
			root = m
		} else {
			it.parent.children = append(it.parent.children, m)
		}

		childInto := m.node
		if m.isFragment() {
			childInto = it.into
		}
		for i := len(it.v.Children) - 1; i >= 0; i-- {
			stack = append(stack, item{v: it.v.Children[i], parent: m, into: childInto})
		}
	}
	return root
}

// Close cancels every pending timer and detaches all rendered nodes.
func (r *Reconciler) Close() {
	for len(r.root.children) > 0 {
		r.remove(r.root, len(r.root.children)-1)
	}
}

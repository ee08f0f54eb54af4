// Package dom is an in-memory live host tree for the reconciler.
//
// Nodes wrap golang.org/x/net/html nodes, so markup assigned through
// SetInnerHTML is parsed by the same tokenizer browsers follow and every
// subtree can be rendered back to HTML. On top of the parsed structure a
// Node carries what a browser keeps outside the markup: DOM properties,
// event listeners, focus and media playback state.
//
// A Document and its nodes are not safe for concurrent use.
package dom

import (
	"errors"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	// ErrNotChild is returned when a reference node is not a child of the
	// node being modified.
	ErrNotChild = errors.New("dom: node is not a child of this node")

	// ErrHierarchy is returned when an insertion would make a node its own
	// ancestor or give a text node children.
	ErrHierarchy = errors.New("dom: invalid hierarchy")
)

// NodeType identifies the variant of a Node.
type NodeType uint8

const (
	ElementNode  NodeType = iota // <div>, <button>, ...
	TextNode                     // Character data
	CommentNode                  // <!-- marker -->
	FragmentNode                 // Detached container whose children move on insertion
)

// String returns the string representation of the NodeType.
func (t NodeType) String() string {
	switch t {
	case ElementNode:
		return "Element"
	case TextNode:
		return "Text"
	case CommentNode:
		return "Comment"
	case FragmentNode:
		return "Fragment"
	default:
		return "Unknown"
	}
}

// Node is a node of a live tree.
type Node struct {
	doc       *Document
	h         *html.Node
	props     map[string]any
	listeners map[string][]listener
}

// Document owns a live tree and the state shared by its nodes.
type Document struct {
	body    *Node
	nodes   map[*html.Node]*Node
	focused *Node
	nextID  ListenerID

	// Sanitizer, when set, filters markup passed to SetInnerHTML.
	Sanitizer Sanitizer
}

// NewDocument creates a document with an empty body.
func NewDocument() *Document {
	d := &Document{nodes: make(map[*html.Node]*Node)}
	d.body = d.wrap(&html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body})
	return d
}

// Body returns the document's body element.
func (d *Document) Body() *Node { return d.body }

// ActiveElement returns the focused element, or nil.
func (d *Document) ActiveElement() *Node { return d.focused }

// CreateElement creates a detached HTML element.
func (d *Document) CreateElement(tag string) *Node {
	return d.CreateElementNS("", tag)
}

// CreateElementNS creates a detached element in namespace.
func (d *Document) CreateElementNS(namespace, tag string) *Node {
	return d.wrap(&html.Node{Type: html.ElementNode, Data: tag, DataAtom: lookupAtom(tag), Namespace: namespace})
}

// CreateTextNode creates a detached text node.
func (d *Document) CreateTextNode(text string) *Node {
	return d.wrap(&html.Node{Type: html.TextNode, Data: text})
}

// CreateComment creates a detached comment node.
func (d *Document) CreateComment(data string) *Node {
	return d.wrap(&html.Node{Type: html.CommentNode, Data: data})
}

// CreateDocumentFragment creates an empty fragment.
func (d *Document) CreateDocumentFragment() *Node {
	return d.wrap(&html.Node{Type: html.DocumentNode})
}

func (d *Document) wrap(h *html.Node) *Node {
	if h == nil {
		return nil
	}
	if n, ok := d.nodes[h]; ok {
		return n
	}
	n := &Node{doc: d, h: h}
	d.nodes[h] = n
	return n
}

// release forgets every node in the subtree rooted at h.
func (d *Document) release(h *html.Node) {
	stack := []*html.Node{h}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n, ok := d.nodes[c]; ok && n == d.focused {
			d.focused = nil
		}
		delete(d.nodes, c)
		for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
			stack = append(stack, gc)
		}
	}
}

// Document returns the node's owner document.
func (n *Node) Document() *Document { return n.doc }

// Type returns the node's variant.
func (n *Node) Type() NodeType {
	switch n.h.Type {
	case html.TextNode:
		return TextNode
	case html.CommentNode:
		return CommentNode
	case html.DocumentNode:
		return FragmentNode
	default:
		return ElementNode
	}
}

// Tag returns an element's tag name.
func (n *Node) Tag() string {
	if n.h.Type != html.ElementNode {
		return ""
	}
	return n.h.Data
}

// Namespace returns an element's namespace; empty for HTML.
func (n *Node) Namespace() string { return n.h.Namespace }

// Data returns the character data of a text or comment node.
func (n *Node) Data() string {
	if n.h.Type == html.ElementNode {
		return ""
	}
	return n.h.Data
}

// SetData replaces the character data of a text or comment node.
func (n *Node) SetData(data string) {
	if n.h.Type == html.TextNode || n.h.Type == html.CommentNode {
		n.h.Data = data
	}
}

// Parent returns the parent node, or nil when detached.
func (n *Node) Parent() *Node { return n.doc.wrap(n.h.Parent) }

// FirstChild returns the first child, or nil.
func (n *Node) FirstChild() *Node { return n.doc.wrap(n.h.FirstChild) }

// LastChild returns the last child, or nil.
func (n *Node) LastChild() *Node { return n.doc.wrap(n.h.LastChild) }

// NextSibling returns the following sibling, or nil.
func (n *Node) NextSibling() *Node { return n.doc.wrap(n.h.NextSibling) }

// PreviousSibling returns the preceding sibling, or nil.
func (n *Node) PreviousSibling() *Node { return n.doc.wrap(n.h.PrevSibling) }

// Children returns a snapshot of the node's children.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.h.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, n.doc.wrap(c))
	}
	return out
}

// Contains reports whether other is n or one of its descendants.
func (n *Node) Contains(other *Node) bool {
	for h := other.h; h != nil; h = h.Parent {
		if h == n.h {
			return true
		}
	}
	return false
}

// Connected reports whether n is attached to its document's body.
func (n *Node) Connected() bool {
	return n.doc.body.Contains(n)
}

// InsertBefore inserts child before ref, or appends it when ref is nil.
// A child already in a tree is moved. Inserting a fragment moves all of
// its children and leaves it empty.
func (n *Node) InsertBefore(child, ref *Node) error {
	if ref != nil && ref.h.Parent != n.h {
		return ErrNotChild
	}
	if n.h.Type == html.TextNode || n.h.Type == html.CommentNode || child.Contains(n) {
		return ErrHierarchy
	}
	var before *html.Node
	if ref != nil {
		before = ref.h
	}

	if child.h.Type == html.DocumentNode {
		for c := child.h.FirstChild; c != nil; c = child.h.FirstChild {
			child.h.RemoveChild(c)
			n.h.InsertBefore(c, before)
		}
		return nil
	}
	if child == ref {
		return nil
	}
	if p := child.h.Parent; p != nil {
		p.RemoveChild(child.h)
	}
	n.h.InsertBefore(child.h, before)
	return nil
}

// AppendChild appends child.
func (n *Node) AppendChild(child *Node) error {
	return n.InsertBefore(child, nil)
}

// RemoveChild detaches child. The removed subtree's properties and
// listeners are released.
func (n *Node) RemoveChild(child *Node) error {
	if child.h.Parent != n.h {
		return ErrNotChild
	}
	n.h.RemoveChild(child.h)
	n.doc.release(child.h)
	return nil
}

// ReplaceChild puts replacement in old's place and removes old.
func (n *Node) ReplaceChild(replacement, old *Node) error {
	if err := n.InsertBefore(replacement, old); err != nil {
		return err
	}
	return n.RemoveChild(old)
}

// Attribute returns the value of the named attribute.
func (n *Node) Attribute(name string) (string, bool) {
	for _, a := range n.h.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttribute reports whether the named attribute is set.
func (n *Node) HasAttribute(name string) bool {
	_, ok := n.Attribute(name)
	return ok
}

// SetAttribute sets the named attribute.
func (n *Node) SetAttribute(name, value string) {
	for i := range n.h.Attr {
		if n.h.Attr[i].Key == name {
			n.h.Attr[i].Val = value
			return
		}
	}
	n.h.Attr = append(n.h.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttribute clears the named attribute.
func (n *Node) RemoveAttribute(name string) {
	for i, a := range n.h.Attr {
		if a.Key == name {
			n.h.Attr = append(n.h.Attr[:i], n.h.Attr[i+1:]...)
			return
		}
	}
}

// Attributes returns a copy of the element's attributes in document order.
func (n *Node) Attributes() []html.Attribute {
	return append([]html.Attribute(nil), n.h.Attr...)
}

// Property returns a DOM property.
func (n *Node) Property(name string) (any, bool) {
	v, ok := n.props[name]
	return v, ok
}

// SetProperty assigns a DOM property.
func (n *Node) SetProperty(name string, value any) {
	if n.props == nil {
		n.props = make(map[string]any)
	}
	n.props[name] = value
}

// DeleteProperty clears a DOM property.
func (n *Node) DeleteProperty(name string) {
	delete(n.props, name)
}

// TextContent returns the concatenated text of the subtree.
func (n *Node) TextContent() string {
	if n.h.Type == html.TextNode {
		return n.h.Data
	}
	var b strings.Builder
	stack := []*html.Node{n.h}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			continue
		}
		for gc := c.LastChild; gc != nil; gc = gc.PrevSibling {
			stack = append(stack, gc)
		}
	}
	return b.String()
}

// Focus makes n the document's active element and dispatches a
// non-bubbling focus event.
func (n *Node) Focus() {
	if n.doc.focused == n {
		return
	}
	if prev := n.doc.focused; prev != nil {
		n.doc.focused = nil
		prev.DispatchEvent(NewEvent("blur", false))
	}
	n.doc.focused = n
	n.DispatchEvent(NewEvent("focus", false))
}

// Focused reports whether n is the active element.
func (n *Node) Focused() bool { return n.doc.focused == n }

// Play starts media playback and dispatches a play event.
func (n *Node) Play() {
	if !n.Paused() {
		return
	}
	n.SetProperty("paused", false)
	n.DispatchEvent(NewEvent("play", false))
}

// Pause stops media playback.
func (n *Node) Pause() {
	n.SetProperty("paused", true)
}

// Paused reports whether media playback is stopped.
func (n *Node) Paused() bool {
	v, ok := n.props["paused"].(bool)
	return !ok || v
}

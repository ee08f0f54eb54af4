package vdom

import "fmt"

// Kind is the node type discriminator.
type Kind uint8

const (
	KindFragment Kind = iota // Grouping without wrapper
	KindElement              // <div>, <button>, etc.
	KindText                 // Plain text node
	KindRawHTML              // Element whose inner HTML is trusted markup
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindFragment:
		return "Fragment"
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindRawHTML:
		return "RawHTML"
	default:
		return "Unknown"
	}
}

// Mapper transforms a message produced below a node into the message type
// expected above it.
type Mapper func(msg any) any

// Node is the virtual DOM node. Nodes are immutable once built: the view
// produces a fresh tree every render and the diff never writes to it.
type Node struct {
	Kind        Kind
	Key         string      // Reconciliation key, empty means positional
	Mapper      Mapper      // Applied to messages from handlers below this node
	Namespace   string      // Empty for HTML
	Tag         string      // Element and RawHTML tag name
	Attrs       []Attribute // Sorted by name, class/style merged
	Children    []*Node     // Element and Fragment children
	Content     string      // Text content, or inner HTML for KindRawHTML
	SelfClosing bool        // Serialise as <tag/> when there are no children
	Void        bool        // Derived from the (tag, namespace) void table

	keyed      map[string]*Node
	duplicates []string // keys cleared from later children
}

// Element creates an HTML element node.
func Element(tag string, attrs []Attribute, children []*Node) *Node {
	return ElementNS("", tag, attrs, children)
}

// ElementNS creates an element in the given namespace.
func ElementNS(namespace, tag string, attrs []Attribute, children []*Node) *Node {
	n := &Node{
		Kind:      KindElement,
		Namespace: namespace,
		Tag:       tag,
		Attrs:     normalizeAttrs(attrs),
		Void:      IsVoid(tag, namespace),
	}
	n.Children, n.keyed, n.duplicates = indexChildren(children)
	return n
}

// Text creates a text node.
func Text(content string) *Node {
	return &Node{Kind: KindText, Content: content}
}

// Textf creates a formatted text node.
func Textf(format string, args ...any) *Node {
	return Text(fmt.Sprintf(format, args...))
}

// Fragment groups children without a wrapper element.
func Fragment(children ...*Node) *Node {
	n := &Node{Kind: KindFragment}
	n.Children, n.keyed, n.duplicates = indexChildren(children)
	return n
}

// RawHTML creates an element whose children are the given markup.
// The markup is not escaped: never pass user-provided content.
func RawHTML(namespace, tag string, attrs []Attribute, html string) *Node {
	return &Node{
		Kind:      KindRawHTML,
		Namespace: namespace,
		Tag:       tag,
		Attrs:     normalizeAttrs(attrs),
		Content:   html,
	}
}

// WithKey returns a copy of node identified by key. The subtree is shared,
// not rebuilt.
func WithKey(key string, node *Node) *Node {
	if node == nil {
		return nil
	}
	clone := *node
	clone.Key = key
	return &clone
}

// Map returns a copy of node whose handler messages are passed through f.
// Mappers compose: an inner mapper runs before an outer one.
func Map(node *Node, f Mapper) *Node {
	if node == nil || f == nil {
		return node
	}
	clone := *node
	if inner := node.Mapper; inner != nil {
		clone.Mapper = func(msg any) any { return f(inner(msg)) }
	} else {
		clone.Mapper = f
	}
	return &clone
}

// KeyedChild returns the child with the given key.
func (n *Node) KeyedChild(key string) (*Node, bool) {
	if n == nil || n.keyed == nil || key == "" {
		return nil, false
	}
	child, ok := n.keyed[key]
	return child, ok
}

// Attr returns the first attribute with the given name and kind.
func (n *Node) Attr(kind AttrKind, name string) (Attribute, bool) {
	if n == nil {
		return Attribute{}, false
	}
	for _, a := range n.Attrs {
		if a.Kind == kind && a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// HasEvents reports whether the node binds any event handler.
func (n *Node) HasEvents() bool {
	if n == nil {
		return false
	}
	for _, a := range n.Attrs {
		if a.Kind == AttrEvent {
			return true
		}
	}
	return false
}

// indexChildren drops nil children and builds the key lookup. A key seen
// twice keeps only its first holder; later holders become positional and
// their keys are returned as duplicates.
func indexChildren(children []*Node) ([]*Node, map[string]*Node, []string) {
	if len(children) == 0 {
		return nil, nil, nil
	}
	out := make([]*Node, 0, len(children))
	var (
		keyed      map[string]*Node
		duplicates []string
	)
	for _, child := range children {
		if child == nil {
			continue
		}
		if child.Key != "" {
			if keyed == nil {
				keyed = make(map[string]*Node)
			}
			if _, dup := keyed[child.Key]; dup {
				duplicates = append(duplicates, child.Key)
				child = WithKey("", child)
			} else {
				keyed[child.Key] = child
			}
		}
		out = append(out, child)
	}
	return out, keyed, duplicates
}

// DuplicateKeys returns every key in the tree under n that was dropped
// because an earlier sibling already held it, in document order.
func DuplicateKeys(n *Node) []string {
	if n == nil {
		return nil
	}
	var out []string
	stack := []*Node{n}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, top.duplicates...)
		for i := len(top.Children) - 1; i >= 0; i-- {
			stack = append(stack, top.Children[i])
		}
	}
	return out
}

package vdom

// ChangeKind is the type of a change operation.
type ChangeKind uint8

const (
	ChangeReplaceText      ChangeKind = 0x01 // Replace a text node's content
	ChangeReplaceInnerHTML ChangeKind = 0x02 // Replace a raw node's markup
	ChangeUpdate           ChangeKind = 0x03 // Add and remove attributes
	ChangeMove             ChangeKind = 0x04 // Move a keyed child
	ChangeRemove           ChangeKind = 0x05 // Remove a child
	ChangeReplace          ChangeKind = 0x06 // Replace a child
	ChangeInsert           ChangeKind = 0x07 // Insert children
)

// String returns the string representation of the ChangeKind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeReplaceText:
		return "ReplaceText"
	case ChangeReplaceInnerHTML:
		return "ReplaceInnerHTML"
	case ChangeUpdate:
		return "Update"
	case ChangeMove:
		return "Move"
	case ChangeRemove:
		return "Remove"
	case ChangeReplace:
		return "Replace"
	case ChangeInsert:
		return "Insert"
	default:
		return "Unknown"
	}
}

// Change is a single mutation of the node a Patch addresses.
//
// Index-bearing changes refer to positions in the node's child list as it
// stands when the change is applied; changes apply in order.
type Change struct {
	Kind    ChangeKind
	Content string      // ReplaceText, ReplaceInnerHTML
	Added   []Attribute // Update
	Removed []Attribute // Update
	Key     string      // Move
	Before  int         // Move, Insert
	Index   int         // Remove, Replace
	Node    *Node       // Replace
	Nodes   []*Node     // Insert
}

// ReplaceText creates a text replacement.
func ReplaceText(content string) Change {
	return Change{Kind: ChangeReplaceText, Content: content}
}

// ReplaceInnerHTML creates a markup replacement.
func ReplaceInnerHTML(html string) Change {
	return Change{Kind: ChangeReplaceInnerHTML, Content: html}
}

// Update creates an attribute update.
func Update(added, removed []Attribute) Change {
	return Change{Kind: ChangeUpdate, Added: added, Removed: removed}
}

// Move moves the child with key before the child at index before.
func Move(key string, before int) Change {
	return Change{Kind: ChangeMove, Key: key, Before: before}
}

// Remove removes the child at index.
func Remove(index int) Change {
	return Change{Kind: ChangeRemove, Index: index}
}

// Replace replaces the child at index with node.
func Replace(index int, node *Node) Change {
	return Change{Kind: ChangeReplace, Index: index, Node: node}
}

// Insert inserts nodes before the child at index before. An index equal to
// the child count appends.
func Insert(nodes []*Node, before int) Change {
	return Change{Kind: ChangeInsert, Nodes: nodes, Before: before}
}

// Patch addresses one node of the live tree by its index in its parent's
// child list. Changes apply first, then the last Removed children are
// dropped, then each child patch applies to the child at its Index.
type Patch struct {
	Index    int
	Removed  int
	Changes  []Change
	Children []Patch
}

// IsEmpty reports whether applying p would do nothing.
func (p Patch) IsEmpty() bool {
	return p.Removed == 0 && len(p.Changes) == 0 && len(p.Children) == 0
}

// Count returns the number of changes in p and all of its descendants,
// counting a trailing removal as one change.
func (p Patch) Count() int {
	n := len(p.Changes)
	if p.Removed > 0 {
		n++
	}
	for _, c := range p.Children {
		n += c.Count()
	}
	return n
}

// Walk calls fn for every change in p in application order, with the
// depth of the patch that owns it.
func (p Patch) Walk(fn func(depth int, c Change)) {
	type item struct {
		p     Patch
		depth int
	}
	stack := []item{{p: p}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range it.p.Changes {
			fn(it.depth, c)
		}
		for i := len(it.p.Children) - 1; i >= 0; i-- {
			stack = append(stack, item{p: it.p.Children[i], depth: it.depth + 1})
		}
	}
}

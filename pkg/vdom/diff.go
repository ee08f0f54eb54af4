package vdom

import "slices"

// Diff compares old and new and returns the patch that turns a live tree
// rendered from old into one matching new, together with the event registry
// updated for new. A nil old means nothing has been mounted yet; a nil
// events starts a fresh registry.
//
// The returned Patch addresses the mount container, whose single child is
// the root node.
func Diff(events *Events, old, new *Node) (Patch, *Events) {
	if events == nil {
		events = NewEvents()
	}
	events.tick()

	d := differ{events: events}
	root := &frame{
		old:      listOf(old),
		oldKeyed: keyedOf(old),
		new:      listOf(new),
		newKeyed: keyedOf(new),
	}
	p := d.run(root)
	events.commit()
	return p, events
}

func listOf(n *Node) []*Node {
	if n == nil {
		return nil
	}
	return []*Node{n}
}

func keyedOf(n *Node) map[string]*Node {
	if n == nil || n.Key == "" {
		return nil
	}
	return map[string]*Node{n.Key: n}
}

type differ struct {
	events *Events
}

// frame is the state of one child-list comparison. Frames live on an
// explicit stack so deep trees cannot exhaust the goroutine stack.
type frame struct {
	old, new           []*Node
	oldKeyed, newKeyed map[string]*Node

	oi, ni int // cursors into old and new

	// pending is a matched old node moved in front of old[oi:]. It sits at
	// live index pendingAt and is consumed without advancing oi.
	pending   *Node
	pendingAt int

	moved       map[string]struct{}
	movedOffset int // live index of old[oi] minus oi

	path    Path // path of the node owning new
	oldPath Path // path of the node owning old
	mapper  Mapper
	patch   Patch
}

func (f *frame) oldHead() *Node {
	if f.pending != nil {
		return f.pending
	}
	if f.oi < len(f.old) {
		return f.old[f.oi]
	}
	return nil
}

func (f *frame) newHead() *Node {
	if f.ni < len(f.new) {
		return f.new[f.ni]
	}
	return nil
}

// index is the live position of the old head.
func (f *frame) index() int {
	if f.pending != nil {
		return f.pendingAt
	}
	return f.oi + f.movedOffset
}

func (f *frame) advanceOld() {
	if f.pending != nil {
		f.pending = nil
		return
	}
	f.oi++
}

func (f *frame) isMoved(key string) bool {
	if key == "" {
		return false
	}
	_, ok := f.moved[key]
	return ok
}

func (f *frame) change(c Change) {
	f.patch.Changes = append(f.patch.Changes, c)
}

func (f *frame) child(p Patch) {
	f.patch.Children = append(f.patch.Children, p)
}

func (d *differ) run(root *frame) Patch {
	stack := []*frame{root}
	for {
		f := stack[len(stack)-1]
		next, done := d.step(f)
		if next != nil {
			stack = append(stack, next)
			continue
		}
		if !done {
			continue
		}
		stack = stack[:len(stack)-1]
		if len(stack) == 0 {
			return f.patch
		}
		if !f.patch.IsEmpty() {
			stack[len(stack)-1].child(f.patch)
		}
	}
}

// step advances f by one comparison. It returns a frame to descend into
// when a matched pair has children to compare, or done once both lists are
// exhausted.
func (d *differ) step(f *frame) (*frame, bool) {
	prev, next := f.oldHead(), f.newHead()
	switch {
	case prev == nil && next == nil:
		return nil, true

	case next == nil:
		if f.isMoved(prev.Key) {
			f.movedOffset--
		} else {
			f.patch.Removed++
			d.events.removeChild(f.oldPath, f.oi, prev)
		}
		f.advanceOld()
		return nil, false

	case prev == nil:
		rest := f.new[f.ni:]
		f.change(Insert(rest, f.index()))
		d.events.addChildren(f.mapper, f.path, f.ni, rest)
		f.ni = len(f.new)
		return nil, false

	case prev.Key != next.Key:
		d.rekey(f, prev, next)
		return nil, false

	default:
		return d.match(f, prev, next), false
	}
}

// rekey handles heads whose keys differ.
func (d *differ) rekey(f *frame, prev, next *Node) {
	if f.isMoved(prev.Key) {
		// Already moved into place earlier in the list.
		f.movedOffset--
		f.advanceOld()
		return
	}

	var match *Node
	nextDidExist, prevDoesExist := false, false
	if next.Key != "" {
		match, nextDidExist = f.oldKeyed[next.Key]
	}
	if prev.Key != "" {
		_, prevDoesExist = f.newKeyed[prev.Key]
	}

	switch {
	case nextDidExist && prevDoesExist:
		before := f.index()
		f.change(Move(next.Key, before))
		if f.moved == nil {
			f.moved = make(map[string]struct{})
		}
		f.moved[next.Key] = struct{}{}
		f.movedOffset++
		f.pending, f.pendingAt = match, before

	case nextDidExist:
		f.change(Remove(f.index()))
		d.events.removeChild(f.oldPath, f.oi, prev)
		f.movedOffset--
		f.advanceOld()

	case prevDoesExist:
		f.change(Insert([]*Node{next}, f.index()))
		d.events.addChild(f.mapper, f.path, f.ni, next)
		f.movedOffset++
		f.ni++

	default:
		d.replace(f, prev, next)
	}
}

func (d *differ) replace(f *frame, prev, next *Node) {
	f.change(Replace(f.index(), next))
	d.events.removeChild(f.oldPath, f.oi, prev)
	d.events.addChild(f.mapper, f.path, f.ni, next)
	f.advanceOld()
	f.ni++
}

// match compares two heads with the same key.
func (d *differ) match(f *frame, prev, next *Node) *frame {
	if !sameShape(prev, next) {
		d.replace(f, prev, next)
		return nil
	}

	index := f.index()
	oldPath := f.oldPath.Child(f.oi, prev.Key)
	newPath := f.path.Child(f.ni, next.Key)
	f.advanceOld()
	f.ni++

	switch next.Kind {
	case KindText:
		if prev.Content != next.Content {
			f.child(Patch{Index: index, Changes: []Change{ReplaceText(next.Content)}})
		}
		return nil

	case KindRawHTML:
		mapper := compose(f.mapper, next.Mapper)
		changes := d.attrs(controlled(d.events, next, oldPath), oldPath, newPath, mapper, prev.Attrs, next.Attrs)
		if prev.Content != next.Content {
			changes = append(changes, ReplaceInnerHTML(next.Content))
		}
		if len(changes) > 0 {
			f.child(Patch{Index: index, Changes: changes})
		}
		return nil

	default:
		mapper := compose(f.mapper, next.Mapper)
		return &frame{
			old:      prev.Children,
			oldKeyed: prev.keyed,
			new:      next.Children,
			newKeyed: next.keyed,
			path:     newPath,
			oldPath:  oldPath,
			mapper:   mapper,
			patch: Patch{
				Index:   index,
				Changes: d.attrs(controlled(d.events, next, oldPath), oldPath, newPath, mapper, prev.Attrs, next.Attrs),
			},
		}
	}
}

func sameShape(prev, next *Node) bool {
	if prev.Kind != next.Kind {
		return false
	}
	switch next.Kind {
	case KindElement, KindRawHTML:
		return prev.Tag == next.Tag && prev.Namespace == next.Namespace
	default:
		return true
	}
}

// controlled reports whether n is a form field the host may have edited
// since the last render.
func controlled(events *Events, n *Node, oldPath Path) bool {
	if n.Namespace != "" {
		return false
	}
	switch n.Tag {
	case "input", "select", "textarea":
		return events.IsControlled(oldPath)
	}
	return false
}

func isControlledAttr(name string) bool {
	return name == "value" || name == "checked" || name == "selected"
}

// attrs merges two sorted attribute lists into at most one Update change,
// keeping the event registry in step.
func (d *differ) attrs(controlled bool, oldPath, newPath Path, mapper Mapper, prev, next []Attribute) []Change {
	var added, removed []Attribute
	i, j := 0, 0
	for i < len(prev) || j < len(next) {
		var cmp int
		switch {
		case i >= len(prev):
			cmp = 1
		case j >= len(next):
			cmp = -1
		default:
			cmp = compareAttrs(prev[i], next[j])
		}

		switch {
		case cmp < 0:
			a := prev[i]
			i++
			removed = append(removed, a)
			if a.Kind == AttrEvent {
				d.events.remove(oldPath, a.Name)
			}

		case cmp > 0:
			a := next[j]
			j++
			added = append(added, a)
			if a.Kind == AttrEvent {
				d.events.add(mapper, newPath, a)
			}

		default:
			o, a := prev[i], next[j]
			i++
			j++
			if attrChanged(controlled, o, a) {
				added = append(added, a)
			}
			if a.Kind == AttrEvent {
				d.events.remove(oldPath, o.Name)
				d.events.add(mapper, newPath, a)
			}
		}
	}
	if len(added) == 0 && len(removed) == 0 {
		return nil
	}
	return []Change{Update(added, removed)}
}

func attrChanged(controlled bool, o, a Attribute) bool {
	switch a.Kind {
	case AttrAttribute:
		if controlled && isControlledAttr(a.Name) {
			return true
		}
		return o.Value != a.Value
	case AttrProperty:
		if controlled && isControlledAttr(a.Name) {
			return true
		}
		return !propsEqual(o.Property, a.Property)
	case AttrEvent:
		// Handlers are swapped in the registry; the host only needs to
		// hear about listener configuration.
		return !sameBinding(o, a)
	}
	return false
}

func sameBinding(o, a Attribute) bool {
	return o.PreventDefault == a.PreventDefault &&
		o.StopPropagation == a.StopPropagation &&
		o.Immediate == a.Immediate &&
		o.Debounce == a.Debounce &&
		o.Throttle == a.Throttle &&
		slices.Equal(o.Include, a.Include)
}

package protocol

import (
	"errors"
	"time"

	"github.com/vango-go/weft/pkg/vdom"
)

// nilNode marks an absent node.
const nilNode byte = 0xFF

// ErrUnknownNodeKind is returned for a node kind byte this package does
// not know.
var ErrUnknownNodeKind = errors.New("protocol: unknown node kind")

// Node wire format:
//
//	[kind: byte][key: string] then, by kind,
//	Element:  [namespace][tag][selfClosing: bool][attrs][children]
//	Text:     [content]
//	Fragment: [children]
//	RawHTML:  [namespace][tag][attrs][content]
//
// Event bindings travel without their decoder: the receiving side only
// needs to know which listeners to install and how to treat them.

// EncodeNode appends node to e.
func EncodeNode(e *Encoder, node *vdom.Node) {
	if node == nil {
		e.WriteUint8(nilNode)
		return
	}
	e.WriteUint8(byte(node.Kind))
	e.WriteString(node.Key)
	switch node.Kind {
	case vdom.KindElement:
		e.WriteString(node.Namespace)
		e.WriteString(node.Tag)
		e.WriteBool(node.SelfClosing)
		encodeAttrs(e, node.Attrs)
		encodeNodes(e, node.Children)
	case vdom.KindText:
		e.WriteString(node.Content)
	case vdom.KindFragment:
		encodeNodes(e, node.Children)
	case vdom.KindRawHTML:
		e.WriteString(node.Namespace)
		e.WriteString(node.Tag)
		encodeAttrs(e, node.Attrs)
		e.WriteString(node.Content)
	}
}

func encodeNodes(e *Encoder, nodes []*vdom.Node) {
	e.WriteUvarint(uint64(len(nodes)))
	for _, n := range nodes {
		EncodeNode(e, n)
	}
}

func encodeAttrs(e *Encoder, attrs []vdom.Attribute) {
	e.WriteUvarint(uint64(len(attrs)))
	for _, a := range attrs {
		e.WriteUint8(byte(a.Kind))
		e.WriteString(a.Name)
		switch a.Kind {
		case vdom.AttrAttribute:
			e.WriteString(a.Value)
		case vdom.AttrProperty:
			e.WriteValue(a.Property)
		case vdom.AttrEvent:
			e.WriteStrings(a.Include)
			e.WriteUint8(byte(a.PreventDefault))
			e.WriteUint8(byte(a.StopPropagation))
			e.WriteBool(a.Immediate)
			e.WriteInt(int(a.Debounce / time.Millisecond))
			e.WriteInt(int(a.Throttle / time.Millisecond))
		}
	}
}

// DecodeNode reads a node written by EncodeNode. Decoded event bindings
// have no Handler.
func DecodeNode(d *Decoder) (*vdom.Node, error) {
	return decodeNode(d, 0)
}

func decodeNode(d *Decoder, depth int) (*vdom.Node, error) {
	if depth > MaxNodeDepth {
		return nil, ErrMaxDepthExceeded
	}
	kind, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	if kind == nilNode {
		return nil, nil
	}
	key, err := d.ReadString()
	if err != nil {
		return nil, err
	}

	var node *vdom.Node
	switch vdom.Kind(kind) {
	case vdom.KindElement:
		var ns, tag string
		var selfClosing bool
		if ns, err = d.ReadString(); err != nil {
			return nil, err
		}
		if tag, err = d.ReadString(); err != nil {
			return nil, err
		}
		if selfClosing, err = d.ReadBool(); err != nil {
			return nil, err
		}
		attrs, err := decodeAttrs(d)
		if err != nil {
			return nil, err
		}
		children, err := decodeNodes(d, depth)
		if err != nil {
			return nil, err
		}
		node = vdom.ElementNS(ns, tag, attrs, children)
		node.SelfClosing = selfClosing
	case vdom.KindText:
		content, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		node = vdom.Text(content)
	case vdom.KindFragment:
		children, err := decodeNodes(d, depth)
		if err != nil {
			return nil, err
		}
		node = vdom.Fragment(children...)
	case vdom.KindRawHTML:
		var ns, tag, content string
		if ns, err = d.ReadString(); err != nil {
			return nil, err
		}
		if tag, err = d.ReadString(); err != nil {
			return nil, err
		}
		attrs, err := decodeAttrs(d)
		if err != nil {
			return nil, err
		}
		if content, err = d.ReadString(); err != nil {
			return nil, err
		}
		node = vdom.RawHTML(ns, tag, attrs, content)
	default:
		return nil, ErrUnknownNodeKind
	}
	if key != "" {
		node = vdom.WithKey(key, node)
	}
	return node, nil
}

func decodeNodes(d *Decoder, depth int) ([]*vdom.Node, error) {
	n, err := d.ReadCollectionCount()
	if err != nil || n == 0 {
		return nil, err
	}
	nodes := make([]*vdom.Node, 0, n)
	for i := 0; i < n; i++ {
		child, err := decodeNode(d, depth+1)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, child)
	}
	return nodes, nil
}

func decodeAttrs(d *Decoder) ([]vdom.Attribute, error) {
	n, err := d.ReadCollectionCount()
	if err != nil || n == 0 {
		return nil, err
	}
	attrs := make([]vdom.Attribute, n)
	for i := range attrs {
		a := &attrs[i]
		kind, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		a.Kind = vdom.AttrKind(kind)
		if a.Name, err = d.ReadString(); err != nil {
			return nil, err
		}
		switch a.Kind {
		case vdom.AttrAttribute:
			a.Value, err = d.ReadString()
		case vdom.AttrProperty:
			a.Property, err = d.ReadValue()
		case vdom.AttrEvent:
			err = decodeBinding(d, a)
		default:
			return nil, ErrInvalidValue
		}
		if err != nil {
			return nil, err
		}
	}
	return attrs, nil
}

func decodeBinding(d *Decoder, a *vdom.Attribute) error {
	var err error
	if a.Include, err = d.ReadStrings(); err != nil {
		return err
	}
	prevent, err := readPolicy(d)
	if err != nil {
		return err
	}
	stop, err := readPolicy(d)
	if err != nil {
		return err
	}
	a.PreventDefault, a.StopPropagation = prevent, stop
	if a.Immediate, err = d.ReadBool(); err != nil {
		return err
	}
	debounce, err := d.ReadInt()
	if err != nil {
		return err
	}
	throttle, err := d.ReadInt()
	if err != nil {
		return err
	}
	a.Debounce = time.Duration(debounce) * time.Millisecond
	a.Throttle = time.Duration(throttle) * time.Millisecond
	return nil
}

func readPolicy(d *Decoder) (vdom.Policy, error) {
	b, err := d.ReadByte()
	if err != nil {
		return 0, err
	}
	if p := vdom.Policy(b); p <= vdom.Always {
		return p, nil
	}
	return 0, ErrInvalidValue
}

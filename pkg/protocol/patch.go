package protocol

import (
	"errors"

	"github.com/vango-go/weft/pkg/vdom"
)

// ErrUnknownChange is returned for a change kind byte this package does
// not know.
var ErrUnknownChange = errors.New("protocol: unknown change kind")

// PatchMessage is a patch with the sequence number of the render that
// produced it. Sequence numbers start at 1 and grow by one per pushed
// patch, so the client can detect a lost message.
type PatchMessage struct {
	Seq   uint64
	Patch vdom.Patch
}

// EncodePatch encodes a patch message.
//
//	[seq: uvarint][patch]
//	patch:  [index][removed][changes: count, change...][children: count, patch...]
//	change: [kind: byte] then, by kind,
//	        ReplaceText, ReplaceInnerHTML: [content]
//	        Update:  [added attrs][removed attrs]
//	        Move:    [key][before]
//	        Remove:  [index]
//	        Replace: [index][node]
//	        Insert:  [before][nodes]
func EncodePatch(m *PatchMessage) []byte {
	e := NewEncoder()
	EncodePatchTo(e, m)
	return e.Bytes()
}

// EncodePatchTo encodes a patch message using the provided encoder.
func EncodePatchTo(e *Encoder, m *PatchMessage) {
	e.WriteUvarint(m.Seq)
	encodePatch(e, &m.Patch)
}

func encodePatch(e *Encoder, p *vdom.Patch) {
	e.WriteInt(p.Index)
	e.WriteInt(p.Removed)
	e.WriteUvarint(uint64(len(p.Changes)))
	for i := range p.Changes {
		encodeChange(e, &p.Changes[i])
	}
	e.WriteUvarint(uint64(len(p.Children)))
	for i := range p.Children {
		encodePatch(e, &p.Children[i])
	}
}

func encodeChange(e *Encoder, c *vdom.Change) {
	e.WriteUint8(byte(c.Kind))
	switch c.Kind {
	case vdom.ChangeReplaceText, vdom.ChangeReplaceInnerHTML:
		e.WriteString(c.Content)
	case vdom.ChangeUpdate:
		encodeAttrs(e, c.Added)
		encodeAttrs(e, c.Removed)
	case vdom.ChangeMove:
		e.WriteString(c.Key)
		e.WriteInt(c.Before)
	case vdom.ChangeRemove:
		e.WriteInt(c.Index)
	case vdom.ChangeReplace:
		e.WriteInt(c.Index)
		EncodeNode(e, c.Node)
	case vdom.ChangeInsert:
		e.WriteInt(c.Before)
		encodeNodes(e, c.Nodes)
	}
}

// DecodePatch decodes a patch message. The whole of data must be
// consumed.
func DecodePatch(data []byte) (*PatchMessage, error) {
	d := NewDecoder(data)
	m, err := DecodePatchFrom(d)
	if err != nil {
		return nil, err
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return m, nil
}

// DecodePatchFrom decodes a patch message from a decoder.
func DecodePatchFrom(d *Decoder) (*PatchMessage, error) {
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	m := &PatchMessage{Seq: seq}
	if err := decodePatch(d, &m.Patch, 0); err != nil {
		return nil, err
	}
	return m, nil
}

func decodePatch(d *Decoder, p *vdom.Patch, depth int) error {
	if depth > MaxPatchDepth {
		return ErrMaxDepthExceeded
	}
	var err error
	if p.Index, err = d.ReadInt(); err != nil {
		return err
	}
	if p.Removed, err = d.ReadInt(); err != nil {
		return err
	}

	n, err := d.ReadCollectionCount()
	if err != nil {
		return err
	}
	if n > 0 {
		p.Changes = make([]vdom.Change, n)
		for i := range p.Changes {
			if err := decodeChange(d, &p.Changes[i]); err != nil {
				return err
			}
		}
	}

	if n, err = d.ReadCollectionCount(); err != nil {
		return err
	}
	if n > 0 {
		p.Children = make([]vdom.Patch, n)
		for i := range p.Children {
			if err := decodePatch(d, &p.Children[i], depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func decodeChange(d *Decoder, c *vdom.Change) error {
	kind, err := d.ReadByte()
	if err != nil {
		return err
	}
	c.Kind = vdom.ChangeKind(kind)
	switch c.Kind {
	case vdom.ChangeReplaceText, vdom.ChangeReplaceInnerHTML:
		c.Content, err = d.ReadString()
	case vdom.ChangeUpdate:
		if c.Added, err = decodeAttrs(d); err != nil {
			return err
		}
		c.Removed, err = decodeAttrs(d)
	case vdom.ChangeMove:
		if c.Key, err = d.ReadString(); err != nil {
			return err
		}
		c.Before, err = d.ReadInt()
	case vdom.ChangeRemove:
		c.Index, err = d.ReadInt()
	case vdom.ChangeReplace:
		if c.Index, err = d.ReadInt(); err != nil {
			return err
		}
		c.Node, err = DecodeNode(d)
	case vdom.ChangeInsert:
		if c.Before, err = d.ReadInt(); err != nil {
			return err
		}
		c.Nodes, err = decodeNodes(d, 0)
	default:
		return ErrUnknownChange
	}
	return err
}

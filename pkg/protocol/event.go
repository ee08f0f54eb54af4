package protocol

import (
	"sort"

	"github.com/vango-go/weft/pkg/vdom"
)

// Event is a listener firing reported by a remote live tree. Path and
// Name identify the binding; Type and Fields are the event payload as
// vdom decoders see it.
type Event struct {
	Seq       uint64
	Path      vdom.Path
	Name      string
	Type      string
	Fields    map[string]any
	Immediate bool
}

// VDOM returns the payload in the form handlers decode.
func (e *Event) VDOM() vdom.Event {
	return vdom.Event{Type: e.Type, Fields: e.Fields}
}

// EncodeEvent encodes an event.
//
//	[seq: uvarint][path][name][type][immediate: bool]
//	[fields: count, (name, value)...]
//
// Fields are written in name order so equal events encode identically.
func EncodeEvent(ev *Event) []byte {
	e := NewEncoder()
	EncodeEventTo(e, ev)
	return e.Bytes()
}

// EncodeEventTo encodes an event using the provided encoder.
func EncodeEventTo(e *Encoder, ev *Event) {
	e.WriteUvarint(ev.Seq)
	e.WriteString(string(ev.Path))
	e.WriteString(ev.Name)
	e.WriteString(ev.Type)
	e.WriteBool(ev.Immediate)

	names := make([]string, 0, len(ev.Fields))
	for name := range ev.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	e.WriteUvarint(uint64(len(names)))
	for _, name := range names {
		e.WriteString(name)
		e.WriteValue(ev.Fields[name])
	}
}

// DecodeEvent decodes an event. The whole of data must be consumed.
func DecodeEvent(data []byte) (*Event, error) {
	d := NewDecoder(data)
	ev, err := DecodeEventFrom(d)
	if err != nil {
		return nil, err
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return ev, nil
}

// DecodeEventFrom decodes an event from a decoder.
func DecodeEventFrom(d *Decoder) (*Event, error) {
	var (
		ev  Event
		err error
	)
	if ev.Seq, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	path, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	ev.Path = vdom.Path(path)
	if ev.Name, err = d.ReadString(); err != nil {
		return nil, err
	}
	if ev.Type, err = d.ReadString(); err != nil {
		return nil, err
	}
	if ev.Immediate, err = d.ReadBool(); err != nil {
		return nil, err
	}

	n, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	if n > 0 {
		ev.Fields = make(map[string]any, n)
		for i := 0; i < n; i++ {
			name, err := d.ReadString()
			if err != nil {
				return nil, err
			}
			if ev.Fields[name], err = d.ReadValue(); err != nil {
				return nil, err
			}
		}
	}
	return &ev, nil
}

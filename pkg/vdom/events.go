package vdom

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrDecode is returned by decoders when an event payload does not have the
// expected shape. The runtime drops such events without dispatching.
var ErrDecode = errors.New("vdom: cannot decode event")

// Event is the payload a live tree reports when a listener fires. Fields
// holds the host event's own data plus any Include paths of the binding,
// keyed by dotted path ("key", "target.value").
type Event struct {
	Type   string
	Fields map[string]any
}

// Get returns the raw field at path.
func (e Event) Get(path string) (any, bool) {
	v, ok := e.Fields[path]
	return v, ok
}

// String decodes the field at path as a string.
func (e Event) String(path string) (string, error) {
	v, ok := e.Fields[path]
	if !ok {
		return "", fmt.Errorf("%w: missing %q", ErrDecode, path)
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case fmt.Stringer:
		return s.String(), nil
	}
	return "", fmt.Errorf("%w: %q is %T, want string", ErrDecode, path, v)
}

// Float decodes the field at path as a number.
func (e Event) Float(path string) (float64, error) {
	v, ok := e.Fields[path]
	if !ok {
		return 0, fmt.Errorf("%w: missing %q", ErrDecode, path)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrDecode, path, err)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%w: %q is %T, want number", ErrDecode, path, v)
}

// Bool decodes the field at path as a boolean.
func (e Event) Bool(path string) (bool, error) {
	v, ok := e.Fields[path]
	if !ok {
		return false, fmt.Errorf("%w: missing %q", ErrDecode, path)
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return b == "true" || b == "", nil
	}
	return false, fmt.Errorf("%w: %q is %T, want bool", ErrDecode, path, v)
}

// Decoder turns an event payload into an application message. Returning an
// error means the event is not for this handler.
type Decoder func(Event) (any, error)

// EventOption configures an event binding.
type EventOption func(*Attribute)

// Debounce delays delivery until the event has been quiet for d.
func Debounce(d time.Duration) EventOption {
	return func(a *Attribute) { a.Debounce = d }
}

// Throttle delivers at most one event per window d.
func Throttle(d time.Duration) EventOption {
	return func(a *Attribute) { a.Throttle = d }
}

// PreventDefault sets the default-action policy.
func PreventDefault(p Policy) EventOption {
	return func(a *Attribute) { a.PreventDefault = p }
}

// StopPropagation sets the propagation policy.
func StopPropagation(p Policy) EventOption {
	return func(a *Attribute) { a.StopPropagation = p }
}

// Immediate asks the runtime to render synchronously after the resulting
// update instead of waiting for the next frame.
func Immediate() EventOption {
	return func(a *Attribute) { a.Immediate = true }
}

// Include adds host event fields to the payload.
func Include(paths ...string) EventOption {
	return func(a *Attribute) { a.Include = append(a.Include, paths...) }
}

// On binds a handler for the named event.
func On(name string, decode Decoder, opts ...EventOption) Attribute {
	a := Attribute{Kind: AttrEvent, Name: name, Handler: decode}
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

// Mouse events

// OnClick dispatches msg on click.
func OnClick(msg any, opts ...EventOption) Attribute {
	return On("click", constant(msg), opts...)
}

// OnDblClick dispatches msg on double click.
func OnDblClick(msg any, opts ...EventOption) Attribute {
	return On("dblclick", constant(msg), opts...)
}

// OnMouseDown dispatches the pointer position on mousedown.
func OnMouseDown(f func(x, y float64) any, opts ...EventOption) Attribute {
	return On("mousedown", pointer(f), opts...)
}

// OnMouseMove dispatches the pointer position on mousemove.
func OnMouseMove(f func(x, y float64) any, opts ...EventOption) Attribute {
	return On("mousemove", pointer(f), opts...)
}

// Keyboard events

// OnKeyDown dispatches the pressed key.
func OnKeyDown(f func(key string) any, opts ...EventOption) Attribute {
	return On("keydown", func(e Event) (any, error) {
		key, err := e.String("key")
		if err != nil {
			return nil, err
		}
		return f(key), nil
	}, opts...)
}

// Form events

// OnInput dispatches the control's value on every input.
func OnInput(f func(value string) any, opts ...EventOption) Attribute {
	return On("input", targetString("target.value", f), append([]EventOption{Include("target.value")}, opts...)...)
}

// OnChange dispatches the control's value when it is committed.
func OnChange(f func(value string) any, opts ...EventOption) Attribute {
	return On("change", targetString("target.value", f), append([]EventOption{Include("target.value")}, opts...)...)
}

// OnCheck dispatches a checkbox's checked state.
func OnCheck(f func(checked bool) any, opts ...EventOption) Attribute {
	return On("change", func(e Event) (any, error) {
		checked, err := e.Bool("target.checked")
		if err != nil {
			return nil, err
		}
		return f(checked), nil
	}, append([]EventOption{Include("target.checked")}, opts...)...)
}

// OnSubmit dispatches msg on form submission and always prevents the
// browser's navigation.
func OnSubmit(msg any, opts ...EventOption) Attribute {
	return On("submit", constant(msg), append([]EventOption{PreventDefault(Always)}, opts...)...)
}

// OnFocus dispatches msg when the element gains focus.
func OnFocus(msg any, opts ...EventOption) Attribute {
	return On("focus", constant(msg), opts...)
}

// OnBlur dispatches msg when the element loses focus.
func OnBlur(msg any, opts ...EventOption) Attribute {
	return On("blur", constant(msg), opts...)
}

// OnScroll dispatches the scroll offsets of the element.
func OnScroll(f func(top, left float64) any, opts ...EventOption) Attribute {
	return On("scroll", func(e Event) (any, error) {
		top, err := e.Float("target.scrollTop")
		if err != nil {
			return nil, err
		}
		left, err := e.Float("target.scrollLeft")
		if err != nil {
			return nil, err
		}
		return f(top, left), nil
	}, append([]EventOption{Include("target.scrollTop", "target.scrollLeft")}, opts...)...)
}

func constant(msg any) Decoder {
	return func(Event) (any, error) { return msg, nil }
}

func targetString(path string, f func(string) any) Decoder {
	return func(e Event) (any, error) {
		v, err := e.String(path)
		if err != nil {
			return nil, err
		}
		return f(v), nil
	}
}

func pointer(f func(x, y float64) any) Decoder {
	return func(e Event) (any, error) {
		x, err := e.Float("clientX")
		if err != nil {
			return nil, err
		}
		y, err := e.Float("clientY")
		if err != nil {
			return nil, err
		}
		return f(x, y), nil
	}
}

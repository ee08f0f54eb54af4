package runtime

import (
	"strings"

	"github.com/vango-go/weft/internal/errors"
	"github.com/vango-go/weft/pkg/dom"
)

// Element is a host element bridged to a runtime. The host calls these
// hooks as the element enters and leaves the document and as its
// attributes change.
type Element interface {
	Connect()
	Disconnect()
	AttributeChanged(name, old, value string)
	Adopted()
}

// Factory creates the Element for a newly upgraded host node.
type Factory func(host *dom.Node) (Element, error)

// Registry maps custom element names to factories. Each Server or page
// owns its own Registry.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// reservedNames are hyphenated names the host reserves for itself.
var reservedNames = map[string]bool{
	"annotation-xml":   true,
	"color-profile":    true,
	"font-face":        true,
	"font-face-src":    true,
	"font-face-uri":    true,
	"font-face-format": true,
	"font-face-name":   true,
	"missing-glyph":    true,
}

// ValidComponentName reports whether name is a valid custom element name:
// a lowercase ASCII letter followed by lowercase letters, digits, '-',
// '.' or '_', containing at least one hyphen and not reserved.
func ValidComponentName(name string) bool {
	if name == "" || name[0] < 'a' || name[0] > 'z' {
		return false
	}
	if !strings.Contains(name, "-") || reservedNames[name] {
		return false
	}
	for i := 1; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '.', c == '_':
		default:
			return false
		}
	}
	return true
}

// Define registers factory under name.
func (r *Registry) Define(name string, factory Factory) error {
	if !ValidComponentName(name) {
		return errors.New("E103").
			WithValue(name).
			WithSuggestion("use a lowercase name containing a hyphen, such as my-widget").
			Wrap(ErrInvalidComponentName)
	}
	if _, ok := r.factories[name]; ok {
		return errors.New("E102").WithValue(name).Wrap(ErrDuplicateComponent)
	}
	r.factories[name] = factory
	return nil
}

// Lookup returns the factory defined for name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	f, ok := r.factories[name]
	return f, ok
}

// Upgrade creates the Element for host from the factory defined for its
// tag.
func (r *Registry) Upgrade(host *dom.Node) (Element, error) {
	f, ok := r.factories[host.Tag()]
	if !ok {
		return nil, errors.New("E106").WithValue(host.Tag()).Wrap(ErrUnknownComponent)
	}
	return f(host)
}

// Lifecycle translates host hooks into messages. A hook that is nil or
// returns false dispatches nothing.
type Lifecycle[Msg any] struct {
	// Attributes maps observed attribute names to message constructors.
	Attributes   map[string]func(value string) (Msg, bool)
	Connected    func() (Msg, bool)
	Disconnected func() (Msg, bool)
	Adopted      func() (Msg, bool)
}

// Component is an Element whose content is rendered by its own runtime
// into the host node.
type Component[Model, Msg any] struct {
	host      *dom.Node
	runtime   *Runtime[Model, Msg]
	lifecycle Lifecycle[Msg]

	connected     bool
	unsubscribers []func()
}

// NewComponent builds a component for host. The runtime starts on the
// first Connect.
func NewComponent[Model, Msg any](host *dom.Node, app App[Model, Msg], sched Scheduler, lifecycle Lifecycle[Msg], opts ...Option) (*Component[Model, Msg], error) {
	rt, err := hostRuntime(host, app, sched, opts)
	if err != nil {
		return nil, err
	}
	return &Component[Model, Msg]{host: host, runtime: rt, lifecycle: lifecycle}, nil
}

// Runtime returns the component's runtime.
func (c *Component[Model, Msg]) Runtime() *Runtime[Model, Msg] { return c.runtime }

// Connect implements Element.
func (c *Component[Model, Msg]) Connect() {
	if c.connected {
		return
	}
	c.connected = true
	if !c.runtime.started {
		_ = c.runtime.Start()
	}
	c.fire(c.lifecycle.Connected)
}

// Disconnect implements Element. Context subscriptions made through
// RequestContext end here.
func (c *Component[Model, Msg]) Disconnect() {
	if !c.connected {
		return
	}
	c.connected = false
	for _, unsubscribe := range c.unsubscribers {
		unsubscribe()
	}
	c.unsubscribers = nil
	c.fire(c.lifecycle.Disconnected)
}

// AttributeChanged implements Element.
func (c *Component[Model, Msg]) AttributeChanged(name, old, value string) {
	if old == value {
		return
	}
	if f, ok := c.lifecycle.Attributes[name]; ok {
		if msg, ok := f(value); ok {
			c.runtime.Dispatch(msg, false)
		}
	}
}

// Adopted implements Element.
func (c *Component[Model, Msg]) Adopted() {
	c.fire(c.lifecycle.Adopted)
}

func (c *Component[Model, Msg]) fire(hook func() (Msg, bool)) {
	if hook == nil {
		return
	}
	if msg, ok := hook(); ok {
		c.runtime.Dispatch(msg, false)
	}
}

// RequestContext asks the component's ancestors for key. Every value it
// receives (once, or on every change when subscribe is set) is turned
// into a message by toMsg. Subscriptions end on Disconnect.
func (c *Component[Model, Msg]) RequestContext(key string, subscribe bool, toMsg func(value any) Msg) bool {
	stored := false
	return RequestContext(c.host, key, subscribe, func(value any, unsubscribe func()) {
		if subscribe && !stored {
			stored = true
			c.unsubscribers = append(c.unsubscribers, unsubscribe)
		}
		c.runtime.Dispatch(toMsg(value), false)
	})
}

var _ Element = (*Component[struct{}, struct{}])(nil)

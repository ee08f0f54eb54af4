package vdom

import (
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// AttrKind discriminates the Attribute variants.
type AttrKind uint8

const (
	AttrAttribute AttrKind = iota // Reflected as an HTML attribute
	AttrProperty                  // Assigned as a DOM property
	AttrEvent                     // Event listener binding
)

// String returns the string representation of the AttrKind.
func (k AttrKind) String() string {
	switch k {
	case AttrAttribute:
		return "Attribute"
	case AttrProperty:
		return "Property"
	case AttrEvent:
		return "Event"
	default:
		return "Unknown"
	}
}

// Policy decides whether an event's default action or propagation is
// suppressed.
type Policy uint8

const (
	Never    Policy = iota // Leave the event alone
	Possible               // Suppress when the handler accepts the event
	Always                 // Always suppress
)

// Attribute is one entry of a node's attribute list.
//
// Only the fields relevant to Kind are meaningful: Value for attributes,
// Property for properties, the remaining fields for events.
type Attribute struct {
	Kind     AttrKind
	Name     string
	Value    string
	Property any

	Handler         Decoder
	Include         []string
	PreventDefault  Policy
	StopPropagation Policy
	Immediate       bool
	Debounce        time.Duration
	Throttle        time.Duration
}

// Attr creates a plain attribute.
func Attr(name, value string) Attribute {
	return Attribute{Kind: AttrAttribute, Name: name, Value: value}
}

// Prop creates a DOM property assignment.
func Prop(name string, value any) Attribute {
	return Attribute{Kind: AttrProperty, Name: name, Property: value}
}

// BoolAttr creates a boolean attribute. A false value produces an empty
// Attribute that constructors drop.
func BoolAttr(name string, on bool) Attribute {
	if !on {
		return Attribute{}
	}
	return Attr(name, "")
}

// ID sets the id attribute.
func ID(id string) Attribute { return Attr("id", id) }

// Class sets the class attribute. Multiple Class attributes on one node are
// merged, space-separated.
func Class(classes ...string) Attribute { return Attr("class", strings.Join(classes, " ")) }

// Style sets the style attribute. Multiple Style attributes on one node are
// merged, semicolon-separated.
func Style(style string) Attribute { return Attr("style", style) }

// Href sets the href attribute.
func Href(url string) Attribute { return Attr("href", url) }

// Type sets the type attribute.
func Type(t string) Attribute { return Attr("type", t) }

// Name sets the name attribute.
func Name(name string) Attribute { return Attr("name", name) }

// Placeholder sets the placeholder attribute.
func Placeholder(text string) Attribute { return Attr("placeholder", text) }

// Data creates a data-* attribute.
func Data(key, value string) Attribute { return Attr("data-"+key, value) }

// Value sets the value property of a form control.
func Value(v string) Attribute { return Prop("value", v) }

// Checked sets the checked property of a checkbox or radio.
func Checked(on bool) Attribute { return Prop("checked", on) }

// Selected sets the selected property of an option.
func Selected(on bool) Attribute { return Prop("selected", on) }

// Disabled sets the disabled property.
func Disabled(on bool) Attribute { return Prop("disabled", on) }

// Autofocus focuses the element when it is mounted.
func Autofocus(on bool) Attribute { return BoolAttr("autofocus", on) }

// Autoplay starts media playback when the element is mounted.
func Autoplay(on bool) Attribute { return BoolAttr("autoplay", on) }

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attribute) IsEmpty() bool {
	return a.Name == ""
}

// StringValue renders the attribute's value as a string.
func (a Attribute) StringValue() string {
	switch a.Kind {
	case AttrAttribute:
		return a.Value
	case AttrProperty:
		return propToString(a.Property)
	default:
		return ""
	}
}

// compareAttrs orders attributes by name, then kind.
func compareAttrs(a, b Attribute) int {
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	switch {
	case a.Kind < b.Kind:
		return -1
	case a.Kind > b.Kind:
		return 1
	}
	return 0
}

// normalizeAttrs sorts attributes and merges duplicates. Duplicate class
// and style attributes are joined; any other duplicate keeps the last
// declaration.
func normalizeAttrs(attrs []Attribute) []Attribute {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]Attribute, 0, len(attrs))
	for _, a := range attrs {
		if !a.IsEmpty() {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return compareAttrs(out[i], out[j]) < 0
	})

	merged := out[:0]
	for _, a := range out {
		n := len(merged)
		if n == 0 || compareAttrs(merged[n-1], a) != 0 {
			merged = append(merged, a)
			continue
		}
		prev := &merged[n-1]
		switch {
		case a.Kind == AttrAttribute && a.Name == "class":
			prev.Value = joinNonEmpty(prev.Value, a.Value, " ")
		case a.Kind == AttrAttribute && a.Name == "style":
			prev.Value = joinNonEmpty(strings.TrimRight(prev.Value, "; "), a.Value, ";")
		default:
			*prev = a
		}
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}

func joinNonEmpty(a, b, sep string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + sep + b
	}
}

// propsEqual compares two property values for equality.
func propsEqual(a, b any) bool {
	// Fast path for common types
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case nil:
		return b == nil
	}
	// Fallback to reflect for complex types
	return reflect.DeepEqual(a, b)
}

// propToString converts a property value to its attribute spelling.
func propToString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case interface{ String() string }:
		return val.String()
	default:
		return ""
	}
}

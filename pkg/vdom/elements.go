package vdom

// NamespaceSVG is the SVG namespace URI.
const NamespaceSVG = "http://www.w3.org/2000/svg"

// voidElements are HTML elements that cannot have children.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// IsVoid reports whether (tag, namespace) names a void element. Only the
// HTML namespace has void elements.
func IsVoid(tag, namespace string) bool {
	if namespace != "" {
		return false
	}
	return voidElements[tag]
}

// createElement creates a new element with the given tag and arguments.
// Arguments can be: nil, Attribute, []Attribute, *Node, []*Node, string.
func createElement(namespace, tag string, args []any) *Node {
	var attrs []Attribute
	var children []*Node

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			// Ignore nil (allows conditional attributes)
			continue
		case Attribute:
			attrs = append(attrs, v)
		case []Attribute:
			attrs = append(attrs, v...)
		case *Node:
			if v != nil {
				children = append(children, v)
			}
		case []*Node:
			children = append(children, v...)
		case string:
			children = append(children, Text(v))
		}
	}

	n := ElementNS(namespace, tag, attrs, children)
	if namespace != "" && len(n.Children) == 0 {
		n.SelfClosing = true
	}
	return n
}

// El creates an HTML element from variadic arguments.
func El(tag string, args ...any) *Node { return createElement("", tag, args) }

// ElNS creates a namespaced element from variadic arguments.
func ElNS(namespace, tag string, args ...any) *Node { return createElement(namespace, tag, args) }

// Keyed wraps child under key for use as a keyed child.
func Keyed(key string, child *Node) *Node { return WithKey(key, child) }

// Div creates a <div> element.
func Div(args ...any) *Node { return El("div", args...) }

// Span creates a <span> element.
func Span(args ...any) *Node { return El("span", args...) }

// P creates a <p> element.
func P(args ...any) *Node { return El("p", args...) }

// H1 creates an <h1> element.
func H1(args ...any) *Node { return El("h1", args...) }

// Button creates a <button> element.
func Button(args ...any) *Node { return El("button", args...) }

// Ul creates a <ul> element.
func Ul(args ...any) *Node { return El("ul", args...) }

// Li creates an <li> element.
func Li(args ...any) *Node { return El("li", args...) }

// Form creates a <form> element.
func Form(args ...any) *Node { return El("form", args...) }

// Label creates a <label> element.
func Label(args ...any) *Node { return El("label", args...) }

// Input creates an <input> element.
func Input(args ...any) *Node { return El("input", args...) }

// Textarea creates a <textarea> element.
func Textarea(args ...any) *Node { return El("textarea", args...) }

// Select creates a <select> element.
func Select(args ...any) *Node { return El("select", args...) }

// Option creates an <option> element.
func Option(args ...any) *Node { return El("option", args...) }

// Video creates a <video> element.
func Video(args ...any) *Node { return El("video", args...) }

// Svg creates an <svg> element in the SVG namespace.
func Svg(args ...any) *Node { return ElNS(NamespaceSVG, "svg", args...) }

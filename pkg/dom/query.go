package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// selector is a single compound selector: an optional tag followed by any
// number of #id and .class parts.
type selector struct {
	tag     string
	id      string
	classes []string
}

func parseSelector(s string) (selector, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " >+~[:,") {
		return selector{}, false
	}
	var sel selector
	i := strings.IndexAny(s, "#.")
	if i < 0 {
		sel.tag = strings.ToLower(s)
		return sel, true
	}
	sel.tag = strings.ToLower(s[:i])
	rest := s[i:]
	for rest != "" {
		kind := rest[0]
		rest = rest[1:]
		end := strings.IndexAny(rest, "#.")
		if end < 0 {
			end = len(rest)
		}
		part := rest[:end]
		rest = rest[end:]
		if part == "" {
			return selector{}, false
		}
		if kind == '#' {
			sel.id = part
		} else {
			sel.classes = append(sel.classes, part)
		}
	}
	return sel, true
}

func (s selector) match(h *html.Node) bool {
	if h.Type != html.ElementNode {
		return false
	}
	if s.tag != "" && h.Data != s.tag {
		return false
	}
	var id, class string
	for _, a := range h.Attr {
		switch a.Key {
		case "id":
			id = a.Val
		case "class":
			class = a.Val
		}
	}
	if s.id != "" && id != s.id {
		return false
	}
	if len(s.classes) > 0 {
		have := strings.Fields(class)
		for _, want := range s.classes {
			found := false
			for _, c := range have {
				if c == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// QuerySelector returns the first descendant of n, in document order,
// matching a compound selector such as "#app", ".panel" or "div.panel".
// Combinators are not supported and never match.
func (n *Node) QuerySelector(s string) *Node {
	sel, ok := parseSelector(s)
	if !ok {
		return nil
	}
	stack := []*html.Node{}
	for c := n.h.LastChild; c != nil; c = c.PrevSibling {
		stack = append(stack, c)
	}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if sel.match(h) {
			return n.doc.wrap(h)
		}
		for c := h.LastChild; c != nil; c = c.PrevSibling {
			stack = append(stack, c)
		}
	}
	return nil
}

// QuerySelector searches the document body.
func (d *Document) QuerySelector(s string) *Node {
	if sel, ok := parseSelector(s); ok && sel.match(d.body.h) {
		return d.body
	}
	return d.body.QuerySelector(s)
}

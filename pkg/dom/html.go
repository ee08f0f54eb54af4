package dom

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Sanitizer filters untrusted markup. *bluemonday.Policy satisfies it.
type Sanitizer interface {
	Sanitize(markup string) string
}

// UGCSanitizer returns a policy allowing the markup commonly found in
// user-generated content and nothing executable.
func UGCSanitizer() Sanitizer {
	return bluemonday.UGCPolicy()
}

func lookupAtom(tag string) atom.Atom {
	return atom.Lookup([]byte(tag))
}

// SetInnerHTML replaces n's children with the parsed markup.
func (n *Node) SetInnerHTML(markup string) error {
	if n.h.Type != html.ElementNode && n.h.Type != html.DocumentNode {
		return ErrHierarchy
	}
	if n.doc.Sanitizer != nil {
		markup = n.doc.Sanitizer.Sanitize(markup)
	}

	context := n.h
	if context.Type != html.ElementNode {
		context = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return fmt.Errorf("dom: parse inner html: %w", err)
	}

	for c := n.h.FirstChild; c != nil; c = n.h.FirstChild {
		n.h.RemoveChild(c)
		n.doc.release(c)
	}
	for _, c := range nodes {
		n.h.AppendChild(c)
	}
	return nil
}

// InnerHTML serialises n's children.
func (n *Node) InnerHTML() string {
	var buf bytes.Buffer
	for c := n.h.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// OuterHTML serialises n and its subtree.
func (n *Node) OuterHTML() string {
	if n.h.Type == html.DocumentNode {
		return n.InnerHTML()
	}
	var buf bytes.Buffer
	_ = html.Render(&buf, n.h)
	return buf.String()
}

// String returns the node's outer HTML.
func (n *Node) String() string { return n.OuterHTML() }

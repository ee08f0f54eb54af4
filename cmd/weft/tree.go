package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/vango-go/weft/internal/errors"
	"github.com/vango-go/weft/pkg/vdom"
)

// treeNode is the YAML form of a virtual node. An element has a tag, a
// raw markup node has html (and optionally a tag), a text node has text
// and a fragment has fragment; one node is exactly one of these.
type treeNode struct {
	Tag      string            `yaml:"tag"`
	NS       string            `yaml:"ns"`
	Key      string            `yaml:"key"`
	Attrs    map[string]string `yaml:"attrs"`
	Props    map[string]any    `yaml:"props"`
	On       []string          `yaml:"on"`
	Children []treeNode        `yaml:"children"`
	Text     *string           `yaml:"text"`
	HTML     *string           `yaml:"html"`
	Fragment []treeNode        `yaml:"fragment"`
}

// readTree loads a tree description from path.
func readTree(path string) (*vdom.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E140").Wrap(err)
	}
	n, err := parseTree(data)
	if err != nil {
		return nil, errors.New("E140").
			WithDetail(path + ": " + err.Error()).
			WithSuggestion("A node needs one of tag, text, html or fragment")
	}
	return n, nil
}

// parseTree decodes one YAML node description. An empty document is the
// empty tree.
func parseTree(data []byte) (*vdom.Node, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var t treeNode
	if err := dec.Decode(&t); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	return t.build("")
}

func (t *treeNode) build(at string) (*vdom.Node, error) {
	kinds := 0
	for _, set := range []bool{t.Tag != "" || t.HTML != nil, t.Text != nil, t.Fragment != nil} {
		if set {
			kinds++
		}
	}
	if kinds != 1 {
		return nil, fmt.Errorf("node %s: want exactly one of tag or html, text, fragment", location(at))
	}

	var n *vdom.Node
	switch {
	case t.Text != nil:
		n = vdom.Text(*t.Text)
	case t.Fragment != nil:
		children, err := buildAll(t.Fragment, at)
		if err != nil {
			return nil, err
		}
		n = vdom.Fragment(children...)
	default:
		tag := t.Tag
		if t.HTML != nil && tag == "" {
			tag = "div"
		}
		children, err := buildAll(t.Children, at)
		if err != nil {
			return nil, err
		}
		if t.HTML != nil {
			if len(children) > 0 {
				return nil, fmt.Errorf("node %s: html nodes have no children", location(at))
			}
			n = vdom.RawHTML(t.NS, tag, t.attributes(), *t.HTML)
		} else {
			n = vdom.ElementNS(t.NS, tag, t.attributes(), children)
		}
	}
	if t.Key != "" {
		n = vdom.WithKey(t.Key, n)
	}
	return n, nil
}

func buildAll(ts []treeNode, at string) ([]*vdom.Node, error) {
	out := make([]*vdom.Node, 0, len(ts))
	for i := range ts {
		n, err := ts[i].build(fmt.Sprintf("%s/%d", at, i))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// attributes returns the node's attributes, properties and event
// bindings. Bindings dispatch their own event name.
func (t *treeNode) attributes() []vdom.Attribute {
	var attrs []vdom.Attribute
	for _, name := range sortedKeys(t.Attrs) {
		attrs = append(attrs, vdom.Attr(name, t.Attrs[name]))
	}
	for _, name := range sortedKeys(t.Props) {
		attrs = append(attrs, vdom.Prop(name, t.Props[name]))
	}
	for _, name := range t.On {
		attrs = append(attrs, vdom.On(name, func(vdom.Event) (any, error) { return name, nil }))
	}
	return attrs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func location(at string) string {
	if at == "" {
		return "/"
	}
	return at
}

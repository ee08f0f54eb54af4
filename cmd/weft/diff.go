package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-go/weft/internal/config"
	"github.com/vango-go/weft/internal/errors"
	"github.com/vango-go/weft/pkg/protocol"
	"github.com/vango-go/weft/pkg/reconcile"
	"github.com/vango-go/weft/pkg/vdom"
)

func diffCmd(load func() (*config.Config, error)) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "diff OLD.yaml NEW.yaml",
		Short: "Print the patch between two trees",
		Long: `Print the patch that turns the tree described in OLD.yaml into the
one described in NEW.yaml.

A tree file describes one node:

  tag: ul                   # element
  key: list                 # optional key
  attrs: {class: items}
  props: {value: x}
  on: [click]               # event bindings
  children:
    - text: hello           # text node
    - tag: div
      html: "<b>raw</b>"    # raw markup node
    - fragment:             # fragment
        - text: a

Formats:
  text    indented change list (default)
  json    the patch as JSON
  binary  hex dump of the wire encoding
  html    markup of the live tree after applying the patch

Examples:
  weft diff old.yaml new.yaml
  weft diff old.yaml new.yaml --format json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runDiff(cmd.OutOrStdout(), cfg, args[0], args[1], format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json, binary or html")

	return cmd
}

func runDiff(w io.Writer, cfg *config.Config, oldPath, newPath, format string) error {
	switch format {
	case "text", "json", "binary", "html":
	default:
		return errors.New("E141").WithDetail("Unknown format " + strconv.Quote(format))
	}

	old, err := readTree(oldPath)
	if err != nil {
		return err
	}
	tree, err := readTree(newPath)
	if err != nil {
		return err
	}

	events := vdom.NewEvents()
	initial, events := vdom.Diff(events, nil, old)
	patch, _ := vdom.Diff(events, old, tree)

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(patchJSON(patch))
	case "binary":
		data := protocol.EncodePatch(&protocol.PatchMessage{Seq: 1, Patch: patch})
		_, err := io.WriteString(w, hex.Dump(data))
		return err
	case "html":
		return writeHTML(w, cfg, initial, patch)
	default:
		writeText(w, patch, 0)
		return nil
	}
}

// writeHTML builds the old tree in a live document, applies patch and
// prints the result.
func writeHTML(w io.Writer, cfg *config.Config, initial, patch vdom.Patch) error {
	doc := cfg.Document()
	r := reconcile.New(doc.Body(), func(vdom.Event, vdom.Path, string, bool) {})
	defer r.Close()
	if err := r.Push(initial); err != nil {
		return err
	}
	if err := r.Push(patch); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, doc.Body().InnerHTML())
	return err
}

func writeText(w io.Writer, p vdom.Patch, depth int) {
	indent := strings.Repeat("  ", depth)
	if p.IsEmpty() && depth == 0 {
		fmt.Fprintln(w, "no changes")
		return
	}
	if depth > 0 {
		fmt.Fprintf(w, "%schild %d\n", indent[2:], p.Index)
	}
	for _, c := range p.Changes {
		fmt.Fprintf(w, "%s%s\n", indent, describeChange(c))
		for _, n := range c.Nodes {
			writeNode(w, n, depth+1)
		}
		if c.Node != nil {
			writeNode(w, c.Node, depth+1)
		}
	}
	if p.Removed > 0 {
		fmt.Fprintf(w, "%sremove last %d\n", indent, p.Removed)
	}
	for _, child := range p.Children {
		writeText(w, child, depth+1)
	}
}

func describeChange(c vdom.Change) string {
	switch c.Kind {
	case vdom.ChangeReplaceText, vdom.ChangeReplaceInnerHTML:
		return fmt.Sprintf("%s %q", c.Kind, c.Content)
	case vdom.ChangeUpdate:
		parts := []string{c.Kind.String()}
		for _, a := range c.Added {
			parts = append(parts, "+"+describeAttr(a))
		}
		for _, a := range c.Removed {
			parts = append(parts, "-"+a.Name)
		}
		return strings.Join(parts, " ")
	case vdom.ChangeMove:
		return fmt.Sprintf("%s key=%q before=%d", c.Kind, c.Key, c.Before)
	case vdom.ChangeRemove:
		return fmt.Sprintf("%s %d", c.Kind, c.Index)
	case vdom.ChangeReplace:
		return fmt.Sprintf("%s %d", c.Kind, c.Index)
	case vdom.ChangeInsert:
		return fmt.Sprintf("%s %d before=%d", c.Kind, len(c.Nodes), c.Before)
	default:
		return c.Kind.String()
	}
}

func describeAttr(a vdom.Attribute) string {
	switch a.Kind {
	case vdom.AttrEvent:
		return "@" + a.Name
	case vdom.AttrProperty:
		return "." + a.Name + "=" + strconv.Quote(a.StringValue())
	default:
		return a.Name + "=" + strconv.Quote(a.Value)
	}
}

func writeNode(w io.Writer, n *vdom.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	key := ""
	if n.Key != "" {
		key = " key=" + strconv.Quote(n.Key)
	}
	switch n.Kind {
	case vdom.KindText:
		fmt.Fprintf(w, "%s%q%s\n", indent, n.Content, key)
	case vdom.KindRawHTML:
		fmt.Fprintf(w, "%s<%s%s%s> raw %q\n", indent, n.Tag, key, attrList(n.Attrs), n.Content)
	case vdom.KindFragment:
		fmt.Fprintf(w, "%sfragment%s\n", indent, key)
		for _, c := range n.Children {
			writeNode(w, c, depth+1)
		}
	default:
		fmt.Fprintf(w, "%s<%s%s%s>\n", indent, n.Tag, key, attrList(n.Attrs))
		for _, c := range n.Children {
			writeNode(w, c, depth+1)
		}
	}
}

func attrList(attrs []vdom.Attribute) string {
	var b strings.Builder
	for _, a := range attrs {
		b.WriteByte(' ')
		b.WriteString(describeAttr(a))
	}
	return b.String()
}

type jsonPatch struct {
	Index    int          `json:"index"`
	Removed  int          `json:"removed,omitempty"`
	Changes  []jsonChange `json:"changes,omitempty"`
	Children []jsonPatch  `json:"children,omitempty"`
}

type jsonChange struct {
	Kind    string     `json:"kind"`
	Content string     `json:"content,omitempty"`
	Added   []jsonAttr `json:"added,omitempty"`
	Removed []jsonAttr `json:"removed,omitempty"`
	Key     string     `json:"key,omitempty"`
	Before  *int       `json:"before,omitempty"`
	Index   *int       `json:"index,omitempty"`
	Nodes   []jsonNode `json:"nodes,omitempty"`
}

type jsonAttr struct {
	Kind  string `json:"kind"`
	Name  string `json:"name"`
	Value any    `json:"value,omitempty"`
}

type jsonNode struct {
	Kind     string     `json:"kind"`
	Key      string     `json:"key,omitempty"`
	NS       string     `json:"ns,omitempty"`
	Tag      string     `json:"tag,omitempty"`
	Attrs    []jsonAttr `json:"attrs,omitempty"`
	Content  string     `json:"content,omitempty"`
	Children []jsonNode `json:"children,omitempty"`
}

func patchJSON(p vdom.Patch) jsonPatch {
	out := jsonPatch{Index: p.Index, Removed: p.Removed}
	for _, c := range p.Changes {
		out.Changes = append(out.Changes, changeJSON(c))
	}
	for _, child := range p.Children {
		out.Children = append(out.Children, patchJSON(child))
	}
	return out
}

func changeJSON(c vdom.Change) jsonChange {
	out := jsonChange{Kind: c.Kind.String(), Content: c.Content, Key: c.Key}
	for _, a := range c.Added {
		out.Added = append(out.Added, attrJSON(a))
	}
	for _, a := range c.Removed {
		out.Removed = append(out.Removed, attrJSON(a))
	}
	switch c.Kind {
	case vdom.ChangeMove, vdom.ChangeInsert:
		out.Before = &c.Before
	case vdom.ChangeRemove, vdom.ChangeReplace:
		out.Index = &c.Index
	}
	if c.Node != nil {
		out.Nodes = append(out.Nodes, nodeJSON(c.Node))
	}
	for _, n := range c.Nodes {
		out.Nodes = append(out.Nodes, nodeJSON(n))
	}
	return out
}

func attrJSON(a vdom.Attribute) jsonAttr {
	out := jsonAttr{Kind: a.Kind.String(), Name: a.Name}
	switch a.Kind {
	case vdom.AttrAttribute:
		out.Value = a.Value
	case vdom.AttrProperty:
		out.Value = a.Property
	}
	return out
}

func nodeJSON(n *vdom.Node) jsonNode {
	out := jsonNode{
		Kind:    n.Kind.String(),
		Key:     n.Key,
		NS:      n.Namespace,
		Tag:     n.Tag,
		Content: n.Content,
	}
	for _, a := range n.Attrs {
		out.Attrs = append(out.Attrs, attrJSON(a))
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, nodeJSON(c))
	}
	return out
}

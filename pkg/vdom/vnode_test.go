package vdom

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindFragment, "Fragment"},
		{KindElement, "Element"},
		{KindText, "Text"},
		{KindRawHTML, "RawHTML"},
		{Kind(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestCreateElementArgs(t *testing.T) {
	var missing *Node
	n := Div(
		nil,
		ID("a"),
		[]Attribute{Class("x")},
		"text",
		missing,
		Span(),
		[]*Node{P(), nil},
	)
	if len(n.Attrs) != 2 {
		t.Errorf("len(Attrs) = %d, want 2", len(n.Attrs))
	}
	if len(n.Children) != 3 {
		t.Fatalf("len(Children) = %d, want 3", len(n.Children))
	}
	if n.Children[0].Kind != KindText || n.Children[0].Content != "text" {
		t.Errorf("Children[0] = %v %q, want Text \"text\"", n.Children[0].Kind, n.Children[0].Content)
	}
}

func TestVoidAndSelfClosing(t *testing.T) {
	if !Input().Void {
		t.Error("input should be void")
	}
	if Div().Void {
		t.Error("div should not be void")
	}
	if IsVoid("input", NamespaceSVG) {
		t.Error("void elements exist only in the HTML namespace")
	}
	if !Svg().SelfClosing {
		t.Error("empty svg should self-close")
	}
	if Svg(ElNS(NamespaceSVG, "circle")).SelfClosing {
		t.Error("svg with children should not self-close")
	}
}

func TestDuplicateKeys(t *testing.T) {
	first := Keyed("a", Li("1"))
	n := Ul(first, Keyed("a", Li("2")), Keyed("b", Li("3")))

	got, ok := n.KeyedChild("a")
	if !ok || got != first {
		t.Errorf("KeyedChild(a) = %v, %v, want first holder", got, ok)
	}
	if n.Children[1].Key != "" {
		t.Errorf("duplicate key = %q, want positional", n.Children[1].Key)
	}
	if _, ok := n.KeyedChild("b"); !ok {
		t.Error("KeyedChild(b) not found")
	}
}

func TestDuplicateKeysInTree(t *testing.T) {
	tree := Div(
		Ul(Keyed("a", Li("1")), Keyed("a", Li("2"))),
		Fragment(Keyed("x", Span()), Keyed("y", Span()), Keyed("x", Span())),
		Keyed("a", P()),
	)
	if diff := cmp.Diff([]string{"a", "x"}, DuplicateKeys(tree)); diff != "" {
		t.Errorf("DuplicateKeys() mismatch (-want +got):\n%s", diff)
	}
	if got := DuplicateKeys(Ul(Keyed("a", Li()), Keyed("b", Li()))); got != nil {
		t.Errorf("DuplicateKeys() = %v, want nil", got)
	}
}

func TestWithKeyDoesNotMutate(t *testing.T) {
	n := Div()
	k := WithKey("x", n)
	if n.Key != "" {
		t.Errorf("original Key = %q, want empty", n.Key)
	}
	if k.Key != "x" {
		t.Errorf("clone Key = %q, want x", k.Key)
	}
	if WithKey("x", nil) != nil {
		t.Error("WithKey(nil) should be nil")
	}
}

func TestMapComposes(t *testing.T) {
	n := Map(Map(Div(), func(m any) any { return m.(int) + 1 }), func(m any) any { return m.(int) * 10 })
	if got := n.Mapper(1); got != 20 {
		t.Errorf("Mapper(1) = %v, want 20", got)
	}
	if Map(nil, func(m any) any { return m }) != nil {
		t.Error("Map(nil) should be nil")
	}
}

func TestNormalizeAttrs(t *testing.T) {
	n := Div(
		Class("a"),
		Attr("title", "first"),
		Style("color: red; "),
		Class(""),
		Class("b"),
		Style("margin: 0"),
		Attr("title", "second"),
		BoolAttr("hidden", false),
	)
	want := []struct{ name, value string }{
		{"class", "a b"},
		{"style", "color: red;margin: 0"},
		{"title", "second"},
	}
	if len(n.Attrs) != len(want) {
		t.Fatalf("Attrs = %v, want %d entries", n.Attrs, len(want))
	}
	for i, w := range want {
		if n.Attrs[i].Name != w.name || n.Attrs[i].Value != w.value {
			t.Errorf("Attrs[%d] = %s=%q, want %s=%q", i, n.Attrs[i].Name, n.Attrs[i].Value, w.name, w.value)
		}
	}
}

func TestNormalizeKeepsKindsApart(t *testing.T) {
	n := Input(Attr("value", "a"), Value("b"), OnInput(func(s string) any { return s }))
	if len(n.Attrs) != 3 {
		t.Fatalf("len(Attrs) = %d, want 3", len(n.Attrs))
	}
	if a, ok := n.Attr(AttrProperty, "value"); !ok || a.Property != "b" {
		t.Errorf("value property = %v, %v", a.Property, ok)
	}
	if !n.HasEvents() {
		t.Error("HasEvents() = false, want true")
	}
}

func TestEventDecoders(t *testing.T) {
	ev := Event{Type: "input", Fields: map[string]any{
		"target.value":     "hi",
		"target.checked":   true,
		"clientX":          float64(3),
		"clientY":          "4.5",
		"target.scrollTop": 7,
	}}

	if s, err := ev.String("target.value"); err != nil || s != "hi" {
		t.Errorf("String = %q, %v", s, err)
	}
	if b, err := ev.Bool("target.checked"); err != nil || !b {
		t.Errorf("Bool = %v, %v", b, err)
	}
	if f, err := ev.Float("clientY"); err != nil || f != 4.5 {
		t.Errorf("Float = %v, %v", f, err)
	}
	if _, err := ev.String("missing"); !errors.Is(err, ErrDecode) {
		t.Errorf("missing field error = %v, want ErrDecode", err)
	}
	if _, err := ev.Float("target.value"); !errors.Is(err, ErrDecode) {
		t.Errorf("bad number error = %v, want ErrDecode", err)
	}

	a := OnMouseMove(func(x, y float64) any { return x + y })
	msg, err := a.Handler(ev)
	if err != nil || msg != 7.5 {
		t.Errorf("OnMouseMove = %v, %v, want 7.5", msg, err)
	}
}

func TestEventOptions(t *testing.T) {
	a := OnInput(func(s string) any { return s },
		Debounce(300*time.Millisecond),
		Throttle(time.Second),
		StopPropagation(Possible),
		Immediate(),
		Include("target.id"),
	)
	if a.Kind != AttrEvent || a.Name != "input" {
		t.Fatalf("attr = %v %q", a.Kind, a.Name)
	}
	if a.Debounce != 300*time.Millisecond || a.Throttle != time.Second {
		t.Errorf("timing = %v/%v", a.Debounce, a.Throttle)
	}
	if a.StopPropagation != Possible || a.PreventDefault != Never || !a.Immediate {
		t.Errorf("policies = %v/%v/%v", a.StopPropagation, a.PreventDefault, a.Immediate)
	}
	if len(a.Include) != 2 || a.Include[0] != "target.value" || a.Include[1] != "target.id" {
		t.Errorf("Include = %v", a.Include)
	}
	if OnSubmit("go").PreventDefault != Always {
		t.Error("OnSubmit should always prevent default")
	}
}

func TestPath(t *testing.T) {
	p := Root.Child(0, "").Child(2, "row").Child(1, "")
	segs := p.Segments()
	want := []string{"0", "krow", "1"}
	if len(segs) != len(want) {
		t.Fatalf("Segments() = %v, want %v", segs, want)
	}
	for i := range want {
		if segs[i] != want[i] {
			t.Errorf("Segments()[%d] = %q, want %q", i, segs[i], want[i])
		}
	}
	if got := p.String(); got != "/0/krow/1" {
		t.Errorf("String() = %q", got)
	}
	if Root.Segments() != nil {
		t.Error("Root.Segments() should be nil")
	}
	// A key is never confused with an index.
	if Root.Child(3, "") == Root.Child(0, "3") {
		t.Error("index 3 and key 3 collide")
	}
}

func TestEventsHandle(t *testing.T) {
	_, events := Diff(nil, nil, Button(OnClick("go")))
	path := Root.Child(0, "")

	if !events.Has(path, "click") {
		t.Fatal("click not registered")
	}
	if _, err := events.Handle(path, "dblclick", Event{}); !errors.Is(err, ErrNoHandler) {
		t.Errorf("unknown event error = %v, want ErrNoHandler", err)
	}
	if events.IsControlled(path) {
		t.Error("path controlled before any render")
	}
	if _, ok := events.Lookup(path, "click"); !ok {
		t.Error("Lookup(click) not found")
	}
}

func TestPatchWalkOrder(t *testing.T) {
	p := Patch{
		Changes: []Change{Remove(0)},
		Children: []Patch{
			{Index: 0, Changes: []Change{ReplaceText("a")}},
			{Index: 1, Changes: []Change{ReplaceText("b")}, Children: []Patch{{Changes: []Change{Remove(2)}}}},
		},
		Removed: 1,
	}
	var got []string
	p.Walk(func(depth int, c Change) {
		got = append(got, describe(c))
	})
	want := []string{"Remove(0)", `ReplaceText("a")`, `ReplaceText("b")`, "Remove(2)"}
	if len(got) != len(want) {
		t.Fatalf("Walk = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Walk[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if p.Count() != 5 {
		t.Errorf("Count() = %d, want 5", p.Count())
	}
}

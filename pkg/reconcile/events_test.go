package reconcile_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-go/weft/pkg/dom"
	"github.com/vango-go/weft/pkg/reconcile"
	"github.com/vango-go/weft/pkg/vdom"
)

func value(e vdom.Event) (any, error) { return e.String("target.value") }

func TestListenerPerEventType(t *testing.T) {
	f := newFixture(t)
	f.render(vdom.Button(vdom.OnClick("a")))
	button := f.doc.QuerySelector("button")

	f.render(vdom.Button(vdom.OnClick("b"), vdom.OnDblClick("c")))
	f.render(vdom.Button(vdom.OnClick("d"), vdom.OnDblClick("c")))
	if got := button.ListenerCount("click"); got != 1 {
		t.Errorf("click listeners = %d, want 1", got)
	}

	button.DispatchEvent(dom.NewEvent("click", true))
	if len(f.delivered) != 1 || f.delivered[0].msg != "d" {
		t.Fatalf("delivered = %+v, want the latest handler's message", f.delivered)
	}

	f.render(vdom.Button())
	if button.ListenerCount("click") != 0 || button.ListenerCount("dblclick") != 0 {
		t.Error("listeners survived removal of their bindings")
	}
}

func TestEventPathsFollowMoves(t *testing.T) {
	f := newFixture(t)
	item := func(key string) *vdom.Node {
		return vdom.WithKey(key, vdom.Li(vdom.OnClick(key)))
	}
	f.render(vdom.Ul(item("a"), item("b"), item("c")))
	f.render(vdom.Ul(item("c"), item("a"), item("b")))

	for _, li := range f.doc.QuerySelector("ul").Children() {
		li.DispatchEvent(dom.NewEvent("click", true))
	}
	var got []any
	for _, d := range f.delivered {
		got = append(got, d.msg)
	}
	if diff := cmp.Diff([]any{"c", "a", "b"}, got); diff != "" {
		t.Errorf("delivered (-want +got):\n%s", diff)
	}
	ul := vdom.Root.Child(0, "")
	if f.delivered[0].path != ul.Child(0, "c") {
		t.Errorf("path = %s, want %s", f.delivered[0].path, ul.Child(0, "c"))
	}
}

func TestDebounce(t *testing.T) {
	f := newFixture(t)
	f.render(vdom.Input(vdom.On("input", value, vdom.Include("target.value"), vdom.Debounce(300*time.Millisecond))))
	input := f.doc.QuerySelector("input")

	for i, text := range []string{"a", "ab", "abc"} {
		if i > 0 {
			f.clock.Advance(100 * time.Millisecond)
		}
		input.SetProperty("value", text)
		input.DispatchEvent(dom.NewEvent("input", true))
	}
	f.clock.Advance(299 * time.Millisecond)
	if len(f.delivered) != 0 {
		t.Fatalf("delivered %d messages before the quiet period", len(f.delivered))
	}
	f.clock.Advance(time.Second)

	if len(f.delivered) != 1 {
		t.Fatalf("delivered %d messages, want 1", len(f.delivered))
	}
	d := f.delivered[0]
	if d.msg != "abc" || d.at != 500*time.Millisecond {
		t.Errorf("delivered %v at %v, want abc at 500ms", d.msg, d.at)
	}
}

func TestThrottle(t *testing.T) {
	f := newFixture(t)
	scroll := vdom.On("scroll", func(e vdom.Event) (any, error) { return "scrolled", nil }, vdom.Throttle(100*time.Millisecond))
	f.render(vdom.Div(scroll))
	div := f.doc.QuerySelector("div")

	for elapsed := time.Duration(0); elapsed < 500*time.Millisecond; elapsed += 10 * time.Millisecond {
		div.DispatchEvent(dom.NewEvent("scroll", false))
		f.clock.Advance(10 * time.Millisecond)
	}
	if len(f.delivered) == 0 || len(f.delivered) > 5 {
		t.Fatalf("delivered %d messages, want 1 to 5", len(f.delivered))
	}
	if f.delivered[0].at != 0 {
		t.Errorf("first delivery at %v, want 0", f.delivered[0].at)
	}
	for i := 1; i < len(f.delivered); i++ {
		if gap := f.delivered[i].at - f.delivered[i-1].at; gap < 100*time.Millisecond {
			t.Errorf("deliveries %d and %d only %v apart", i-1, i, gap)
		}
	}
}

func TestThrottleAndDebounceDeliverOnce(t *testing.T) {
	f := newFixture(t)
	f.render(vdom.Div(vdom.On("scroll", func(vdom.Event) (any, error) { return 1, nil },
		vdom.Throttle(time.Second), vdom.Debounce(50*time.Millisecond))))

	f.doc.QuerySelector("div").DispatchEvent(dom.NewEvent("scroll", false))
	f.clock.Advance(time.Second)
	if len(f.delivered) != 1 {
		t.Errorf("delivered %d messages for one occurrence, want 1", len(f.delivered))
	}
}

func TestRemoveCancelsTimers(t *testing.T) {
	f := newFixture(t)
	field := vdom.Input(vdom.On("input", value, vdom.Include("target.value"), vdom.Debounce(300*time.Millisecond)))
	f.render(vdom.Div(field))
	f.doc.QuerySelector("input").DispatchEvent(dom.NewEvent("input", true))
	if f.clock.Pending() != 1 {
		t.Fatalf("pending timers = %d, want 1", f.clock.Pending())
	}

	f.render(vdom.Div())
	if f.clock.Pending() != 0 {
		t.Errorf("pending timers = %d after removal, want 0", f.clock.Pending())
	}
	f.clock.Advance(time.Second)
	if len(f.delivered) != 0 {
		t.Errorf("removed node delivered %d messages", len(f.delivered))
	}
}

func TestEventPolicies(t *testing.T) {
	accepts := func(vdom.Event) (any, error) { return "ok", nil }
	tests := []struct {
		name        string
		opts        []vdom.EventOption
		decide      bool
		wantDefault bool
		wantStopped bool
	}{
		{"never", nil, true, true, false},
		{"always", []vdom.EventOption{vdom.PreventDefault(vdom.Always), vdom.StopPropagation(vdom.Always)}, false, false, true},
		{"possible accepted", []vdom.EventOption{vdom.PreventDefault(vdom.Possible), vdom.StopPropagation(vdom.Possible)}, true, false, true},
		{"possible rejected", []vdom.EventOption{vdom.PreventDefault(vdom.Possible), vdom.StopPropagation(vdom.Possible)}, false, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, reconcile.WithDecider(func(vdom.Path, string, vdom.Event) bool { return tt.decide }))
			f.render(vdom.Form(vdom.On("submit", accepts, tt.opts...)))

			bubbled := false
			f.container.AddEventListener("submit", func(*dom.Event) { bubbled = true })
			ev := dom.NewEvent("submit", true)
			notPrevented := f.doc.QuerySelector("form").DispatchEvent(ev)

			if notPrevented != tt.wantDefault {
				t.Errorf("default allowed = %v, want %v", notPrevented, tt.wantDefault)
			}
			if bubbled == tt.wantStopped {
				t.Errorf("bubbled = %v, want %v", bubbled, !tt.wantStopped)
			}
		})
	}
}

func TestIncludeFields(t *testing.T) {
	f := newFixture(t)
	var got vdom.Event
	capture := func(e vdom.Event) (any, error) {
		got = e
		return nil, nil
	}
	f.render(vdom.Label(
		vdom.ID("outer"),
		vdom.Input(
			vdom.Checked(true),
			vdom.Attr("name", "agree"),
			vdom.On("change", capture, vdom.Include("target.checked", "target.name", "target.value", "target.tagName", "target.missing")),
		),
	))
	input := f.doc.QuerySelector("input")
	ev := dom.NewEvent("change", true)
	ev.Fields = map[string]any{"timeStamp": 12.5}
	input.DispatchEvent(ev)

	want := map[string]any{
		"timeStamp":      12.5,
		"target.checked": true,
		"target.name":    "agree",
		"target.value":   "",
		"target.tagName": "INPUT",
	}
	if diff := cmp.Diff(want, got.Fields); diff != "" {
		t.Errorf("fields (-want +got):\n%s", diff)
	}
}

func TestControlledFieldResync(t *testing.T) {
	f := newFixture(t)
	view := func() *vdom.Node {
		return vdom.Input(vdom.Value("fixed"), vdom.OnInput(func(v string) any { return v }))
	}
	f.render(view())
	input := f.doc.QuerySelector("input")

	// The user types; the app keeps the value pinned.
	input.SetProperty("value", "fixedX")
	input.DispatchEvent(dom.NewEvent("input", true))
	f.render(view())

	if v, _ := input.Property("value"); v != "fixed" {
		t.Errorf("value = %v after re-render, want fixed", v)
	}
}

func TestMountSideEffects(t *testing.T) {
	f := newFixture(t)
	f.render(vdom.Div(
		vdom.Input(vdom.Autofocus(true)),
		vdom.Video(vdom.Autoplay(true)),
		vdom.Input(vdom.Attr("type", "checkbox"), vdom.Attr("checked", "")),
	))
	inputs := f.doc.QuerySelector("div").Children()
	if f.doc.ActiveElement() != inputs[0] {
		t.Error("autofocus input is not focused")
	}
	if inputs[1].Paused() {
		t.Error("autoplay video is paused")
	}
	if v, _ := inputs[2].Property("checked"); v != true {
		t.Errorf("checked property = %v, want true", v)
	}

	f.render(vdom.Div(
		vdom.Input(vdom.Autofocus(true)),
		vdom.Video(vdom.Autoplay(true)),
		vdom.Input(vdom.Attr("type", "checkbox")),
	))
	if v, _ := inputs[2].Property("checked"); v != false {
		t.Errorf("checked property = %v after removal, want false", v)
	}
}

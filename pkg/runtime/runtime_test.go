package runtime_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	werrors "github.com/vango-go/weft/internal/errors"
	"github.com/vango-go/weft/pkg/dom"
	"github.com/vango-go/weft/pkg/runtime"
	"github.com/vango-go/weft/pkg/runtime/runtimetest"
	"github.com/vango-go/weft/pkg/vdom"
)

// recorder is a Target that keeps every patch it receives.
type recorder struct {
	patches []vdom.Patch
	err     error
}

func (r *recorder) Push(p vdom.Patch) error {
	r.patches = append(r.patches, p)
	return r.err
}

func (r *recorder) last(t *testing.T) vdom.Patch {
	t.Helper()
	if len(r.patches) == 0 {
		t.Fatal("no patch pushed")
	}
	return r.patches[len(r.patches)-1]
}

type textMsg string

func textApp(initial string) runtime.App[string, textMsg] {
	return runtime.App[string, textMsg]{
		Init: func() (string, runtime.Effect[textMsg]) {
			return initial, runtime.None[textMsg]()
		},
		Update: func(_ string, msg textMsg) (string, runtime.Effect[textMsg]) {
			return string(msg), runtime.None[textMsg]()
		},
		View: func(m string) *vdom.Node {
			return vdom.Div(vdom.Text(m))
		},
	}
}

func start[Model, Msg any](t *testing.T, app runtime.App[Model, Msg], target runtime.Target, sched runtime.Scheduler, opts ...runtime.Option) *runtime.Runtime[Model, Msg] {
	t.Helper()
	rt, err := runtime.New(app, target, sched, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := rt.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return rt
}

func TestNewRejectsIncompleteApp(t *testing.T) {
	tests := []struct {
		name string
		app  runtime.App[string, textMsg]
	}{
		{"no init", runtime.App[string, textMsg]{Update: textApp("").Update, View: textApp("").View}},
		{"no update", runtime.App[string, textMsg]{Init: textApp("").Init, View: textApp("").View}},
		{"no view", runtime.App[string, textMsg]{Init: textApp("").Init, Update: textApp("").Update}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runtime.New(tt.app, &recorder{}, runtimetest.NewScheduler())
			if !errors.Is(err, runtime.ErrNilApp) {
				t.Fatalf("New() error = %v, want ErrNilApp", err)
			}
			var coded *werrors.Error
			if !errors.As(err, &coded) || coded.Code != "E104" {
				t.Errorf("New() error code = %v, want E104", err)
			}
		})
	}
}

func TestStartRendersSynchronously(t *testing.T) {
	target := &recorder{}
	sched := runtimetest.NewScheduler()
	rt := start(t, textApp("x"), target, sched)

	if len(target.patches) != 1 {
		t.Fatalf("patches = %d, want 1", len(target.patches))
	}
	first := target.patches[0]
	if len(first.Changes) != 1 || first.Changes[0].Kind != vdom.ChangeInsert {
		t.Errorf("first patch = %+v, want one Insert", first)
	}
	if sched.PendingFrames() != 0 {
		t.Errorf("pending frames = %d, want 0", sched.PendingFrames())
	}
	if rt.State() != runtime.Idle {
		t.Errorf("State() = %s, want idle", rt.State())
	}

	err := rt.Start()
	if !errors.Is(err, runtime.ErrAlreadyStarted) {
		t.Errorf("second Start() = %v, want ErrAlreadyStarted", err)
	}
}

func TestEndToEndReplaceText(t *testing.T) {
	target := &recorder{}
	sched := runtimetest.NewScheduler()
	rt := start(t, textApp("x"), target, sched)

	rt.Dispatch("y", false)
	if rt.State() != runtime.RenderPending {
		t.Fatalf("State() = %s, want render-pending", rt.State())
	}
	if len(target.patches) != 1 {
		t.Fatalf("patch pushed before the frame")
	}
	sched.Flush()

	want := vdom.Patch{Children: []vdom.Patch{{
		Index: 0,
		Children: []vdom.Patch{{
			Index:   0,
			Changes: []vdom.Change{vdom.ReplaceText("y")},
		}},
	}}}
	if diff := cmp.Diff(want, target.last(t), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("patch mismatch (-want +got):\n%s", diff)
	}
	if rt.Model() != "y" {
		t.Errorf("Model() = %q, want y", rt.Model())
	}
}

func TestDispatchesCoalesceIntoOneRender(t *testing.T) {
	target := &recorder{}
	sched := runtimetest.NewScheduler()
	rt := start(t, textApp("0"), target, sched)

	for i := 1; i <= 3; i++ {
		rt.Dispatch(textMsg(strconv.Itoa(i)), false)
	}
	if sched.PendingFrames() != 1 {
		t.Fatalf("pending frames = %d, want 1", sched.PendingFrames())
	}
	sched.Flush()
	if len(target.patches) != 2 {
		t.Fatalf("patches = %d, want 2", len(target.patches))
	}
	if rt.Model() != "3" {
		t.Errorf("Model() = %q, want 3", rt.Model())
	}
}

func TestImmediateCancelsPendingFrame(t *testing.T) {
	target := &recorder{}
	sched := runtimetest.NewScheduler()
	rt := start(t, textApp("a"), target, sched)

	rt.Dispatch("b", false)
	if sched.PendingFrames() != 1 {
		t.Fatalf("pending frames = %d, want 1", sched.PendingFrames())
	}
	rt.Dispatch("c", true)

	if sched.Cancelled != 1 {
		t.Errorf("cancelled frames = %d, want 1", sched.Cancelled)
	}
	if sched.PendingFrames() != 0 {
		t.Errorf("pending frames = %d, want 0", sched.PendingFrames())
	}
	if len(target.patches) != 2 {
		t.Fatalf("patches = %d, want 2", len(target.patches))
	}
	if rt.State() != runtime.Idle {
		t.Errorf("State() = %s, want idle", rt.State())
	}
}

func TestEmptyPatchIsNotPushed(t *testing.T) {
	target := &recorder{}
	sched := runtimetest.NewScheduler()
	rt := start(t, textApp("same"), target, sched)

	rt.Dispatch("same", false)
	sched.Flush()
	if len(target.patches) != 1 {
		t.Errorf("patches = %d, want only the initial one", len(target.patches))
	}
}

type step string

func TestEffectOrdering(t *testing.T) {
	var log []string
	app := runtime.App[int, step]{
		Init: func() (int, runtime.Effect[step]) { return 0, runtime.None[step]() },
		Update: func(m int, msg step) (int, runtime.Effect[step]) {
			log = append(log, "update "+string(msg))
			if msg != "go" {
				return m + 1, runtime.None[step]()
			}
			return m + 1, runtime.Batch(
				runtime.AfterPaint(func(runtime.Actions[step]) { log = append(log, "after") }),
				runtime.From(func(a runtime.Actions[step]) {
					log = append(log, "sync")
					a.Dispatch("inner", false)
				}),
				runtime.BeforePaint(func(runtime.Actions[step]) { log = append(log, "before") }),
			)
		},
		View: func(m int) *vdom.Node {
			log = append(log, "render")
			return vdom.Textf("%d", m)
		},
	}
	sched := runtimetest.NewScheduler()
	rt := start(t, app, &recorder{}, sched)
	log = nil

	rt.Dispatch("go", false)
	sched.Flush()

	want := []string{"update go", "sync", "update inner", "render", "before", "after"}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if rt.Model() != 2 {
		t.Errorf("Model() = %d, want 2", rt.Model())
	}
}

func TestPaintEffectDispatchRendersAgain(t *testing.T) {
	target := &recorder{}
	app := runtime.App[int, int]{
		Init: func() (int, runtime.Effect[int]) {
			return 0, runtime.BeforePaint(func(a runtime.Actions[int]) { a.Dispatch(1, false) })
		},
		Update: func(m, msg int) (int, runtime.Effect[int]) { return m + msg, runtime.None[int]() },
		View:   func(m int) *vdom.Node { return vdom.Textf("%d", m) },
	}
	sched := runtimetest.NewScheduler()
	rt := start(t, app, target, sched)

	if sched.PendingMicrotasks() != 1 {
		t.Fatalf("pending microtasks = %d, want 1", sched.PendingMicrotasks())
	}
	sched.Flush()
	if rt.Model() != 1 || len(target.patches) != 2 {
		t.Errorf("model = %d, patches = %d; want 1, 2", rt.Model(), len(target.patches))
	}
}

func TestMapEffect(t *testing.T) {
	inner := runtime.From(func(a runtime.Actions[int]) { a.Dispatch(7, false) })
	outer := runtime.MapEffect(inner, func(n int) textMsg { return textMsg(strconv.Itoa(n)) })

	app := textApp("")
	app.Init = func() (string, runtime.Effect[textMsg]) { return "", outer }
	rt := start(t, app, &recorder{}, runtimetest.NewScheduler())

	if rt.Model() != "7" {
		t.Errorf("Model() = %q, want 7", rt.Model())
	}
	if !runtime.None[int]().IsNone() || outer.IsNone() {
		t.Error("IsNone() mismatch")
	}
}

type counterMsg int

func counterApp() runtime.App[int, counterMsg] {
	return runtime.App[int, counterMsg]{
		Init: func() (int, runtime.Effect[counterMsg]) { return 0, runtime.None[counterMsg]() },
		Update: func(m int, msg counterMsg) (int, runtime.Effect[counterMsg]) {
			return m + int(msg), runtime.None[counterMsg]()
		},
		View: func(m int) *vdom.Node {
			return vdom.Div(
				vdom.Button(vdom.OnClick(counterMsg(1)), "+"),
				vdom.Span(vdom.Textf("%d", m)),
				vdom.Input(vdom.OnInput(func(v string) any {
					n, _ := strconv.Atoi(v)
					return counterMsg(n)
				})),
				vdom.P(vdom.On("click", func(vdom.Event) (any, error) { return "wrong", nil })),
			)
		},
	}
}

func TestHandleEvent(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := runtime.NewMetrics(runtime.WithRegistry(reg))
	sched := runtimetest.NewScheduler()
	rt := start(t, counterApp(), &recorder{}, sched, runtime.WithMetrics(metrics))

	div := vdom.Root.Child(0, "")
	button := div.Child(0, "")
	input := div.Child(2, "")
	para := div.Child(3, "")

	rt.HandleEvent(vdom.Event{Type: "click"}, button, "click", false)
	sched.Flush()
	if rt.Model() != 1 {
		t.Fatalf("Model() = %d after click, want 1", rt.Model())
	}

	rt.HandleEvent(vdom.Event{Type: "input", Fields: map[string]any{"target.value": "5"}}, input, "input", false)
	sched.Flush()
	if rt.Model() != 6 {
		t.Fatalf("Model() = %d after input, want 6", rt.Model())
	}

	// Missing payload, unknown handler and wrong message type are dropped.
	rt.HandleEvent(vdom.Event{Type: "input"}, input, "input", false)
	rt.HandleEvent(vdom.Event{Type: "keydown"}, button, "keydown", false)
	rt.HandleEvent(vdom.Event{Type: "click"}, para, "click", false)
	if rt.State() != runtime.Idle {
		t.Errorf("State() = %s, want idle", rt.State())
	}
	if rt.Model() != 6 {
		t.Errorf("Model() = %d, want 6", rt.Model())
	}

	expected := `
# HELP weft_runtime_dropped_events_total Total number of events that did not produce a message
# TYPE weft_runtime_dropped_events_total counter
weft_runtime_dropped_events_total{reason="decode"} 1
weft_runtime_dropped_events_total{reason="no_handler"} 1
weft_runtime_dropped_events_total{reason="type"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "weft_runtime_dropped_events_total"); err != nil {
		t.Error(err)
	}
}

func TestDecide(t *testing.T) {
	rt := start(t, counterApp(), &recorder{}, runtimetest.NewScheduler())
	div := vdom.Root.Child(0, "")

	if !rt.Decide(div.Child(0, ""), "click", vdom.Event{}) {
		t.Error("Decide(button click) = false, want true")
	}
	if rt.Decide(div.Child(3, ""), "click", vdom.Event{}) {
		t.Error("Decide(wrong type) = true, want false")
	}
	if rt.Decide(div.Child(2, ""), "input", vdom.Event{}) {
		t.Error("Decide(undecodable) = true, want false")
	}
	if rt.Events().Len() != 3 {
		t.Errorf("Events().Len() = %d, want 3", rt.Events().Len())
	}
}

func TestPatchFailureIsLoggedNotFatal(t *testing.T) {
	reg := prometheus.NewRegistry()
	target := &recorder{err: errors.New("detached")}
	sched := runtimetest.NewScheduler()
	rt := start(t, textApp("a"), target, sched, runtime.WithMetrics(runtime.NewMetrics(runtime.WithRegistry(reg))))

	rt.Dispatch("b", true)
	if rt.Model() != "b" {
		t.Errorf("Model() = %q, want b", rt.Model())
	}
	expected := `
# HELP weft_runtime_patch_errors_total Total number of patches the target failed to apply
# TYPE weft_runtime_patch_errors_total counter
weft_runtime_patch_errors_total 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "weft_runtime_patch_errors_total"); err != nil {
		t.Error(err)
	}
}

func TestDuplicateKeysLoggedAtDebug(t *testing.T) {
	app := textApp("a")
	app.View = func(m string) *vdom.Node {
		return vdom.Ul(vdom.Keyed(m, vdom.Li()), vdom.Keyed(m, vdom.Li()))
	}

	tests := []struct {
		level slog.Level
		want  bool
	}{
		{slog.LevelDebug, true},
		{slog.LevelInfo, false},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: tt.level}))
			start(t, app, &recorder{}, runtimetest.NewScheduler(), runtime.WithLogger(logger))

			out := buf.String()
			if got := strings.Contains(out, "duplicate keys treated as positional"); got != tt.want {
				t.Errorf("logged = %v, want %v; output:\n%s", got, tt.want, out)
			}
			if tt.want && !strings.Contains(out, "keys=[a]") {
				t.Errorf("log output missing keys=[a]:\n%s", out)
			}
		})
	}
}

func TestShutdown(t *testing.T) {
	target := &recorder{}
	sched := runtimetest.NewScheduler()
	rt := start(t, textApp("a"), target, sched)

	rt.Dispatch("b", false)
	rt.Shutdown()
	if sched.PendingFrames() != 0 {
		t.Errorf("pending frames = %d, want 0", sched.PendingFrames())
	}
	rt.Dispatch("c", true)
	sched.Flush()
	if len(target.patches) != 1 {
		t.Errorf("patches = %d after shutdown, want 1", len(target.patches))
	}
	rt.Shutdown()
}

type emitter struct {
	recorder
	names []string
}

func (e *emitter) Emit(name string, _ any) error {
	e.names = append(e.names, name)
	return nil
}

func TestEmit(t *testing.T) {
	app := textApp("")
	app.Init = func() (string, runtime.Effect[textMsg]) {
		return "", runtime.From(func(a runtime.Actions[textMsg]) { a.Emit("ready", 42) })
	}

	t.Run("emitter target", func(t *testing.T) {
		target := &emitter{}
		start(t, app, target, runtimetest.NewScheduler())
		if diff := cmp.Diff([]string{"ready"}, target.names); diff != "" {
			t.Errorf("emitted (-want +got):\n%s", diff)
		}
	})

	t.Run("root event", func(t *testing.T) {
		doc := dom.NewDocument()
		root := doc.CreateElement("div")
		if err := doc.Body().AppendChild(root); err != nil {
			t.Fatal(err)
		}
		var got any
		doc.Body().AddEventListener("ready", func(ev *dom.Event) { got = ev.Detail })

		start(t, app, &recorder{}, runtimetest.NewScheduler(), runtime.WithRoot(root))
		if got != 42 {
			t.Errorf("event detail = %v, want 42", got)
		}
	})
}

func TestAssert(t *testing.T) {
	runtime.Assert(true, nil, "never fires")

	defer func() {
		r := recover()
		err, ok := r.(*werrors.Error)
		if !ok {
			t.Fatalf("panic value = %T, want *errors.Error", r)
		}
		if err.Code != "E020" {
			t.Errorf("Code = %s, want E020", err.Code)
		}
		if err.Value != -1 {
			t.Errorf("Value = %v, want -1", err.Value)
		}
		if err.Location == nil || !strings.HasSuffix(err.Location.File, "runtime_test.go") {
			t.Errorf("Location = %v, want this file", err.Location)
		}
		if err.Detail != "count must not be negative" {
			t.Errorf("Detail = %q", err.Detail)
		}
	}()
	runtime.Assert(false, -1, "count must not be negative")
}

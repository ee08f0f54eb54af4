package runtime

import (
	"github.com/vango-go/weft/internal/errors"
	"github.com/vango-go/weft/pkg/dom"
	"github.com/vango-go/weft/pkg/reconcile"
	"github.com/vango-go/weft/pkg/vdom"
)

// Mount renders app into the first element of doc matching selector and
// starts it. The element's existing children are replaced.
//
// When sched also implements reconcile.Clock (as *Loop does), throttle
// and debounce timers run on it.
func Mount[Model, Msg any](doc *dom.Document, selector string, app App[Model, Msg], sched Scheduler, opts ...Option) (*Runtime[Model, Msg], error) {
	root := doc.QuerySelector(selector)
	if root == nil {
		return nil, errors.New("E101").
			WithValue(selector).
			WithSuggestion("check that the document contains an element matching " + selector).
			Wrap(ErrMountNotFound)
	}
	rt, err := hostRuntime(root, app, sched, opts)
	if err != nil {
		return nil, err
	}
	if err := rt.Start(); err != nil {
		return nil, err
	}
	return rt, nil
}

// hostRuntime builds a runtime that renders into root through a reconciler.
func hostRuntime[Model, Msg any](root *dom.Node, app App[Model, Msg], sched Scheduler, opts []Option) (*Runtime[Model, Msg], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var rt *Runtime[Model, Msg]
	rOpts := []reconcile.Option{
		reconcile.WithLogger(o.logger),
		reconcile.WithDecider(func(path vdom.Path, name string, ev vdom.Event) bool {
			return rt.Decide(path, name, ev)
		}),
	}
	if clock, ok := sched.(reconcile.Clock); ok {
		rOpts = append(rOpts, reconcile.WithClock(clock))
	}
	rec := reconcile.New(root, func(ev vdom.Event, path vdom.Path, name string, immediate bool) {
		rt.HandleEvent(ev, path, name, immediate)
	}, rOpts...)

	rt, err := New(app, rec, sched, append(opts, WithRoot(root))...)
	if err != nil {
		rec.Close()
		return nil, err
	}
	return rt, nil
}

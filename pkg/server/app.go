package server

import (
	"github.com/vango-go/weft/pkg/runtime"
	"github.com/vango-go/weft/pkg/vdom"
)

// Instance is a started application bound to one session.
type Instance interface {
	HandleEvent(ev vdom.Event, path vdom.Path, name string, immediate bool)
	Shutdown()
}

// Mount starts an application for a new session. It runs on the
// session's loop; target receives the session's patches.
type Mount func(target runtime.Target, sched runtime.Scheduler, opts ...runtime.Option) (Instance, error)

// App returns a Mount that starts a fresh runtime of app per session.
func App[Model, Msg any](app runtime.App[Model, Msg]) Mount {
	return func(target runtime.Target, sched runtime.Scheduler, opts ...runtime.Option) (Instance, error) {
		rt, err := runtime.New(app, target, sched, opts...)
		if err != nil {
			return nil, err
		}
		if err := rt.Start(); err != nil {
			return nil, err
		}
		return rt, nil
	}
}

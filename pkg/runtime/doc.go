// Package runtime runs applications written in model/update/view form.
//
// A Runtime owns a model, the last rendered tree and its event registry.
// Messages enter through Dispatch (from effects) or HandleEvent (from a
// live tree). Update runs for every queued message before anything
// renders; the render that follows is scheduled on the next frame, or
// performed at once when a dispatch asked for immediate delivery.
//
// # Effects
//
// Update returns an Effect alongside the new model. Effects run in three
// tiers:
//
//	runtime.From(f)        // now, before queued messages are processed
//	runtime.BeforePaint(f) // in a microtask after the next render
//	runtime.AfterPaint(f)  // in the frame after the next render
//
// # Scheduling
//
// A Scheduler provides microtasks and frames. Loop is the production
// scheduler: a single goroutine fed through Post. Tests use the
// deterministic scheduler in runtime/runtimetest.
//
//	loop := runtime.NewLoop()
//	go loop.Run(ctx)
//	_ = loop.Post(func() {
//	    rt, err := runtime.Mount(doc, "#app", app, loop)
//	    ...
//	})
//
// # Host elements
//
// A Registry maps custom element names to factories. NewComponent builds
// an Element that renders its own App into the host node and translates
// lifecycle hooks and attribute changes into messages. Components find
// values published with Actions.Provide by raising a ContextRequest.
package runtime

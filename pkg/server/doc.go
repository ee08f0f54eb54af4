// Package server runs weft applications for remote clients over
// WebSockets.
//
// Each connection gets a Session with its own runtime.Loop. The
// application is mounted on that loop with the session as its
// runtime.Target, so every render is diffed on the server and shipped to
// the client as a protocol patch frame. The client reports listener
// firings as event frames, which the session posts back onto the loop.
//
//	srv, err := server.New(server.App(counter), nil)
//	if err != nil {
//	    return err
//	}
//	return srv.Run(ctx)
//
// Sessions are kept alive with protocol ping/pong heartbeats, log with a
// session_id attribute, and report to the Prometheus registry exposed at
// /metrics.
package server

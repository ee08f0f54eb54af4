// Package errors provides structured, coded errors for weft.
//
// Each Error carries a registry code (e.g. "E101") that maps to a short
// message and a plain-language explanation, plus optional source location,
// offending value, hint and wrapped cause. Errors raised before rendering
// starts (mount and component registration) wrap a package sentinel so
// callers can match them with errors.Is.
//
// # Error Categories
//
//   - runtime: event delivery, patch application and assertions
//   - protocol: wire frames and websocket sessions
//   - setup: mounting and component registration
//   - config: weft.yaml loading and validation
//   - cli: command-line input
//
// # Usage
//
//	err := errors.New("E101").
//	    WithSuggestion(`check that the page contains <div id="app">`).
//	    Wrap(runtime.ErrMountNotFound)
//
//	fmt.Print(errors.Formatter{Color: true}.Format(err))
package errors

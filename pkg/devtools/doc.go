// Package devtools is a development inspector for shared state.
//
// Register named states with an Inspector and serve its Handler. The
// HTTP API lists and edits values; a WebSocket endpoint streams every
// change:
//
//	insp := devtools.New(devtools.WithDispatcher(runtime))
//	devtools.Register(insp, cart)
//	devtools.Register(insp, session, devtools.ReadOnly())
//	go insp.Serve(ctx, "localhost:7070")
//
// Writes made through the API are applied with SharedState.Set, so bound
// components re-render exactly as they would for an in-process write.
// With a Dispatcher the write happens on the rendering goroutine.
//
// WebSocket clients first receive a "snapshot" event with every state,
// then one "change" event per notification and a "removed" event when a
// state is unregistered.
package devtools

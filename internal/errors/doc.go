// Package errors provides structured, coded errors for sharedstate.
//
// Every failure the library reports on purpose carries a stable code
// (for example "E002") that maps to a short message, a longer
// explanation, and a documentation anchor. Hook misuse inside the
// component runtime panics with one of these errors, and the config,
// persist and devtools layers return them.
//
// # Error Categories
//
//   - runtime: hook and render-loop misuse inside the component runtime
//   - config: loading or validating sharedstate.json / sharedstate.yaml
//   - persist: saving or restoring state snapshots
//   - protocol: devtools HTTP and websocket requests
//   - cli: command line usage
//
// # Usage
//
//	err := errors.New(errors.CodeHookOrderChanged).
//	    WithCaller(1).
//	    WithSuggestion("Call hooks unconditionally and in the same order every render")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E002: Hook order changed between renders
//	//
//	//   app/counter.go:31
//	//   ...
//
// Errors compare by code, so errors.Is(err, errors.New(errors.CodeUnknownState))
// matches any error carrying that code, wrapped or not.
package errors

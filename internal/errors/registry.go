package errors

import (
	"slices"
	"sync"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

const docBase = "https://github.com/vango-dev/sharedstate/blob/main/docs/errors.md#"

// Registered error codes.
const (
	CodeHookOutsideRender = "E001"
	CodeHookOrderChanged  = "E002"
	CodeHookTypeMismatch  = "E003"
	CodeOwnerDisposed     = "E004"
	CodeRenderLoop        = "E005"
	CodeNilOwner          = "E006"
	CodeContextMissing    = "E007"

	CodeConfigNotFound = "E100"
	CodeConfigInvalid  = "E101"
	CodeConfigParse    = "E102"
	CodeConfigWatch    = "E103"

	CodeSnapshotLoad   = "E120"
	CodeSnapshotSave   = "E121"
	CodeSnapshotDecode = "E122"
	CodeSnapshotEncode = "E123"

	CodeUnknownState    = "E140"
	CodeInvalidPayload  = "E141"
	CodeStateReadOnly   = "E142"
	CodeDuplicateState  = "E143"
	CodeInspectorServer = "E144"

	CodeInvalidUsage = "E160"
)

var (
	registryMu sync.RWMutex

	// registry maps error codes to their templates.
	registry = map[string]ErrorTemplate{
		// ============================================
		// Runtime Errors (E001-E099)
		// ============================================

		CodeHookOutsideRender: {
			Category: CategoryRuntime,
			Message:  "Hook called outside render",
			Detail:   "Hooks such as UseEffect, UseRef, UseListen and UseSharedState may only be called while their owner is rendering.",
			DocURL:   docBase + "e001",
		},
		CodeHookOrderChanged: {
			Category: CategoryRuntime,
			Message:  "Hook order changed between renders",
			Detail:   "A component must call the same hooks in the same order on every render. Conditional or looped hook calls shift every slot after them.",
			DocURL:   docBase + "e002",
		},
		CodeHookTypeMismatch: {
			Category: CategoryRuntime,
			Message:  "Hook slot holds a different type",
			Detail:   "The value stored in a hook slot does not match the type this render asked for. This usually means a hook was added or removed conditionally.",
			DocURL:   docBase + "e003",
		},
		CodeOwnerDisposed: {
			Category: CategoryRuntime,
			Message:  "Owner disposed",
			Detail:   "The component has been unmounted and its owner disposed. Hooks and render requests on it are no longer valid.",
			DocURL:   docBase + "e004",
		},
		CodeRenderLoop: {
			Category: CategoryRuntime,
			Message:  "Render loop did not settle",
			Detail:   "Flush kept finding dirty components after the maximum number of passes. An effect or listener is probably setting state unconditionally on every commit.",
			DocURL:   docBase + "e005",
		},
		CodeNilOwner: {
			Category: CategoryRuntime,
			Message:  "Hook called with nil owner",
			Detail:   "Hooks take the owner passed to the render function. A nil owner cannot hold hook state.",
			DocURL:   docBase + "e006",
		},
		CodeContextMissing: {
			Category: CategoryRuntime,
			Message:  "Context has no provider",
			Detail:   "No ancestor provided a value for this context and it was created without a default.",
			DocURL:   docBase + "e007",
		},

		// ============================================
		// Config Errors (E100-E119)
		// ============================================

		CodeConfigNotFound: {
			Category: CategoryConfig,
			Message:  "Config file not found",
			Detail:   "No sharedstate.json or sharedstate.yaml was found in the directory or any parent.",
			DocURL:   docBase + "e100",
		},
		CodeConfigInvalid: {
			Category: CategoryConfig,
			Message:  "Invalid configuration",
			Detail:   "The configuration file was parsed but contains values that cannot be used.",
			DocURL:   docBase + "e101",
		},
		CodeConfigParse: {
			Category: CategoryConfig,
			Message:  "Config file could not be parsed",
			Detail:   "The configuration file is not valid JSON or YAML.",
			DocURL:   docBase + "e102",
		},
		CodeConfigWatch: {
			Category: CategoryConfig,
			Message:  "Config watch failed",
			Detail:   "The file watcher for the configuration file could not be started.",
			DocURL:   docBase + "e103",
		},

		// ============================================
		// Persist Errors (E120-E139)
		// ============================================

		CodeSnapshotLoad: {
			Category: CategoryPersist,
			Message:  "Snapshot load failed",
			Detail:   "The snapshot store returned an error while reading a state snapshot.",
			DocURL:   docBase + "e120",
		},
		CodeSnapshotSave: {
			Category: CategoryPersist,
			Message:  "Snapshot save failed",
			Detail:   "The snapshot store returned an error while writing a state snapshot.",
			DocURL:   docBase + "e121",
		},
		CodeSnapshotDecode: {
			Category: CategoryPersist,
			Message:  "Snapshot decode failed",
			Detail:   "A stored snapshot could not be decoded into the state's value type.",
			DocURL:   docBase + "e122",
		},
		CodeSnapshotEncode: {
			Category: CategoryPersist,
			Message:  "Snapshot encode failed",
			Detail:   "The state's value could not be encoded as JSON.",
			DocURL:   docBase + "e123",
		},

		// ============================================
		// Protocol Errors (E140-E159)
		// ============================================

		CodeUnknownState: {
			Category: CategoryProtocol,
			Message:  "Unknown state",
			Detail:   "No state is registered with the inspector under this name.",
			DocURL:   docBase + "e140",
		},
		CodeInvalidPayload: {
			Category: CategoryProtocol,
			Message:  "Invalid state payload",
			Detail:   "The request body could not be decoded into the state's value type.",
			DocURL:   docBase + "e141",
		},
		CodeStateReadOnly: {
			Category: CategoryProtocol,
			Message:  "State is read-only",
			Detail:   "Writes through the inspector are disabled for this state or for the whole server.",
			DocURL:   docBase + "e142",
		},
		CodeDuplicateState: {
			Category: CategoryProtocol,
			Message:  "State name already registered",
			Detail:   "Every state registered with an inspector needs a unique name.",
			DocURL:   docBase + "e143",
		},
		CodeInspectorServer: {
			Category: CategoryProtocol,
			Message:  "Inspector server failed",
			Detail:   "The devtools HTTP server stopped with an error.",
			DocURL:   docBase + "e144",
		},

		// ============================================
		// CLI Errors (E160-E179)
		// ============================================

		CodeInvalidUsage: {
			Category: CategoryCLI,
			Message:  "Invalid command usage",
			Detail:   "The command was called with missing or conflicting arguments.",
			DocURL:   docBase + "e160",
		},
	}
)

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[code] = template
}

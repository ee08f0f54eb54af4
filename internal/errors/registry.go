package errors

import "sort"

// Template is the registered description of an error code.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// ============================================
	// Runtime Errors (E001-E039)
	// ============================================

	"E001": {
		Category: CategoryRuntime,
		Message:  "Event payload could not be decoded",
		Detail:   "A handler rejected the event it was bound to. The event is dropped and no message is dispatched.",
	},
	"E002": {
		Category: CategoryRuntime,
		Message:  "Handler produced a message of the wrong type",
		Detail:   "An event handler or mapper returned a value that is not the application's message type.",
	},
	"E010": {
		Category: CategoryRuntime,
		Message:  "Patch could not be applied",
		Detail:   "The render target rejected a patch. The live tree no longer matches the last rendered view.",
	},
	"E020": {
		Category: CategoryRuntime,
		Message:  "Assertion failed",
		Detail:   "Application code asserted a condition that does not hold. The runtime does not recover from this.",
	},

	// ============================================
	// Protocol Errors (E060-E079)
	// ============================================

	"E060": {
		Category: CategoryProtocol,
		Message:  "Malformed frame",
		Detail:   "A frame header or payload could not be decoded.",
	},
	"E061": {
		Category: CategoryProtocol,
		Message:  "Unknown change kind",
		Detail:   "The patch stream contains a change kind this version does not understand.",
	},
	"E062": {
		Category: CategoryProtocol,
		Message:  "Frame exceeds allocation limits",
		Detail:   "A length prefix asked for more memory than the decoder allows.",
	},
	"E063": {
		Category: CategoryProtocol,
		Message:  "Session closed",
		Detail:   "The websocket session ended while work was still queued.",
	},

	// ============================================
	// Setup Errors (E100-E119)
	// ============================================

	"E101": {
		Category: CategorySetup,
		Message:  "Mount target not found",
		Detail:   "No element in the document matches the mount selector.",
	},
	"E102": {
		Category: CategorySetup,
		Message:  "Component already registered",
		Detail:   "A component can be registered under a given element name only once.",
	},
	"E103": {
		Category: CategorySetup,
		Message:  "Invalid component name",
		Detail:   "Component names must start with a lowercase letter, contain a hyphen and use only lowercase letters, digits, '-', '.' and '_'.",
	},
	"E104": {
		Category: CategorySetup,
		Message:  "Incomplete application",
		Detail:   "An application needs Init, Update and View functions.",
	},
	"E105": {
		Category: CategorySetup,
		Message:  "Runtime already started",
		Detail:   "Start runs the application's Init once; a second call is rejected.",
	},
	"E106": {
		Category: CategorySetup,
		Message:  "Unknown component",
		Detail:   "No component is registered for the host element's tag.",
	},

	// ============================================
	// Configuration Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "weft.yaml not found",
		Detail:   "Could not find weft.yaml in the current directory or any parent directory.",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Invalid weft.yaml",
		Detail:   "The configuration file contains invalid YAML or unknown fields.",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range.",
	},

	// ============================================
	// CLI Errors (E140-E159)
	// ============================================

	"E140": {
		Category: CategoryCLI,
		Message:  "Invalid tree file",
		Detail:   "The tree description could not be read or does not describe a node.",
	},
	"E141": {
		Category: CategoryCLI,
		Message:  "Unknown output format",
		Detail:   "Supported formats are text, json, binary and html.",
	},
	"E142": {
		Category: CategoryCLI,
		Message:  "Address already in use",
		Detail:   "Another process is listening on the requested address.",
	},
}

// Codes returns all registered error codes in order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Lookup returns the template for an error code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}

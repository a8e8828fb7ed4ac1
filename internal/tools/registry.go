package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Handler is one tool's implementation. It must never panic across the
// dispatch boundary for an ordinary failure: return
// map[string]interface{}{"success": false, "error": "..."} instead.
// Dispatch recovers any panic regardless, per spec.md §4.8's
// non-raising contract.
type Handler func(ctx context.Context, projectID string, args map[string]interface{}) map[string]interface{}

// Registry maps tool names to handlers.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds or replaces the handler for name.
func (r *Registry) Register(name string, h Handler) {
	r.handlers[name] = h
}

// Names returns every registered tool name, for tests and introspection.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		out = append(out, name)
	}
	return out
}

// Dispatch parses rawArgs as a JSON object, routes to the named
// handler, and always returns a JSON-serialisable result map — never an
// error — per spec.md §4.8: unknown tool names and malformed arguments
// both resolve to {success:false, error}, and a handler panic is
// converted to {success:false, error, traceback}.
func (r *Registry) Dispatch(ctx context.Context, projectID, name string, rawArgs json.RawMessage) (result map[string]interface{}) {
	defer func() {
		if p := recover(); p != nil {
			result = map[string]interface{}{
				"success":   false,
				"error":     fmt.Sprintf("tool panicked: %v", p),
				"traceback": fmt.Sprintf("%v", p),
			}
		}
	}()

	handler, ok := r.handlers[name]
	if !ok {
		return map[string]interface{}{"success": false, "error": "unknown tool"}
	}

	var args map[string]interface{}
	if len(rawArgs) > 0 {
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return map[string]interface{}{"success": false, "error": fmt.Sprintf("invalid tool arguments: %v", err)}
		}
	}
	if args == nil {
		args = map[string]interface{}{}
	}

	return handler(ctx, projectID, args)
}

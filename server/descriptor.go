package server

import (
	"reflect"
	"slices"
	"sync"

	"github.com/gaborage/go-params/params"
)

// RouteDescriptor captures metadata about a registered route
type RouteDescriptor struct {
	Method       string         // HTTP method (GET, POST, etc.)
	Path         string         // Route path pattern (/users/:id)
	HandlerID    string         // Unique identifier for handler function
	HandlerName  string         // Function name (e.g., "getUser")
	ModuleName   string         // Module that registered this route
	Package      string         // Go package path
	ResponseType reflect.Type   // Response type R from HandlerFunc[R]
	Params       []params.Param // Declared parameters, in validation order
	Tags         []string       // Optional grouping tags
	Summary      string
	Description  string
	Deprecated   bool
	RawResponse  bool // If true, bypass the APIResponse envelope
}

// RouteRegistry maintains registered routes for introspection and
// document generation.
type RouteRegistry struct {
	mu     sync.RWMutex
	routes []RouteDescriptor
}

// DefaultRouteRegistry is used by registries created without WithRouteRegistry.
var DefaultRouteRegistry = &RouteRegistry{}

// NewRouteRegistry creates an empty registry.
func NewRouteRegistry() *RouteRegistry {
	return &RouteRegistry{}
}

// Register adds a route descriptor to the registry
func (r *RouteRegistry) Register(descriptor *RouteDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, cloneDescriptor(descriptor))
}

// Routes returns a copy of all registered routes
func (r *RouteRegistry) Routes() []RouteDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]RouteDescriptor, len(r.routes))
	for i := range r.routes {
		result[i] = cloneDescriptor(&r.routes[i])
	}
	return result
}

// ByModule returns routes for a specific module
func (r *RouteRegistry) ByModule(moduleName string) []RouteDescriptor {
	return r.filter(func(d *RouteDescriptor) bool { return d.ModuleName == moduleName })
}

// ByPath returns routes for a specific path pattern
func (r *RouteRegistry) ByPath(path string) []RouteDescriptor {
	return r.filter(func(d *RouteDescriptor) bool { return d.Path == path })
}

func (r *RouteRegistry) filter(keep func(*RouteDescriptor) bool) []RouteDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []RouteDescriptor
	for i := range r.routes {
		if keep(&r.routes[i]) {
			result = append(result, cloneDescriptor(&r.routes[i]))
		}
	}
	return result
}

// Clear removes all registered routes (useful for testing)
func (r *RouteRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = nil
}

// Count returns the number of registered routes
func (r *RouteRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routes)
}

// RouteOption for configuring route descriptors during registration
type RouteOption func(*RouteDescriptor)

// WithModule sets the module name for a route
func WithModule(name string) RouteOption {
	return func(d *RouteDescriptor) {
		d.ModuleName = name
	}
}

// WithTags adds tags to a route for grouping and organization
func WithTags(tags ...string) RouteOption {
	return func(d *RouteDescriptor) {
		d.Tags = append(d.Tags, tags...)
	}
}

// WithSummary sets a summary description for the route
func WithSummary(summary string) RouteOption {
	return func(d *RouteDescriptor) {
		d.Summary = summary
	}
}

// WithDescription sets a detailed description for the route
func WithDescription(description string) RouteOption {
	return func(d *RouteDescriptor) {
		d.Description = description
	}
}

// WithDeprecated marks the whole operation as deprecated.
func WithDeprecated() RouteOption {
	return func(d *RouteDescriptor) {
		d.Deprecated = true
	}
}

// WithHandlerName explicitly sets the handler function name
func WithHandlerName(name string) RouteOption {
	return func(d *RouteDescriptor) {
		d.HandlerName = name
	}
}

// WithRawResponse returns the handler's response as plain JSON instead of
// wrapping it in APIResponse.
func WithRawResponse() RouteOption {
	return func(d *RouteDescriptor) {
		d.RawResponse = true
	}
}

// cloneDescriptor deep-copies slice fields to prevent external mutation
func cloneDescriptor(d *RouteDescriptor) RouteDescriptor {
	if d == nil {
		return RouteDescriptor{}
	}
	out := *d
	out.Tags = slices.Clone(d.Tags)
	out.Params = slices.Clone(d.Params)
	return out
}

package server

import (
	"fmt"
	"net/http"
	"reflect"
	"runtime"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/metric"

	"github.com/gaborage/go-params/config"
	"github.com/gaborage/go-params/logger"
	"github.com/gaborage/go-params/params"
	"github.com/gaborage/go-params/source"
)

// HandlerRegistry holds what every wrapped handler shares: the binder,
// the parameter validator and the route registry.
type HandlerRegistry struct {
	binder       *RequestBinder
	validator    *params.Validator
	cfg          *config.Config
	log          logger.Logger
	errorHandler ErrorHandler
	routes       *RouteRegistry
	meter        metric.MeterProvider
	metrics      *validationMetrics
}

// RegistryOption configures a HandlerRegistry.
type RegistryOption func(*HandlerRegistry)

// WithErrorHandler replaces the standard 400 envelope for validation
// failures. The handler receives the raw parameter error.
func WithErrorHandler(fn ErrorHandler) RegistryOption {
	return func(hr *HandlerRegistry) { hr.errorHandler = fn }
}

// WithLogger sets the logger passed to the validator and to handlers.
func WithLogger(log logger.Logger) RegistryOption {
	return func(hr *HandlerRegistry) {
		if log != nil {
			hr.log = log
		}
	}
}

// WithRouteRegistry records routes in r instead of DefaultRouteRegistry.
func WithRouteRegistry(r *RouteRegistry) RegistryOption {
	return func(hr *HandlerRegistry) { hr.routes = r }
}

// WithMeterProvider records validation metrics on mp instead of the
// global meter provider.
func WithMeterProvider(mp metric.MeterProvider) RegistryOption {
	return func(hr *HandlerRegistry) { hr.meter = mp }
}

// ParamsConfig derives the validation policy from the configuration.
func ParamsConfig(cfg *config.Config) params.Config {
	if cfg == nil {
		return params.Config{}
	}
	return params.Config{
		BlankNone:  cfg.Validation.BlankNone,
		CollectAll: cfg.Validation.CollectAll,
	}
}

// NewHandlerRegistry creates a handler registry. cfg may be nil in tests.
func NewHandlerRegistry(cfg *config.Config, opts ...RegistryOption) *HandlerRegistry {
	hr := &HandlerRegistry{
		binder: NewRequestBinder(cfg),
		cfg:    cfg,
		log:    logger.Nop(),
		routes: DefaultRouteRegistry,
	}
	for _, opt := range opts {
		opt(hr)
	}
	hr.validator = params.NewValidator(params.WithConfig(ParamsConfig(cfg)), params.WithLogger(hr.log))
	hr.metrics = newValidationMetrics(hr.meter)
	return hr
}

// Routes returns the route registry this registry records into.
func (hr *HandlerRegistry) Routes() *RouteRegistry {
	return hr.routes
}

// Register validates the declaration of a route, records it and adds the
// wrapped handler to r. A parameter that reads a path segment the route
// does not have is reported as a *params.Error of kind InvalidSourceType.
func Register[R any](
	hr *HandlerRegistry,
	r RouteRegistrar,
	method, path string,
	handler HandlerFunc[R],
	declared []params.Param,
	opts ...RouteOption,
) error {
	fullPath := r.FullPath(path)
	if err := checkDeclared(fullPath, declared); err != nil {
		return err
	}

	var respType R
	descriptor := RouteDescriptor{
		Method:       method,
		Path:         fullPath,
		HandlerID:    fmt.Sprintf("%s:%s", method, fullPath),
		ResponseType: reflect.TypeOf(respType),
		Package:      getCallerPackage(),
		HandlerName:  extractHandlerName(handler),
		Params:       slices.Clone(declared),
	}
	for _, opt := range opts {
		opt(&descriptor)
	}

	hr.routes.Register(&descriptor)
	r.Add(method, path, WrapHandler(hr, &descriptor, handler))

	hr.log.Debug().
		Str("method", method).
		Str("path", fullPath).
		Int("params", len(declared)).
		Msg("Route registered")
	return nil
}

// MustRegister is like Register but panics on an invalid declaration.
func MustRegister[R any](
	hr *HandlerRegistry,
	r RouteRegistrar,
	method, path string,
	handler HandlerFunc[R],
	declared []params.Param,
	opts ...RouteOption,
) {
	if err := Register(hr, r, method, path, handler, declared, opts...); err != nil {
		panic(err)
	}
}

// GET registers a GET handler.
func GET[R any](hr *HandlerRegistry, r RouteRegistrar, path string, handler HandlerFunc[R], declared []params.Param, opts ...RouteOption) error {
	return Register(hr, r, http.MethodGet, path, handler, declared, opts...)
}

// POST registers a POST handler.
func POST[R any](hr *HandlerRegistry, r RouteRegistrar, path string, handler HandlerFunc[R], declared []params.Param, opts ...RouteOption) error {
	return Register(hr, r, http.MethodPost, path, handler, declared, opts...)
}

// PUT registers a PUT handler.
func PUT[R any](hr *HandlerRegistry, r RouteRegistrar, path string, handler HandlerFunc[R], declared []params.Param, opts ...RouteOption) error {
	return Register(hr, r, http.MethodPut, path, handler, declared, opts...)
}

// PATCH registers a PATCH handler.
func PATCH[R any](hr *HandlerRegistry, r RouteRegistrar, path string, handler HandlerFunc[R], declared []params.Param, opts ...RouteOption) error {
	return Register(hr, r, http.MethodPatch, path, handler, declared, opts...)
}

// DELETE registers a DELETE handler.
func DELETE[R any](hr *HandlerRegistry, r RouteRegistrar, path string, handler HandlerFunc[R], declared []params.Param, opts ...RouteOption) error {
	return Register(hr, r, http.MethodDelete, path, handler, declared, opts...)
}

func checkDeclared(path string, declared []params.Param) error {
	segments := pathParamNames(path)
	seen := make(map[string]struct{}, len(declared))

	for _, p := range declared {
		if p.Name() == "" || p.Source() == nil {
			return fmt.Errorf("server: %s: parameter was not built with params.New", path)
		}
		if _, dup := seen[p.Name()]; dup {
			return fmt.Errorf("server: %s: duplicate parameter %q", path, p.Name())
		}
		seen[p.Name()] = struct{}{}

		kinds := p.Source().Kinds()
		// a multi source may still find the value elsewhere
		if len(kinds) == 1 && kinds[0] == source.KindPath && !slices.Contains(segments, p.Key()) {
			return &params.Error{
				Kind:   params.KindInvalidSourceType,
				Param:  p.Name(),
				Source: source.KindPath.String(),
				Type:   p.Type().Name(),
				Detail: fmt.Sprintf("route %s has no path segment %q", path, p.Key()),
			}
		}
	}
	return nil
}

// getCallerPackage returns the package of the function that called a
// registration helper.
func getCallerPackage() string {
	for skip := 2; skip < 6; skip++ {
		pc, _, _, ok := runtime.Caller(skip)
		if !ok {
			return ""
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			return ""
		}
		name := fn.Name()
		if strings.HasPrefix(name, "github.com/gaborage/go-params/server.") {
			continue
		}
		return packageOf(name)
	}
	return ""
}

// packageOf trims the function part from a fully qualified function name,
// e.g. "example.com/app/orders.(*Module).list" -> "example.com/app/orders".
func packageOf(funcName string) string {
	lastSlash := strings.LastIndex(funcName, "/")
	rest := funcName[lastSlash+1:]
	if dot := strings.Index(rest, "."); dot >= 0 {
		return funcName[:lastSlash+1+dot]
	}
	return funcName
}

// extractHandlerName gets the function name from a handler function.
func extractHandlerName(handler any) string {
	v := reflect.ValueOf(handler)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	name := strings.TrimSuffix(runtime.FuncForPC(v.Pointer()).Name(), "-fm")
	if lastDot := strings.LastIndex(name, "."); lastDot >= 0 {
		return name[lastDot+1:]
	}
	return name
}

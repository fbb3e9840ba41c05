package server

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// RouteRegistrar is the subset of Echo routing used to register handlers.
// Implementations keep track of their prefix so that route descriptors
// record the full path.
type RouteRegistrar interface {
	Add(method, path string, handler echo.HandlerFunc, middleware ...echo.MiddlewareFunc) *echo.Route
	Group(prefix string, middleware ...echo.MiddlewareFunc) RouteRegistrar
	Use(middleware ...echo.MiddlewareFunc)
	FullPath(path string) string
}

type routeGroup struct {
	group  *echo.Group
	prefix string
}

// NewRouteGroup wraps an Echo group registered under prefix.
func NewRouteGroup(group *echo.Group, prefix string) RouteRegistrar {
	return &routeGroup{group: group, prefix: normalizePrefix(prefix)}
}

func (rg *routeGroup) Add(method, path string, handler echo.HandlerFunc, middleware ...echo.MiddlewareFunc) *echo.Route {
	return rg.group.Add(method, rg.relativePath(path), handler, middleware...)
}

func (rg *routeGroup) Group(prefix string, middleware ...echo.MiddlewareFunc) RouteRegistrar {
	normalized := normalizePrefix(prefix)
	return &routeGroup{
		group:  rg.group.Group(normalized, middleware...),
		prefix: rg.prefix + normalized,
	}
}

func (rg *routeGroup) Use(middleware ...echo.MiddlewareFunc) {
	rg.group.Use(middleware...)
}

func (rg *routeGroup) FullPath(path string) string {
	full := rg.prefix + rg.relativePath(path)
	if full == "" {
		return "/"
	}
	return full
}

// relativePath strips the group prefix when a caller passes a full path.
func (rg *routeGroup) relativePath(path string) string {
	if path == "" || path == "/" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if rg.prefix != "" && strings.HasPrefix(path, rg.prefix) {
		rest := path[len(rg.prefix):]
		if rest == "" || strings.HasPrefix(rest, "/") {
			return rest
		}
	}
	return path
}

func normalizePrefix(prefix string) string {
	if prefix == "" || prefix == "/" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return strings.TrimRight(prefix, "/")
}

// pathParamNames lists the parameter names of an Echo route pattern.
func pathParamNames(path string) []string {
	var names []string
	for _, seg := range strings.Split(path, "/") {
		switch {
		case strings.HasPrefix(seg, ":"):
			names = append(names, seg[1:])
		case seg == "*":
			names = append(names, "*")
		}
	}
	return names
}

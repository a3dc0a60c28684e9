package domain

import "strings"

// DefaultHomeRoute is the route that shows the intro.
const DefaultHomeRoute = "/"

// NormalizeRoute strips query strings, fragments, index documents and trailing slashes
// so "/", "", "/index.html" and "/?ref=x" compare equal.
func NormalizeRoute(route string) string {
	if i := strings.IndexAny(route, "?#"); i >= 0 {
		route = route[:i]
	}
	route = strings.TrimSpace(route)
	if route == "index.html" || strings.HasSuffix(route, "/index.html") {
		route = strings.TrimSuffix(route, "index.html")
	}
	route = strings.TrimRight(route, "/")
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return route
}

// IsHomeRoute reports whether route resolves to home.
func IsHomeRoute(route, home string) bool {
	return NormalizeRoute(route) == NormalizeRoute(home)
}

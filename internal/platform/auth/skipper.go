package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists routes reachable without a session: infrastructure
// endpoints and the session endpoints used to sign in.
var publicPaths = map[string]bool{
	"/health":                true,
	"/api/v1/session":        true,
	"/api/v1/session/login":  true,
	"/api/v1/session/logout": true,
}

// AuthSkipper returns true for requests whose route should skip
// authentication.
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

// IsPublicPath reports whether path is served without a session.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}

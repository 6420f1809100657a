package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists route paths reachable without a session: infrastructure
// endpoints, the sign-in and sign-up forms and the public plan catalog.
var publicPaths = map[string]bool{
	"/health":       true,
	"/health/db":    true,
	"/metrics":      true,
	"/auth/signin":  true,
	"/auth/signup":  true,
	"/api/v1/plans": true,
}

// AuthSkipper returns true for requests whose route should skip
// authentication. Pass it as JWTConfig.Skipper.
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

func IsPublicPath(path string) bool {
	return publicPaths[path]
}

package middleware

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/bytes"
)

const defaultBodyLimit = "1M"

// BodyLimit caps request bodies at limit ("64K", "1M", ...), answering 413
// both for an oversized Content-Length and for a body that grows past the
// limit while it is read. An unparseable limit falls back to 1M.
func BodyLimit(limit string) echo.MiddlewareFunc {
	return echomw.BodyLimit(normalizeLimit(limit))
}

func normalizeLimit(limit string) string {
	if n, err := bytes.Parse(limit); err != nil || n <= 0 {
		return defaultBodyLimit
	}
	return limit
}

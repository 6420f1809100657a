package middleware

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// Recovery turns a panic into a 500 written by echo's error handler. The
// panic is logged with its stack and reported to Sentry when a client is
// configured.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return echomw.RecoverWithConfig(echomw.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			rid, _ := c.Get("request_id").(string)
			logger.Error().
				Str("request_id", rid).
				Str("route", c.Path()).
				Err(err).
				Bytes("stack", stack).
				Msg("panic recovered")

			if hub := sentry.CurrentHub().Clone(); hub.Client() != nil {
				hub.WithScope(func(scope *sentry.Scope) {
					scope.SetTag("request_id", rid)
					scope.SetTag("route", c.Path())
					scope.SetRequest(c.Request())
					hub.CaptureException(err)
				})
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		},
	})
}

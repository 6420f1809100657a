package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

const RequestIDHeader = echo.HeaderXRequestID

// maxRequestIDLength bounds client supplied ids before they reach the logs.
const maxRequestIDLength = 128

// RequestID keeps the caller's X-Request-ID (or mints a UUID) and exposes it
// as "request_id" on the echo context for Logger and Recovery.
func RequestID() echo.MiddlewareFunc {
	return echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, rid string) {
			if len(rid) > maxRequestIDLength {
				rid = uuid.NewString()
				c.Response().Header().Set(RequestIDHeader, rid)
			}
			c.Set("request_id", rid)
		},
	})
}

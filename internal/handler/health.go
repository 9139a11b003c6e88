package handler

import (
    "net/http" // status codes

    "github.com/labstack/echo/v4" // web framework
)

// Health is the liveness endpoint polled by load balancers and
// monitoring.  It returns a plain "ok" with HTTP 200.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

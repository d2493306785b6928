package api

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// RouteSkipper returns a skipper that matches the given route paths, used to
// keep probe endpoints out of the request log.
func RouteSkipper(paths []string) middleware.Skipper {
	skipped := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		skipped[path] = struct{}{}
	}

	return func(c echo.Context) bool {
		_, ok := skipped[c.Path()]
		return ok
	}
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const maxHeaderValueSize = 8192

// Sanitize rejects requests with path traversal, null bytes or header
// values carrying line breaks or exceeding 8KB.
func Sanitize() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path
			raw := req.URL.RawPath
			if raw == "" {
				raw = req.URL.EscapedPath()
			}

			if containsPathTraversal(path) || containsPathTraversal(raw) {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid path")
			}
			if containsNullByte(path) || containsNullByte(raw) || containsNullByte(req.URL.RawQuery) {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid characters in request")
			}
			for name, values := range req.Header {
				for _, v := range values {
					if len(v) > maxHeaderValueSize {
						return echo.NewHTTPError(http.StatusRequestHeaderFieldsTooLarge, "header too large: "+name)
					}
					if strings.ContainsAny(v, "\r\n") {
						return echo.NewHTTPError(http.StatusBadRequest, "invalid header: "+name)
					}
				}
			}
			return next(c)
		}
	}
}

func containsPathTraversal(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(s, "..") || strings.Contains(lower, "%2e%2e") || strings.Contains(lower, "%252e")
}

func containsNullByte(s string) bool {
	return strings.ContainsRune(s, '\x00') || strings.Contains(strings.ToLower(s), "%00")
}

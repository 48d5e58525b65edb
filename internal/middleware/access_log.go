package middleware

import (
	"io"
	"net/http"

	"github.com/gorilla/handlers"
)

// AccessLog writes one Apache combined-format line per request to out.
// A nil writer disables it.
func AccessLog(out io.Writer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if out == nil {
			return next
		}
		return handlers.CombinedLoggingHandler(out, next)
	}
}

package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/Hardik-Sankhla/VoiceInvoice/internal/api/response"
)

// Recovery converts handler panics into 500 responses. A panic mid-extraction
// must not take the server down while other callers are queued for the model.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				slog.Error("panic recovered",
					"panic", v,
					"stack", string(debug.Stack()),
					"method", r.Method,
					"path", r.URL.Path,
				)
				response.Error(w, http.StatusInternalServerError,
					"INTERNAL_ERROR", "An unexpected error occurred", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

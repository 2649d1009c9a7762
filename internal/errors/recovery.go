package errors

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/copyleftdev/KILN/internal/logging"
)

// CapturePanic runs fn and converts a panic into an error carrying the
// panic value and stack trace. The worker pool uses it so that a panicking
// search task is surfaced to the coordinator's caller instead of crashing
// the process or vanishing.
func CapturePanic(fn func()) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			e := Errorf("panic: %v", rec)
			e.Stack = []string{string(debug.Stack())}
			err = e
		}
	}()
	fn()
	return nil
}

// RecoveryMiddleware returns an HTTP middleware that recovers from panics,
// logs them with request context, and responds with a 500.
func RecoveryMiddleware(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					fields := map[string]interface{}{
						"error": fmt.Sprintf("%v", rec),
						"stack": string(debug.Stack()),
					}
					if r != nil {
						fields["method"] = r.Method
						fields["path"] = r.URL.Path
					}
					logger.Error("Recovered from panic", fields)
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}


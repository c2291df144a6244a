package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"
	apperrors "tripshare/pkg/errors"
)

// timeoutWriter drops handler writes once the deadline response is sent.
type timeoutWriter struct {
	http.ResponseWriter
	mu         sync.Mutex
	timedOut   bool
	written    bool
	statusCode int
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.timedOut || tw.written {
		return
	}

	tw.statusCode = code
	tw.written = true
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}

	if !tw.written {
		tw.statusCode = http.StatusOK
		tw.written = true
	}

	return tw.ResponseWriter.Write(b)
}

// RouteTimeout gives one path a longer deadline than the default.
type RouteTimeout struct {
	Path    string
	Timeout time.Duration
}

// RequestTimeout bounds handler time. The handler keeps running after the
// deadline; services detach writes that must not be abandoned. Routes with
// an override also get their connection write deadline extended to match.
func RequestTimeout(timeout time.Duration, overrides ...RouteTimeout) func(http.Handler) http.Handler {
	perRoute := make(map[string]time.Duration, len(overrides))
	for _, o := range overrides {
		perRoute[o.Path] = o.Timeout
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit := timeout
			if override, ok := perRoute[r.URL.Path]; ok {
				limit = override
				// Fails only when the writer cannot reach the connection.
				_ = http.NewResponseController(w).SetWriteDeadline(time.Now().Add(override))
			}

			ctx, cancel := context.WithTimeout(r.Context(), limit)
			defer cancel()

			r = r.WithContext(ctx)

			tw := &timeoutWriter{ResponseWriter: w}

			done := make(chan struct{})
			go func() {
				next.ServeHTTP(tw, r)
				close(done)
			}()

			select {
			case <-done:
				return
			case <-ctx.Done():
				tw.mu.Lock()
				if !tw.written {
					reject(w, apperrors.New(apperrors.CodeTimeout, "Request timeout", http.StatusServiceUnavailable))
					tw.written = true
				}
				tw.timedOut = true
				tw.mu.Unlock()
			}
		})
	}
}

package middleware

import (
	"net/http"
	"time"

	"github.com/velora-labs/velora-backend/pkg/metrics"
)

// Metrics records request counters and latencies against the chi route pattern.
func Metrics(m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.IncInFlight()
			defer m.DecInFlight()

			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(rec, r)

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			// Label by route pattern so path params don't explode cardinality.
			m.Observe(r.Method, routePattern(r), rec.status, time.Since(start))
		})
	}
}

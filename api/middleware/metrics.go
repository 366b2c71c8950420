package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/samerhaddad/clubledger-backend/pkg/metrics"
)

// Operation times a compound ledger endpoint and counts its outcome under
// the given operation label.
func Operation(m *metrics.OperationMetrics, operation string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}

			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(rec, r)

			if rec.status == 0 {
				rec.status = http.StatusOK
			}

			var failure error
			if rec.status >= http.StatusBadRequest {
				failure = fmt.Errorf("status %d", rec.status)
			}
			m.Track(operation, start, failure)
		})
	}
}

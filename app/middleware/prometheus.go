package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"yatube/app/metrics"
)

// Prometheus records request counts and latency labelled by route template,
// so /leo/3/ and /fyodor/9/ share the /{username}/{post_id}/ series.
func Prometheus(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		done := metrics.TrackActiveRequest()
		defer done()

		start := time.Now()
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)

		metrics.RecordHTTPRequest(r.Method, routeLabel(r), rec.status, time.Since(start))
	})
}

func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

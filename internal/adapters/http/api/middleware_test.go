package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/dgaops/pkg/metrics"
)

func TestMetricsMiddleware(t *testing.T) {
	convey.Convey("Given a handler wrapped by the metrics middleware", t, func() {
		h := MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}, "mw_test")

		before := testutil.CollectAndCount(metrics.GetRegistry(), "dgaops_http_errors_total")
		h(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/x", http.NoBody))

		convey.Convey("Then the error is counted under its type", func() {
			after := testutil.CollectAndCount(metrics.GetRegistry(), "dgaops_http_errors_total")
			convey.So(after, convey.ShouldBeGreaterThanOrEqualTo, before)
			convey.So(after, convey.ShouldBeGreaterThan, 0)
		})
	})

	convey.Convey("Given status codes", t, func() {
		convey.So(getErrorType(500), convey.ShouldEqual, "server_error")
		convey.So(getErrorType(429), convey.ShouldEqual, "rate_limit")
		convey.So(getErrorType(404), convey.ShouldEqual, "not_found")
		convey.So(getErrorType(400), convey.ShouldEqual, "client_error")
		convey.So(getErrorType(200), convey.ShouldEqual, "unknown")
	})
}

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsMiddleware(t *testing.T) {
	Convey("Given a handler wrapped in the metrics middleware", t, func() {
		h := MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.WriteHeader(http.StatusOK)
		}, "test")

		Convey("Then the response passes through unchanged", func() {
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodGet, "/test", nil))
			So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
		})
	})

	Convey("Given failing statuses", t, func() {
		So(errorClass(http.StatusBadRequest), ShouldEqual, "bad_request")
		So(errorClass(http.StatusNotFound), ShouldEqual, "not_found")
		So(errorClass(http.StatusTooManyRequests), ShouldEqual, "throttled")
		So(errorClass(http.StatusServiceUnavailable), ShouldEqual, "unavailable")
		So(errorClass(http.StatusBadGateway), ShouldEqual, "server_error")
		So(errorClass(http.StatusMethodNotAllowed), ShouldEqual, "client_error")
	})
}

func TestStatusRecorder(t *testing.T) {
	Convey("Given a status recorder", t, func() {
		rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}

		Convey("When the body is written first", func() {
			_, err := rec.Write([]byte("ok"))
			So(err, ShouldBeNil)

			Convey("Then the implicit 200 is kept", func() {
				So(rec.status, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When a status is written", func() {
			rec.WriteHeader(http.StatusNotFound)
			So(rec.status, ShouldEqual, http.StatusNotFound)
		})
	})
}

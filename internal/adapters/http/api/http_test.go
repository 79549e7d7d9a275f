package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/srim/internal/adapters/http/api"
	service "github.com/okian/srim/internal/app"
	"github.com/okian/srim/internal/collisionlog"
	"github.com/okian/srim/internal/domain/histogram"
	"github.com/okian/srim/internal/domain/layers"
	"github.com/okian/srim/internal/domain/model"
	"github.com/okian/srim/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func collisionLog() string {
	var buf bytes.Buffer
	_, err := collisionlog.Generate(&buf, collisionlog.Spec{
		Layers: []collisionlog.LayerSpec{
			{Atom: "Si", Events: 12, DepthStart: 5, DepthEnd: 120, EnergyKeV: 1800, SpreadKeV: 40},
			{Atom: "Au", Events: 8, DepthStart: 130, DepthEnd: 260, EnergyKeV: 900, SpreadKeV: 30},
		},
		Seed:     3,
		AltEvery: 2,
		Headers:  true,
	})
	if err != nil {
		panic(err)
	}
	return buf.String()
}

func newTestServer(opts ...api.ServerOption) (*httptest.Server, *service.Service) {
	svc, err := service.New(service.WithHistogramBins(10))
	if err != nil {
		panic(err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, opts...).Register(mux)
	return httptest.NewServer(mux), svc
}

func decode[T any](resp *http.Response) T {
	var v T
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		panic(err)
	}
	return v
}

func TestProcessAndRuns(t *testing.T) {
	Convey("Given a running API server", t, func() {
		srv, _ := newTestServer()
		defer srv.Close()

		Convey("When no run has been processed", func() {
			resp, err := http.Get(srv.URL + "/runs/latest")
			So(err, ShouldBeNil)
			body := decode[map[string]string](resp)

			Convey("Then latest should be not found", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
				So(body["code"], ShouldEqual, "not_found")
			})
		})

		Convey("When posting a collision log", func() {
			resp, err := http.Post(srv.URL+"/process?name=sample.txt", "text/plain", strings.NewReader(collisionLog()))
			So(err, ShouldBeNil)
			run := decode[model.Run](resp)

			Convey("Then the run should be returned with its layers", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(run.Source, ShouldEqual, "sample.txt")
				So(run.Records, ShouldEqual, 20)
				So(len(run.Layers), ShouldEqual, 2)
				So(run.Layers[0].Atom, ShouldEqual, "Si")
				So(run.Layers[1].Atom, ShouldEqual, "Au")
			})

			Convey("And it should be readable by id and as latest", func() {
				resp, err := http.Get(srv.URL + "/runs/" + run.ID)
				So(err, ShouldBeNil)
				byID := decode[model.Run](resp)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(byID.ID, ShouldEqual, run.ID)

				resp, err = http.Get(srv.URL + "/runs/latest")
				So(err, ShouldBeNil)
				latest := decode[model.Run](resp)
				So(latest.ID, ShouldEqual, run.ID)
			})

			Convey("And a layer histogram should be served", func() {
				resp, err := http.Get(srv.URL + "/runs/" + run.ID + "/layers/1/histogram")
				So(err, ShouldBeNil)
				h := decode[histogram.Histogram](resp)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(len(h.Counts), ShouldEqual, 10)
				So(h.Total, ShouldEqual, 8)

				resp, err = http.Get(srv.URL + "/runs/" + run.ID + "/layers/0/histogram?bins=4")
				So(err, ShouldBeNil)
				h = decode[histogram.Histogram](resp)
				So(len(h.Edges), ShouldEqual, 5)
			})

			Convey("And bad histogram requests should be rejected", func() {
				for path, status := range map[string]int{
					"/layers/x/histogram":         http.StatusBadRequest,
					"/layers/0/histogram?bins=0":  http.StatusBadRequest,
					"/layers/0/histogram?bins=ab": http.StatusBadRequest,
					"/layers/9/histogram":         http.StatusNotFound,
					"/layers/0/other":             http.StatusNotFound,
				} {
					resp, err := http.Get(srv.URL + "/runs/" + run.ID + path)
					So(err, ShouldBeNil)
					_ = resp.Body.Close()
					So(resp.StatusCode, ShouldEqual, status)
				}
			})
		})

		Convey("When posting a malformed collision log", func() {
			bad := collisionLog() + "\r\nbroken 1500.E+00 line\r\n"
			resp, err := http.Post(srv.URL+"/process", "text/plain", strings.NewReader(bad))
			So(err, ShouldBeNil)
			body := decode[map[string]string](resp)

			Convey("Then it should be unprocessable", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusUnprocessableEntity)
				So(body["code"], ShouldEqual, "malformed_record")
				So(body["message"], ShouldContainSubstring, "line")
			})
		})

		Convey("When using the wrong method", func() {
			resp, err := http.Get(srv.URL + "/process")
			So(err, ShouldBeNil)
			_ = resp.Body.Close()

			Convey("Then it should be not found", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When requesting an unknown run", func() {
			resp, err := http.Get(srv.URL + "/runs/does-not-exist")
			So(err, ShouldBeNil)
			_ = resp.Body.Close()

			Convey("Then it should be not found", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})
	})

	Convey("Given a server with a tiny upload limit", t, func() {
		srv, _ := newTestServer(api.WithMaxUploadBytes(64))
		defer srv.Close()

		Convey("When posting a larger log", func() {
			resp, err := http.Post(srv.URL+"/process", "text/plain", strings.NewReader(collisionLog()))
			So(err, ShouldBeNil)
			_ = resp.Body.Close()

			Convey("Then it should be rejected as too large", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusRequestEntityTooLarge)
			})
		})
	})
}

func TestHealthStatsAndMetrics(t *testing.T) {
	Convey("Given a running API server", t, func() {
		srv, _ := newTestServer()
		defer srv.Close()

		Convey("Then /healthz should report ok", func() {
			resp, err := http.Get(srv.URL + "/healthz")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(decode[map[string]string](resp)["status"], ShouldEqual, "ok")
		})

		Convey("Then /stats should expose service statistics", func() {
			resp, err := http.Get(srv.URL + "/stats")
			So(err, ShouldBeNil)
			stats := decode[map[string]any](resp)
			So(stats["histogramBins"], ShouldEqual, 10.0)
			So(stats, ShouldContainKey, "runsStored")
		})

		Convey("Then /metrics should serve the service registry", func() {
			_, _ = http.Get(srv.URL + "/healthz")
			resp, err := http.Get(srv.URL + "/metrics")
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()
			raw, err := io.ReadAll(resp.Body)
			So(err, ShouldBeNil)
			So(string(raw), ShouldContainSubstring, "srim_layers_http_requests_total")
		})
	})
}

// failingDeps returns a fixed error from every operation.
type failingDeps struct {
	err error
}

func (f failingDeps) ProcessReader(context.Context, string, io.Reader) (model.Run, error) {
	return model.Run{}, f.err
}
func (f failingDeps) Run(context.Context, string) (model.Run, error) { return model.Run{}, f.err }
func (f failingDeps) Latest(context.Context) (model.Run, error)      { return model.Run{}, f.err }
func (f failingDeps) Histogram(context.Context, string, int, int) (histogram.Histogram, error) {
	return histogram.Histogram{}, f.err
}
func (f failingDeps) GetStats() map[string]interface{} { return map[string]interface{}{} }

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("wrap: %w", layers.ErrInternalInvariant), http.StatusInternalServerError, "internal_invariant"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
		{service.ErrRunNotFound, http.StatusNotFound, "not_found"},
	}

	Convey("Given handlers backed by failing dependencies", t, func() {
		for _, tc := range cases {
			mux := http.NewServeMux()
			api.NewServer(failingDeps{err: tc.err}).Register(mux)

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/process", strings.NewReader("x")))

			Convey("Then "+tc.code+" should map to its status", func() {
				So(rec.Code, ShouldEqual, tc.status)
				var body map[string]string
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(body["code"], ShouldEqual, tc.code)
				So(body["message"], ShouldStartWith, "api.process")
			})
		}
	})
}

func TestOpError(t *testing.T) {
	Convey("Given wrapped API errors", t, func() {
		cause := errors.New("cause")

		Convey("Then kinds and causes should both be matchable", func() {
			err := api.WrapKind("op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "op: bad request: cause")
		})

		Convey("Then Wrap should keep nil as nil", func() {
			So(api.Wrap("op", nil), ShouldBeNil)
			So(api.NewKind("op", api.ErrPayloadTooLarge).Error(), ShouldEqual, "op: payload too large")
		})
	})
}

package httpadapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/couchcryptid/walkable-stations/internal/adapter/httpadapter"
	"github.com/couchcryptid/walkable-stations/internal/domain"
	"github.com/couchcryptid/walkable-stations/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockFinder struct {
	lookup  domain.Lookup
	err     error
	address string
	bounds  [2]int
}

func (m *mockFinder) Lookup(_ context.Context, address string, maxWalkMin, maxCandidates int) (domain.Lookup, error) {
	m.address = address
	m.bounds = [2]int{maxWalkMin, maxCandidates}
	return m.lookup, m.err
}

func newTestServer(readyErr error, finder *mockFinder, metrics *observability.Metrics) *httpadapter.Server {
	stations := httpadapter.NewStationsHandler(finder, domain.DefaultBounds(), metrics, slog.Default())
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, stations, slog.Default())
}

func get(srv http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(newTestServer(nil, &mockFinder{}, observability.NewMetricsForTesting()), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz(t *testing.T) {
	rec := get(newTestServer(nil, &mockFinder{}, observability.NewMetricsForTesting()), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(newTestServer(fmt.Errorf("not ready yet"), &mockFinder{}, observability.NewMetricsForTesting()), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(newTestServer(nil, &mockFinder{}, observability.NewMetricsForTesting()), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestStations_Success(t *testing.T) {
	finder := &mockFinder{lookup: domain.Lookup{
		Origin: domain.Coordinate{X: 140.882438, Y: 38.26092},
		Stations: []domain.StationResult{
			{StationName: "広瀬通", Prefecture: "宮城県", Lines: []string{"仙台市地下鉄南北線"}, WalkMinutes: 3, DistanceM: 210},
		},
	}}
	metrics := observability.NewMetricsForTesting()
	srv := newTestServer(nil, finder, metrics)

	rec := get(srv, "/stations?address="+url.QueryEscape("仙台市青葉区中央２－１０")+"&max_walk_min=15")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "仙台市青葉区中央2-10", finder.address)
	assert.Equal(t, [2]int{15, 3}, finder.bounds)

	var body struct {
		Address       string                 `json:"address"`
		MaxWalkMin    int                    `json:"max_walk_min"`
		MaxCandidates int                    `json:"max_candidates"`
		Origin        domain.Coordinate      `json:"origin"`
		Stations      []domain.StationResult `json:"stations"`
		Formatted     []string               `json:"formatted"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 15, body.MaxWalkMin)
	assert.Equal(t, 3, body.MaxCandidates)
	assert.Equal(t, finder.lookup.Origin, body.Origin)
	assert.Equal(t, finder.lookup.Stations, body.Stations)
	assert.Equal(t, []string{"広瀬通駅(仙台市地下鉄南北線) 徒歩3分"}, body.Formatted)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Lookups.WithLabelValues("http", "ok")))
}

func TestStations_EmptyResultIsArray(t *testing.T) {
	srv := newTestServer(nil, &mockFinder{}, observability.NewMetricsForTesting())

	rec := get(srv, "/stations?address=x")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"stations":[]`)
}

func TestStations_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"invalid input", fmt.Errorf("%w: address is empty", domain.ErrInvalidInput), http.StatusBadRequest, "invalid_input"},
		{"geocode failure", domain.ErrGeocodeFailure, http.StatusNotFound, "geocode_failure"},
		{"api failure", &domain.APIError{URL: "https://geoapi.heartrails.com/api/json", Attempts: 3, Err: errors.New("timeout")}, http.StatusBadGateway, "api_failure"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			metrics := observability.NewMetricsForTesting()
			srv := newTestServer(nil, &mockFinder{err: tc.err}, metrics)

			rec := get(srv, "/stations?address=x")

			assert.Equal(t, tc.wantStatus, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.wantKind, body["kind"])
			assert.Equal(t, tc.err.Error(), body["error"])
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Lookups.WithLabelValues("http", tc.wantKind)))
		})
	}
}

func TestStations_BadBounds(t *testing.T) {
	for _, target := range []string{
		"/stations?address=x&max_walk_min=abc",
		"/stations?address=x&max_candidates=0",
		"/stations?address=x&max_walk_min=-3",
		"/stations?address=x&max_walk_min=1441",
		"/stations?address=x&max_walk_min=115292150460684698",
		"/stations?address=x&max_walk_min=99999999999999999999",
		"/stations?address=x&max_candidates=1001",
	} {
		finder := &mockFinder{}
		rec := get(newTestServer(nil, finder, observability.NewMetricsForTesting()), target)

		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Empty(t, finder.address, "finder must not be called for %s", target)
	}
}

func TestStations_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(nil, &mockFinder{}, observability.NewMetricsForTesting())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/stations", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

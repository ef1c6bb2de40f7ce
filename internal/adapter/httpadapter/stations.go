package httpadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/couchcryptid/walkable-stations/internal/domain"
	"github.com/couchcryptid/walkable-stations/internal/observability"
)

// Finder resolves an address into nearby stations.
type Finder interface {
	Lookup(ctx context.Context, address string, maxWalkMin, maxCandidates int) (domain.Lookup, error)
}

// StationsHandler serves GET /stations?address=&max_walk_min=&max_candidates=.
type StationsHandler struct {
	finder   Finder
	defaults domain.Bounds
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewStationsHandler creates the lookup handler. Omitted bounds use defaults.
func NewStationsHandler(finder Finder, defaults domain.Bounds, metrics *observability.Metrics, logger *slog.Logger) *StationsHandler {
	return &StationsHandler{
		finder:   finder,
		defaults: defaults,
		metrics:  metrics,
		logger:   logger,
	}
}

type stationsResponse struct {
	Address       string                 `json:"address"`
	MaxWalkMin    int                    `json:"max_walk_min"`
	MaxCandidates int                    `json:"max_candidates"`
	Origin        domain.Coordinate      `json:"origin"`
	Stations      []domain.StationResult `json:"stations"`
	Formatted     []string               `json:"formatted"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (h *StationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	address := domain.NormalizeAddressInput(q.Get("address"))

	bounds, err := parseBounds(q)
	if err != nil {
		h.fail(w, err)
		return
	}
	bounds = bounds.Or(h.defaults)

	res, err := h.finder.Lookup(r.Context(), address, bounds.MaxWalkMin, bounds.MaxCandidates)
	if err != nil {
		h.fail(w, err)
		return
	}

	formatted := make([]string, len(res.Stations))
	for i, st := range res.Stations {
		formatted[i] = st.Format()
	}
	stations := res.Stations
	if stations == nil {
		stations = []domain.StationResult{}
	}

	h.metrics.Lookups.WithLabelValues("http", domain.StatusOK).Inc()
	h.metrics.StationsReturned.Observe(float64(len(stations)))
	writeJSON(w, http.StatusOK, stationsResponse{
		Address:       address,
		MaxWalkMin:    bounds.MaxWalkMin,
		MaxCandidates: bounds.MaxCandidates,
		Origin:        res.Origin,
		Stations:      stations,
		Formatted:     formatted,
	})
}

func (h *StationsHandler) fail(w http.ResponseWriter, err error) {
	kind := domain.ErrorKind(err)
	status := statusFor(err)
	h.metrics.Lookups.WithLabelValues("http", kind).Inc()
	if status >= http.StatusInternalServerError {
		h.logger.Warn("station lookup failed", "error", err, "error_kind", kind)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrGeocodeFailure):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAPIFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func parseBounds(q url.Values) (domain.Bounds, error) {
	var b domain.Bounds
	var err error
	if b.MaxWalkMin, err = intParam(q, "max_walk_min", domain.MaxWalkMinLimit); err != nil {
		return domain.Bounds{}, err
	}
	if b.MaxCandidates, err = intParam(q, "max_candidates", domain.MaxCandidatesLimit); err != nil {
		return domain.Bounds{}, err
	}
	return b, nil
}

func intParam(q url.Values, name string, maximum int) (int, error) {
	s := q.Get(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", domain.ErrInvalidInput, name, s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: %s must be at least 1, got %d", domain.ErrInvalidInput, name, n)
	}
	if n > maximum {
		return 0, fmt.Errorf("%w: %s must be at most %d, got %d", domain.ErrInvalidInput, name, maximum, n)
	}
	return n, nil
}

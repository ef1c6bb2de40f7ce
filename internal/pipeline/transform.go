package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/walkable-stations/internal/domain"
	"github.com/couchcryptid/walkable-stations/internal/observability"
)

// Finder resolves an address into nearby stations.
type Finder interface {
	Lookup(ctx context.Context, address string, maxWalkMin, maxCandidates int) (domain.Lookup, error)
}

// LookupTransformer implements Transformer by running each request through a
// Finder.
type LookupTransformer struct {
	finder   Finder
	defaults domain.Bounds
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewTransformer creates a LookupTransformer. Requests without bounds use
// defaults.
func NewTransformer(finder Finder, defaults domain.Bounds, logger *slog.Logger, metrics *observability.Metrics) *LookupTransformer {
	return &LookupTransformer{
		finder:   finder,
		defaults: defaults,
		logger:   logger,
		metrics:  metrics,
	}
}

// Transform parses the request and resolves it. Only undecodable payloads
// return an error; lookup failures are reported inside the response.
func (t *LookupTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.LookupResponse, error) {
	req, err := domain.ParseLookupRequest(raw)
	if err != nil {
		return domain.LookupResponse{}, err
	}

	req.Address = domain.NormalizeAddressInput(req.Address)
	bounds := domain.Bounds{MaxWalkMin: req.MaxWalkMin, MaxCandidates: req.MaxCandidates}.Or(t.defaults)
	req.MaxWalkMin, req.MaxCandidates = bounds.MaxWalkMin, bounds.MaxCandidates

	res, err := t.finder.Lookup(ctx, req.Address, bounds.MaxWalkMin, bounds.MaxCandidates)
	resp := domain.NewLookupResponse(req, res, err)

	outcome := domain.StatusOK
	if err != nil {
		outcome = resp.ErrorKind
		t.logger.Warn("lookup failed",
			"request_id", req.ID,
			"error_kind", resp.ErrorKind,
			"error", err,
		)
	} else {
		t.metrics.StationsReturned.Observe(float64(len(resp.Stations)))
	}
	t.metrics.Lookups.WithLabelValues("kafka", outcome).Inc()

	return resp, nil
}

package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// StationFinder answers "which stations are within N minutes' walk of this
// address". Every call is independent; the finder holds no per-call state.
type StationFinder struct {
	geocoder   *Geocoder
	stations   StationSource
	normalizer *LineNormalizer
	logger     *slog.Logger
}

// NewStationFinder wires the geocoder, the station source and the line
// normalizer used for display labels.
func NewStationFinder(geocoder *Geocoder, stations StationSource, normalizer *LineNormalizer, logger *slog.Logger) *StationFinder {
	return &StationFinder{
		geocoder:   geocoder,
		stations:   stations,
		normalizer: normalizer,
		logger:     logger,
	}
}

// Bounds applied when a caller leaves them out.
const (
	DefaultMaxWalkMin    = 30
	DefaultMaxCandidates = 3
)

// Largest accepted bounds.
const (
	MaxWalkMinLimit    = 24 * 60
	MaxCandidatesLimit = 1000
)

// Bounds limits a search by walking time and result count.
type Bounds struct {
	MaxWalkMin    int
	MaxCandidates int
}

// DefaultBounds returns the package defaults.
func DefaultBounds() Bounds {
	return Bounds{MaxWalkMin: DefaultMaxWalkMin, MaxCandidates: DefaultMaxCandidates}
}

// Or fills zero fields of b from def. Negative values are kept so validation
// can reject them.
func (b Bounds) Or(def Bounds) Bounds {
	if b.MaxWalkMin == 0 {
		b.MaxWalkMin = def.MaxWalkMin
	}
	if b.MaxCandidates == 0 {
		b.MaxCandidates = def.MaxCandidates
	}
	return b
}

// Lookup is the result of a station search together with the resolved origin.
type Lookup struct {
	Origin   Coordinate
	Stations []StationResult
}

// Find returns up to maxCandidates stations within maxWalkMin minutes of
// address, nearest first.
func (f *StationFinder) Find(ctx context.Context, address string, maxWalkMin, maxCandidates int) ([]StationResult, error) {
	res, err := f.Lookup(ctx, address, maxWalkMin, maxCandidates)
	if err != nil {
		return nil, err
	}
	return res.Stations, nil
}

// Lookup is Find plus the coordinate the address resolved to.
func (f *StationFinder) Lookup(ctx context.Context, address string, maxWalkMin, maxCandidates int) (Lookup, error) {
	if err := validateBounds(address, maxWalkMin, maxCandidates); err != nil {
		return Lookup{}, err
	}

	origin, err := f.geocoder.Resolve(ctx, address)
	if err != nil {
		return Lookup{}, err
	}

	records, err := f.stations.NearbyStations(ctx, origin)
	if err != nil {
		return Lookup{}, fmt.Errorf("nearby stations: %w", err)
	}

	stations := Aggregate(records, f.normalizer, maxWalkMin, maxCandidates)
	f.logger.Debug("stations resolved",
		"origin_x", origin.X,
		"origin_y", origin.Y,
		"raw_records", len(records),
		"stations", len(stations),
	)
	return Lookup{Origin: origin, Stations: stations}, nil
}

func validateBounds(address string, maxWalkMin, maxCandidates int) error {
	if strings.TrimSpace(address) == "" {
		return fmt.Errorf("%w: address is empty", ErrInvalidInput)
	}
	if maxWalkMin <= 0 {
		return fmt.Errorf("%w: max walk minutes must be at least 1, got %d", ErrInvalidInput, maxWalkMin)
	}
	if maxWalkMin > MaxWalkMinLimit {
		return fmt.Errorf("%w: max walk minutes must be at most %d, got %d", ErrInvalidInput, MaxWalkMinLimit, maxWalkMin)
	}
	if maxCandidates <= 0 {
		return fmt.Errorf("%w: max candidates must be at least 1, got %d", ErrInvalidInput, maxCandidates)
	}
	if maxCandidates > MaxCandidatesLimit {
		return fmt.Errorf("%w: max candidates must be at most %d, got %d", ErrInvalidInput, MaxCandidatesLimit, maxCandidates)
	}
	return nil
}

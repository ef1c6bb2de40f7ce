package domain

import "context"

// MatchMode selects how the suggest endpoint compares keywords.
type MatchMode string

const (
	MatchExact MatchMode = "exact"
	MatchLike  MatchMode = "like"
)

// LocationSource looks up address candidates from a geocoding provider.
type LocationSource interface {
	// SearchByPostal returns the candidates registered for a 7-digit postal code.
	SearchByPostal(ctx context.Context, postal7 string) ([]LocationCandidate, error)

	// Suggest returns candidates whose address matches keyword.
	Suggest(ctx context.Context, keyword string, matching MatchMode) ([]LocationCandidate, error)
}

// StationSource lists stations near a coordinate.
type StationSource interface {
	NearbyStations(ctx context.Context, at Coordinate) ([]RawStationRecord, error)
}

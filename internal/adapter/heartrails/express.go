package heartrails

import (
	"context"
	"net/url"
	"strconv"

	"github.com/couchcryptid/walkable-stations/internal/domain"
)

// ExpressAPI implements domain.StationSource using the HeartRails Express API.
type ExpressAPI struct {
	client   *Client
	endpoint string
}

// NewExpressAPI creates an Express API adapter. An empty endpoint selects
// DefaultExpressURL.
func NewExpressAPI(client *Client, endpoint string) *ExpressAPI {
	if endpoint == "" {
		endpoint = DefaultExpressURL
	}
	return &ExpressAPI{client: client, endpoint: endpoint}
}

// NearbyStations returns one record per (station, line) near at. The
// distance is passed through untouched for domain.ParseMeters.
func (e *ExpressAPI) NearbyStations(ctx context.Context, at domain.Coordinate) ([]domain.RawStationRecord, error) {
	body, err := e.client.GetJSON(ctx, e.endpoint, url.Values{
		"method": {"getStations"},
		"x":      {strconv.FormatFloat(at.X, 'f', -1, 64)},
		"y":      {strconv.FormatFloat(at.Y, 'f', -1, 64)},
	})
	if err != nil {
		return nil, err
	}

	items := asList(responseField(body, "station"))
	out := make([]domain.RawStationRecord, 0, len(items))
	for _, it := range items {
		out = append(out, domain.RawStationRecord{
			Name:       stringField(it, "name"),
			Prefecture: stringField(it, "prefecture"),
			Line:       stringField(it, "line"),
			Distance:   it["distance"],
		})
	}
	return out, nil
}

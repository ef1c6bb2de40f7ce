package heartrails

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/couchcryptid/walkable-stations/internal/domain"
)

// GeoAPI implements domain.LocationSource using the HeartRails Geo API.
type GeoAPI struct {
	client   *Client
	endpoint string
}

// NewGeoAPI creates a Geo API adapter. An empty endpoint selects DefaultGeoURL.
func NewGeoAPI(client *Client, endpoint string) *GeoAPI {
	if endpoint == "" {
		endpoint = DefaultGeoURL
	}
	return &GeoAPI{client: client, endpoint: endpoint}
}

// SearchByPostal looks up the towns registered for a 7-digit postal code.
func (g *GeoAPI) SearchByPostal(ctx context.Context, postal7 string) ([]domain.LocationCandidate, error) {
	body, err := g.client.GetJSON(ctx, g.endpoint, url.Values{
		"method": {"searchByPostal"},
		"postal": {postal7},
	})
	if err != nil {
		return nil, err
	}
	return locations(body), nil
}

// Suggest looks up towns whose address matches keyword.
func (g *GeoAPI) Suggest(ctx context.Context, keyword string, matching domain.MatchMode) ([]domain.LocationCandidate, error) {
	body, err := g.client.GetJSON(ctx, g.endpoint, url.Values{
		"method":   {"suggest"},
		"matching": {string(matching)},
		"keyword":  {keyword},
	})
	if err != nil {
		return nil, err
	}
	return locations(body), nil
}

func locations(body map[string]any) []domain.LocationCandidate {
	items := asList(responseField(body, "location"))
	out := make([]domain.LocationCandidate, 0, len(items))
	for _, it := range items {
		out = append(out, domain.LocationCandidate{
			Prefecture: stringField(it, "prefecture"),
			City:       stringField(it, "city"),
			Town:       stringField(it, "town"),
			Postal:     stringField(it, "postal"),
			X:          stringField(it, "x"),
			Y:          stringField(it, "y"),
		})
	}
	return out
}

// Payload helpers. HeartRails nests results under "response" and returns a
// lone record as an object rather than a one-element array. "No results" is
// reported as response.error and simply yields an empty list here.

func responseField(body map[string]any, key string) any {
	resp, ok := body["response"].(map[string]any)
	if !ok {
		return nil
	}
	return resp[key]
}

func asList(v any) []map[string]any {
	switch t := v.(type) {
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, it := range t {
			if m, ok := it.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	case map[string]any:
		return []map[string]any{t}
	default:
		return nil
	}
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

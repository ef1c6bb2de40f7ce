// Package domain resolves Japanese addresses into nearby rail stations.
//
// # Data Sources
//
// Both upstream services are the free HeartRails APIs (no key required):
//
//	Geo API      https://geoapi.heartrails.com/api/json
//	Express API  https://express.heartrails.com/api/json
//
// Responses wrap their payload in a "response" object. A list field holding a
// single record may be returned as an object instead of a one-element array,
// and "no results" arrives as response.error rather than an HTTP error.
//
// # Geocoding
//
// Postal codes are written "〒980-0021", "980－0021" or "9800021"; full-width
// digits and a zoo of dash glyphs are folded by [NormalizeText] first. A postal
// lookup is the precise path. Without one, keyword suggestions are tried on
// progressively more specific forms of the address:
//
//	"仙台市青葉区中央二丁目10-20"
//	  -> "仙台市青葉区中央二丁目"   (block/lot digits removed)
//	  -> "仙台市青葉区中央"         (chome suffix removed)
//	  -> "仙台市青葉区中央二丁目10-20"
//
// Candidates are ranked by [PickBestLocation]; see its doc for the score.
// Coordinates come back as strings: x is longitude, y is latitude.
//
// # Station Data
//
// getStations returns one record per (station, line). Distances look like
// "320m", "2.6km", 320 or "320". Line names mix operator legal names
// ("東京地下鉄銀座線"), full-width letters ("ＪＲ") and city-prefixed subway
// names ("仙台市南北線"); [LineNormalizer] folds them into display labels.
//
// # Walking Time
//
// Walking minutes are ceil(straight-line meters / 80). This is the common
// real-estate convention (80 m per minute), not a routed estimate.
package domain

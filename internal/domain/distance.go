package domain

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// distanceRe matches "<number>" with an optional m/km unit, e.g. "320m", "2.6 km".
var distanceRe = regexp.MustCompile(`(?i)^([0-9]+(?:\.[0-9]+)?)\s*(km|m)?$`)

// unitFold rewrites full-width unit glyphs seen in station payloads.
var unitFold = strings.NewReplacer(
	"㎞", "km",
	"ｋｍ", "km",
	"ＫＭ", "km",
	"ｍ", "m",
	"Ｍ", "m",
	"ｋ", "k",
	"Ｋ", "k",
)

// ParseMeters converts a station distance value into meters. It never fails:
// anything it cannot read (nil, non-numeric text, unknown units, NaN) becomes
// +Inf so callers can filter invalid entries with a single finiteness check.
func ParseMeters(v any) float64 {
	switch d := v.(type) {
	case nil:
		return math.Inf(1)
	case float64:
		return finiteOrInf(d)
	case float32:
		return finiteOrInf(float64(d))
	case int:
		return float64(d)
	case int32:
		return float64(d)
	case int64:
		return float64(d)
	case uint:
		return float64(d)
	case uint32:
		return float64(d)
	case uint64:
		return float64(d)
	case json.Number:
		if f, err := d.Float64(); err == nil {
			return finiteOrInf(f)
		}
		return parseDistanceString(d.String())
	case string:
		return parseDistanceString(d)
	default:
		return math.Inf(1)
	}
}

func parseDistanceString(s string) float64 {
	s = NormalizeText(s)
	s = strings.ReplaceAll(s, ",", "")
	s = unitFold.Replace(s)

	m := distanceRe.FindStringSubmatch(s)
	if m == nil {
		return math.Inf(1)
	}
	val, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return math.Inf(1)
	}
	if strings.EqualFold(m[2], "km") {
		return val * 1000
	}
	return val
}

func finiteOrInf(f float64) float64 {
	if math.IsNaN(f) {
		return math.Inf(1)
	}
	return f
}

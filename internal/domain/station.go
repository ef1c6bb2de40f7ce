package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// WalkMetersPerMinute converts straight-line distance into walking time.
// It is a rough approximation, not a routed estimate.
const WalkMetersPerMinute = 80

// RawStationRecord is one entry of the nearby-stations response. The API
// repeats a station once per line, and Distance has no fixed type or unit.
type RawStationRecord struct {
	Name       string
	Prefecture string
	Line       string
	Distance   any
}

// StationResult is a station within walking range, with every line serving it.
type StationResult struct {
	StationName string   `json:"station_name"`
	Prefecture  string   `json:"prefecture,omitempty"`
	Lines       []string `json:"lines"`
	WalkMinutes int      `json:"walk_minutes"`
	DistanceM   int      `json:"distance_m"`
}

// Label returns the station name with the 駅 suffix.
func (r StationResult) Label() string {
	if strings.HasSuffix(r.StationName, "駅") {
		return r.StationName
	}
	return r.StationName + "駅"
}

// Format renders a one-line summary, e.g. "仙台駅(JR仙山線/JR東北本線) 徒歩3分".
func (r StationResult) Format() string {
	return fmt.Sprintf("%s(%s) 徒歩%d分", r.Label(), joinLines(r.Lines, "/"), r.WalkMinutes)
}

// CopyBlock renders the two-line form used for pasting into documents.
func (r StationResult) CopyBlock() string {
	return fmt.Sprintf("%s 徒歩%d分\n（%s）", r.Label(), r.WalkMinutes, joinLines(r.Lines, "・"))
}

func joinLines(lines []string, sep string) string {
	cleaned := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			cleaned = append(cleaned, l)
		}
	}
	if len(cleaned) == 0 {
		return "不明"
	}
	return strings.Join(cleaned, sep)
}

// WalkMinutes is ceil(distanceM / WalkMetersPerMinute) for a non-negative distance.
func WalkMinutes(distanceM int) int {
	return (distanceM + WalkMetersPerMinute - 1) / WalkMetersPerMinute
}

type stationKey struct {
	name       string
	prefecture string
}

type stationGroup struct {
	lines   map[string]struct{}
	minDist float64
}

// Aggregate turns raw per-line records into ranked stations. Records without
// a name, with a line that normalizes to nothing, or with an unreadable
// distance are dropped. Records sharing (name, prefecture) merge their lines
// and keep the shortest distance. Stations further than maxWalkMin minutes are
// excluded; the rest are ordered by walk minutes, distance and name, and at
// most maxCandidates are returned.
func Aggregate(records []RawStationRecord, normalizer *LineNormalizer, maxWalkMin, maxCandidates int) []StationResult {
	groups := make(map[stationKey]*stationGroup)
	order := make([]stationKey, 0, len(records))

	for _, rec := range records {
		line := normalizer.Normalize(rec.Line)
		dist := ParseMeters(rec.Distance)
		if rec.Name == "" || line == "" || math.IsInf(dist, 0) || math.IsNaN(dist) || dist < 0 {
			continue
		}

		key := stationKey{name: rec.Name, prefecture: rec.Prefecture}
		g, ok := groups[key]
		if !ok {
			g = &stationGroup{lines: make(map[string]struct{}), minDist: dist}
			groups[key] = g
			order = append(order, key)
		}
		g.lines[line] = struct{}{}
		if dist < g.minDist {
			g.minDist = dist
		}
	}

	limit := min(maxWalkMin, MaxWalkMinLimit) * WalkMetersPerMinute
	results := make([]StationResult, 0, len(groups))
	for _, key := range order {
		g := groups[key]
		rounded := math.RoundToEven(g.minDist)
		if rounded > float64(limit) {
			continue
		}
		d := int(rounded)
		lines := make([]string, 0, len(g.lines))
		for l := range g.lines {
			lines = append(lines, l)
		}
		sort.Strings(lines)
		results = append(results, StationResult{
			StationName: key.name,
			Prefecture:  key.prefecture,
			Lines:       lines,
			WalkMinutes: WalkMinutes(d),
			DistanceM:   d,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.WalkMinutes != b.WalkMinutes {
			return a.WalkMinutes < b.WalkMinutes
		}
		if a.DistanceM != b.DistanceM {
			return a.DistanceM < b.DistanceM
		}
		return a.StationName < b.StationName
	})

	if maxCandidates >= 0 && len(results) > maxCandidates {
		results = results[:maxCandidates]
	}
	return results
}

package domain

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Coordinate is a WGS-84 point. X is longitude and Y is latitude, matching
// the order used by the station API.
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LocationCandidate is one address record returned by the geocoding API.
// X and Y keep the upstream text; see Coordinate.
type LocationCandidate struct {
	Prefecture string `json:"prefecture"`
	City       string `json:"city"`
	Town       string `json:"town"`
	Postal     string `json:"postal"`
	X          string `json:"x"`
	Y          string `json:"y"`
}

// Coordinate parses X/Y. ok is false when either is missing, non-numeric or
// not finite.
func (c LocationCandidate) Coordinate() (Coordinate, bool) {
	x, okX := parseDegrees(c.X)
	y, okY := parseDegrees(c.Y)
	if !okX || !okY {
		return Coordinate{}, false
	}
	return Coordinate{X: x, Y: y}, true
}

func parseDegrees(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

type candidateScore struct {
	matches     int
	specificity int
}

func (s candidateScore) atLeast(o candidateScore) bool {
	if s.matches != o.matches {
		return s.matches > o.matches
	}
	return s.specificity >= o.specificity
}

// scoreCandidate counts how many of prefecture/city/town occur in the address
// (+1 when the candidate carries a postal code) and, as a tie-break, how long
// those three fields are in characters.
func scoreCandidate(c LocationCandidate, normalizedAddress string) candidateScore {
	var s candidateScore
	for _, field := range []string{c.Prefecture, c.City, c.Town} {
		if field != "" && strings.Contains(normalizedAddress, NormalizeText(field)) {
			s.matches++
		}
		s.specificity += utf8.RuneCountInString(field)
	}
	if c.Postal != "" {
		s.matches++
	}
	return s
}

// PickBestLocation returns the candidate that best matches address. Equal
// scores resolve to the later candidate in upstream order. ok is false only
// when candidates is empty.
func PickBestLocation(candidates []LocationCandidate, address string) (LocationCandidate, bool) {
	if len(candidates) == 0 {
		return LocationCandidate{}, false
	}
	addr := NormalizeText(address)

	best := candidates[0]
	bestScore := scoreCandidate(best, addr)
	for _, c := range candidates[1:] {
		if s := scoreCandidate(c, addr); s.atLeast(bestScore) {
			best, bestScore = c, s
		}
	}
	return best, true
}

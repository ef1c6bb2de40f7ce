package domain

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// postalStripRe removes an embedded postal code from the keyword text.
	postalStripRe = regexp.MustCompile(`〒?\s*\d{3}\s*-?\s*\d{4}`)

	// digitSuffixRe drops everything from the first digit/hyphen run onward,
	// e.g. "青葉区中央2-10-20" -> "青葉区中央".
	digitSuffixRe = regexp.MustCompile(`[0-9\-]+.*$`)

	// chomeSuffixRe drops a trailing "N丁目..." block number written in kanji
	// numerals or digits.
	chomeSuffixRe = regexp.MustCompile(`[一二三四五六七八九十〇零0-9]+丁目.*$`)
)

// minKeywordRunes is the shortest keyword worth sending to the suggest endpoint.
const minKeywordRunes = 2

// Geocoder resolves free-form addresses into coordinates using a postal code
// lookup when possible and keyword suggestions otherwise.
type Geocoder struct {
	source LocationSource
	logger *slog.Logger
}

// NewGeocoder creates a Geocoder backed by source.
func NewGeocoder(source LocationSource, logger *slog.Logger) *Geocoder {
	return &Geocoder{source: source, logger: logger}
}

// Resolve returns the coordinate of address. Strategies run in order and the
// first usable coordinate wins:
//
//  1. postal code lookup, when a 7-digit code is present;
//  2. keyword suggestions (exact, then like) for each keyword variant.
//
// Lookup errors are returned immediately. When nothing yields a coordinate
// the error wraps ErrGeocodeFailure.
func (g *Geocoder) Resolve(ctx context.Context, address string) (Coordinate, error) {
	if strings.TrimSpace(address) == "" {
		return Coordinate{}, fmt.Errorf("%w: address is empty", ErrInvalidInput)
	}

	if postal, ok := ExtractPostalCode7(address); ok {
		candidates, err := g.source.SearchByPostal(ctx, postal)
		if err != nil {
			return Coordinate{}, fmt.Errorf("postal lookup %s: %w", postal, err)
		}
		if coord, ok := g.pick(candidates, address); ok {
			return coord, nil
		}
		g.logger.Debug("postal lookup gave no usable coordinate, trying keywords",
			"postal", postal,
			"candidates", len(candidates),
		)
	}

	for _, kw := range keywordVariants(address) {
		for _, mode := range []MatchMode{MatchExact, MatchLike} {
			candidates, err := g.source.Suggest(ctx, kw, mode)
			if err != nil {
				return Coordinate{}, fmt.Errorf("suggest %q (%s): %w", kw, mode, err)
			}
			if coord, ok := g.pick(candidates, address); ok {
				return coord, nil
			}
		}
	}

	return Coordinate{}, fmt.Errorf("%w: no coordinate found for address (adding a 7-digit postal code usually helps)", ErrGeocodeFailure)
}

func (g *Geocoder) pick(candidates []LocationCandidate, address string) (Coordinate, bool) {
	best, ok := PickBestLocation(candidates, address)
	if !ok {
		return Coordinate{}, false
	}
	coord, ok := best.Coordinate()
	if !ok {
		g.logger.Debug("best candidate has no usable coordinate",
			"prefecture", best.Prefecture,
			"city", best.City,
			"town", best.Town,
		)
	}
	return coord, ok
}

// keywordVariants derives the suggest keywords for an address, most general
// first: without the block/lot digits, without the chome suffix, and the
// whole address minus its postal code. Duplicates and keywords shorter than
// two characters are dropped.
func keywordVariants(address string) []string {
	addr := strings.TrimSpace(postalStripRe.ReplaceAllString(NormalizeText(address), ""))
	candidates := []string{
		digitSuffixRe.ReplaceAllString(addr, ""),
		chomeSuffixRe.ReplaceAllString(addr, ""),
		addr,
	}

	seen := make(map[string]bool, len(candidates))
	keywords := make([]string, 0, len(candidates))
	for _, kw := range candidates {
		kw = strings.TrimSpace(kw)
		if utf8.RuneCountInString(kw) < minKeywordRunes || seen[kw] {
			continue
		}
		seen[kw] = true
		keywords = append(keywords, kw)
	}
	return keywords
}

package domain

import (
	"regexp"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// widthFold maps the fixed set of full-width digits and hyphen-like glyphs
// that appear in Japanese addresses and API payloads to their ASCII forms.
var widthFold = map[rune]rune{
	'０': '0', '１': '1', '２': '2', '３': '3', '４': '4',
	'５': '5', '６': '6', '７': '7', '８': '8', '９': '9',
	'－': '-', // FULLWIDTH HYPHEN-MINUS
	'ー': '-', // KATAKANA-HIRAGANA PROLONGED SOUND MARK
	'−': '-', // MINUS SIGN
	'‐': '-', // HYPHEN
	'-': '-',
	'–': '-', // EN DASH
	'—': '-', // EM DASH
	'―': '-', // HORIZONTAL BAR
}

var foldWidth = runes.Map(func(r rune) rune {
	if folded, ok := widthFold[r]; ok {
		return folded
	}
	return r
})

var (
	// postalRe matches a 3+4 digit postal code with an optional 〒 marker and
	// optional separator, e.g. "〒980-0021" or "980 0021".
	postalRe = regexp.MustCompile(`〒?\s*(\d{3})\s*-?\s*(\d{4})`)

	inputHyphenRe = regexp.MustCompile(`[‐‑‒–—―ー－−]`)
	inputSpaceRe  = regexp.MustCompile(`[ \t　]+`)
)

// NormalizeText folds full-width digits and hyphen variants to ASCII and
// trims surrounding whitespace. Only the fixed table above is applied, so the
// result is locale independent and NormalizeText is idempotent.
func NormalizeText(s string) string {
	out, _, err := transform.String(foldWidth, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(out)
}

// ExtractPostalCode7 returns the first 7-digit postal code found in the
// address, without separator.
func ExtractPostalCode7(address string) (string, bool) {
	m := postalRe.FindStringSubmatch(NormalizeText(address))
	if m == nil {
		return "", false
	}
	return m[1] + m[2], true
}

// NormalizeAddressInput cleans user-typed addresses before they reach the
// finder: NFKC compatibility folding, every dash glyph to "-", and runs of
// blanks (including the ideographic space) collapsed to one space.
func NormalizeAddressInput(addr string) string {
	if addr == "" {
		return ""
	}
	s := norm.NFKC.String(addr)
	s = inputHyphenRe.ReplaceAllString(s, "-")
	s = inputSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

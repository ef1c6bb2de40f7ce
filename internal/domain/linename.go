package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// subwayMarker is the token that identifies a subway line in Japanese line names.
const subwayMarker = "地下鉄"

// Line name profiles selectable through configuration.
const (
	ProfileBranded = "branded"
	ProfileGeneric = "generic"
)

// Replacement is one literal substring rewrite of the operator-name stage.
type Replacement struct {
	From string
	To   string
}

// RuleSet is the immutable table data behind a LineNormalizer. Two deployments
// can differ only in their RuleSet (e.g. how municipal subways are branded).
type RuleSet struct {
	// OperatorReplacements are applied in order; later entries see the output
	// of earlier ones.
	OperatorReplacements []Replacement
	// CitySubwayPrefixes maps "<city>市" to the prefix that replaces it when a
	// line is written as "<city>市<name>線".
	CitySubwayPrefixes map[string]string
	// OperatorPrefixes are canonical brands whose "<prefix><name>線" form is
	// re-emitted without residual spacing.
	OperatorPrefixes []string
	// PopularAliases fold well-known long names to their common short form.
	// Exact full-string match only.
	PopularAliases map[string]string
	// Overrides patch known bad outputs. Exact match, applied last.
	Overrides map[string]string
	// StripCityNames removes "<city>市(営)" in front of the subway marker after
	// all other stages.
	StripCityNames bool
}

// LineRule is one stage of line name normalization. Stages are pure, total
// functions over strings.
type LineRule interface {
	Name() string
	Apply(s string) string
}

// LineNormalizer rewrites raw line labels from the station API into the
// display form defined by its RuleSet.
type LineNormalizer struct {
	rules []LineRule
}

// NewLineNormalizer builds the ordered stage list for a rule set. The maps in
// rs are copied so later changes by the caller do not leak into the normalizer.
func NewLineNormalizer(rs RuleSet) *LineNormalizer {
	rules := []LineRule{
		whitespaceRule{},
		replaceRule{table: append([]Replacement(nil), rs.OperatorReplacements...)},
		citySubwayRule{prefixes: copyTable(rs.CitySubwayPrefixes)},
	}
	for _, p := range rs.OperatorPrefixes {
		rules = append(rules, newOperatorPrefixRule(p))
	}
	rules = append(rules,
		subwayTidyRule{},
		exactRule{name: "popular-alias", table: copyTable(rs.PopularAliases)},
		exactRule{name: "override", table: copyTable(rs.Overrides)},
	)
	if rs.StripCityNames {
		rules = append(rules, cityStripRule{})
	}
	return &LineNormalizer{rules: rules}
}

// NewLineNormalizerForProfile returns the normalizer for a named profile.
func NewLineNormalizerForProfile(profile string) (*LineNormalizer, error) {
	switch profile {
	case "", ProfileBranded:
		return NewLineNormalizer(BrandedRuleSet()), nil
	case ProfileGeneric:
		return NewLineNormalizer(GenericRuleSet()), nil
	default:
		return nil, fmt.Errorf("%w: unknown line profile %q", ErrInvalidInput, profile)
	}
}

// Normalize returns the display label for a raw line name. Empty input yields
// an empty label.
func (n *LineNormalizer) Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	s := raw
	for _, r := range n.rules {
		s = r.Apply(s)
	}
	return s
}

// Rules exposes the stage order, mainly for diagnostics and tests.
func (n *LineNormalizer) Rules() []LineRule {
	return append([]LineRule(nil), n.rules...)
}

func copyTable(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// --- stages ---

var whitespaceRe = regexp.MustCompile(`[\s\p{Zs}]+`)

type whitespaceRule struct{}

func (whitespaceRule) Name() string { return "whitespace" }

func (whitespaceRule) Apply(s string) string {
	s = foldLineWidth(s)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// prolongedSoundMark is ー, which doubles as a dash in addresses but is part
// of the word in katakana names such as ブルーライン.
const prolongedSoundMark = 'ー'

// foldLineWidth applies the NormalizeText table except for ー following kana
// (or another kept ー).
func foldLineWidth(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	afterKana := false
	for _, r := range s {
		if r == prolongedSoundMark && afterKana {
			b.WriteRune(r)
			continue
		}
		if folded, ok := widthFold[r]; ok {
			r = folded
		}
		afterKana = unicode.In(r, unicode.Katakana, unicode.Hiragana)
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

type replaceRule struct {
	table []Replacement
}

func (replaceRule) Name() string { return "operator-replace" }

// maxReplacePasses bounds the fixed-point loop in replaceRule.Apply.
const maxReplacePasses = 8

// Apply runs the table until the string stops changing, so a rewrite that
// exposes an earlier entry's pattern is folded too.
func (r replaceRule) Apply(s string) string {
	for range maxReplacePasses {
		next := r.applyOnce(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

func (r replaceRule) applyOnce(s string) string {
	for _, rep := range r.table {
		if rep.From == "" {
			continue
		}
		s = strings.ReplaceAll(s, rep.From, rep.To)
	}
	return s
}

// cityLineRe splits "<city>市<rest>線"; the city part is the shortest prefix
// ending in 市.
var cityLineRe = regexp.MustCompile(`^(.+?市)(.+線)$`)

type citySubwayRule struct {
	prefixes map[string]string
}

func (citySubwayRule) Name() string { return "city-subway" }

func (r citySubwayRule) Apply(s string) string {
	if strings.Contains(s, subwayMarker) {
		return s
	}
	m := cityLineRe.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	prefix, ok := r.prefixes[m[1]]
	if !ok {
		return s
	}
	return prefix + strings.TrimSpace(m[2])
}

type operatorPrefixRule struct {
	prefix string
	re     *regexp.Regexp
}

func newOperatorPrefixRule(prefix string) operatorPrefixRule {
	return operatorPrefixRule{
		prefix: prefix,
		re:     regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `(.+線)$`),
	}
}

func (r operatorPrefixRule) Name() string { return "operator-prefix:" + r.prefix }

func (r operatorPrefixRule) Apply(s string) string {
	m := r.re.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	rest := strings.TrimSpace(m[1])
	if rest == "" {
		return s
	}
	return r.prefix + rest
}

var subwayLineRe = regexp.MustCompile(`^(.+` + subwayMarker + `)(.+線)$`)

type subwayTidyRule struct{}

func (subwayTidyRule) Name() string { return "subway-tidy" }

func (subwayTidyRule) Apply(s string) string {
	m := subwayLineRe.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	prefix := strings.TrimSpace(m[1])
	rest := strings.TrimSpace(m[2])
	if prefix == "" || rest == "" {
		return s
	}
	return prefix + rest
}

type exactRule struct {
	name  string
	table map[string]string
}

func (r exactRule) Name() string { return r.name }

func (r exactRule) Apply(s string) string {
	if v, ok := r.table[s]; ok {
		return v
	}
	return s
}

var cityStripRe = regexp.MustCompile(`^(.+?市)(営)?(` + subwayMarker + `.+)$`)

type cityStripRule struct{}

func (cityStripRule) Name() string { return "city-strip" }

func (cityStripRule) Apply(s string) string {
	m := cityStripRe.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	return m[3]
}

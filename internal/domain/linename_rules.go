package domain

// Rule tables for the shipped line name profiles. Each call returns a fresh
// RuleSet so callers may extend it before building a normalizer.

// operatorReplacements keeps only high-confidence rewrites; anything ambiguous
// belongs in the override table instead.
func operatorReplacements() []Replacement {
	return []Replacement{
		{"ＪＲ", "JR"},
		{"ＪＲ東日本", "JR東日本"},
		{"ＪＲ西日本", "JR西日本"},
		{"ＪＲ東海", "JR東海"},
		{"ＪＲ九州", "JR九州"},
		{"ＪＲ北海道", "JR北海道"},
		{"ＪＲ四国", "JR四国"},
		{"東京地下鉄", "東京メトロ"},
		{"都営地下鉄", "都営"},
		{"東京都交通局", "都営"},
		{"大阪市高速電気軌道", "Osaka Metro"},
		{"名古屋鉄道", "名鉄"},
		{"近畿日本鉄道", "近鉄"},
		{"京浜急行電鉄", "京急"},
		{"小田急電鉄", "小田急"},
		{"東武鉄道", "東武"},
		{"西武鉄道", "西武"},
		{"京王電鉄", "京王"},
		{"相模鉄道", "相鉄"},
		{"東京急行電鉄", "東急"},
		{"東急電鉄", "東急"},
		{"京成電鉄", "京成"},
		{"南海電気鉄道", "南海"},
		{"阪急電鉄", "阪急"},
		{"阪神電気鉄道", "阪神"},
		{"西日本鉄道", "西鉄"},
		{"大阪高速鉄道", "大阪モノレール"},
	}
}

func popularAliases() map[string]string {
	return map[string]string{
		"りんかい線":           "りんかい線",
		"東京臨海高速鉄道りんかい線":   "りんかい線",
		"ゆりかもめ":           "ゆりかもめ",
		"ゆりかもめ東京臨海新交通臨海線": "ゆりかもめ",
		"東京臨海新交通臨海線":      "ゆりかもめ",
		"日暮里・舎人ライナー":      "日暮里・舎人ライナー",
		"東京モノレール":         "東京モノレール",
		"大阪モノレール":         "大阪モノレール",
	}
}

func lineOverrides() map[string]string {
	return map[string]string{
		"仙台市南北線": "仙台市地下鉄南北線",
		"仙台市東西線": "仙台市地下鉄東西線",

		"東京地下鉄銀座線":  "東京メトロ銀座線",
		"東京地下鉄丸ノ内線": "東京メトロ丸ノ内線",
		"東京地下鉄日比谷線": "東京メトロ日比谷線",
		"東京地下鉄東西線":  "東京メトロ東西線",
		"東京地下鉄千代田線": "東京メトロ千代田線",
		"東京地下鉄有楽町線": "東京メトロ有楽町線",
		"東京地下鉄半蔵門線": "東京メトロ半蔵門線",
		"東京地下鉄南北線":  "東京メトロ南北線",
		"東京地下鉄副都心線": "東京メトロ副都心線",

		"東京臨海高速鉄道りんかい線": "りんかい線",

		"ゆりかもめ東京臨海新交通臨海線": "ゆりかもめ",
		"東京臨海新交通臨海線":      "ゆりかもめ",
	}
}

// BrandedRuleSet names municipal subways after their operator brand, e.g.
// "仙台市南北線" -> "仙台市地下鉄南北線". Osaka uses the private Osaka Metro brand.
func BrandedRuleSet() RuleSet {
	return RuleSet{
		OperatorReplacements: operatorReplacements(),
		CitySubwayPrefixes: map[string]string{
			"札幌市":  "札幌市営地下鉄",
			"仙台市":  "仙台市地下鉄",
			"横浜市":  "横浜市営地下鉄",
			"名古屋市": "名古屋市営地下鉄",
			"京都市":  "京都市営地下鉄",
			"神戸市":  "神戸市営地下鉄",
			"福岡市":  "福岡市地下鉄",
			"大阪市":  "Osaka Metro",
		},
		OperatorPrefixes: []string{"都営", "東京メトロ"},
		PopularAliases:   popularAliases(),
		Overrides:        lineOverrides(),
	}
}

// GenericRuleSet drops city names from subway labels ("仙台市南北線" ->
// "地下鉄南北線"). Osaka keeps the Osaka Metro brand through its table entry.
func GenericRuleSet() RuleSet {
	rs := BrandedRuleSet()
	for city := range rs.CitySubwayPrefixes {
		rs.CitySubwayPrefixes[city] = subwayMarker
	}
	rs.CitySubwayPrefixes["大阪市"] = "Osaka Metro"
	rs.StripCityNames = true
	return rs
}

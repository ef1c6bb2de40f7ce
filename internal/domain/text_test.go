package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"full-width digits", "０１２３４５６７８９", "0123456789"},
		{"dash variants", "a－bーc−d‐e-f–g—h―i", "a-b-c-d-e-f-g-h-i"},
		{"trims whitespace", "  仙台市 \t", "仙台市"},
		{"keeps inner spaces", "青葉区 中央", "青葉区 中央"},
		{"leaves other full-width text", "ＪＲ東日本", "ＪＲ東日本"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeText(tc.in)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, got, NormalizeText(got), "NormalizeText must be idempotent")
		})
	}
}

func TestExtractPostalCode7(t *testing.T) {
	cases := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{"full-width with marker", "〒980－0021仙台市青葉区中央", "9800021", true},
		{"ascii hyphen", "980-0021 仙台市", "9800021", true},
		{"no separator", "〒9800021", "9800021", true},
		{"space separator", "〒 980 0021", "9800021", true},
		{"first match wins", "100-0005 and 980-0021", "1000005", true},
		{"block numbers only", "仙台市青葉区中央2-10-20", "", false},
		{"empty", "", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractPostalCode7(tc.in)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeAddressInput(t *testing.T) {
	assert.Equal(t, "〒980-0021 仙台市青葉区中央2-10-20", NormalizeAddressInput("〒９８０ー００２１　仙台市青葉区中央２－１０－２０"))
	assert.Equal(t, "a b", NormalizeAddressInput(" a \t　 b "))
	assert.Empty(t, NormalizeAddressInput(""))
}

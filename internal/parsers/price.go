package parsers

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// Peso-marked amounts: "₱500", "PHP 1,500", "Php500", "P500".
	pesoRe = regexp.MustCompile(`(?i)(?:₱|php|\bp)\s*([\d,]+(?:\.\d{1,2})?)`)
	// Amounts adjacent to a door-charge word: "500 presale", "damage: 300".
	labeledRe = regexp.MustCompile(`(?i)\b(\d{2,5})\s*(?:presale|pre-sale|door|entrance|cover|damage|dmg|tickets?)\b`)
	reverseRe = regexp.MustCompile(`(?i)\b(?:presale|pre-sale|door|entrance|cover|damage|dmg|entry|tickets?)\s*:?\s*(\d{2,5})\b`)
)

var freeWords = []string{"free entry", "free entrance", "free admission", "no cover", "free event", "libre", "walang bayad"}

// Price extracts the entry price from text as a plain numeric string
// ("500", "1500.50"). Captions advertising free entry yield "0". When a
// caption lists several tiers the first amount wins; it is the presale
// figure in the overwhelming majority of posts.
func Price(text string) (string, bool) {
	folded := Collapse(text)
	for _, w := range freeWords {
		if strings.Contains(folded, w) {
			return "0", true
		}
	}

	for _, re := range []*regexp.Regexp{pesoRe, labeledRe, reverseRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			if v, ok := normalizeAmount(m[1]); ok {
				return v, true
			}
		}
	}
	return "", false
}

// normalizeAmount strips thousands separators and rejects values outside
// the plausible cover-charge range.
func normalizeAmount(raw string) (string, bool) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v < 0 || v > 100000 {
		return "", false
	}
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10), true
	}
	return strconv.FormatFloat(v, 'f', 2, 64), true
}

package consensus

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/nightgrid/captiond/internal/model"
	"github.com/nightgrid/captiond/internal/parsers"
)

// venueStoplist holds generic venue words that carry no identity; they
// are excluded from the word-overlap ratio.
var venueStoplist = map[string]bool{
	"the": true, "bar": true, "cafe": true, "club": true, "resto": true,
	"restaurant": true, "lounge": true, "rooftop": true, "manila": true,
	"city": true, "and": true,
}

// Equivalent reports whether two extracted values agree for the given
// field under that field's equivalence rule. Two nils agree; one nil is
// handled by the merge layer, not here.
func Equivalent(field string, a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	switch field {
	case model.FieldEventDate, model.FieldEventEndDate:
		return stringify(a) == stringify(b)
	case model.FieldEventTime, model.FieldEndTime:
		return timesEqual(stringify(a), stringify(b))
	case model.FieldPrice:
		return pricesEqual(a, b)
	case model.FieldSignupURL:
		return urlsEqual(stringify(a), stringify(b))
	case model.FieldLocationName:
		return venuesEqual(stringify(a), stringify(b))
	default:
		return parsers.Collapse(stringify(a)) == parsers.Collapse(stringify(b))
	}
}

// timesEqual compares hour and minute only; seconds are ignored.
func timesEqual(a, b string) bool {
	ha, ok := parsers.Clock(a)
	if !ok {
		return false
	}
	hb, ok := parsers.Clock(b)
	if !ok {
		return false
	}
	return ha == hb
}

// pricesEqual coerces both values to numbers and compares.
func pricesEqual(a, b any) bool {
	fa, ok := coercePrice(a)
	if !ok {
		return false
	}
	fb, ok := coercePrice(b)
	if !ok {
		return false
	}
	return math.Abs(fa-fb) < 1e-9
}

func coercePrice(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		s := strings.TrimSpace(strings.ToLower(n))
		s = strings.TrimPrefix(s, "₱")
		s = strings.TrimPrefix(s, "php")
		s = strings.ReplaceAll(s, ",", "")
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// urlsEqual compares URLs with trailing slashes stripped and
// scheme/host lowercased. Unparseable URLs fall back to a raw compare.
func urlsEqual(a, b string) bool {
	return canonicalURL(a) == canonicalURL(b)
}

func canonicalURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.TrimRight(strings.TrimSpace(raw), "/")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String()
}

// venuesEqual applies the venue rule: exact match after normalization,
// substring containment either way, or significant-word overlap of at
// least half the smaller name.
func venuesEqual(a, b string) bool {
	na := parsers.Collapse(a)
	nb := parsers.Collapse(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}

	wa := significantWords(na)
	wb := significantWords(nb)
	if len(wa) == 0 || len(wb) == 0 {
		return false
	}
	shared := 0
	for w := range wa {
		if wb[w] {
			shared++
		}
	}
	smaller := len(wa)
	if len(wb) < smaller {
		smaller = len(wb)
	}
	return float64(shared)/float64(smaller) >= 0.5
}

func significantWords(normalized string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(normalized) {
		w = strings.Trim(w, ".,!?:;()\"'")
		if len(w) <= 2 || venueStoplist[w] {
			continue
		}
		out[w] = true
	}
	return out
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

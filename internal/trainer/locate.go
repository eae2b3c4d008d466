package trainer

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nightgrid/captiond/internal/consensus"
	"github.com/nightgrid/captiond/internal/model"
	"github.com/nightgrid/captiond/internal/parsers"
)

// Locator patterns. These find candidate spans only; every candidate is
// validated by re-parsing before it is trusted as ground truth.
var (
	isoDateSpan  = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	monthDaySpan = regexp.MustCompile(`(?i)\b[a-z]{3,10}\.?\s+\d{1,2}(?:\s*,?\s*\d{4})?`)
	slashSpan    = regexp.MustCompile(`\b\d{1,2}/\d{1,2}(?:/\d{2,4})?\b`)
	relativeSpan = regexp.MustCompile(`(?i)\b(?:today|tonight|tomorrow|ngayon|mamaya|bukas)\b`)
	// Month day-range construct; group 1 is the second day.
	dayRangeSpan = regexp.MustCompile(`(?i)\b[a-z]{3,10}\.?\s+\d{1,2}\s*[-–]\s*(\d{1,2})\b`)

	clockSpan = regexp.MustCompile(`(?i)\b\d{1,2}(?::\d{2})?\s*(?:am|pm)?\b`)
	// Time-range construct; group 1 is the second endpoint.
	timeRangeSpan = regexp.MustCompile(`(?i)\b\d{1,2}(?::\d{2})?\s*(?:am|pm)?\s*(?:-|–|—|to|until|til|till|hanggang)\s*(\d{1,2}(?::\d{2})?\s*(?:am|pm)?)\b`)

	priceSpan = regexp.MustCompile(`(?i)(?:₱|php|\bp)\s*[\d,]+(?:\.\d{1,2})?|\b\d{2,5}\s*(?:presale|pre-sale|door|entrance|cover|damage|dmg|tickets?)\b|\b(?:presale|pre-sale|door|entrance|cover|damage|dmg|entry|tickets?)\s*:?\s*\d{2,5}\b`)
	freeSpan  = regexp.MustCompile(`(?i)\bfree (?:entry|entrance|admission|event)\b|\bno cover\b|\blibre\b|\bwalang bayad\b`)

	urlSpan = regexp.MustCompile(`https?://[^\s<>"']+`)

	pinSpan = regexp.MustCompile(`📍\s*[^\n|•]+`)
	atSpan  = regexp.MustCompile(`(?i)\b(?:at|sa|near|@)\s+[A-Z][\w&'.-]*(?:\s+[A-Z][\w&'.-]*)*`)
)

// Locate finds the literal substring of text that justifies the
// normalized field value and confirms it re-parses to that value. It
// returns ok=false when no validated span exists; an unverifiable value
// is never recorded as ground truth.
func Locate(field, text string, value any, ref time.Time) (string, bool) {
	want, isStr := value.(string)
	switch field {
	case model.FieldEventDate:
		if !isStr {
			return "", false
		}
		return locateDate(text, want, ref)
	case model.FieldEventEndDate:
		if !isStr {
			return "", false
		}
		return locateEndDate(text, want, ref)
	case model.FieldEventTime:
		if !isStr {
			return "", false
		}
		return locateTime(text, want)
	case model.FieldEndTime:
		if !isStr {
			return "", false
		}
		return locateEndTime(text, want)
	case model.FieldLocationName:
		if !isStr {
			return "", false
		}
		return locateVenue(text, want)
	case model.FieldPrice:
		return locatePrice(text, value)
	case model.FieldSignupURL:
		if !isStr {
			return "", false
		}
		return locateURL(text, want)
	default:
		return "", false
	}
}

func locateDate(text, want string, ref time.Time) (string, bool) {
	for _, re := range []*regexp.Regexp{isoDateSpan, monthDaySpan, slashSpan, relativeSpan} {
		for _, span := range re.FindAllString(text, -1) {
			if parsed, ok := parsers.Date(span, ref); ok && parsed == want {
				return span, true
			}
		}
	}
	return "", false
}

// locateEndDate only accepts the second endpoint of an explicit range
// construct, or a full date token that parses to the end date itself.
// The first endpoint of a range never justifies an end date.
func locateEndDate(text, want string, ref time.Time) (string, bool) {
	wantDate, err := time.Parse("2006-01-02", want)
	if err != nil {
		return "", false
	}

	if m := dayRangeSpan.FindStringSubmatch(text); m != nil {
		if day, err := strconv.Atoi(m[1]); err == nil && day == wantDate.Day() {
			if parsed, ok := parsers.EndDate(text, ref); ok && parsed == want {
				return m[1], true
			}
		}
	}

	for _, span := range isoDateSpan.FindAllString(text, -1) {
		if span == want {
			return span, true
		}
	}
	return "", false
}

func locateTime(text, want string) (string, bool) {
	wantClock, ok := parsers.Clock(want)
	if !ok {
		return "", false
	}
	for _, span := range clockSpan.FindAllString(text, -1) {
		if got, ok := parsers.Clock(span); ok && got == wantClock {
			return strings.TrimSpace(span), true
		}
	}
	return "", false
}

// locateEndTime takes the second endpoint of a range construct, never
// the first: in "10PM - 4AM" the end time 04:00 must locate "4AM".
func locateEndTime(text, want string) (string, bool) {
	wantClock, ok := parsers.Clock(want)
	if !ok {
		return "", false
	}
	m := timeRangeSpan.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	endpoint := strings.TrimSpace(m[1])
	if got, ok := parsers.Clock(endpoint); ok && got == wantClock {
		return endpoint, true
	}
	return "", false
}

// locateVenue prefers exact containment of the normalized name, then a
// pin-glyph location, then an at/near phrase. It never falls back to an
// arbitrary substring.
func locateVenue(text, want string) (string, bool) {
	folded := parsers.Fold(text)
	wantFolded := parsers.Fold(want)
	if idx := strings.Index(strings.ToLower(folded), strings.ToLower(wantFolded)); idx >= 0 {
		end := idx + len(wantFolded)
		if end <= len(folded) {
			return folded[idx:end], true
		}
	}

	for _, re := range []*regexp.Regexp{pinSpan, atSpan} {
		if span := re.FindString(folded); span != "" {
			candidate := strings.TrimSpace(strings.TrimLeft(span, "📍 "))
			candidate = trimVenueMarker(candidate)
			if consensus.Equivalent(model.FieldLocationName, candidate, want) {
				return candidate, true
			}
		}
	}
	return "", false
}

var venueMarker = regexp.MustCompile(`(?i)^(?:at|sa|near|@)\s+`)

func trimVenueMarker(s string) string {
	return strings.TrimSpace(venueMarker.ReplaceAllString(s, ""))
}

func locatePrice(text string, want any) (string, bool) {
	if consensus.Equivalent(model.FieldPrice, want, float64(0)) {
		if span := freeSpan.FindString(text); span != "" {
			return span, true
		}
	}
	for _, span := range priceSpan.FindAllString(text, -1) {
		if parsed, ok := parsers.Price(span); ok && consensus.Equivalent(model.FieldPrice, parsed, want) {
			return span, true
		}
	}
	return "", false
}

func locateURL(text, want string) (string, bool) {
	for _, span := range urlSpan.FindAllString(text, -1) {
		span = strings.TrimRight(span, ".,!?:;)]}")
		if consensus.Equivalent(model.FieldSignupURL, span, want) {
			return span, true
		}
	}
	return "", false
}

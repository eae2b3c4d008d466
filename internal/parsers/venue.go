package parsers

import (
	"regexp"
	"strings"
)

var (
	// Pin-glyph venue lines: "📍 Oto, Poblacion".
	pinRe = regexp.MustCompile(`📍\s*([^\n|•]+)`)
	// "at XX Bar" / "sa Nokal" with a capitalized name span.
	atRe = regexp.MustCompile(`(?i)\b(?:at|sa|@)\s+([A-Z][\w&'.-]*(?:\s+[A-Z][\w&'.-]*)*)`)
)

// venueNoise trims trailing tokens that belong to the sentence, not the
// venue name.
var venueNoise = regexp.MustCompile(`(?i)\s+(?:this|on|tonight|tomorrow|bukas|mamaya|for|with|from)\b.*$`)

// Venue extracts a venue name from text. The pin glyph is the strongest
// signal; "at"/"sa" phrases are the fallback.
func Venue(text string) (string, bool) {
	if m := pinRe.FindStringSubmatch(text); m != nil {
		if v := cleanVenue(m[1]); v != "" {
			return v, true
		}
	}
	if m := atRe.FindStringSubmatch(Fold(text)); m != nil {
		if v := cleanVenue(m[1]); v != "" {
			return v, true
		}
	}
	return "", false
}

func cleanVenue(raw string) string {
	v := venueNoise.ReplaceAllString(raw, "")
	v = strings.Trim(strings.TrimSpace(v), ".,!-–")
	if len(v) < 2 || len(v) > 80 {
		return ""
	}
	return v
}

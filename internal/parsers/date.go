package parsers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// months maps English and Filipino month names (and common prefixes) to
// month numbers. Lookup happens on the first three folded letters, which
// is enough to keep "setyembre" and "sept" apart from each other's
// neighbors.
var months = map[string]time.Month{
	"jan": time.January, "ene": time.January,
	"feb": time.February, "peb": time.February,
	"mar": time.March,
	"apr": time.April, "abr": time.April,
	"may": time.May,
	"jun": time.June, "hun": time.June,
	"jul": time.July, "hul": time.July,
	"aug": time.August, "ago": time.August,
	"sep": time.September, "set": time.September,
	"oct": time.October, "okt": time.October,
	"nov": time.November, "nob": time.November,
	"dec": time.December, "dis": time.December,
}

var (
	isoDateRe = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	// "December 20", "Dec. 20, 2025", with an optional "12-13" day range.
	monthDayRe = regexp.MustCompile(`(?i)\b([a-z]{3,10})\.?\s+(\d{1,2})(?:\s*[-–]\s*(\d{1,2}))?(?:\s*,?\s*(\d{4}))?`)
	// "12/20/2025" and "12/20" (month first, the dominant caption style).
	slashDateRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?\b`)
)

var relativeDays = map[string]int{
	"today": 0, "tonight": 0, "ngayon": 0, "mamaya": 0,
	"tomorrow": 1, "bukas": 1,
}

// Date extracts the event start date from text and returns it as
// YYYY-MM-DD. ref anchors relative words and supplies a year when the
// caption omits one.
func Date(text string, ref time.Time) (string, bool) {
	if m := isoDateRe.FindStringSubmatch(text); m != nil {
		return m[1] + "-" + m[2] + "-" + m[3], true
	}

	if mo, day, _, year, ok := monthDayMatch(text); ok {
		return formatDate(inferYear(year, mo, day, ref), mo, day), true
	}

	if m := slashDateRe.FindStringSubmatch(text); m != nil {
		mo, errM := strconv.Atoi(m[1])
		day, errD := strconv.Atoi(m[2])
		if errM == nil && errD == nil && mo >= 1 && mo <= 12 && validDay(day) {
			year := 0
			if m[3] != "" {
				year, _ = strconv.Atoi(m[3])
				if year < 100 {
					year += 2000
				}
			}
			return formatDate(inferYear(year, time.Month(mo), day, ref), time.Month(mo), day), true
		}
	}

	folded := Collapse(text)
	for word, offset := range relativeDays {
		if containsWord(folded, word) {
			d := ref.AddDate(0, 0, offset)
			return d.Format("2006-01-02"), true
		}
	}

	return "", false
}

// EndDate extracts the second endpoint of an explicit date range such as
// "December 12-13". Single dates yield nothing; midnight crossings are
// left to the caller.
func EndDate(text string, ref time.Time) (string, bool) {
	mo, _, endDay, year, ok := monthDayMatch(text)
	if !ok || endDay == 0 {
		return "", false
	}
	return formatDate(inferYear(year, mo, endDay, ref), mo, endDay), true
}

// monthDayMatch finds the first "Month day[-day][, year]" occurrence.
// endDay is zero when the caption names a single day.
func monthDayMatch(text string) (mo time.Month, day, endDay, year int, ok bool) {
	for _, m := range monthDayRe.FindAllStringSubmatch(Fold(text), -1) {
		name := strings.ToLower(m[1])
		if len(name) < 3 {
			continue
		}
		month, found := months[name[:3]]
		if !found {
			continue
		}
		d, err := strconv.Atoi(m[2])
		if err != nil || !validDay(d) {
			continue
		}
		if m[3] != "" {
			if e, err := strconv.Atoi(m[3]); err == nil && validDay(e) {
				endDay = e
			}
		}
		if m[4] != "" {
			year, _ = strconv.Atoi(m[4])
		}
		return month, d, endDay, year, true
	}
	return 0, 0, 0, 0, false
}

// inferYear fills in a missing year from ref, rolling forward when the
// candidate date already passed more than a month ago. Promoters post
// for the near future, not the distant past.
func inferYear(year int, mo time.Month, day int, ref time.Time) int {
	if year != 0 {
		return year
	}
	year = ref.Year()
	candidate := time.Date(year, mo, day, 0, 0, 0, 0, time.UTC)
	if candidate.Before(ref.AddDate(0, -1, 0)) {
		return year + 1
	}
	return year
}

func formatDate(year int, mo time.Month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, int(mo), day)
}

func validDay(d int) bool { return d >= 1 && d <= 31 }

// containsWord reports whether folded (already collapsed) contains word
// as a whole token.
func containsWord(folded, word string) bool {
	for _, tok := range strings.Fields(folded) {
		if strings.Trim(tok, ".,!?:;()\"'") == word {
			return true
		}
	}
	return false
}

package parsers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// "10PM", "9:30 pm", "22:00". The meridian is optional so a bare
	// 24-hour clock still matches.
	clockRe = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
	// Range connectors between two clock tokens: "10PM - 4AM",
	// "9pm to 2am", "10:00 hanggang 02:00".
	rangeRe = regexp.MustCompile(`(?i)\b(\d{1,2}(?::\d{2})?\s*(?:am|pm)?)\s*(?:-|–|—|to|until|til|till|hanggang)\s*(\d{1,2}(?::\d{2})?\s*(?:am|pm)?)\b`)
)

// Time extracts the event start time from text as HH:MM. Ranged captions
// yield the first endpoint.
func Time(text string) (string, bool) {
	if m := rangeRe.FindStringSubmatch(text); m != nil {
		if v, ok := Clock(m[1]); ok {
			return v, true
		}
	}
	return firstClock(text)
}

// EndTime extracts the second endpoint of an explicit time range. A
// caption with a single time has no end time.
func EndTime(text string) (string, bool) {
	m := rangeRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return Clock(m[2])
}

// Clock parses a single clock token ("10PM", "9:30 pm", "22:00") into
// HH:MM. Bare small numbers without a meridian are rejected; "5" in a
// caption is far more often a price or a date than five o'clock.
func Clock(token string) (string, bool) {
	m := clockRe.FindStringSubmatch(strings.TrimSpace(token))
	if m == nil {
		return "", false
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return "", false
	}
	minute := 0
	if m[2] != "" {
		minute, err = strconv.Atoi(m[2])
		if err != nil || minute > 59 {
			return "", false
		}
	}

	meridian := strings.ToLower(m[3])
	switch meridian {
	case "am":
		if hour < 1 || hour > 12 {
			return "", false
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return "", false
		}
		if hour != 12 {
			hour += 12
		}
	default:
		// Without a meridian require an unambiguous 24-hour form.
		if m[2] == "" || hour > 23 {
			return "", false
		}
	}

	return fmt.Sprintf("%02d:%02d", hour, minute), true
}

func firstClock(text string) (string, bool) {
	for _, m := range clockRe.FindAllStringSubmatch(text, -1) {
		if v, ok := Clock(m[0]); ok {
			return v, true
		}
	}
	return "", false
}

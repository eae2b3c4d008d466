// Package parsers holds the built-in heuristic extractors for caption
// fields. They back up the stored rule set: when no learned rule matches
// a caption, the heuristics take a pass at it.
package parsers

import (
	"time"

	"github.com/nightgrid/captiond/internal/model"
)

// Func extracts one field's value from caption text. ref anchors
// relative dates.
type Func func(text string, ref time.Time) (string, bool)

// ForField returns the heuristic extractor for a tracked field, or nil
// when the field has none.
func ForField(field string) Func {
	switch field {
	case model.FieldEventDate:
		return Date
	case model.FieldEventEndDate:
		return EndDate
	case model.FieldEventTime:
		return adapt(Time)
	case model.FieldEndTime:
		return adapt(EndTime)
	case model.FieldLocationName:
		return adapt(Venue)
	case model.FieldPrice:
		return adapt(Price)
	case model.FieldSignupURL:
		return adapt(URL)
	default:
		return nil
	}
}

func adapt(f func(string) (string, bool)) Func {
	return func(text string, _ time.Time) (string, bool) { return f(text) }
}

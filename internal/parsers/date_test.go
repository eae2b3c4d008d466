package parsers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var ref = time.Date(2025, time.November, 15, 12, 0, 0, 0, time.UTC)

func TestDate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"iso", "see you 2025-12-20 sa Poblacion", "2025-12-20", true},
		{"month day", "DEC 20 • Oto Poblacion", "2025-12-20", true},
		{"month day year", "December 20, 2025 — save the date", "2025-12-20", true},
		{"filipino month", "Disyembre 20 na!", "2025-12-20", true},
		{"abbreviated with dot", "Sept. 5 lineup drop", "2026-09-05", true},
		{"slash", "12/20 doors at 10", "2025-12-20", true},
		{"slash with year", "01/02/2026 NYE recovery", "2026-01-02", true},
		{"year rollover", "Jan 10 warehouse session", "2026-01-10", true},
		{"tonight", "TONIGHT! free entry before 10", "2025-11-15", true},
		{"bukas", "kita-kits bukas!", "2025-11-16", true},
		{"range start", "December 12-13, two nights", "2025-12-12", true},
		{"no date", "good vibes only, link in bio", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Date(tt.text, ref)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEndDate(t *testing.T) {
	got, ok := EndDate("December 12-13, two nights", ref)
	assert.True(t, ok)
	assert.Equal(t, "2025-12-13", got)

	_, ok = EndDate("December 20 one night only", ref)
	assert.False(t, ok)
}

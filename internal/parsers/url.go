package parsers

import (
	"regexp"
	"strings"
)

var urlRe = regexp.MustCompile(`https?://[^\s<>"']+`)

// URL extracts the first http(s) link from text, with trailing sentence
// punctuation stripped. Promoters put the signup link first when there
// is more than one.
func URL(text string) (string, bool) {
	m := urlRe.FindString(text)
	if m == "" {
		return "", false
	}
	m = strings.TrimRight(m, ".,!?:;)]}")
	return m, true
}

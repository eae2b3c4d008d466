package model

import (
	"regexp"
	"time"
)

// RuleSource identifies how a rule entered the store.
type RuleSource string

const (
	RuleSourceDefault RuleSource = "default"
	RuleSourceManual  RuleSource = "manual"
	RuleSourceLearned RuleSource = "learned"
)

// Rule categories. One rule matches exactly one category of field.
const (
	CategoryPrice     = "price"
	CategoryDate      = "date"
	CategoryTime      = "time"
	CategoryVenue     = "venue"
	CategorySignupURL = "signup_url"
	CategoryVendor    = "vendor"
	CategoryEvent     = "event"
)

// Categories lists all rule categories in selection order.
var Categories = []string{
	CategoryDate,
	CategoryTime,
	CategoryVenue,
	CategoryPrice,
	CategorySignupURL,
	CategoryVendor,
	CategoryEvent,
}

// Rule is a stored matcher for one field category. The pattern is a regular
// expression with at most one capture group; when the group is present the
// captured span is the extracted value, otherwise the full match is.
//
// Learned rules are created inactive and only an explicit approval flips
// them active. IsActive may be flipped false by the confidence estimator
// but is never flipped true by the engine.
type Rule struct {
	ID              string     `json:"id"`
	Category        string     `json:"category"`
	Pattern         string     `json:"pattern"`
	Description     string     `json:"description,omitempty"`
	ConfidenceScore float64    `json:"confidence_score"`
	SuccessCount    int        `json:"success_count"`
	FailureCount    int        `json:"failure_count"`
	Priority        int        `json:"priority"`
	Source          RuleSource `json:"source"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	compiled *regexp.Regexp
}

// Compile returns the compiled pattern, caching it on first use.
func (r *Rule) Compile() (*regexp.Regexp, error) {
	if r.compiled != nil {
		return r.compiled, nil
	}
	re, err := regexp.Compile(r.Pattern)
	if err != nil {
		return nil, err
	}
	r.compiled = re
	return re, nil
}

// Match applies the rule's pattern to text. On a match it returns the first
// capture group when the pattern defines one, otherwise the full matched
// span. The error is non-nil only for a pattern that does not compile.
func (r *Rule) Match(text string) (string, bool, error) {
	re, err := r.Compile()
	if err != nil {
		return "", false, err
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false, nil
	}
	if len(m) > 1 {
		return m[1], true, nil
	}
	return m[0], true, nil
}

// Observations is the total number of recorded outcomes for the rule.
func (r *Rule) Observations() int {
	return r.SuccessCount + r.FailureCount
}

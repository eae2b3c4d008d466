package model

// Tracked field names. These are the per-field units of consensus; every
// merged result attributes each of them to a source.
const (
	FieldEventDate    = "event_date"
	FieldEventEndDate = "event_end_date"
	FieldEventTime    = "event_time"
	FieldEndTime      = "end_time"
	FieldLocationName = "location_name"
	FieldPrice        = "price"
	FieldSignupURL    = "signup_url"
)

// TrackedFields lists all fields the merge engine reconciles.
var TrackedFields = []string{
	FieldEventDate,
	FieldEventEndDate,
	FieldEventTime,
	FieldEndTime,
	FieldLocationName,
	FieldPrice,
	FieldSignupURL,
}

// FieldCategory maps a tracked field to the rule category that extracts it.
var FieldCategory = map[string]string{
	FieldEventDate:    CategoryDate,
	FieldEventEndDate: CategoryDate,
	FieldEventTime:    CategoryTime,
	FieldEndTime:      CategoryTime,
	FieldLocationName: CategoryVenue,
	FieldPrice:        CategoryPrice,
	FieldSignupURL:    CategorySignupURL,
}

// FieldSource attributes a merged field value.
type FieldSource string

const (
	SourceRegex FieldSource = "regex"
	SourceAI    FieldSource = "ai"
	SourceBoth  FieldSource = "both"
)

// OverallSource summarizes where a merged result's values came from.
type OverallSource string

const (
	OverallRegexOnly OverallSource = "regex_only"
	OverallAIOnly    OverallSource = "ai_only"
	OverallBoth      OverallSource = "both"
	OverallConflict  OverallSource = "conflict"
)

// OracleMeta carries oracle-only signals that ride through consensus
// untouched: the merge engine reconciles tracked fields only.
type OracleMeta struct {
	IsEvent            bool     `json:"is_event"`
	IsFree             *bool    `json:"is_free,omitempty"`
	PriceMin           *float64 `json:"price_min,omitempty"`
	PriceMax           *float64 `json:"price_max,omitempty"`
	IsRecurring        bool     `json:"is_recurring,omitempty"`
	RecurrencePattern  string   `json:"recurrence_pattern,omitempty"`
	AvailabilityStatus string   `json:"availability_status,omitempty"`
}

// ExtractionResult is one source's answer for a post. Rule-engine results
// populate RuleIDs (empty string marks a heuristic-fallback value); oracle
// results populate Confidence, Reasoning and Meta.
type ExtractionResult struct {
	Fields     map[string]any    `json:"fields"`
	RuleIDs    map[string]string `json:"rule_ids,omitempty"`
	Confidence float64           `json:"confidence,omitempty"`
	Reasoning  string            `json:"reasoning,omitempty"`
	Meta       *OracleMeta       `json:"meta,omitempty"`
}

// Conflict records a per-field disagreement between the two sources.
type Conflict struct {
	Field      string `json:"field"`
	RegexValue any    `json:"regex_value"`
	AIValue    any    `json:"ai_value"`
}

// MergedResult is the consensus output for one post.
type MergedResult struct {
	PostID        string                 `json:"post_id"`
	Fields        map[string]any         `json:"fields"`
	Sources       map[string]FieldSource `json:"sources"`
	Conflicts     []Conflict             `json:"conflicts,omitempty"`
	OverallSource OverallSource          `json:"overall_source"`
	Confidence    float64                `json:"confidence"`
	Reasoning     string                 `json:"reasoning,omitempty"`
	Meta          *OracleMeta            `json:"meta,omitempty"`
}

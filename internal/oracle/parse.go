package oracle

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/nightgrid/captiond/internal/model"
)

// rawAnswer mirrors the JSON contract in the system prompt. Numeric
// fields are decoded as any; the model occasionally quotes them.
type rawAnswer struct {
	IsEvent            bool    `json:"isEvent"`
	EventDate          *string `json:"eventDate"`
	EventEndDate       *string `json:"eventEndDate"`
	EventTime          *string `json:"eventTime"`
	EndTime            *string `json:"endTime"`
	LocationName       *string `json:"locationName"`
	IsFree             *bool   `json:"isFree"`
	Price              any     `json:"price"`
	PriceMin           any     `json:"priceMin"`
	PriceMax           any     `json:"priceMax"`
	SignupURL          *string `json:"signupUrl"`
	IsRecurring        bool    `json:"isRecurring"`
	RecurrencePattern  *string `json:"recurrencePattern"`
	AvailabilityStatus *string `json:"availabilityStatus"`
	Confidence         float64 `json:"confidence"`
	Reasoning          string  `json:"reasoning"`
}

// parseAnswer decodes the model's response text into an ExtractionResult.
// A caption the model judges to be a non-event is a valid answer with no
// fields, not an error.
func parseAnswer(text string) (*model.ExtractionResult, error) {
	cleaned := cleanJSON(text)

	var raw rawAnswer
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, eris.Wrap(err, "unmarshal answer")
	}

	confidence := raw.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	meta := &model.OracleMeta{
		IsEvent:     raw.IsEvent,
		IsFree:      raw.IsFree,
		IsRecurring: raw.IsRecurring,
	}
	if v, ok := toFloat64(raw.PriceMin); ok {
		meta.PriceMin = &v
	}
	if v, ok := toFloat64(raw.PriceMax); ok {
		meta.PriceMax = &v
	}
	if raw.RecurrencePattern != nil {
		meta.RecurrencePattern = *raw.RecurrencePattern
	}
	if raw.AvailabilityStatus != nil {
		meta.AvailabilityStatus = *raw.AvailabilityStatus
	}

	result := &model.ExtractionResult{
		Fields:     map[string]any{},
		Confidence: confidence,
		Reasoning:  raw.Reasoning,
		Meta:       meta,
	}
	if !raw.IsEvent {
		return result, nil
	}

	putString(result.Fields, model.FieldEventDate, raw.EventDate)
	putString(result.Fields, model.FieldEventEndDate, raw.EventEndDate)
	putString(result.Fields, model.FieldEventTime, raw.EventTime)
	putString(result.Fields, model.FieldEndTime, raw.EndTime)
	putString(result.Fields, model.FieldLocationName, raw.LocationName)
	putString(result.Fields, model.FieldSignupURL, raw.SignupURL)
	if v, ok := toFloat64(raw.Price); ok {
		result.Fields[model.FieldPrice] = v
	}

	return result, nil
}

func putString(fields map[string]any, key string, v *string) {
	if v != nil && strings.TrimSpace(*v) != "" {
		fields[key] = strings.TrimSpace(*v)
	}
}

// cleanJSON strips markdown fences and extracts the JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// toFloat64 coerces a decoded JSON value to float64.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

package recommend

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"mindmate/internal/llmjson"
	"mindmate/internal/mood"
)

// Trend describes how mood moved across recent entries.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendSteady    Trend = "steady"
	TrendWorsening Trend = "worsening"
	TrendNoData    Trend = "no_data"
)

func validTrend(s string) bool {
	switch Trend(s) {
	case TrendImproving, TrendSteady, TrendWorsening, TrendNoData:
		return true
	}
	return false
}

const (
	maxSuggestions     = 5
	itemsPerCategory   = 3
	maxSynthesizedTips = 8
)

// Details always carries all four categories.
type Details struct {
	Books      []string `json:"books" jsonschema:"required,maxItems=3"`
	Movies     []string `json:"movies" jsonschema:"required,maxItems=3"`
	WebSeries  []string `json:"web_series" jsonschema:"required,maxItems=3"`
	Activities []string `json:"activities" jsonschema:"required,maxItems=3"`
}

func emptyDetails() Details {
	return Details{Books: []string{}, Movies: []string{}, WebSeries: []string{}, Activities: []string{}}
}

func (d Details) flatten(max int) []string {
	out := make([]string, 0, max)
	for _, group := range [][]string{d.Books, d.Movies, d.WebSeries, d.Activities} {
		for _, item := range group {
			if len(out) == max {
				return out
			}
			out = append(out, item)
		}
	}
	return out
}

// Bundle is the recommendation payload returned to clients.
type Bundle struct {
	Mood        mood.Mood `json:"mood" jsonschema:"required,enum=happy,enum=sad,enum=stressed,enum=depressed"`
	Trend       Trend     `json:"trend" jsonschema:"required,enum=improving,enum=steady,enum=worsening,enum=no_data"`
	Suggestions []string  `json:"suggestions" jsonschema:"required,maxItems=5" jsonschema_description:"Short actionable suggestions"`
	Quote       *string   `json:"quote" jsonschema_description:"One short motivational quote"`
	Details     Details   `json:"details" jsonschema:"required"`
}

// ensureSuggestions fills empty suggestions from the detail lists.
func (b *Bundle) ensureSuggestions() {
	if len(b.Suggestions) == 0 {
		b.Suggestions = b.Details.flatten(maxSynthesizedTips)
	}
}

func schemaJSON() string {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	schema := reflector.Reflect(&Bundle{})
	b, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

// fromObject normalizes a decoded model object. Invalid mood or trend values
// fall back to the supplied defaults.
func fromObject(obj map[string]any, defMood mood.Mood, defTrend Trend) Bundle {
	b := Bundle{Mood: defMood, Trend: defTrend, Details: emptyDetails()}
	if s, ok := llmjson.String(obj["mood"]); ok && mood.Valid(s) {
		b.Mood = mood.Mood(s)
	}
	if s, ok := llmjson.String(obj["trend"]); ok && validTrend(s) {
		b.Trend = Trend(s)
	}
	b.Suggestions = llmjson.Strings(obj["suggestions"], maxSuggestions)
	if q, ok := llmjson.String(obj["quote"]); ok {
		b.Quote = &q
	}
	if d, ok := obj["details"].(map[string]any); ok {
		b.Details = Details{
			Books:      llmjson.Strings(d["books"], itemsPerCategory),
			Movies:     llmjson.Strings(d["movies"], itemsPerCategory),
			WebSeries:  llmjson.Strings(d["web_series"], itemsPerCategory),
			Activities: llmjson.Strings(d["activities"], itemsPerCategory),
		}
	}
	b.ensureSuggestions()
	return b
}

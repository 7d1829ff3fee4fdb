package mood

import "strings"

// Mood is the coarse label derived from a polarity score.
type Mood string

const (
	Happy     Mood = "happy"
	Sad       Mood = "sad"
	Stressed  Mood = "stressed"
	Depressed Mood = "depressed"
)

// Depression cut-offs differ per call site and are kept apart on purpose.
const (
	// TrendDepressedThreshold is used by the recommendation paths.
	TrendDepressedThreshold = -0.5
	// EntryDepressedThreshold is used when a single entry is analyzed.
	EntryDepressedThreshold = -0.6

	sadThreshold      = -0.25
	happyThreshold    = 0.25
	escalateThreshold = -0.65
)

// EscalationKeywords trigger escalation regardless of the score.
var EscalationKeywords = []string{
	"suicide",
	"kill myself",
	"end my life",
	"i want to die",
	"hurt myself",
	"die by suicide",
	"self harm",
	"want to die",
}

// Assessment is the result of analyzing one piece of text.
type Assessment struct {
	Mood     Mood    `json:"mood"`
	Score    float64 `json:"score"`
	Escalate bool    `json:"escalate"`
	Reason   string  `json:"reason"`
}

// Classify maps a score in [-1, 1] to a mood. First match wins.
func Classify(score, depressedAt float64) Mood {
	switch {
	case score <= depressedAt:
		return Depressed
	case score <= sadThreshold:
		return Sad
	case score >= happyThreshold:
		return Happy
	default:
		return Stressed
	}
}

// Escalation reports whether text needs human follow-up. Both checks run;
// a keyword match overwrites the sentiment reason.
func Escalation(score float64, text string) (bool, string) {
	escalate, reason := false, ""
	if score <= escalateThreshold {
		escalate, reason = true, "very negative sentiment"
	}
	lowered := strings.ToLower(text)
	for _, kw := range EscalationKeywords {
		if strings.Contains(lowered, kw) {
			escalate, reason = true, "contains keyword: "+kw
		}
	}
	return escalate, reason
}

// Valid reports whether s names one of the four moods.
func Valid(s string) bool {
	switch Mood(s) {
	case Happy, Sad, Stressed, Depressed:
		return true
	}
	return false
}

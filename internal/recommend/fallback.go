package recommend

import "mindmate/internal/mood"

type fallbackTable struct {
	suggestions []string
	quote       string
	details     Details
}

var happyTable = fallbackTable{
	suggestions: []string{
		"Share your good mood with a friend",
		"Write down what made today great",
		"Try a new hobby while your energy is high",
		"Go for a walk and enjoy the outdoors",
		"Listen to an upbeat playlist",
	},
	quote: "Happiness is not something ready made. It comes from your own actions.",
	details: Details{
		Books:      []string{"Atomic Habits", "The Happiness Project", "Big Magic"},
		Movies:     []string{"The Secret Life of Walter Mitty", "Paddington 2", "Chef"},
		WebSeries:  []string{"Ted Lasso", "Parks and Recreation", "Brooklyn Nine-Nine"},
		Activities: []string{"Dance to your favourite song", "Cook something new", "Plan a weekend trip"},
	},
}

var lowTable = fallbackTable{
	suggestions: []string{
		"Try a 5 minute breathing exercise",
		"Write down how you feel without judging it",
		"Reach out to someone you trust",
		"Take a short walk outside",
		"Consider talking to a mental health professional",
	},
	quote: "You don't have to see the whole staircase, just take the first step.",
	details: Details{
		Books:      []string{"The Power of Now", "Reasons to Stay Alive", "The Alchemist"},
		Movies:     []string{"Inside Out", "Good Will Hunting", "The Pursuit of Happyness"},
		WebSeries:  []string{"Headspace Guide to Meditation", "Queer Eye", "After Life"},
		Activities: []string{"Guided meditation", "Gentle yoga", "Call a helpline if things feel heavy"},
	},
}

var neutralTable = fallbackTable{
	suggestions: []string{
		"Take a short walk",
		"Listen to music you enjoy",
		"Drink a glass of water and stretch",
		"Set one small goal for today",
		"Spend ten minutes away from screens",
	},
	quote: "Small steps every day add up to big changes.",
	details: Details{
		Books:      []string{"Deep Work", "The Little Prince", "Ikigai"},
		Movies:     []string{"Soul", "The Intouchables", "Little Miss Sunshine"},
		WebSeries:  []string{"Our Planet", "Abstract: The Art of Design", "Chef's Table"},
		Activities: []string{"Journaling", "A short bike ride", "Tidy up one corner of your room"},
	},
}

const genericQuote = "Every day may not be good, but there is something good in every day."

var genericSuggestions = []string{
	"Take a short walk outside",
	"Write down three things you are grateful for",
}

func tableFor(m mood.Mood) fallbackTable {
	switch m {
	case mood.Happy:
		return happyTable
	case mood.Sad, mood.Stressed, mood.Depressed:
		return lowTable
	default:
		return neutralTable
	}
}

// bundle returns a deep copy of the table.
func (t fallbackTable) bundle(m mood.Mood, trend Trend) Bundle {
	q := t.quote
	return Bundle{
		Mood:        m,
		Trend:       trend,
		Suggestions: append([]string(nil), t.suggestions...),
		Quote:       &q,
		Details: Details{
			Books:      append([]string(nil), t.details.Books...),
			Movies:     append([]string(nil), t.details.Movies...),
			WebSeries:  append([]string(nil), t.details.WebSeries...),
			Activities: append([]string(nil), t.details.Activities...),
		},
	}
}

func genericBundle(m mood.Mood, trend Trend) Bundle {
	q := genericQuote
	return Bundle{
		Mood:        m,
		Trend:       trend,
		Suggestions: append([]string(nil), genericSuggestions...),
		Quote:       &q,
		Details:     emptyDetails(),
	}
}

package mood

import "github.com/jonreiter/govader"

// Scorer produces a polarity score in [-1, 1] for free text.
type Scorer interface {
	Polarity(text string) float64
}

// VaderScorer scores text with the VADER lexicon and returns the compound score.
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (v *VaderScorer) Polarity(text string) float64 {
	return clamp(v.analyzer.PolarityScores(text).Compound)
}

// Analyzer combines a Scorer with the rule-based classifier.
type Analyzer struct {
	scorer Scorer
}

func NewAnalyzer(scorer Scorer) *Analyzer {
	if scorer == nil {
		scorer = NewVaderScorer()
	}
	return &Analyzer{scorer: scorer}
}

// Assess analyzes a single entry: entry threshold plus escalation.
func (a *Analyzer) Assess(text string) Assessment {
	score := clamp(a.scorer.Polarity(text))
	escalate, reason := Escalation(score, text)
	return Assessment{
		Mood:     Classify(score, EntryDepressedThreshold),
		Score:    score,
		Escalate: escalate,
		Reason:   reason,
	}
}

// MoodOf classifies text with the threshold used by recommendations.
func (a *Analyzer) MoodOf(text string) (Mood, float64) {
	score := clamp(a.scorer.Polarity(text))
	return Classify(score, TrendDepressedThreshold), score
}

func clamp(s float64) float64 {
	if s < -1 {
		return -1
	}
	if s > 1 {
		return 1
	}
	return s
}

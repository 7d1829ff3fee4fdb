// Package recommend builds mood-aware suggestion bundles from a user's
// journal with the help of a generative model.
package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"mindmate/internal/llm"
	"mindmate/internal/llmjson"
	"mindmate/internal/mood"
	"mindmate/internal/storage"
)

const (
	DefaultMaxEntries = 12
	MaxEntriesCap     = 50

	promptEntries   = 6
	entryCharBudget = 800
)

// Journals is the read side of the journal service.
type Journals interface {
	Entries(ctx context.Context, userID string, limit int) ([]storage.Entry, error)
}

type Engine struct {
	journals Journals
	analyzer *mood.Analyzer
	llm      llm.Client
	logger   *slog.Logger

	schemaOnce sync.Once
	schema     string
}

func NewEngine(journals Journals, analyzer *mood.Analyzer, client llm.Client, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if analyzer == nil {
		analyzer = mood.NewAnalyzer(nil)
	}
	return &Engine{journals: journals, analyzer: analyzer, llm: client, logger: logger}
}

// FromJournals recommends from up to maxEntries recent entries and asks the
// model to infer the trend. It never fails; see genericBundle.
func (e *Engine) FromJournals(ctx context.Context, userID string, maxEntries int) Bundle {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if maxEntries > MaxEntriesCap {
		maxEntries = MaxEntriesCap
	}
	entries := e.recent(ctx, userID, maxEntries)

	var (
		m      = mood.Happy
		trend  = TrendNoData
		prompt string
	)
	if len(entries) == 0 {
		prompt = e.newUserPrompt()
	} else {
		var score float64
		m, score = e.analyzer.MoodOf(entries[0].Text)
		trend = TrendSteady
		prompt = e.historyPrompt(m, score, entries)
	}

	obj, ok := e.ask(ctx, userID, prompt)
	if !ok {
		return genericBundle(m, trend)
	}
	return fromObject(obj, m, trend)
}

// Recommend bases the bundle on the latest entry only. Any client supplied
// mood is ignored.
func (e *Engine) Recommend(ctx context.Context, userID string) Bundle {
	var (
		m      = mood.Happy
		trend  = TrendNoData
		prompt string
	)
	entries := e.recent(ctx, userID, 1)
	if len(entries) == 0 {
		prompt = e.newUserPrompt()
	} else {
		var score float64
		m, score = e.analyzer.MoodOf(entries[0].Text)
		trend = TrendSteady
		prompt = e.historyPrompt(m, score, entries)
	}

	obj, ok := e.ask(ctx, userID, prompt)
	if !ok {
		b := tableFor(m).bundle(m, trend)
		b.ensureSuggestions()
		return b
	}
	b := fromObject(obj, m, trend)
	// The mood always comes from the classifier, never from the model.
	b.Mood = m
	return b
}

// recent treats a missing user or a failing store as an empty history.
func (e *Engine) recent(ctx context.Context, userID string, limit int) []storage.Entry {
	if strings.TrimSpace(userID) == "" || e.journals == nil {
		return nil
	}
	entries, err := e.journals.Entries(ctx, userID, limit)
	if err != nil {
		e.logger.WarnContext(ctx, "journal lookup failed, recommending without history", "user_id", userID, "error", err)
		return nil
	}
	return entries
}

func (e *Engine) ask(ctx context.Context, userID, prompt string) (map[string]any, bool) {
	resp, err := e.llm.Generate(ctx, llm.Prompt(systemPrompt, prompt))
	if err != nil {
		e.logger.ErrorContext(ctx, "recommendation generation failed", "user_id", userID, "error", err)
		return nil, false
	}
	obj, ok := llmjson.ExtractObject(resp.Content)
	if !ok {
		e.logger.WarnContext(ctx, "model reply carried no JSON object", "user_id", userID, "chars", len(resp.Content))
	}
	return obj, ok
}

const systemPrompt = "You are a caring wellbeing assistant. You recommend books, movies, web series " +
	"and activities that fit the user's mood. You always answer with a single JSON object and nothing else."

func (e *Engine) schemaText() string {
	e.schemaOnce.Do(func() { e.schema = schemaJSON() })
	return e.schema
}

func (e *Engine) newUserPrompt() string {
	var b strings.Builder
	b.WriteString("The user is new and has not written any journal entries yet.\n")
	b.WriteString("Recommend uplifting, general wellbeing ideas.\n\n")
	b.WriteString("Respond with a JSON object matching this schema:\n")
	b.WriteString(e.schemaText())
	b.WriteString("\n\nRules:\n")
	b.WriteString(`- "mood" must be "happy" and "trend" must be "no_data".` + "\n")
	b.WriteString("- Give exactly 5 suggestions and one short motivational quote.\n")
	b.WriteString("- Give exactly 3 items for each of books, movies, web_series and activities.\n")
	return b.String()
}

func (e *Engine) historyPrompt(m mood.Mood, score float64, entries []storage.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sentiment score of the latest journal entry: %.2f (mood: %s).\n", score, m)
	b.WriteString("Recent journal entries, newest first:\n")
	for i, entry := range entries {
		if i == promptEntries {
			break
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, truncate(entry.Text, entryCharBudget))
	}
	b.WriteString("\nRespond with a JSON object matching this schema:\n")
	b.WriteString(e.schemaText())
	b.WriteString("\n\nRules:\n")
	fmt.Fprintf(&b, "- \"mood\" should be %q unless the entries clearly say otherwise.\n", m)
	b.WriteString(`- Infer "trend" across the entries as one of "improving", "steady" or "worsening".` + "\n")
	b.WriteString("- Give exactly 5 suggestions that fit this mood and one short motivational quote.\n")
	b.WriteString("- Give exactly 3 items for each of books, movies, web_series and activities.\n")
	return b.String()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

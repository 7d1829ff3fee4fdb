package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"mindmate/internal/analytics"
	"mindmate/internal/journal"
	"mindmate/internal/mood"
	"mindmate/internal/recommend"
)

type AddJournalParams struct {
	UserID  string `json:"user_id" mcp:"owner of the entry"`
	Journal string `json:"journal" mcp:"journal text"`
}

type GetJournalParams struct {
	UserID string `json:"user_id" mcp:"owner of the entries"`
	Limit  int    `json:"limit,omitempty" mcp:"maximum number of entries (default: all)"`
}

type AnalyzeJournalParams struct {
	Journal string `json:"journal,omitempty" mcp:"text to analyze"`
	UserID  string `json:"user_id,omitempty" mcp:"analyze this user's latest entry when journal is empty"`
}

type RecommendParams struct {
	UserID     string `json:"user_id" mcp:"user to recommend for"`
	MaxEntries int    `json:"max_entries,omitempty" mcp:"recent entries to consider (default: 12, max: 50); 0 uses only the latest entry"`
}

type MoodStatsParams struct {
	UserID string `json:"user_id" mcp:"user to report on"`
	Days   int    `json:"days,omitempty" mcp:"report window in days (default: 7, max: 90)"`
}

type journalTools struct {
	journals    *journal.Service
	analyzer    *mood.Analyzer
	recommender *recommend.Engine
	stats       *analytics.Service
}

func textResult(text string, meta map[string]interface{}) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		Meta:    meta,
	}
}

func errorResult(text string) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func (t *journalTools) AddJournal(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[AddJournalParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	entry, err := t.journals.Append(ctx, args.UserID, args.Journal)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult("Journal saved!", map[string]interface{}{"id": entry.ID}), nil
}

func (t *journalTools) GetJournal(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[GetJournalParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	views, err := t.journals.List(ctx, args.UserID, args.Limit)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	if len(views) == 0 {
		return textResult(fmt.Sprintf("No journal entries for %s", args.UserID), map[string]interface{}{"journals": views}), nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d journal entries for %s:\n\n", len(views), args.UserID)
	for i, v := range views {
		fmt.Fprintf(&sb, "%d. [%d] %s\n", i+1, v.Timestamp, v.Journal)
	}
	return textResult(sb.String(), map[string]interface{}{"journals": views}), nil
}

func (t *journalTools) AnalyzeJournal(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[AnalyzeJournalParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	text := strings.TrimSpace(args.Journal)
	if text == "" && args.UserID != "" {
		latest, ok, err := t.journals.Latest(ctx, args.UserID)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		if ok {
			text = latest.Text
		}
	}
	if text == "" {
		return errorResult("Missing journal text"), nil
	}
	a := t.analyzer.Assess(text)
	summary := fmt.Sprintf("mood=%s score=%.3f escalate=%t", a.Mood, a.Score, a.Escalate)
	if a.Reason != "" {
		summary += " reason=" + a.Reason
	}
	return textResult(summary, map[string]interface{}{"assessment": a}), nil
}

func (t *journalTools) Recommend(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[RecommendParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	var b recommend.Bundle
	if args.MaxEntries > 0 {
		if strings.TrimSpace(args.UserID) == "" {
			return errorResult("Missing user_id"), nil
		}
		b = t.recommender.FromJournals(ctx, args.UserID, args.MaxEntries)
	} else {
		b = t.recommender.Recommend(ctx, args.UserID)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "mood=%s trend=%s\n", b.Mood, b.Trend)
	for _, s := range b.Suggestions {
		sb.WriteString("- " + s + "\n")
	}
	if b.Quote != nil {
		sb.WriteString("\n" + *b.Quote)
	}
	return textResult(strings.TrimSpace(sb.String()), map[string]interface{}{"bundle": b}), nil
}

func (t *journalTools) MoodStats(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[MoodStatsParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	if strings.TrimSpace(args.UserID) == "" {
		return errorResult("Missing user_id"), nil
	}
	report, err := t.stats.Report(ctx, args.UserID, args.Days)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(report.Summary(), map[string]interface{}{"report": report}), nil
}

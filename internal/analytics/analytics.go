// Package analytics aggregates a user's journal into per-day mood statistics.
package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"mindmate/internal/mood"
	"mindmate/internal/storage"
)

// DefaultDays is the report window when the caller does not pick one.
const DefaultDays = 7

// MaxDays caps the report window.
const MaxDays = 90

// DailyStats summarizes the entries written on one UTC day.
type DailyStats struct {
	Date         string            `json:"date"`
	Entries      int               `json:"entries"`
	AverageScore float64           `json:"average_score"`
	Moods        map[mood.Mood]int `json:"moods"`
	Escalations  int               `json:"escalations"`
}

// Report covers the last Days days of one user's journal, oldest day first.
// Days without entries are omitted.
type Report struct {
	UserID       string       `json:"user_id"`
	Days         int          `json:"days"`
	TotalEntries int          `json:"total_entries"`
	AverageScore float64      `json:"average_score"`
	Dominant     mood.Mood    `json:"dominant_mood,omitempty"`
	Escalations  int          `json:"escalations"`
	Daily        []DailyStats `json:"daily"`
}

// Journals is the read side of the journal service.
type Journals interface {
	Entries(ctx context.Context, userID string, limit int) ([]storage.Entry, error)
}

// Service builds reports from stored entries.
type Service struct {
	journals Journals
	analyzer *mood.Analyzer
	now      func() time.Time
}

func NewService(journals Journals, analyzer *mood.Analyzer) *Service {
	return &Service{journals: journals, analyzer: analyzer, now: time.Now}
}

// Report fails only when the store does.
func (s *Service) Report(ctx context.Context, userID string, days int) (*Report, error) {
	entries, err := s.journals.Entries(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	return Build(userID, entries, s.analyzer, days, s.now()), nil
}

// ClampDays maps a requested window to [1, MaxDays]; zero or negative means
// DefaultDays.
func ClampDays(days int) int {
	switch {
	case days <= 0:
		return DefaultDays
	case days > MaxDays:
		return MaxDays
	}
	return days
}

// Build scores every entry written in the window ending at now.
func Build(userID string, entries []storage.Entry, a *mood.Analyzer, days int, now time.Time) *Report {
	days = ClampDays(days)
	end := now.UTC()
	start := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(days - 1))

	r := &Report{UserID: userID, Days: days, Daily: []DailyStats{}}
	byDay := make(map[string]*DailyStats)
	sums := make(map[string]float64)
	totals := make(map[mood.Mood]int)
	var total float64

	for _, e := range entries {
		ts := e.CreatedAt.UTC()
		if ts.Before(start) || ts.After(end) {
			continue
		}
		date := ts.Format("2006-01-02")
		day, ok := byDay[date]
		if !ok {
			day = &DailyStats{Date: date, Moods: make(map[mood.Mood]int)}
			byDay[date] = day
		}

		as := a.Assess(e.Text)
		day.Entries++
		day.Moods[as.Mood]++
		sums[date] += as.Score
		totals[as.Mood]++
		total += as.Score
		r.TotalEntries++
		if as.Escalate {
			day.Escalations++
			r.Escalations++
		}
	}

	for date, day := range byDay {
		day.AverageScore = round(sums[date] / float64(day.Entries))
		r.Daily = append(r.Daily, *day)
	}
	sort.Slice(r.Daily, func(i, j int) bool { return r.Daily[i].Date < r.Daily[j].Date })

	if r.TotalEntries > 0 {
		r.AverageScore = round(total / float64(r.TotalEntries))
		r.Dominant = dominant(totals)
	}
	return r
}

// severity orders moods from the most to the least concerning.
var severity = []mood.Mood{mood.Depressed, mood.Sad, mood.Stressed, mood.Happy}

// dominant picks the most frequent mood. Ties go to the more concerning one.
func dominant(counts map[mood.Mood]int) mood.Mood {
	var best mood.Mood
	bestN := 0
	for _, m := range severity {
		if n := counts[m]; n > bestN {
			best, bestN = m, n
		}
	}
	return best
}

func round(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Summary renders the report as a short human readable text.
func (r *Report) Summary() string {
	if r.TotalEntries == 0 {
		return fmt.Sprintf("No journal entries in the last %d days.", r.Days)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Last %d days: %d entries, mostly %s (average score %.2f).\n", r.Days, r.TotalEntries, r.Dominant, r.AverageScore)
	for _, d := range r.Daily {
		fmt.Fprintf(&sb, "%s: %d entries, score %.2f", d.Date, d.Entries, d.AverageScore)
		if d.Escalations > 0 {
			fmt.Fprintf(&sb, ", %d flagged", d.Escalations)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

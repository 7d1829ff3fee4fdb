package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mindmate/internal/conversation"
	"mindmate/internal/journal"
	"mindmate/internal/recommend"
)

const helpText = "Hi! I'm MindMate.\n\n" +
	"Just write to me, or send a voice note, and I'll answer.\n" +
	"/journal <text> saves a journal entry\n" +
	"/mood analyzes your latest entry\n" +
	"/recommend suggests books, movies and activities\n" +
	"/stats [days] shows your mood over the last days\n" +
	"/reset starts a fresh conversation"

const crisisText = "It sounds like you are going through a lot. Please reach out to someone you trust or a local helpline right now."

func (b *Bot) handleCommand(ctx context.Context, uid string, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start", "help":
		b.sendMessage(msg.Chat.ID, helpText)
	case "journal":
		b.handleJournal(ctx, uid, msg)
	case "mood":
		b.handleMood(ctx, uid, msg)
	case "recommend":
		bundle := b.recommender.Recommend(ctx, uid)
		b.sendMessage(msg.Chat.ID, formatBundle(bundle))
	case "reset":
		b.chat.Reset(uid)
		b.sendMessage(msg.Chat.ID, "Conversation cleared. Let's start fresh.")
	case "stats":
		b.handleStats(ctx, uid, msg)
	default:
		b.sendMessage(msg.Chat.ID, "Unknown command. Try /help")
	}
}

func (b *Bot) handleJournal(ctx context.Context, uid string, msg *tgbotapi.Message) {
	_, err := b.journals.Append(ctx, uid, msg.CommandArguments())
	switch {
	case errors.Is(err, journal.ErrValidation):
		b.sendMessage(msg.Chat.ID, "Usage: /journal <text>")
	case err != nil:
		b.sendMessage(msg.Chat.ID, "Sorry, I couldn't save your journal.")
	default:
		b.sendMessage(msg.Chat.ID, "Journal saved!")
	}
}

func (b *Bot) handleMood(ctx context.Context, uid string, msg *tgbotapi.Message) {
	latest, ok, err := b.journals.Latest(ctx, uid)
	if err != nil {
		b.sendMessage(msg.Chat.ID, "Sorry, I couldn't read your journal.")
		return
	}
	if !ok {
		b.sendMessage(msg.Chat.ID, "No journal entries yet. Add one with /journal <text>")
		return
	}
	a := b.analyzer.Assess(latest.Text)
	text := fmt.Sprintf("Mood: %s (score %.2f)", a.Mood, a.Score)
	if a.Escalate {
		text += "\n\n" + crisisText
	}
	b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) handleStats(ctx context.Context, uid string, msg *tgbotapi.Message) {
	days, _ := strconv.Atoi(strings.TrimSpace(msg.CommandArguments()))
	report, err := b.stats.Report(ctx, uid, days)
	if err != nil {
		b.sendMessage(msg.Chat.ID, "Sorry, I couldn't read your journal.")
		return
	}
	b.sendMessage(msg.Chat.ID, report.Summary())
}

func (b *Bot) handleVoice(ctx context.Context, uid string, msg *tgbotapi.Message) {
	file, err := b.s.GetFile(tgbotapi.FileConfig{FileID: msg.Voice.FileID})
	if err != nil {
		b.logger.ErrorContext(ctx, "failed to resolve voice file", "user_id", uid, "error", err)
		b.sendMessage(msg.Chat.ID, conversation.ReplyUnrecognized)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.fileURL(file), nil)
	if err != nil {
		b.sendMessage(msg.Chat.ID, conversation.ReplyUnrecognized)
		return
	}
	resp, err := b.http.Do(req)
	if err != nil {
		b.logger.ErrorContext(ctx, "failed to download voice file", "user_id", uid, "error", err)
		b.sendMessage(msg.Chat.ID, conversation.ReplyUnrecognized)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b.logger.ErrorContext(ctx, "voice download rejected", "user_id", uid, "status", resp.StatusCode)
		b.sendMessage(msg.Chat.ID, conversation.ReplyUnrecognized)
		return
	}

	b.sendMessage(msg.Chat.ID, b.chat.ReplyVoice(ctx, uid, resp.Body, "voice.ogg"))
}

func formatBundle(bundle recommend.Bundle) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Mood: %s, trend: %s\n", bundle.Mood, bundle.Trend)
	if len(bundle.Suggestions) > 0 {
		sb.WriteString("\nSuggestions:\n")
		for _, s := range bundle.Suggestions {
			sb.WriteString("• " + s + "\n")
		}
	}
	if bundle.Quote != nil {
		fmt.Fprintf(&sb, "\n“%s”\n", *bundle.Quote)
	}
	for _, row := range []struct {
		title string
		items []string
	}{
		{"Books", bundle.Details.Books},
		{"Movies", bundle.Details.Movies},
		{"Web series", bundle.Details.WebSeries},
		{"Activities", bundle.Details.Activities},
	} {
		if len(row.items) > 0 {
			fmt.Fprintf(&sb, "\n%s: %s", row.title, strings.Join(row.items, ", "))
		}
	}
	return strings.TrimSpace(sb.String())
}

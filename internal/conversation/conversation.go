// Package conversation produces supportive chat replies from text or voice.
package conversation

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"mindmate/internal/history"
	"mindmate/internal/llm"
	"mindmate/internal/speech"
)

const systemPrompt = "You are a friendly chatbot that detects the user's mood from their messages " +
	"and responds in a supportive, empathetic, and friendly tone."

const (
	ReplyFailed       = "Sorry, I couldn't process your message."
	ReplyEmpty        = "Sorry, I couldn't generate a reply."
	ReplyUnrecognized = "Sorry, I couldn't understand your voice."
)

type Handler struct {
	llm      llm.Client
	stt      speech.Transcriber
	sessions *history.Store
	logger   *slog.Logger
}

// NewHandler wires the collaborators. sessions may be nil for stateless chat.
func NewHandler(client llm.Client, stt speech.Transcriber, sessions *history.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{llm: client, stt: stt, sessions: sessions, logger: logger}
}

// Reply answers a text message. It never fails; upstream problems become a
// fixed apology.
func (h *Handler) Reply(ctx context.Context, userID, message string) string {
	resp, err := h.llm.Generate(ctx, llm.Prompt(systemPrompt, h.render(userID, message)))
	if err != nil {
		h.logger.ErrorContext(ctx, "chat generation failed", "user_id", userID, "error", err)
		return ReplyFailed
	}
	reply := resp.Content
	if strings.TrimSpace(reply) == "" {
		return ReplyEmpty
	}
	h.sessions.Append(userID, history.Turn{User: message, Bot: reply})
	return reply
}

// Reset starts a fresh conversation for the user.
func (h *Handler) Reset(userID string) {
	h.sessions.Reset(userID)
}

// ReplyVoice transcribes audio and answers the transcript.
func (h *Handler) ReplyVoice(ctx context.Context, userID string, audio io.Reader, filename string) string {
	if h.stt == nil {
		h.logger.WarnContext(ctx, "voice message without a transcriber", "user_id", userID)
		return ReplyUnrecognized
	}
	text, err := h.stt.Transcribe(ctx, audio, filename)
	if err != nil {
		h.logger.WarnContext(ctx, "transcription failed", "user_id", userID, "error", err)
		return ReplyUnrecognized
	}
	if strings.TrimSpace(text) == "" {
		return ReplyUnrecognized
	}
	h.logger.DebugContext(ctx, "voice transcribed", "user_id", userID, "chars", len(text))
	return h.Reply(ctx, userID, text)
}

func (h *Handler) render(userID, message string) string {
	var b strings.Builder
	for _, t := range h.sessions.Get(userID) {
		b.WriteString("User: ")
		b.WriteString(t.User)
		b.WriteString("\nBot: ")
		b.WriteString(t.Bot)
		b.WriteString("\n")
	}
	b.WriteString("User: ")
	b.WriteString(message)
	b.WriteString("\nBot:")
	return b.String()
}

package conversation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindmate/internal/history"
	"mindmate/internal/llm"
	"mindmate/internal/speech"
)

type fakeLLM struct {
	reply string
	err   error
	seen  [][]llm.Message
}

func (f *fakeLLM) Generate(_ context.Context, msgs []llm.Message) (llm.Response, error) {
	f.seen = append(f.seen, msgs)
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Content: f.reply, Model: "fake"}, nil
}

type fakeSTT struct {
	text string
	err  error
	got  string
}

func (f *fakeSTT) Transcribe(_ context.Context, audio io.Reader, _ string) (string, error) {
	b, _ := io.ReadAll(audio)
	f.got = string(b)
	return f.text, f.err
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestReplyPromptShape(t *testing.T) {
	m := &fakeLLM{reply: "  I'm glad to hear that!  "}
	h := NewHandler(m, nil, nil, quiet())

	got := h.Reply(context.Background(), "u1", "I got the job")
	assert.Equal(t, "  I'm glad to hear that!  ", got)

	require.Len(t, m.seen, 1)
	msgs := m.seen[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "supportive")
	assert.Equal(t, "User: I got the job\nBot:", msgs[1].Content)
}

func TestReplyDegrades(t *testing.T) {
	h := NewHandler(&fakeLLM{err: errors.New("quota")}, nil, nil, quiet())
	assert.Equal(t, ReplyFailed, h.Reply(context.Background(), "u1", "hi"))

	h = NewHandler(&fakeLLM{reply: "   "}, nil, nil, quiet())
	assert.Equal(t, ReplyEmpty, h.Reply(context.Background(), "u1", "hi"))
}

func TestReplyWithHistory(t *testing.T) {
	m := &fakeLLM{reply: "ok"}
	sessions := history.NewStore(2, time.Hour)
	h := NewHandler(m, nil, sessions, quiet())
	ctx := context.Background()

	h.Reply(ctx, "u1", "one")
	h.Reply(ctx, "u1", "two")
	h.Reply(ctx, "u1", "three")

	last := m.seen[2][1].Content
	assert.Equal(t, "User: one\nBot: ok\nUser: two\nBot: ok\nUser: three\nBot:", last)
	assert.Len(t, sessions.Get("u1"), 2)

	h.Reply(ctx, "u2", "fresh")
	assert.Equal(t, "User: fresh\nBot:", m.seen[3][1].Content)
}

func TestResetForgetsConversation(t *testing.T) {
	m := &fakeLLM{reply: "ok"}
	sessions := history.NewStore(5, time.Hour)
	h := NewHandler(m, nil, sessions, quiet())
	ctx := context.Background()

	h.Reply(ctx, "u1", "one")
	h.Reset("u1")
	h.Reply(ctx, "u1", "two")
	assert.Equal(t, "User: two\nBot:", m.seen[1][1].Content)

	NewHandler(m, nil, nil, quiet()).Reset("u1")
}

func TestFailedReplyIsNotRecorded(t *testing.T) {
	sessions := history.NewStore(5, time.Hour)
	h := NewHandler(&fakeLLM{err: errors.New("down")}, nil, sessions, quiet())
	h.Reply(context.Background(), "u1", "hello")
	assert.Empty(t, sessions.Get("u1"))
}

func TestReplyVoice(t *testing.T) {
	ctx := context.Background()
	m := &fakeLLM{reply: "That sounds hard."}
	stt := &fakeSTT{text: "I had a rough day"}
	h := NewHandler(m, stt, nil, quiet())

	got := h.ReplyVoice(ctx, "u1", strings.NewReader("RIFF...."), "note.wav")
	assert.Equal(t, "That sounds hard.", got)
	assert.Equal(t, "RIFF....", stt.got)
	assert.Equal(t, "User: I had a rough day\nBot:", m.seen[0][1].Content)
}

func TestReplyVoiceFailures(t *testing.T) {
	ctx := context.Background()
	m := &fakeLLM{reply: "unused"}

	for name, stt := range map[string]speech.Transcriber{
		"error":    &fakeSTT{err: speech.ErrNoSpeech},
		"empty":    &fakeSTT{text: "  "},
		"disabled": nil,
	} {
		t.Run(name, func(t *testing.T) {
			h := NewHandler(m, stt, nil, quiet())
			assert.Equal(t, ReplyUnrecognized, h.ReplyVoice(ctx, "u1", strings.NewReader("x"), "a.wav"))
		})
	}
	assert.Empty(t, m.seen)
}

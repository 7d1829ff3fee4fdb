package telegram

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mindmate/internal/analytics"
	"mindmate/internal/conversation"
	"mindmate/internal/journal"
	"mindmate/internal/mood"
	"mindmate/internal/recommend"
)

// Deps are the services the bot forwards messages to.
type Deps struct {
	Journals    *journal.Service
	Analyzer    *mood.Analyzer
	Recommender *recommend.Engine
	Chat        *conversation.Handler
	Stats       *analytics.Service
	Logger      *slog.Logger
}

type Bot struct {
	api     *tgbotapi.BotAPI
	s       sender
	http    *http.Client
	fileURL func(tgbotapi.File) string

	journals    *journal.Service
	analyzer    *mood.Analyzer
	recommender *recommend.Engine
	chat        *conversation.Handler
	stats       *analytics.Service
	logger      *slog.Logger
}

func New(botToken string, deps Deps) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Bot{
		api:         api,
		s:           botAPISender{api: api},
		http:        http.DefaultClient,
		fileURL:     func(f tgbotapi.File) string { return f.Link(api.Token) },
		journals:    deps.Journals,
		analyzer:    deps.Analyzer,
		recommender: deps.Recommender,
		chat:        deps.Chat,
		stats:       deps.Stats,
		logger:      deps.Logger,
	}, nil
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("telegram bot started", "username", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("telegram bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				b.handleIncomingMessage(ctx, update.Message)
			}
		}
	}
}

// userID maps a Telegram account to a journal owner id.
func userID(from *tgbotapi.User) string {
	return "tg:" + strconv.FormatInt(from.ID, 10)
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	uid := userID(msg.From)
	b.logger.DebugContext(ctx, "incoming message", "user_id", uid, "chars", len(msg.Text))

	switch {
	case msg.IsCommand():
		b.handleCommand(ctx, uid, msg)
	case msg.Voice != nil:
		b.handleVoice(ctx, uid, msg)
	case msg.Text != "":
		b.sendMessage(msg.Chat.ID, b.chat.Reply(ctx, uid, msg.Text))
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.s.Send(msg); err != nil {
		b.logger.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}

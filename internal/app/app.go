// Package app assembles the services from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"

	"mindmate/internal/analytics"
	"mindmate/internal/auth"
	"mindmate/internal/config"
	"mindmate/internal/conversation"
	"mindmate/internal/history"
	"mindmate/internal/journal"
	"mindmate/internal/llm"
	"mindmate/internal/mood"
	"mindmate/internal/recommend"
	"mindmate/internal/scheduler"
	"mindmate/internal/server"
	"mindmate/internal/speech"
	"mindmate/internal/storage"
	"mindmate/internal/telegram"
)

var firebaseScopes = []string{
	"https://www.googleapis.com/auth/cloud-platform",
	"https://www.googleapis.com/auth/datastore",
	"https://www.googleapis.com/auth/firebase",
	"https://www.googleapis.com/auth/identitytoolkit",
	"https://www.googleapis.com/auth/userinfo.email",
}

type App struct {
	Config *config.Config
	Logger *slog.Logger

	Store       storage.Store
	Journals    *journal.Service
	Analyzer    *mood.Analyzer
	Recommender *recommend.Engine
	Chat        *conversation.Handler
	Stats       *analytics.Service
	Sessions    *history.Store
	Verifier    auth.Verifier

	firebase *firebase.App
}

// New builds every service. The caller must Close the app.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a.Store = store

	client, err := llm.NewFactory(cfg).CreateClient(ctx, string(cfg.LLMProvider))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("llm client: %w", err)
	}
	pool := llm.NewPool(cfg.UpstreamMaxConcurrency, cfg.UpstreamTimeout)
	limited := llm.NewLimited(client, pool)

	var transcriber speech.Transcriber
	stt, err := speech.New(cfg.STTProvider, cfg.DeepgramAPIKey, cfg.DeepgramURL, cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.WhisperModel)
	if err != nil {
		logger.Warn("voice messages disabled", "error", err)
	} else {
		transcriber = speech.NewLimited(stt, pool)
	}

	a.Journals = journal.NewService(store, logger)
	a.Analyzer = mood.NewAnalyzer(nil)
	a.Recommender = recommend.NewEngine(a.Journals, a.Analyzer, limited, logger)
	a.Stats = analytics.NewService(a.Journals, a.Analyzer)
	a.Sessions = history.NewStore(cfg.ChatHistoryTurns, cfg.ChatSessionTTL)
	a.Chat = conversation.NewHandler(limited, transcriber, a.Sessions, logger)
	a.Verifier = a.newVerifier(ctx)

	logger.Info("services ready",
		"store", cfg.StoreDriver,
		"llm", cfg.LLMProvider,
		"stt", cfg.STTProvider,
		"auth", cfg.AuthProvider,
		"chat_history_turns", cfg.ChatHistoryTurns,
	)
	return a, nil
}

func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

func (a *App) openStore(ctx context.Context) (storage.Store, error) {
	cfg := a.Config
	switch strings.ToLower(cfg.StoreDriver) {
	case "memory":
		return storage.NewMemoryStore(), nil
	case "file":
		return storage.NewFileStore(cfg.JournalFilePath)
	case "sqlite":
		return storage.NewSQLiteStore(ctx, cfg.SQLitePath)
	case "postgres":
		return storage.NewPostgresStore(ctx, cfg.DatabaseDSN)
	case "firestore":
		fb, err := a.firebaseApp(ctx)
		if err != nil {
			return nil, err
		}
		client, err := fb.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("firestore client: %w", err)
		}
		return storage.NewFirestoreStore(client, cfg.FirestoreCollection), nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.StoreDriver)
	}
}

// newVerifier returns nil when identity verification is unavailable; the
// protected route then rejects every request.
func (a *App) newVerifier(ctx context.Context) auth.Verifier {
	cfg := a.Config
	switch strings.ToLower(cfg.AuthProvider) {
	case "jwt":
		v, err := auth.NewJWTVerifier(cfg.JWTSecret)
		if err != nil {
			a.Logger.Warn("token verification disabled", "error", err)
			return nil
		}
		return v
	case "firebase":
		fb, err := a.firebaseApp(ctx)
		if err != nil {
			a.Logger.Warn("token verification disabled", "error", err)
			return nil
		}
		client, err := fb.Auth(ctx)
		if err != nil {
			a.Logger.Warn("token verification disabled", "error", err)
			return nil
		}
		return auth.NewFirebaseVerifier(client)
	default:
		a.Logger.Info("token verification disabled", "provider", cfg.AuthProvider)
		return nil
	}
}

func (a *App) firebaseApp(ctx context.Context) (*firebase.App, error) {
	if a.firebase != nil {
		return a.firebase, nil
	}
	data, err := os.ReadFile(a.Config.FirebaseCredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read firebase credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, firebaseScopes...)
	if err != nil {
		return nil, fmt.Errorf("parse firebase credentials: %w", err)
	}
	projectID := a.Config.FirebaseProjectID
	if projectID == "" {
		projectID = creds.ProjectID
	}
	fb, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	a.firebase = fb
	return fb, nil
}

// Serve runs the HTTP API, the optional Telegram bot and the session sweeper
// until ctx is cancelled, then shuts down gracefully.
func (a *App) Serve(ctx context.Context) error {
	cfg := a.Config
	srv, err := server.New(server.Deps{
		Journals:    a.Journals,
		Analyzer:    a.Analyzer,
		Recommender: a.Recommender,
		Chat:        a.Chat,
		Stats:       a.Stats,
		Verifier:    a.Verifier,
		Logger:      a.Logger,
	}, server.Options{
		CORSAllowOrigins: cfg.CORSAllowOrigins,
		RateLimitRPS:     cfg.RateLimitRPS,
		RateLimitBurst:   cfg.RateLimitBurst,
		UploadDir:        cfg.UploadDir,
	})
	if err != nil {
		return err
	}

	sched := scheduler.New(a.Logger)
	if cfg.RateLimitRPS > 0 {
		err := sched.Add("rate-limit-sweep", cfg.RateLimitSweepSchedule, func(ctx context.Context) error {
			if n := srv.SweepRateLimits(cfg.RateLimitIdleTTL); n > 0 {
				a.Logger.Debug("idle rate limiters removed", "count", n)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("rate limit sweep schedule: %w", err)
		}
	}
	if a.Sessions.Enabled() {
		err := sched.Add("chat-session-sweep", cfg.SessionSweepSchedule, func(ctx context.Context) error {
			if n := a.Sessions.Sweep(); n > 0 {
				a.Logger.Debug("expired chat sessions removed", "count", n)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("session sweep schedule: %w", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	if cfg.TelegramBotToken != "" {
		bot, err := telegram.New(cfg.TelegramBotToken, telegram.Deps{
			Journals:    a.Journals,
			Analyzer:    a.Analyzer,
			Recommender: a.Recommender,
			Chat:        a.Chat,
			Stats:       a.Stats,
			Logger:      a.Logger,
		})
		if err != nil {
			a.Logger.Error("telegram bot disabled", "error", err)
		} else {
			go bot.Start(ctx)
		}
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(cfg.HTTPAddr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.Logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"mindmate/internal/app"
	"mindmate/internal/config"
	"mindmate/internal/logger"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, lg)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer a.Close()

	tools := &journalTools{journals: a.Journals, analyzer: a.Analyzer, recommender: a.Recommender, stats: a.Stats}
	server := newServer(tools)

	lg.Info("mcp server listening on stdio", "tools", "add_journal,get_journal,analyze_journal,recommend,mood_stats")
	if err := server.Run(ctx, mcp.NewStdioTransport()); err != nil {
		lg.Error("mcp server failed", "error", err)
	}
}

func newServer(t *journalTools) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "mindmate-mcp",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_journal",
		Description: "Saves a journal entry for a user",
	}, t.AddJournal)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_journal",
		Description: "Lists a user's journal entries, newest first",
	}, t.GetJournal)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_journal",
		Description: "Classifies the mood of a text or of the user's latest entry and flags entries that need escalation",
	}, t.AnalyzeJournal)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "recommend",
		Description: "Suggests books, movies, web series and activities based on the user's recent journal",
	}, t.Recommend)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "mood_stats",
		Description: "Reports per-day mood statistics of a user's journal",
	}, t.MoodStats)
	return server
}

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderGemini LLMProvider = "gemini"
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type Config struct {
	HTTPAddr         string   `env:"HTTP_ADDR" envDefault:":5000"`
	CORSAllowOrigins []string `env:"CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"*"`
	UploadDir        string   `env:"UPLOAD_DIR" envDefault:"uploads"`
	RateLimitRPS     float64  `env:"RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst   int      `env:"RATE_LIMIT_BURST" envDefault:"20"`
	// Per-client buckets idle this long are dropped on the sweep schedule
	RateLimitIdleTTL       time.Duration `env:"RATE_LIMIT_IDLE_TTL" envDefault:"10m"`
	RateLimitSweepSchedule string        `env:"RATE_LIMIT_SWEEP_SCHEDULE" envDefault:"@every 5m"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"gemini"`
	GeminiAPIKey     string      `env:"GEMINI_API_KEY"`
	GeminiModel      string      `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Speech-to-text
	STTProvider    string `env:"STT_PROVIDER" envDefault:"deepgram"`
	DeepgramAPIKey string `env:"DEEPGRAM_API_KEY"`
	DeepgramURL    string `env:"DEEPGRAM_URL" envDefault:"https://api.deepgram.com/v1/listen"`
	WhisperModel   string `env:"WHISPER_MODEL" envDefault:"whisper-1"`

	// Upstream pool shared by the model and transcription clients
	UpstreamTimeout        time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"15s"`
	UpstreamMaxConcurrency int64         `env:"UPSTREAM_MAX_CONCURRENCY" envDefault:"8"`

	// Storage
	StoreDriver             string `env:"STORE_DRIVER" envDefault:"sqlite"`
	DatabaseDSN             string `env:"DATABASE_DSN"`
	SQLitePath              string `env:"SQLITE_PATH" envDefault:"data/mindmate.db"`
	JournalFilePath         string `env:"JOURNAL_FILE_PATH" envDefault:"data/journals.jsonl"`
	FirebaseProjectID       string `env:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsPath string `env:"FIREBASE_CREDENTIALS_PATH" envDefault:"service_account.json"`
	FirestoreCollection     string `env:"FIRESTORE_COLLECTION" envDefault:"journals"`

	// Identity
	AuthProvider string `env:"AUTH_PROVIDER" envDefault:"firebase"`
	JWTSecret    string `env:"JWT_SECRET"`

	// Chat sessions, 0 turns keeps /chat stateless
	ChatHistoryTurns     int           `env:"CHAT_HISTORY_TURNS" envDefault:"0"`
	ChatSessionTTL       time.Duration `env:"CHAT_SESSION_TTL" envDefault:"30m"`
	SessionSweepSchedule string        `env:"SESSION_SWEEP_SCHEDULE" envDefault:"@every 5m"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
}

func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

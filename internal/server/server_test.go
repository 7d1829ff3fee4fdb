package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindmate/internal/analytics"
	"mindmate/internal/auth"
	"mindmate/internal/conversation"
	"mindmate/internal/journal"
	"mindmate/internal/llm"
	"mindmate/internal/mood"
	"mindmate/internal/recommend"
	"mindmate/internal/speech"
	"mindmate/internal/storage"
)

type fakeLLM struct {
	reply string
	err   error
}

func (f *fakeLLM) Generate(context.Context, []llm.Message) (llm.Response, error) {
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Content: f.reply}, nil
}

type fakeSTT struct {
	text string
	err  error
}

func (f *fakeSTT) Transcribe(_ context.Context, audio io.Reader, _ string) (string, error) {
	_, _ = io.Copy(io.Discard, audio)
	return f.text, f.err
}

type brokenStore struct{}

func (brokenStore) Append(context.Context, storage.Entry) (storage.Entry, error) {
	return storage.Entry{}, errors.New("down")
}
func (brokenStore) List(context.Context, storage.Query) ([]storage.Entry, error) {
	return nil, errors.New("down")
}
func (brokenStore) Close() error { return nil }

type fixture struct {
	srv       *Server
	uploadDir string
	jwt       *auth.JWTVerifier
}

func newFixture(t *testing.T, store storage.Store, model llm.Client, stt *fakeSTT) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	journals := journal.NewService(store, log)
	analyzer := mood.NewAnalyzer(nil)
	verifier, err := auth.NewJWTVerifier("test-secret")
	require.NoError(t, err)
	dir := t.TempDir()
	var transcriber speech.Transcriber
	if stt != nil {
		transcriber = stt
	}

	srv, err := New(Deps{
		Journals:    journals,
		Analyzer:    analyzer,
		Recommender: recommend.NewEngine(journals, analyzer, model, log),
		Chat:        conversation.NewHandler(model, transcriber, nil, log),
		Stats:       analytics.NewService(journals, analyzer),
		Verifier:    verifier,
		Logger:      log,
	}, Options{CORSAllowOrigins: []string{"*"}, RateLimitRPS: 1000, RateLimitBurst: 1000, UploadDir: dir})
	require.NoError(t, err)
	return &fixture{srv: srv, uploadDir: dir, jwt: verifier}
}

func (f *fixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHome(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore(), &fakeLLM{}, nil)
	rec := f.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello! Your API is working.", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestJournalRoundTrip(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore(), &fakeLLM{}, nil)

	rec := f.do(t, http.MethodPost, "/add_journal", map[string]string{"user_id": "u1", "journal": "I feel wonderful today"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Journal saved!", decode(t, rec)["message"])
	f.do(t, http.MethodPost, "/add_journal", map[string]string{"user_id": "u1", "journal": "second"})

	rec = f.do(t, http.MethodGet, "/get_journal?user_id=u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	journals := decode(t, rec)["journals"].([]any)
	require.Len(t, journals, 2)
	first := journals[0].(map[string]any)
	assert.Equal(t, "second", first["journal"])
	assert.Greater(t, first["timestamp"].(float64), 0.0)

	rec = f.do(t, http.MethodGet, "/get_journal?user_id=u1&limit=1", nil)
	assert.Len(t, decode(t, rec)["journals"], 1)
}

func TestAddJournalMissingData(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore(), &fakeLLM{}, nil)
	for _, body := range []any{
		map[string]string{"user_id": "u1"},
		map[string]string{"journal": "text"},
		map[string]string{"user_id": "u1", "journal": "  "},
	} {
		rec := f.do(t, http.MethodPost, "/add_journal", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Missing data", decode(t, rec)["error"])
	}
}

func TestJournalStoreFailure(t *testing.T) {
	f := newFixture(t, brokenStore{}, &fakeLLM{}, nil)

	rec := f.do(t, http.MethodPost, "/add_journal", map[string]string{"user_id": "u1", "journal": "x"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "down")

	rec = f.do(t, http.MethodGet, "/get_journal?user_id=u1", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to fetch journals", decode(t, rec)["error"])
}

func TestGetJournalEmptyAndMissingUser(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore(), &fakeLLM{}, nil)

	rec := f.do(t, http.MethodGet, "/get_journal?user_id=nobody", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"journals":[]}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/get_journal", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeJournal(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore(), &fakeLLM{}, nil)

	rec := f.do(t, http.MethodPost, "/analyze_journal", map[string]string{"journal": "I feel wonderful today"})
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "happy", out["mood"])
	assert.Greater(t, out["score"].(float64), 0.0)
	assert.Equal(t, false, out["escalate"])

	rec = f.do(t, http.MethodPost, "/analyze_journal", map[string]string{"journal": "I want to die"})
	out = decode(t, rec)
	assert.Equal(t, true, out["escalate"])
	assert.Contains(t, out["reason"], "keyword")

	rec = f.do(t, http.MethodPost, "/analyze_journal", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing journal text", decode(t, rec)["error"])

	rec = f.do(t, http.MethodPost, "/analyze_journal", map[string]string{"user_id": "u9"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeLatestEntry(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore(), &fakeLLM{}, nil)
	f.do(t, http.MethodPost, "/add_journal", map[string]string{"user_id": "u1", "journal": "I want to die"})

	rec := f.do(t, http.MethodPost, "/analyze_journal", map[string]string{"user_id": "u1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["escalate"])
}

func TestMoodStats(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore(), &fakeLLM{}, nil)
	f.do(t, http.MethodPost, "/add_journal", map[string]string{"user_id": "u1", "journal": "I feel wonderful today"})

	rec := f.do(t, http.MethodGet, "/mood_stats?user_id=u1&days=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, 3.0, out["days"])
	assert.Equal(t, 1.0, out["total_entries"])
	assert.Len(t, out["daily"], 1)

	rec = f.do(t, http.MethodGet, "/mood_stats", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	broken := newFixture(t, brokenStore{}, &fakeLLM{}, nil)
	rec = broken.do(t, http.MethodGet, "/mood_stats?user_id=u1", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRecommendNewUser(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore(), &fakeLLM{reply: "no json here"}, nil)

	rec := f.do(t, http.MethodPost, "/recommend", map[string]string{"user_id": "new_user_with_no_journals", "mood": "sad"})
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "happy", out["mood"])
	assert.Len(t, out["suggestions"], 5)
	details := out["details"].(map[string]any)
	for _, key := range []string{"books", "movies", "web_series", "activities"} {
		assert.Len(t, details[key], 3, key)
	}
}

func TestRecommendNeverFails(t *testing.T) {
	f := newFixture(t, brokenStore{}, &fakeLLM{err: errors.New("quota")}, nil)
	rec := f.do(t, http.MethodPost, "/recommend", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["suggestions"], 5)
}

func TestRecommendFromJournals(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore(), &fakeLLM{reply: `{"mood":"happy","trend":"no_data","suggestions":["a"],"quote":"q","details":{"books":["b"]}}`}, nil)

	rec := f.do(t, http.MethodPost, "/recommend_from_journals", map[string]any{"user_id": "u1", "max_entries": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "no_data", out["trend"])
	assert.Equal(t, "q", out["quote"])
	assert.Equal(t, []any{}, out["details"].(map[string]any)["movies"])

	rec = f.do(t, http.MethodPost, "/recommend_from_journals", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore(), &fakeLLM{reply: "Glad to hear it!"}, nil)

	rec := f.do(t, http.MethodPost, "/chat", map[string]string{"user_id": "u1", "message": "hi"})
	assert.Equal(t, "Glad to hear it!", decode(t, rec)["reply"])

	rec = f.do(t, http.MethodPost, "/chat", map[string]string{"user_id": "u1"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Please enter a message.", decode(t, rec)["reply"])

	f = newFixture(t, storage.NewMemoryStore(), &fakeLLM{err: errors.New("down")}, nil)
	rec = f.do(t, http.MethodPost, "/chat", map[string]string{"user_id": "u1", "message": "hi"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, conversation.ReplyFailed, decode(t, rec)["reply"])
}

func voiceRequest(t *testing.T, userID, filename string, audio []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if userID != "" {
		require.NoError(t, w.WriteField("user_id", userID))
	}
	if filename != "" {
		part, err := w.CreateFormFile("audio", filename)
		require.NoError(t, err)
		_, err = part.Write(audio)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/voice", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestVoice(t *testing.T) {
	cases := []struct {
		name     string
		userID   string
		filename string
		stt      *fakeSTT
		want     string
	}{
		{"ok", "u1", "../../etc/note.wav", &fakeSTT{text: "hello"}, "Hi there"},
		{"missing user", "", "note.wav", &fakeSTT{text: "hello"}, "Missing user ID."},
		{"missing file", "u1", "", &fakeSTT{text: "hello"}, "No audio file uploaded."},
		{"no speech", "u1", "note.wav", &fakeSTT{err: errors.New("No speech detected.")}, conversation.ReplyUnrecognized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, storage.NewMemoryStore(), &fakeLLM{reply: "Hi there"}, tc.stt)
			rec := httptest.NewRecorder()
			f.srv.Handler().ServeHTTP(rec, voiceRequest(t, tc.userID, tc.filename, []byte("RIFF")))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.want, decode(t, rec)["reply"])

			left, err := os.ReadDir(f.uploadDir)
			require.NoError(t, err)
			assert.Empty(t, left, "uploads must be removed")
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "note.wav", sanitizeFilename("../../etc/note.wav"))
	assert.Equal(t, "my_voice.mp3", sanitizeFilename("my voice.mp3"))
	assert.Equal(t, "passwd", sanitizeFilename(`..\..\passwd`))
	assert.Equal(t, "audio", sanitizeFilename("..."))
	assert.Equal(t, "audio", sanitizeFilename(""))
}

func TestProtected(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore(), &fakeLLM{}, nil)
	token, err := f.jwt.Sign(auth.Principal{UID: "u1", Email: "a@example.com"}, jwt.RegisteredClaims{})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello, a@example.com!", decode(t, rec)["message"])

	for _, header := range []string{"", "Bearer nope", "Basic " + token} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		f.srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Unauthorized", decode(t, rec)["error"])
	}
}

func TestRateLimit(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	journals := journal.NewService(storage.NewMemoryStore(), log)
	srv, err := New(Deps{Journals: journals, Logger: log}, Options{RateLimitRPS: 0.001, RateLimitBurst: 2, UploadDir: t.TempDir()})
	require.NoError(t, err)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, http.StatusTooManyRequests}, codes)

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitSweepDropsIdleClients(t *testing.T) {
	rl := newIPRateLimiter(1, 1)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	now = now.Add(5 * time.Minute)
	assert.True(t, rl.Allow("10.0.0.2"))
	require.Equal(t, 2, rl.Len())

	assert.Equal(t, 1, rl.Sweep(time.Minute))
	assert.Equal(t, 1, rl.Len())
	assert.Equal(t, 0, rl.Sweep(time.Minute))

	disabled := newIPRateLimiter(0, 0)
	assert.True(t, disabled.Allow("10.0.0.1"))
	assert.Equal(t, 0, disabled.Len())
}

func TestCORS(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore(), &fakeLLM{}, nil)
	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost))
}

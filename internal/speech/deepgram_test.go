package speech

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeepgramTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token secret", r.Header.Get("Authorization"))
		assert.Equal(t, "audio/wav", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "RIFF", string(body))
		_, _ = w.Write([]byte(`{"results":{"channels":[{"alternatives":[{"transcript":" hello there "}]}]}}`))
	}))
	defer srv.Close()

	d := NewDeepgram("secret", srv.URL, srv.Client())
	text, err := d.Transcribe(context.Background(), strings.NewReader("RIFF"), "note.wav")
	require.NoError(t, err)
	assert.Equal(t, "hello there", text)
}

func TestDeepgramEmptyTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":{"channels":[{"alternatives":[{"transcript":""}]}]}}`))
	}))
	defer srv.Close()

	_, err := NewDeepgram("k", srv.URL, srv.Client()).Transcribe(context.Background(), strings.NewReader("x"), "a.mp3")
	assert.True(t, errors.Is(err, ErrNoSpeech))
}

func TestDeepgramErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"bad audio"}`))
	}))
	defer srv.Close()

	_, err := NewDeepgram("k", srv.URL, srv.Client()).Transcribe(context.Background(), strings.NewReader("x"), "a.mp3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad audio")
}

func TestDeepgramHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewDeepgram("k", srv.URL, srv.Client()).Transcribe(context.Background(), strings.NewReader("x"), "a.mp3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestAudioContentTypeFallback(t *testing.T) {
	assert.Equal(t, "audio/mpeg", audioContentType("blob"))
	assert.Equal(t, "audio/mpeg", audioContentType("x.txt"))
}

package speech

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"

	"mindmate/internal/llm"
)

// Whisper transcribes through an OpenAI-compatible audio endpoint.
type Whisper struct {
	client *openai.Client
	model  string
}

func NewWhisper(apiKey, baseURL, model string) *Whisper {
	if model == "" {
		model = openai.Whisper1
	}
	return &Whisper{
		client: openai.NewClientWithConfig(llm.NewOpenAIConfig(apiKey, baseURL, "", "")),
		model:  model,
	}
}

func (w *Whisper) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	if filename == "" {
		filename = "audio.mp3"
	}
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: filename,
		Reader:   audio,
	})
	if err != nil {
		return "", fmt.Errorf("whisper transcription: %w", err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}

// Package speech turns uploaded audio into text through an external service.
package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"mindmate/internal/llm"
)

// ErrNoSpeech is returned when the service answered but heard nothing.
var ErrNoSpeech = errors.New("no speech detected")

type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// New builds the transcriber named by provider.
func New(provider, deepgramKey, deepgramURL, openaiKey, openaiBaseURL, whisperModel string) (Transcriber, error) {
	switch strings.ToLower(provider) {
	case "deepgram":
		return NewDeepgram(deepgramKey, deepgramURL, nil), nil
	case "whisper":
		return NewWhisper(openaiKey, openaiBaseURL, whisperModel), nil
	default:
		return nil, fmt.Errorf("unknown stt provider: %s", provider)
	}
}

// Limited shares the upstream pool with the model clients.
type Limited struct {
	next Transcriber
	pool *llm.Pool
}

func NewLimited(next Transcriber, pool *llm.Pool) *Limited {
	return &Limited{next: next, pool: pool}
}

func (l *Limited) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	var text string
	err := l.pool.Do(ctx, func(ctx context.Context) error {
		var err error
		text, err = l.next.Transcribe(ctx, audio, filename)
		return err
	})
	return text, err
}

package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

const defaultDeepgramURL = "https://api.deepgram.com/v1/listen"

type Deepgram struct {
	apiKey string
	url    string
	http   *http.Client
}

func NewDeepgram(apiKey, url string, httpClient *http.Client) *Deepgram {
	if url == "" {
		url = defaultDeepgramURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Deepgram{apiKey: apiKey, url: url, http: httpClient}
}

type deepgramResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
	Error string `json:"error"`
}

func (d *Deepgram) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, audio)
	if err != nil {
		return "", fmt.Errorf("deepgram request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	req.Header.Set("Content-Type", audioContentType(filename))

	resp, err := d.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("deepgram call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("deepgram read: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("deepgram status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out deepgramResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("deepgram decode: %w", err)
	}
	var transcript string
	if len(out.Results.Channels) > 0 && len(out.Results.Channels[0].Alternatives) > 0 {
		transcript = strings.TrimSpace(out.Results.Channels[0].Alternatives[0].Transcript)
	}
	if transcript == "" {
		if out.Error != "" {
			return "", fmt.Errorf("deepgram error: %s", out.Error)
		}
		return "", ErrNoSpeech
	}
	return transcript, nil
}

var audioTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".webm": "audio/webm",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
}

func audioContentType(filename string) string {
	if ct, ok := audioTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "audio/mpeg"
}

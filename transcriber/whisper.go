package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"voxkey/log"
)

const requestTimeout = 60 * time.Second

// Whisper talks to an OpenAI-compatible /audio/transcriptions endpoint
// (Groq, OpenAI, any Whisper-style server).
type Whisper struct {
	apiKey string
	apiURL string
	model  string
	client *http.Client
}

func NewWhisper(apiKey, apiURL, model string) *Whisper {
	return &Whisper{
		apiKey: apiKey,
		apiURL: apiURL,
		model:  model,
		client: &http.Client{Timeout: requestTimeout},
	}
}

func (w *Whisper) Name() string { return "whisper" }

type whisperResponse struct {
	Text string `json:"text"`
}

func (w *Whisper) Transcribe(ctx context.Context, wav []byte, lang string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", otherErr("build request: %v", err)
	}
	if _, err := part.Write(wav); err != nil {
		return "", otherErr("build request: %v", err)
	}

	writer.WriteField("model", w.model)
	if lang != "" {
		writer.WriteField("language", lang)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, "POST", w.apiURL, &body)
	if err != nil {
		return "", otherErr("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := w.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", otherErr("request cancelled: %v", ctx.Err())
		}
		var uerr *url.Error
		if errors.As(err, &uerr) {
			return "", connErr(uerr.Err)
		}
		return "", connErr(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", connErr(err)
	}

	if resp.StatusCode != http.StatusOK {
		detail := apiErrorDetail(data)
		log.Errorf("transcription API error %d: %s", resp.StatusCode, detail)
		return "", apiErr(resp.StatusCode, detail)
	}

	var wResp whisperResponse
	if err := json.Unmarshal(data, &wResp); err != nil {
		return "", otherErr("response parse error: %v", err)
	}

	log.Infof("transcription done in %.2fs (%d chars)", time.Since(start).Seconds(), len(wResp.Text))
	return wResp.Text, nil
}

// apiErrorDetail pulls the human message out of an OpenAI-style error
// payload, falling back to the raw body.
func apiErrorDetail(data []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return strings.TrimSpace(string(data))
}

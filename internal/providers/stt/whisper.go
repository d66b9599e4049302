package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/yoockh/yoointerview/internal/models"
)

type whisperSegment struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	AvgLogprob float64 `json:"avg_logprob"`
}

type whisperResp struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Duration float64          `json:"duration"`
	Segments []whisperSegment `json:"segments"`
}

// Whisper calls the OpenAI audio endpoints.
type Whisper struct {
	c       *http.Client
	baseURL string
	apiKey  string
	model   string
}

func NewWhisper(baseURL, apiKey, model string) *Whisper {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "whisper-1"
	}
	return &Whisper{
		c:       &http.Client{Timeout: 120 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
	}
}

func (w *Whisper) Name() string { return "whisper:" + w.model }

func (w *Whisper) Close() error { return nil }

func (w *Whisper) Transcribe(ctx context.Context, audio Audio, language string) (*models.Transcription, error) {
	fields := map[string]string{"response_format": "verbose_json"}
	if language != "" {
		fields["language"] = language
	}
	out, err := w.post(ctx, "/audio/transcriptions", audio, fields)
	if err != nil {
		return nil, err
	}

	t := &models.Transcription{
		Text:     strings.TrimSpace(out.Text),
		Language: out.Language,
		Duration: out.Duration,
	}
	// mean avg_logprob over segments, as reported by the API
	if len(out.Segments) > 0 {
		var sum float64
		for _, s := range out.Segments {
			sum += s.AvgLogprob
		}
		c := sum / float64(len(out.Segments))
		t.Confidence = &c
	}
	return t, nil
}

func (w *Whisper) Translate(ctx context.Context, audio Audio) (*models.Transcription, error) {
	out, err := w.post(ctx, "/audio/translations", audio, map[string]string{"response_format": "verbose_json"})
	if err != nil {
		return nil, err
	}
	return &models.Transcription{
		Text:     strings.TrimSpace(out.Text),
		Language: "en",
		Duration: out.Duration,
	}, nil
}

func (w *Whisper) post(ctx context.Context, path string, audio Audio, fields map[string]string) (*whisperResp, error) {
	var b bytes.Buffer
	mw := multipart.NewWriter(&b)

	name := audio.Filename
	if name == "" {
		name = "audio" + audio.Ext
	}
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, err
	}
	if _, err = fw.Write(audio.Data); err != nil {
		return nil, err
	}
	if err = mw.WriteField("model", w.model); err != nil {
		return nil, err
	}
	for k, v := range fields {
		if err = mw.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	if err = mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+path, &b)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if w.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+w.apiKey)
	}

	resp, err := w.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("whisper %s: %s", resp.Status, string(body))
	}

	var out whisperResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("whisper decode: %w", err)
	}
	return &out, nil
}

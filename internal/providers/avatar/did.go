package avatar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yoockh/yoointerview/internal/models"
)

const DefaultSourceURL = "https://d-id-public-bucket.s3.us-west-2.amazonaws.com/alice.jpg"

type didScriptProvider struct {
	Type    string `json:"type"`
	VoiceID string `json:"voice_id"`
}

type didScript struct {
	Type     string            `json:"type"`
	Input    string            `json:"input"`
	Provider didScriptProvider `json:"provider"`
}

type didConfig struct {
	Fluent   bool    `json:"fluent"`
	PadAudio float64 `json:"pad_audio"`
}

type didTalkReq struct {
	Script    didScript `json:"script"`
	SourceURL string    `json:"source_url"`
	Config    didConfig `json:"config"`
}

type didTalkResp struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	ResultURL   string          `json:"result_url"`
	Duration    float64         `json:"duration"`
	CreatedAt   string          `json:"created_at"`
	StartedAt   string          `json:"started_at"`
	CompletedAt string          `json:"completed_at"`
	Error       json.RawMessage `json:"error"`
}

// DID is a client for the D-ID talks API.
type DID struct {
	c         *http.Client
	baseURL   string
	apiKey    string
	sourceURL string
}

// NewDID takes the key as issued ("user:password"); D-ID expects it after
// "Basic " without base64 encoding.
func NewDID(baseURL, apiKey, sourceURL string) *DID {
	if baseURL == "" {
		baseURL = "https://api.d-id.com"
	}
	if sourceURL == "" {
		sourceURL = DefaultSourceURL
	}
	return &DID{
		c:         &http.Client{Timeout: 30 * time.Second},
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    strings.TrimSpace(apiKey),
		sourceURL: sourceURL,
	}
}

func (d *DID) Submit(ctx context.Context, t Talk) (*models.AvatarJob, error) {
	if d.apiKey == "" {
		return nil, ErrNotConfigured
	}
	src := t.SourceURL
	if src == "" {
		src = d.sourceURL
	}
	body, _ := json.Marshal(didTalkReq{
		Script: didScript{
			Type:     "text",
			Input:    t.Text,
			Provider: didScriptProvider{Type: "microsoft", VoiceID: t.VoiceID},
		},
		SourceURL: src,
		Config:    didConfig{Fluent: true},
	})

	out, err := d.do(ctx, http.MethodPost, "/talks", body)
	if err != nil {
		return nil, err
	}
	job := toJob(out)
	if job.Status == "" {
		job.Status = models.AvatarCreated
	}
	return job, nil
}

func (d *DID) Poll(ctx context.Context, jobID string) (*models.AvatarJob, error) {
	if d.apiKey == "" {
		return nil, ErrNotConfigured
	}
	out, err := d.do(ctx, http.MethodGet, "/talks/"+url.PathEscape(jobID), nil)
	if err != nil {
		return nil, err
	}
	return toJob(out), nil
}

func (d *DID) do(ctx context.Context, method, path string, body []byte) (*didTalkResp, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Basic "+d.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("d-id %s: %s", resp.Status, string(b))
	}

	var out didTalkResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("d-id decode: %w", err)
	}
	return &out, nil
}

func toJob(r *didTalkResp) *models.AvatarJob {
	job := &models.AvatarJob{
		JobID:       r.ID,
		Status:      models.AvatarStatus(r.Status),
		VideoURL:    r.ResultURL,
		Duration:    r.Duration,
		CreatedAt:   parseTime(r.CreatedAt),
		StartedAt:   parseTime(r.StartedAt),
		CompletedAt: parseTime(r.CompletedAt),
	}
	if len(r.Error) > 0 && string(r.Error) != "null" {
		var s string
		if json.Unmarshal(r.Error, &s) == nil {
			job.Error = s
		} else {
			job.Error = string(r.Error)
		}
	}
	return job
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	return &t
}

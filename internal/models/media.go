package models

import "time"

type Transcription struct {
	Text       string   `json:"text"`
	Language   string   `json:"language,omitempty"`
	Duration   float64  `json:"duration,omitempty"` // seconds
	Confidence *float64 `json:"confidence,omitempty"`
	AudioPath  string   `json:"audio_path,omitempty"`
}

type AvatarStatus string

const (
	AvatarCreated  AvatarStatus = "created"
	AvatarStarted  AvatarStatus = "started"
	AvatarDone     AvatarStatus = "done"
	AvatarError    AvatarStatus = "error"
	AvatarRejected AvatarStatus = "rejected"
)

type AvatarRequest struct {
	Text        string `json:"text" binding:"required"`
	VoiceID     string `json:"voice_id"`
	PresenterID string `json:"presenter_id"`
}

type AvatarJob struct {
	JobID       string       `json:"job_id"`
	Status      AvatarStatus `json:"status"`
	VideoURL    string       `json:"video_url,omitempty"`
	Duration    float64      `json:"duration,omitempty"`
	CreatedAt   *time.Time   `json:"created_at,omitempty"`
	StartedAt   *time.Time   `json:"started_at,omitempty"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	Error       string       `json:"error,omitempty"`
}

type VoiceOption struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Gender   string `json:"gender"`
	Language string `json:"language,omitempty"`
}

type PresenterOption struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Preview string `json:"preview"`
}

package avatar

import (
	"context"
	"errors"

	"github.com/yoockh/yoointerview/internal/models"
)

var ErrNotConfigured = errors.New("avatar: provider not configured")

// Talk is one text-to-video request.
type Talk struct {
	Text      string
	VoiceID   string
	SourceURL string
}

// Generator submits video jobs and polls them. Neither call waits for the
// video to finish rendering.
type Generator interface {
	Submit(ctx context.Context, t Talk) (*models.AvatarJob, error)
	Poll(ctx context.Context, jobID string) (*models.AvatarJob, error)
}

package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/utils"
)

type AudioHandler struct {
	svc services.TranscriptionService
}

func NewAudioHandler(svc services.TranscriptionService) *AudioHandler {
	return &AudioHandler{svc: svc}
}

type TranscriptionResponse struct {
	Success           bool     `json:"success"`
	Transcription     string   `json:"transcription"`
	Language          string   `json:"language,omitempty"`
	Duration          float64  `json:"duration"`
	DurationFormatted string   `json:"duration_formatted"`
	Confidence        *float64 `json:"confidence"`
	AudioPath         string   `json:"audio_path,omitempty"`
}

func (h *AudioHandler) Transcribe(c *gin.Context) {
	in, ok := h.readUpload(c, "AudioHandler.Transcribe")
	if !ok {
		return
	}
	out, err := h.svc.Transcribe(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, transcriptionResponse(out))
}

func (h *AudioHandler) Translate(c *gin.Context) {
	in, ok := h.readUpload(c, "AudioHandler.Translate")
	if !ok {
		return
	}
	out, err := h.svc.Translate(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, transcriptionResponse(out))
}

// readUpload validates name and size from the multipart header before the
// body is read into memory.
func (h *AudioHandler) readUpload(c *gin.Context, op string) (services.AudioInput, bool) {
	fh, err := c.FormFile("audio")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "audio file is required", err))
		return services.AudioInput{}, false
	}
	if _, err := h.svc.Validate(fh.Filename, fh.Size); err != nil {
		writeError(c, err)
		return services.AudioInput{}, false
	}

	f, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "failed to read audio file", err))
		return services.AudioInput{}, false
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "failed to read audio file", err))
		return services.AudioInput{}, false
	}

	return services.AudioInput{
		Filename:  fh.Filename,
		Data:      data,
		Language:  c.PostForm("language"),
		SessionID: c.PostForm("session_id"),
	}, true
}

func transcriptionResponse(t *models.Transcription) TranscriptionResponse {
	return TranscriptionResponse{
		Success:           true,
		Transcription:     t.Text,
		Language:          t.Language,
		Duration:          t.Duration,
		DurationFormatted: utils.FormatTimestamp(t.Duration),
		Confidence:        t.Confidence,
		AudioPath:         t.AudioPath,
	}
}

package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/utils"
)

type EmotionHandler struct {
	svc        services.EmotionService
	interviews services.InterviewService
}

func NewEmotionHandler(svc services.EmotionService, interviews services.InterviewService) *EmotionHandler {
	return &EmotionHandler{svc: svc, interviews: interviews}
}

type AnalyzeBase64Request struct {
	Image     string `json:"image"`
	SessionID string `json:"session_id"`
}

func (h *EmotionHandler) Analyze(c *gin.Context) {
	const op = "EmotionHandler.Analyze"

	fh, err := c.FormFile("image")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "image file is required", err))
		return
	}
	if fh.Size > services.MaxImageBytes {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "image too large", utils.ErrInvalidInput))
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid image file", err))
		return
	}
	defer f.Close()
	img, err := io.ReadAll(f)
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid image file", err))
		return
	}

	sample, err := h.svc.Analyze(c.Request.Context(), img)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sample)
}

// AnalyzeBase64 also records the sample when session_id names a live interview.
func (h *EmotionHandler) AnalyzeBase64(c *gin.Context) {
	var req AnalyzeBase64Request
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "EmotionHandler.AnalyzeBase64", "invalid request body", err))
		return
	}

	sample, err := h.svc.AnalyzeBase64(c.Request.Context(), req.Image)
	if err != nil {
		writeError(c, err)
		return
	}
	if req.SessionID != "" && h.interviews != nil {
		sample, err = h.interviews.RecordEmotion(c.Request.Context(), req.SessionID, sample)
		if err != nil {
			writeError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, sample)
}

func (h *EmotionHandler) BatchAnalyze(c *gin.Context) {
	var frames []models.EmotionFrame
	if err := c.ShouldBindJSON(&frames); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "EmotionHandler.BatchAnalyze", "invalid request body", err))
		return
	}

	res, err := h.svc.BatchAnalyze(c.Request.Context(), frames)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *EmotionHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Health(c.Request.Context()))
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/utils"
)

type AvatarHandler struct {
	svc services.AvatarService
}

func NewAvatarHandler(svc services.AvatarService) *AvatarHandler {
	return &AvatarHandler{svc: svc}
}

func (h *AvatarHandler) Generate(c *gin.Context) {
	var req models.AvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AvatarHandler.Generate", "invalid request body", err))
		return
	}

	job, err := h.svc.Generate(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *AvatarHandler) Status(c *gin.Context) {
	job, err := h.svc.Status(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *AvatarHandler) Voices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"voices": h.svc.Voices()})
}

func (h *AvatarHandler) Presenters(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presenters": h.svc.Presenters()})
}

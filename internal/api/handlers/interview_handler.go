package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/utils"
)

const defaultDurationMinutes = 30

type InterviewHandler struct {
	svc services.InterviewService
}

func NewInterviewHandler(svc services.InterviewService) *InterviewHandler {
	return &InterviewHandler{svc: svc}
}

type StartInterviewRequest struct {
	JobRole         string `json:"job_role" binding:"required"`
	Difficulty      string `json:"difficulty"`
	DurationMinutes *int   `json:"duration_minutes"`
	CandidateName   string `json:"candidate_name"`
}

type AnswerRequest struct {
	AnswerText string `json:"answer_text" binding:"required"`
	AudioURL   string `json:"audio_url"`
}

type EndInterviewResponse struct {
	Message string                  `json:"message"`
	Summary *models.InterviewReport `json:"summary"`
}

type FollowUpResponse struct {
	SessionID   string  `json:"session_id"`
	FollowUp    *string `json:"follow_up"`
	HasFollowUp bool    `json:"has_follow_up"`
}

func (h *InterviewHandler) Start(c *gin.Context) {
	var req StartInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.Start", "invalid request body", err))
		return
	}
	duration := defaultDurationMinutes
	if req.DurationMinutes != nil {
		duration = *req.DurationMinutes
	}

	resp, err := h.svc.Start(c.Request.Context(), services.StartInput{
		JobRole:         req.JobRole,
		Difficulty:      models.Difficulty(req.Difficulty),
		DurationMinutes: duration,
		CandidateName:   req.CandidateName,
		UserID:          userID(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InterviewHandler) Answer(c *gin.Context) {
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.Answer", "invalid request body", err))
		return
	}

	resp, err := h.svc.Answer(c.Request.Context(), c.Param("session_id"), req.AnswerText)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InterviewHandler) Status(c *gin.Context) {
	st, err := h.svc.Status(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *InterviewHandler) End(c *gin.Context) {
	rep, err := h.svc.End(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, EndInterviewResponse{
		Message: "Interview ended successfully",
		Summary: rep,
	})
}

func (h *InterviewHandler) Summary(c *gin.Context) {
	rep, err := h.svc.Summary(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (h *InterviewHandler) FollowUp(c *gin.Context) {
	sessionID := c.Param("session_id")
	q, ok, err := h.svc.FollowUp(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := FollowUpResponse{SessionID: sessionID, HasFollowUp: ok}
	if ok {
		resp.FollowUp = &q
	}
	c.JSON(http.StatusOK, resp)
}

// History lists the caller's archived reports, newest first.
func (h *InterviewHandler) History(c *gin.Context) {
	uid, ok := requireUserID(c)
	if !ok {
		return
	}
	reports, err := h.svc.History(c.Request.Context(), uid, queryInt(c, "limit", 20))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports, "count": len(reports)})
}

func (h *InterviewHandler) Sessions(c *gin.Context) {
	list := h.svc.List(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"sessions": list, "count": len(list)})
}

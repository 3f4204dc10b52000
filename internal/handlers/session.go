package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ortoqbank/ortoqbank-backend/internal/platform/apierr"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/requestdata"
	"github.com/ortoqbank/ortoqbank-backend/internal/services"
)

type SessionHandler struct {
	log        *logger.Logger
	sessionSvc services.SessionService
}

func NewSessionHandler(log *logger.Logger, sessionSvc services.SessionService) *SessionHandler {
	return &SessionHandler{
		log:        log.With("handler", "SessionHandler"),
		sessionSvc: sessionSvc,
	}
}

type startSessionRequest struct {
	QuizType string    `json:"quiz_type" binding:"required"`
	QuizID   uuid.UUID `json:"quiz_id" binding:"required"`
}

// POST /api/sessions
func (h *SessionHandler) Start(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, nil)
		return
	}
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	session, err := h.sessionSvc.Start(c.Request.Context(), rd.UserID, req.QuizType, req.QuizID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondCreated(c, session)
}

type submitAnswerRequest struct {
	SelectedIndex *int `json:"selected_index" binding:"required"`
}

// POST /api/sessions/:id/answer
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, nil)
		return
	}
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	var req submitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	progress, err := h.sessionSvc.SubmitAnswer(c.Request.Context(), rd.UserID, sessionID, *req.SelectedIndex)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, progress)
}

// POST /api/sessions/:id/complete
func (h *SessionHandler) Complete(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, nil)
		return
	}
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	session, err := h.sessionSvc.Complete(c.Request.Context(), rd.UserID, sessionID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, session)
}

// GET /api/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, nil)
		return
	}
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	session, err := h.sessionSvc.Get(c.Request.Context(), rd.UserID, sessionID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, session)
}

// GET /api/sessions
func (h *SessionHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, nil)
		return
	}
	sessions, err := h.sessionSvc.ListByUser(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"sessions": sessions})
}

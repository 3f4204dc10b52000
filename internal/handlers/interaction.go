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

type InteractionHandler struct {
	log            *logger.Logger
	interactionSvc services.InteractionService
}

func NewInteractionHandler(log *logger.Logger, interactionSvc services.InteractionService) *InteractionHandler {
	return &InteractionHandler{
		log:            log.With("handler", "InteractionHandler"),
		interactionSvc: interactionSvc,
	}
}

type answerRequest struct {
	SelectedIndex *int `json:"selected_index" binding:"required"`
}

// POST /api/questions/:id/answer
func (h *InteractionHandler) RecordAnswer(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, nil)
		return
	}
	questionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	result, err := h.interactionSvc.RecordAnswer(c.Request.Context(), rd.UserID, questionID, *req.SelectedIndex)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, result)
}

// POST /api/questions/:id/bookmark
func (h *InteractionHandler) Bookmark(c *gin.Context) {
	h.setBookmark(c, true)
}

// DELETE /api/questions/:id/bookmark
func (h *InteractionHandler) Unbookmark(c *gin.Context) {
	h.setBookmark(c, false)
}

func (h *InteractionHandler) setBookmark(c *gin.Context, on bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, nil)
		return
	}
	questionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	if on {
		err = h.interactionSvc.Bookmark(c.Request.Context(), rd.UserID, questionID)
	} else {
		err = h.interactionSvc.Unbookmark(c.Request.Context(), rd.UserID, questionID)
	}
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

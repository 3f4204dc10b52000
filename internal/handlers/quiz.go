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

type QuizHandler struct {
	log     *logger.Logger
	quizSvc services.QuizService
}

func NewQuizHandler(log *logger.Logger, quizSvc services.QuizService) *QuizHandler {
	return &QuizHandler{
		log:     log.With("handler", "QuizHandler"),
		quizSvc: quizSvc,
	}
}

// GET /api/quizzes/presets?category=trilha|simulado
func (h *QuizHandler) ListPresets(c *gin.Context) {
	quizzes, err := h.quizSvc.ListPresets(c.Request.Context(), c.Query("category"), true)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"quizzes": quizzes})
}

// GET /api/quizzes/presets/:id
func (h *QuizHandler) GetPreset(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	quiz, err := h.quizSvc.GetPreset(c.Request.Context(), id)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, quiz)
}

// POST /api/quizzes/custom
func (h *QuizHandler) CreateCustom(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, nil)
		return
	}
	var in services.CustomQuizInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	quiz, err := h.quizSvc.CreateCustom(c.Request.Context(), rd.UserID, in)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondCreated(c, quiz)
}

// GET /api/quizzes/custom
func (h *QuizHandler) ListCustom(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, nil)
		return
	}
	quizzes, err := h.quizSvc.ListCustom(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"quizzes": quizzes})
}

// GET /api/quizzes/custom/:id
func (h *QuizHandler) GetCustom(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, nil)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	quiz, err := h.quizSvc.GetCustom(c.Request.Context(), rd.UserID, id)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, quiz)
}

// DELETE /api/quizzes/custom/:id
func (h *QuizHandler) DeleteCustom(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, nil)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	if err := h.quizSvc.DeleteCustom(c.Request.Context(), rd.UserID, id); err != nil {
		RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/admin/quizzes/presets
func (h *QuizHandler) CreatePreset(c *gin.Context) {
	var in services.PresetQuizInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	quiz, err := h.quizSvc.CreatePreset(c.Request.Context(), in)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondCreated(c, quiz)
}

// PUT /api/admin/quizzes/presets/:id
func (h *QuizHandler) UpdatePreset(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	var in services.PresetQuizInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	quiz, err := h.quizSvc.UpdatePreset(c.Request.Context(), id, in)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, quiz)
}

// DELETE /api/admin/quizzes/presets/:id
func (h *QuizHandler) DeletePreset(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	if err := h.quizSvc.DeletePreset(c.Request.Context(), id); err != nil {
		RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

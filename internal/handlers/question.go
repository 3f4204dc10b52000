package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ortoqbank/ortoqbank-backend/internal/platform/apierr"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/services"
	"github.com/ortoqbank/ortoqbank-backend/internal/types"
)

type QuestionHandler struct {
	log         *logger.Logger
	questionSvc services.QuestionService
}

func NewQuestionHandler(log *logger.Logger, questionSvc services.QuestionService) *QuestionHandler {
	return &QuestionHandler{
		log:         log.With("handler", "QuestionHandler"),
		questionSvc: questionSvc,
	}
}

// GET /api/questions/:id
func (h *QuestionHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	q, err := h.questionSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, q)
}

// GET /api/questions?level=theme&taxonomy_id=<uuid>&limit=50&offset=0
func (h *QuestionHandler) ListByTaxonomy(c *gin.Context) {
	taxonomyID, err := uuid.Parse(c.Query("taxonomy_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	level := types.TaxonomyLevel(c.DefaultQuery("level", string(types.LevelTheme)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	questions, err := h.questionSvc.ListByTaxonomy(c.Request.Context(), level, taxonomyID, limit, offset)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"questions": questions})
}

// POST /api/admin/questions
func (h *QuestionHandler) Create(c *gin.Context) {
	var in services.QuestionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	q, err := h.questionSvc.Create(c.Request.Context(), in)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondCreated(c, q)
}

// PUT /api/admin/questions/:id
func (h *QuestionHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	var in services.QuestionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	q, err := h.questionSvc.Update(c.Request.Context(), id, in)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, q)
}

// POST /api/admin/questions/:id/archive
func (h *QuestionHandler) Archive(c *gin.Context) {
	h.setArchived(c, true)
}

// POST /api/admin/questions/:id/unarchive
func (h *QuestionHandler) Unarchive(c *gin.Context) {
	h.setArchived(c, false)
}

func (h *QuestionHandler) setArchived(c *gin.Context, archived bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	if archived {
		err = h.questionSvc.Archive(c.Request.Context(), id)
	} else {
		err = h.questionSvc.Unarchive(c.Request.Context(), id)
	}
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

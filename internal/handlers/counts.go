package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ortoqbank/ortoqbank-backend/internal/platform/apierr"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/requestdata"
	"github.com/ortoqbank/ortoqbank-backend/internal/services"
	"github.com/ortoqbank/ortoqbank-backend/internal/types"
)

type CountHandler struct {
	log      *logger.Logger
	countSvc services.CountService
}

func NewCountHandler(log *logger.Logger, countSvc services.CountService) *CountHandler {
	return &CountHandler{
		log:      log.With("handler", "CountHandler"),
		countSvc: countSvc,
	}
}

type countLiveRequest struct {
	TaxonomyIDs []uuid.UUID           `json:"taxonomy_ids"`
	Mode        services.QuestionMode `json:"mode"`
}

// POST /api/counts/live
// Counts are computed against indexes and in-memory trees only; a selection
// that would need a table scan comes back as 422 invalid_combination.
func (h *CountHandler) CountLive(c *gin.Context) {
	var req countLiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	var userID *uuid.UUID
	if rd != nil {
		userID = &rd.UserID
	}
	n, err := h.countSvc.CountLive(c.Request.Context(), req.TaxonomyIDs, userID, req.Mode)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"count": n})
}

// GET /api/counts/taxonomy/:id?level=theme|subtheme|group
func (h *CountHandler) CountByTaxonomy(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	level := types.TaxonomyLevel(c.DefaultQuery("level", string(types.LevelTheme)))
	n, err := h.countSvc.CountByTaxonomy(c.Request.Context(), level, id)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"count": n})
}

// GET /api/counts/me
func (h *CountHandler) GetMyCounts(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, nil)
		return
	}
	counts, err := h.countSvc.GetAllQuestionCounts(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, counts)
}

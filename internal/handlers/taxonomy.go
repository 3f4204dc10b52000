package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ortoqbank/ortoqbank-backend/internal/platform/apierr"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/services"
	"github.com/ortoqbank/ortoqbank-backend/internal/types"
)

type TaxonomyHandler struct {
	log         *logger.Logger
	taxonomySvc services.TaxonomyService
}

func NewTaxonomyHandler(log *logger.Logger, taxonomySvc services.TaxonomyService) *TaxonomyHandler {
	return &TaxonomyHandler{
		log:         log.With("handler", "TaxonomyHandler"),
		taxonomySvc: taxonomySvc,
	}
}

// GET /api/taxonomy/hierarchy
func (h *TaxonomyHandler) GetHierarchy(c *gin.Context) {
	tree, err := h.taxonomySvc.GetHierarchy(c.Request.Context())
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"hierarchy": tree})
}

// GET /api/taxonomy?type=theme|subtheme|group&parent_id=<uuid>
func (h *TaxonomyHandler) List(c *gin.Context) {
	if raw := c.Query("parent_id"); raw != "" {
		parentID, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
			return
		}
		nodes, err := h.taxonomySvc.GetByParent(c.Request.Context(), &parentID)
		if err != nil {
			RespondAPIError(c, err)
			return
		}
		RespondOK(c, gin.H{"nodes": nodes})
		return
	}
	level := types.TaxonomyLevel(c.DefaultQuery("type", string(types.LevelTheme)))
	nodes, err := h.taxonomySvc.GetByType(c.Request.Context(), level)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"nodes": nodes})
}

// GET /api/taxonomy/:id/descendants
func (h *TaxonomyHandler) GetDescendants(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	nodes, err := h.taxonomySvc.GetDescendants(c.Request.Context(), id)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"nodes": nodes})
}

// GET /api/taxonomy/:id/path
func (h *TaxonomyHandler) GetHierarchyPath(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	path, err := h.taxonomySvc.GetHierarchyPath(c.Request.Context(), id)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, path)
}

type createTaxonomyRequest struct {
	Name     string              `json:"name" binding:"required"`
	Type     types.TaxonomyLevel `json:"type" binding:"required"`
	ParentID *uuid.UUID          `json:"parent_id"`
}

// POST /api/admin/taxonomy
func (h *TaxonomyHandler) Create(c *gin.Context) {
	var req createTaxonomyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	node, err := h.taxonomySvc.Create(c.Request.Context(), req.Name, req.Type, req.ParentID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondCreated(c, node)
}

type renameTaxonomyRequest struct {
	Name string `json:"name" binding:"required"`
}

// PATCH /api/admin/taxonomy/:id
func (h *TaxonomyHandler) Rename(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	var req renameTaxonomyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	node, err := h.taxonomySvc.Rename(c.Request.Context(), id, req.Name)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, node)
}

// DELETE /api/admin/taxonomy/:id
func (h *TaxonomyHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	if err := h.taxonomySvc.Delete(c.Request.Context(), id); err != nil {
		RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

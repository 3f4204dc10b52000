package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ortoqbank/ortoqbank-backend/internal/aggregate"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/envutil"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/services"
)

type AdminHandler struct {
	log         *logger.Logger
	backfillSvc services.BackfillService
}

func NewAdminHandler(log *logger.Logger, backfillSvc services.BackfillService) *AdminHandler {
	return &AdminHandler{
		log:         log.With("handler", "AdminHandler"),
		backfillSvc: backfillSvc,
	}
}

// POST /api/admin/backfill/taxonomy
func (h *AdminHandler) BackfillTaxonomy(c *gin.Context) {
	report, err := h.backfillSvc.BackfillTaxonomy(c.Request.Context())
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, report)
}

// POST /api/admin/backfill/question-names
func (h *AdminHandler) RefreshQuestionNames(c *gin.Context) {
	if err := h.backfillSvc.RefreshQuestionNames(c.Request.Context()); err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "ok"})
}

// POST /api/admin/aggregates/rebuild
// Intended for a maintenance window; API writes hitting the write path while
// the rebuild scans will be reflected twice or not at all.
func (h *AdminHandler) RebuildAggregates(c *gin.Context) {
	cfg := aggregate.Config{
		MaxNodeSize: envutil.Int("AGGREGATE_MAX_NODE_SIZE", 16),
		LazyRoot:    envutil.Bool("AGGREGATE_LAZY_ROOT", true),
	}
	if err := h.backfillSvc.RebuildAggregates(c.Request.Context(), cfg); err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "rebuilt"})
}

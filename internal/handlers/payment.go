package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ortoqbank/ortoqbank-backend/internal/platform/apierr"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/requestdata"
	"github.com/ortoqbank/ortoqbank-backend/internal/repos"
	"github.com/ortoqbank/ortoqbank-backend/internal/services"
)

type PaymentHandler struct {
	log        *logger.Logger
	paymentSvc services.PaymentService
	userRepo   repos.UserRepo
}

func NewPaymentHandler(log *logger.Logger, paymentSvc services.PaymentService, userRepo repos.UserRepo) *PaymentHandler {
	return &PaymentHandler{
		log:        log.With("handler", "PaymentHandler"),
		paymentSvc: paymentSvc,
		userRepo:   userRepo,
	}
}

// POST /api/checkout
func (h *PaymentHandler) CreateCheckout(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, nil)
		return
	}
	user, err := h.userRepo.GetByID(c.Request.Context(), nil, rd.UserID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	if user == nil {
		RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, nil)
		return
	}
	session, err := h.paymentSvc.CreateCheckout(c.Request.Context(), user)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondCreated(c, session)
}

// POST /webhooks/payment
// Unauthenticated; trust comes from the payload signature.
func (h *PaymentHandler) HandleWebhook(c *gin.Context) {
	var n services.PaymentNotification
	if err := c.ShouldBindJSON(&n); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	if err := h.paymentSvc.HandleNotification(c.Request.Context(), n); err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "ok"})
}

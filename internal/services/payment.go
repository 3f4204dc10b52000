package services

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ortoqbank/ortoqbank-backend/internal/platform/apierr"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/envutil"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/repos"
	"github.com/ortoqbank/ortoqbank-backend/internal/types"
)

const orderIDPrefix = "oqb"

// CheckoutSession is what the client needs to open the payment page.
type CheckoutSession struct {
	OrderID     string `json:"order_id"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// PaymentNotification is the provider's webhook payload, reduced to the
// fields the signature and the status transition need.
type PaymentNotification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
}

type PaymentService interface {
	CreateCheckout(ctx context.Context, user *types.User) (*CheckoutSession, error)
	// HandleNotification verifies the webhook signature and moves the
	// purchase to its final status. Unknown orders are a 404 so the
	// provider retries rather than silently dropping the event.
	HandleNotification(ctx context.Context, n PaymentNotification) error
}

type paymentService struct {
	db           *gorm.DB
	log          *logger.Logger
	purchaseRepo repos.PurchaseRepo
	snapClient   snap.Client
	serverKey    string
	price        int64
}

func NewPaymentService(db *gorm.DB, baseLog *logger.Logger, purchaseRepo repos.PurchaseRepo) PaymentService {
	serverKey := envutil.String("MIDTRANS_SERVER_KEY", "")
	env := midtrans.Sandbox
	if envutil.Bool("MIDTRANS_PRODUCTION", false) {
		env = midtrans.Production
	}
	s := &paymentService{
		db:           db,
		log:          baseLog.With("service", "PaymentService"),
		purchaseRepo: purchaseRepo,
		serverKey:    serverKey,
		price:        int64(envutil.Int("ACCESS_PRICE", 39990)),
	}
	s.snapClient.New(serverKey, env)
	return s
}

func (s *paymentService) CreateCheckout(ctx context.Context, user *types.User) (*CheckoutSession, error) {
	orderID := fmt.Sprintf("%s-%s", orderIDPrefix, uuid.New())
	now := time.Now().UTC()
	purchase := &types.Purchase{
		ID:        uuid.New(),
		UserID:    user.ID,
		OrderID:   orderID,
		Status:    types.PurchasePending,
		GrossAmt:  s.price,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.purchaseRepo.Create(ctx, nil, purchase); err != nil {
		return nil, err
	}

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: s.price,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: user.Name,
			Email: user.Email,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    "full-access",
				Price: s.price,
				Qty:   1,
				Name:  "OrtoQBank full access",
			},
		},
	}
	resp, err := s.snapClient.CreateTransaction(req)
	if err != nil {
		s.log.Error("snap transaction creation failed", "order_id", orderID, "error", err)
		return nil, apierr.New(502, apierr.CodeInternal, err)
	}
	s.log.Info("checkout created", "order_id", orderID, "user", user.ID)
	return &CheckoutSession{OrderID: orderID, Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

// verifySignature checks the provider's sha512(order_id+status_code+
// gross_amount+server_key) notification signature.
func (s *paymentService) verifySignature(n PaymentNotification) bool {
	sum := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + s.serverKey))
	want := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(n.SignatureKey))) == 1
}

func (s *paymentService) HandleNotification(ctx context.Context, n PaymentNotification) error {
	if !s.verifySignature(n) {
		return apierr.New(401, apierr.CodeUnauthorized, fmt.Errorf("notification signature mismatch for order %s", n.OrderID))
	}
	purchase, err := s.purchaseRepo.GetByOrderID(ctx, nil, n.OrderID)
	if err != nil {
		return err
	}
	if purchase == nil {
		return apierr.NotFound("order %s not found", n.OrderID)
	}

	status := purchase.Status
	switch n.TransactionStatus {
	case "capture":
		if n.FraudStatus == "accept" {
			status = types.PurchaseSettled
		}
	case "settlement":
		status = types.PurchaseSettled
	case "expire":
		status = types.PurchaseExpired
	case "deny", "cancel", "failure":
		status = types.PurchaseDenied
	case "pending":
		status = types.PurchasePending
	default:
		s.log.Warn("unhandled transaction status", "order_id", n.OrderID, "status", n.TransactionStatus)
		return nil
	}
	if status == purchase.Status {
		return nil
	}

	now := time.Now().UTC()
	purchase.Status = status
	purchase.UpdatedAt = now
	if status == types.PurchaseSettled {
		purchase.PaidAt = &now
		if amt, perr := strconv.ParseFloat(n.GrossAmount, 64); perr == nil {
			purchase.GrossAmt = int64(amt)
		}
	}
	if err := s.purchaseRepo.Save(ctx, nil, purchase); err != nil {
		return err
	}
	s.log.Info("purchase status updated", "order_id", n.OrderID, "status", status)
	return nil
}

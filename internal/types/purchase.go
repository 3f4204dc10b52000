package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	PurchasePending = "pending"
	PurchaseSettled = "settled"
	PurchaseExpired = "expired"
	PurchaseDenied  = "denied"
)

// Purchase records the outcome of the payment provider's webhook. A settled
// row is what entitles a user; the counting core never reads this table.
type Purchase struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_purchase_user" json:"user_id"`
	OrderID   string     `gorm:"uniqueIndex;not null;column:order_id" json:"order_id"`
	Status    string     `gorm:"not null;default:'pending';column:status" json:"status"`
	GrossAmt  int64      `gorm:"not null;default:0;column:gross_amount" json:"gross_amount"`
	PaidAt    *time.Time `gorm:"column:paid_at" json:"paid_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

func (Purchase) TableName() string { return "purchase" }

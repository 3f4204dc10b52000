package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/types"
)

type PurchaseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Purchase) error
	Save(ctx context.Context, tx *gorm.DB, row *types.Purchase) error
	GetByOrderID(ctx context.Context, tx *gorm.DB, orderID string) (*types.Purchase, error)
	HasSettled(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (bool, error)
}

type purchaseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPurchaseRepo(db *gorm.DB, baseLog *logger.Logger) PurchaseRepo {
	return &purchaseRepo{db: db, log: baseLog.With("repo", "PurchaseRepo")}
}

func (r *purchaseRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Purchase) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(row).Error
}

func (r *purchaseRepo) Save(ctx context.Context, tx *gorm.DB, row *types.Purchase) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(row).Error
}

func (r *purchaseRepo) GetByOrderID(ctx context.Context, tx *gorm.DB, orderID string) (*types.Purchase, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.Purchase
	err := transaction.WithContext(ctx).Where("order_id = ?", orderID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *purchaseRepo) HasSettled(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var n int64
	if err := transaction.WithContext(ctx).
		Model(&types.Purchase{}).
		Where("user_id = ? AND status = ?", userID, types.PurchaseSettled).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

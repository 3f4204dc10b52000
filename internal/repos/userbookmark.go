package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/types"
)

type UserBookmarkRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.UserBookmark) error
	GetByUserAndQuestion(ctx context.Context, tx *gorm.DB, userID, questionID uuid.UUID) (*types.UserBookmark, error)
	DeleteByUserAndQuestion(ctx context.Context, tx *gorm.DB, userID, questionID uuid.UUID) error
	PluckQuestionIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error)
	ForEach(ctx context.Context, tx *gorm.DB, batchSize int, fn func(rows []*types.UserBookmark) error) error
}

type userBookmarkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserBookmarkRepo(db *gorm.DB, baseLog *logger.Logger) UserBookmarkRepo {
	return &userBookmarkRepo{db: db, log: baseLog.With("repo", "UserBookmarkRepo")}
}

func (r *userBookmarkRepo) Create(ctx context.Context, tx *gorm.DB, row *types.UserBookmark) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(row).Error
}

func (r *userBookmarkRepo) GetByUserAndQuestion(ctx context.Context, tx *gorm.DB, userID, questionID uuid.UUID) (*types.UserBookmark, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.UserBookmark
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *userBookmarkRepo) DeleteByUserAndQuestion(ctx context.Context, tx *gorm.DB, userID, questionID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Delete(&types.UserBookmark{}).Error
}

func (r *userBookmarkRepo) PluckQuestionIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.UserBookmark{}).
		Where("user_id = ?", userID).
		Pluck("question_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *userBookmarkRepo) ForEach(ctx context.Context, tx *gorm.DB, batchSize int, fn func(rows []*types.UserBookmark) error) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var batch []*types.UserBookmark
	return transaction.WithContext(ctx).
		FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
			return fn(batch)
		}).Error
}

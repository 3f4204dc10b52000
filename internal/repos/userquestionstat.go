package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/types"
)

type UserQuestionStatRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.UserQuestionStat) error
	Save(ctx context.Context, tx *gorm.DB, row *types.UserQuestionStat) error
	GetByUserAndQuestion(ctx context.Context, tx *gorm.DB, userID, questionID uuid.UUID) (*types.UserQuestionStat, error)
	PluckQuestionIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, onlyIncorrect bool) ([]uuid.UUID, error)
	ForEach(ctx context.Context, tx *gorm.DB, batchSize int, fn func(rows []*types.UserQuestionStat) error) error
}

type userQuestionStatRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserQuestionStatRepo(db *gorm.DB, baseLog *logger.Logger) UserQuestionStatRepo {
	return &userQuestionStatRepo{db: db, log: baseLog.With("repo", "UserQuestionStatRepo")}
}

func (r *userQuestionStatRepo) Create(ctx context.Context, tx *gorm.DB, row *types.UserQuestionStat) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(row).Error
}

func (r *userQuestionStatRepo) Save(ctx context.Context, tx *gorm.DB, row *types.UserQuestionStat) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(row).Error
}

func (r *userQuestionStatRepo) GetByUserAndQuestion(ctx context.Context, tx *gorm.DB, userID, questionID uuid.UUID) (*types.UserQuestionStat, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.UserQuestionStat
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

// PluckQuestionIDs fetches the user's interaction set through the user index;
// the full stat table is never scanned for a single user.
func (r *userQuestionStatRepo) PluckQuestionIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, onlyIncorrect bool) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	q := transaction.WithContext(ctx).
		Model(&types.UserQuestionStat{}).
		Where("user_id = ? AND has_answered = ?", userID, true)
	if onlyIncorrect {
		q = q.Where("is_incorrect = ?", true)
	}
	var ids []uuid.UUID
	if err := q.Pluck("question_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *userQuestionStatRepo) ForEach(ctx context.Context, tx *gorm.DB, batchSize int, fn func(rows []*types.UserQuestionStat) error) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var batch []*types.UserQuestionStat
	return transaction.WithContext(ctx).
		FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
			return fn(batch)
		}).Error
}

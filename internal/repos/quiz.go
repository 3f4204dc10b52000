package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/types"
)

type PresetQuizRepo interface {
	Create(ctx context.Context, tx *gorm.DB, quiz *types.PresetQuiz) error
	Save(ctx context.Context, tx *gorm.DB, quiz *types.PresetQuiz) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.PresetQuiz, error)
	List(ctx context.Context, tx *gorm.DB, category string, publishedOnly bool) ([]*types.PresetQuiz, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type presetQuizRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPresetQuizRepo(db *gorm.DB, baseLog *logger.Logger) PresetQuizRepo {
	return &presetQuizRepo{db: db, log: baseLog.With("repo", "PresetQuizRepo")}
}

func (r *presetQuizRepo) Create(ctx context.Context, tx *gorm.DB, quiz *types.PresetQuiz) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(quiz).Error
}

func (r *presetQuizRepo) Save(ctx context.Context, tx *gorm.DB, quiz *types.PresetQuiz) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(quiz).Error
}

func (r *presetQuizRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.PresetQuiz, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var quiz types.PresetQuiz
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&quiz).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *presetQuizRepo) List(ctx context.Context, tx *gorm.DB, category string, publishedOnly bool) ([]*types.PresetQuiz, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	q := transaction.WithContext(ctx).Order("display_order ASC, created_at ASC")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	var results []*types.PresetQuiz
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *presetQuizRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.PresetQuiz{}).Error
}

type CustomQuizRepo interface {
	Create(ctx context.Context, tx *gorm.DB, quiz *types.CustomQuiz) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CustomQuiz, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.CustomQuiz, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type customQuizRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCustomQuizRepo(db *gorm.DB, baseLog *logger.Logger) CustomQuizRepo {
	return &customQuizRepo{db: db, log: baseLog.With("repo", "CustomQuizRepo")}
}

func (r *customQuizRepo) Create(ctx context.Context, tx *gorm.DB, quiz *types.CustomQuiz) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(quiz).Error
}

func (r *customQuizRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CustomQuiz, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var quiz types.CustomQuiz
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&quiz).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *customQuizRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.CustomQuiz, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.CustomQuiz
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *customQuizRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.CustomQuiz{}).Error
}

package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/types"
)

type QuizSessionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, session *types.QuizSession) error
	Save(ctx context.Context, tx *gorm.DB, session *types.QuizSession) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.QuizSession, error)
	GetActive(ctx context.Context, tx *gorm.DB, userID, quizID uuid.UUID) (*types.QuizSession, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.QuizSession, error)
}

type quizSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizSessionRepo(db *gorm.DB, baseLog *logger.Logger) QuizSessionRepo {
	return &quizSessionRepo{db: db, log: baseLog.With("repo", "QuizSessionRepo")}
}

func (r *quizSessionRepo) Create(ctx context.Context, tx *gorm.DB, session *types.QuizSession) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(session).Error
}

func (r *quizSessionRepo) Save(ctx context.Context, tx *gorm.DB, session *types.QuizSession) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(session).Error
}

func (r *quizSessionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.QuizSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var session types.QuizSession
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *quizSessionRepo) GetActive(ctx context.Context, tx *gorm.DB, userID, quizID uuid.UUID) (*types.QuizSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var session types.QuizSession
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ? AND is_complete = ?", userID, quizID, false).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *quizSessionRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.QuizSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.QuizSession
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/types"
)

type TaxonomyRepo interface {
	Create(ctx context.Context, tx *gorm.DB, node *types.TaxonomyNode) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.TaxonomyNode, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.TaxonomyNode, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.TaxonomyNode, error)
	GetByType(ctx context.Context, tx *gorm.DB, level types.TaxonomyLevel) ([]*types.TaxonomyNode, error)
	GetByParent(ctx context.Context, tx *gorm.DB, parentID *uuid.UUID) ([]*types.TaxonomyNode, error)
	FindExisting(ctx context.Context, tx *gorm.DB, parentID *uuid.UUID, name string, level types.TaxonomyLevel) (*types.TaxonomyNode, error)
	UpdateName(ctx context.Context, tx *gorm.DB, id uuid.UUID, name string) error
	UpdatePathNames(ctx context.Context, tx *gorm.DB, id uuid.UUID, pathNames []string) error
	CountChildren(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type taxonomyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaxonomyRepo(db *gorm.DB, baseLog *logger.Logger) TaxonomyRepo {
	return &taxonomyRepo{db: db, log: baseLog.With("repo", "TaxonomyRepo")}
}

func (r *taxonomyRepo) Create(ctx context.Context, tx *gorm.DB, node *types.TaxonomyNode) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(node).Error
}

func (r *taxonomyRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.TaxonomyNode, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var node types.TaxonomyNode
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&node).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func (r *taxonomyRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.TaxonomyNode, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.TaxonomyNode
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *taxonomyRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.TaxonomyNode, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.TaxonomyNode
	if err := transaction.WithContext(ctx).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *taxonomyRepo) GetByType(ctx context.Context, tx *gorm.DB, level types.TaxonomyLevel) ([]*types.TaxonomyNode, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.TaxonomyNode
	if err := transaction.WithContext(ctx).
		Where("type = ?", level).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *taxonomyRepo) GetByParent(ctx context.Context, tx *gorm.DB, parentID *uuid.UUID) ([]*types.TaxonomyNode, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.TaxonomyNode
	q := transaction.WithContext(ctx)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *taxonomyRepo) FindExisting(ctx context.Context, tx *gorm.DB, parentID *uuid.UUID, name string, level types.TaxonomyLevel) (*types.TaxonomyNode, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	q := transaction.WithContext(ctx).Where("name = ? AND type = ?", name, level)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	var node types.TaxonomyNode
	err := q.First(&node).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func (r *taxonomyRepo) UpdateName(ctx context.Context, tx *gorm.DB, id uuid.UUID, name string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.TaxonomyNode{}).
		Where("id = ?", id).
		Update("name", name).Error
}

func (r *taxonomyRepo) UpdatePathNames(ctx context.Context, tx *gorm.DB, id uuid.UUID, pathNames []string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.TaxonomyNode{}).
		Where("id = ?", id).
		Update("path_names", datatypes.NewJSONSlice(pathNames)).Error
}

func (r *taxonomyRepo) CountChildren(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var n int64
	if err := transaction.WithContext(ctx).
		Model(&types.TaxonomyNode{}).
		Where("parent_id = ?", id).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *taxonomyRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.TaxonomyNode{}).Error
}

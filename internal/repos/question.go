package repos

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/types"
)

type QuestionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, q *types.Question) error
	Save(ctx context.Context, tx *gorm.DB, q *types.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Question, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Question, error)
	CountByTaxonomy(ctx context.Context, tx *gorm.DB, level types.TaxonomyLevel, id uuid.UUID) (int64, error)
	PluckIDsByTaxonomy(ctx context.Context, tx *gorm.DB, level types.TaxonomyLevel, id uuid.UUID) ([]uuid.UUID, error)
	ListByTaxonomy(ctx context.Context, tx *gorm.DB, level types.TaxonomyLevel, id uuid.UUID, limit, offset int) ([]*types.Question, error)
	CountReferencingTaxonomy(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error)
	UpdateTaxonomyName(ctx context.Context, tx *gorm.DB, level types.TaxonomyLevel, id uuid.UUID, name string) error
	ForEachLive(ctx context.Context, tx *gorm.DB, batchSize int, fn func(rows []*types.Question) error) error
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return &questionRepo{db: db, log: baseLog.With("repo", "QuestionRepo")}
}

// taxonomyColumn maps a level onto its dedicated index column. Every lookup
// in this repo goes through one of these three columns; there is no
// unindexed access path to the question table.
func taxonomyColumn(level types.TaxonomyLevel) (string, error) {
	switch level {
	case types.LevelTheme:
		return "taxonomy_theme_id", nil
	case types.LevelSubtheme:
		return "taxonomy_subtheme_id", nil
	case types.LevelGroup:
		return "taxonomy_group_id", nil
	}
	return "", fmt.Errorf("unknown taxonomy level %q", level)
}

func taxonomyNameColumn(level types.TaxonomyLevel) (string, error) {
	switch level {
	case types.LevelTheme:
		return "taxonomy_theme_name", nil
	case types.LevelSubtheme:
		return "taxonomy_subtheme_name", nil
	case types.LevelGroup:
		return "taxonomy_group_name", nil
	}
	return "", fmt.Errorf("unknown taxonomy level %q", level)
}

func (r *questionRepo) Create(ctx context.Context, tx *gorm.DB, q *types.Question) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(q).Error
}

func (r *questionRepo) Save(ctx context.Context, tx *gorm.DB, q *types.Question) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(q).Error
}

func (r *questionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var q types.Question
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *questionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Question
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

func (r *questionRepo) CountByTaxonomy(ctx context.Context, tx *gorm.DB, level types.TaxonomyLevel, id uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	col, err := taxonomyColumn(level)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := transaction.WithContext(ctx).
		Model(&types.Question{}).
		Where(col+" = ? AND archived = ?", id, false).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// PluckIDsByTaxonomy resolves one taxonomy id against one level index and
// returns question ids only, never full rows.
func (r *questionRepo) PluckIDsByTaxonomy(ctx context.Context, tx *gorm.DB, level types.TaxonomyLevel, id uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	col, err := taxonomyColumn(level)
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.Question{}).
		Where(col+" = ? AND archived = ?", id, false).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *questionRepo) ListByTaxonomy(ctx context.Context, tx *gorm.DB, level types.TaxonomyLevel, id uuid.UUID, limit, offset int) ([]*types.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	col, err := taxonomyColumn(level)
	if err != nil {
		return nil, err
	}
	var results []*types.Question
	if err := transaction.WithContext(ctx).
		Where(col+" = ? AND archived = ?", id, false).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *questionRepo) CountReferencingTaxonomy(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var n int64
	if err := transaction.WithContext(ctx).
		Model(&types.Question{}).
		Where("taxonomy_theme_id = ? OR taxonomy_subtheme_id = ? OR taxonomy_group_id = ?", id, id, id).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *questionRepo) UpdateTaxonomyName(ctx context.Context, tx *gorm.DB, level types.TaxonomyLevel, id uuid.UUID, name string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	idCol, err := taxonomyColumn(level)
	if err != nil {
		return err
	}
	nameCol, err := taxonomyNameColumn(level)
	if err != nil {
		return err
	}
	return transaction.WithContext(ctx).
		Model(&types.Question{}).
		Where(idCol+" = ?", id).
		Update(nameCol, name).Error
}

// ForEachLive streams non-archived questions in batches. Used only by the
// administrative aggregate rebuild, never by the live counting path.
func (r *questionRepo) ForEachLive(ctx context.Context, tx *gorm.DB, batchSize int, fn func(rows []*types.Question) error) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var batch []*types.Question
	return transaction.WithContext(ctx).
		Select("id", "created_at", "archived").
		Where("archived = ?", false).
		FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
			return fn(batch)
		}).Error
}

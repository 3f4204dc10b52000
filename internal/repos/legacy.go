package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/types"
)

// LegacyTaxonomyRepo reads the flat theme/subtheme/group tables the unified
// taxonomy replaced. Only the backfill job touches it.
type LegacyTaxonomyRepo interface {
	GetThemes(ctx context.Context, tx *gorm.DB) ([]*types.LegacyTheme, error)
	GetSubthemes(ctx context.Context, tx *gorm.DB) ([]*types.LegacySubtheme, error)
	GetGroups(ctx context.Context, tx *gorm.DB) ([]*types.LegacyGroup, error)
}

type legacyTaxonomyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLegacyTaxonomyRepo(db *gorm.DB, baseLog *logger.Logger) LegacyTaxonomyRepo {
	return &legacyTaxonomyRepo{db: db, log: baseLog.With("repo", "LegacyTaxonomyRepo")}
}

func (r *legacyTaxonomyRepo) GetThemes(ctx context.Context, tx *gorm.DB) ([]*types.LegacyTheme, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.LegacyTheme
	if err := transaction.WithContext(ctx).Order("created_at ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *legacyTaxonomyRepo) GetSubthemes(ctx context.Context, tx *gorm.DB) ([]*types.LegacySubtheme, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.LegacySubtheme
	if err := transaction.WithContext(ctx).Order("created_at ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *legacyTaxonomyRepo) GetGroups(ctx context.Context, tx *gorm.DB) ([]*types.LegacyGroup, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.LegacyGroup
	if err := transaction.WithContext(ctx).Order("created_at ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

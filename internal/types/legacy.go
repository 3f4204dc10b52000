package types

import (
	"time"

	"github.com/google/uuid"
)

// Legacy flat tables replaced by the unified taxonomy. Kept only as the
// source for the one-time backfill; nothing in the live path reads them.

type LegacyTheme struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null;column:name" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (LegacyTheme) TableName() string { return "legacy_theme" }

type LegacySubtheme struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null;column:name" json:"name"`
	ThemeID   uuid.UUID `gorm:"type:uuid;not null;index" json:"theme_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (LegacySubtheme) TableName() string { return "legacy_subtheme" }

type LegacyGroup struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string    `gorm:"not null;column:name" json:"name"`
	SubthemeID uuid.UUID `gorm:"type:uuid;not null;index" json:"subtheme_id"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (LegacyGroup) TableName() string { return "legacy_group" }

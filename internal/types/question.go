package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Question carries redundant taxonomy back-references at every level so each
// level has its own direct index on this table. The paired names are
// denormalized for display and refreshed when a taxonomy node is renamed.
type Question struct {
	ID           uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Stem         string                      `gorm:"type:text;not null;column:stem" json:"stem"`
	Explanation  string                      `gorm:"type:text;column:explanation" json:"explanation"`
	Options      datatypes.JSONSlice[string] `gorm:"column:options" json:"options"`
	CorrectIndex int                         `gorm:"not null;column:correct_index" json:"correct_index"`
	ImageURLs    datatypes.JSONSlice[string] `gorm:"column:image_urls" json:"image_urls,omitempty"`

	TaxonomyThemeID      uuid.UUID  `gorm:"type:uuid;not null;column:taxonomy_theme_id;index:idx_question_theme" json:"taxonomy_theme_id"`
	TaxonomyThemeName    string     `gorm:"column:taxonomy_theme_name" json:"taxonomy_theme_name"`
	TaxonomySubthemeID   *uuid.UUID `gorm:"type:uuid;column:taxonomy_subtheme_id;index:idx_question_subtheme" json:"taxonomy_subtheme_id,omitempty"`
	TaxonomySubthemeName string     `gorm:"column:taxonomy_subtheme_name" json:"taxonomy_subtheme_name,omitempty"`
	TaxonomyGroupID      *uuid.UUID `gorm:"type:uuid;column:taxonomy_group_id;index:idx_question_group" json:"taxonomy_group_id,omitempty"`
	TaxonomyGroupName    string     `gorm:"column:taxonomy_group_name" json:"taxonomy_group_name,omitempty"`

	// Archived is the soft-archival flag; questions are never physically
	// deleted in normal operation so statistics stay coherent.
	Archived  bool      `gorm:"not null;default:false;column:archived;index:idx_question_archived" json:"archived"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Question) TableName() string { return "question" }

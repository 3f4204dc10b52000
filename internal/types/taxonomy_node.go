package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TaxonomyLevel string

const (
	LevelTheme    TaxonomyLevel = "theme"
	LevelSubtheme TaxonomyLevel = "subtheme"
	LevelGroup    TaxonomyLevel = "group"
)

func (l TaxonomyLevel) Valid() bool {
	switch l {
	case LevelTheme, LevelSubtheme, LevelGroup:
		return true
	}
	return false
}

// Depth is the number of ancestors a node of this level must carry.
func (l TaxonomyLevel) Depth() int {
	switch l {
	case LevelTheme:
		return 0
	case LevelSubtheme:
		return 1
	case LevelGroup:
		return 2
	}
	return -1
}

// ParentLevel is the level a node's parent must have, or "" for themes.
func (l TaxonomyLevel) ParentLevel() TaxonomyLevel {
	switch l {
	case LevelSubtheme:
		return LevelTheme
	case LevelGroup:
		return LevelSubtheme
	}
	return ""
}

// TaxonomyNode is one entry in the unified theme/subtheme/group hierarchy.
// PathIDs/PathNames are the materialized ancestor chain, root first; their
// length always equals Type.Depth().
type TaxonomyNode struct {
	ID        uuid.UUID                     `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string                        `gorm:"not null;column:name" json:"name"`
	Type      TaxonomyLevel                 `gorm:"not null;column:type;index:idx_taxonomy_type" json:"type"`
	ParentID  *uuid.UUID                    `gorm:"type:uuid;column:parent_id;index:idx_taxonomy_parent" json:"parent_id,omitempty"`
	PathIDs   datatypes.JSONSlice[uuid.UUID] `gorm:"column:path_ids" json:"path_ids"`
	PathNames datatypes.JSONSlice[string]    `gorm:"column:path_names" json:"path_names"`
	CreatedAt time.Time                     `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time                     `gorm:"not null" json:"updated_at"`
}

func (TaxonomyNode) TableName() string { return "taxonomy_node" }

// HasAncestor reports whether id appears in the node's ancestor chain.
func (n *TaxonomyNode) HasAncestor(id uuid.UUID) bool {
	for _, p := range n.PathIDs {
		if p == id {
			return true
		}
	}
	return false
}

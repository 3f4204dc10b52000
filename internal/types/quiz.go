package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	QuizCategoryTrail = "trilha"
	QuizCategoryExam  = "simulado"
)

// PresetQuiz is an admin-curated, ordered question list (study trail or mock
// exam). The counting core consumes it only as an id list.
type PresetQuiz struct {
	ID           uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string                         `gorm:"not null;column:name" json:"name"`
	Description  string                         `gorm:"type:text;column:description" json:"description"`
	Category     string                         `gorm:"not null;column:category;index:idx_preset_category" json:"category"`
	QuestionIDs  datatypes.JSONSlice[uuid.UUID] `gorm:"column:question_ids" json:"question_ids"`
	DisplayOrder int                            `gorm:"not null;default:0;column:display_order" json:"display_order"`
	Published    bool                           `gorm:"not null;default:false;column:published" json:"published"`
	CreatedAt    time.Time                      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time                      `gorm:"not null" json:"updated_at"`
}

func (PresetQuiz) TableName() string { return "preset_quiz" }

// CustomQuiz is a user-assembled question list, resolved from a taxonomy
// selection plus an interaction mode at creation time.
type CustomQuiz struct {
	ID          uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID                      `gorm:"type:uuid;not null;index:idx_custom_user" json:"user_id"`
	Name        string                         `gorm:"not null;column:name" json:"name"`
	Mode        string                         `gorm:"not null;column:mode" json:"mode"`
	QuestionIDs datatypes.JSONSlice[uuid.UUID] `gorm:"column:question_ids" json:"question_ids"`
	CreatedAt   time.Time                      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time                      `gorm:"not null" json:"updated_at"`
}

func (CustomQuiz) TableName() string { return "custom_quiz" }

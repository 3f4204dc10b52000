package types

import (
	"time"

	"github.com/google/uuid"
)

// UserQuestionStat is the single interaction row per (user, question).
// IsIncorrect implies HasAnswered.
type UserQuestionStat struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;index:idx_stat_user_question,unique;index:idx_stat_user" json:"user_id"`
	QuestionID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_stat_user_question,unique" json:"question_id"`
	HasAnswered   bool       `gorm:"not null;default:false;column:has_answered" json:"has_answered"`
	IsIncorrect   bool       `gorm:"not null;default:false;column:is_incorrect" json:"is_incorrect"`
	SelectedIndex int        `gorm:"not null;default:0;column:selected_index" json:"selected_index"`
	AnsweredAt    *time.Time `gorm:"column:answered_at" json:"answered_at,omitempty"`
	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`
}

func (UserQuestionStat) TableName() string { return "user_question_stat" }

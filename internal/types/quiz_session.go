package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	QuizRefPreset = "preset"
	QuizRefCustom = "custom"
)

type SessionAnswer struct {
	QuestionID    uuid.UUID `json:"question_id"`
	SelectedIndex int       `json:"selected_index"`
	Correct       bool      `json:"correct"`
}

// QuizSession tracks a user working through a quiz. At most one incomplete
// session per (user, quiz) at a time, enforced by the session service.
type QuizSession struct {
	ID           uuid.UUID                          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID                          `gorm:"type:uuid;not null;index:idx_session_user" json:"user_id"`
	QuizID       uuid.UUID                          `gorm:"type:uuid;not null;index:idx_session_quiz" json:"quiz_id"`
	QuizType     string                             `gorm:"not null;column:quiz_type" json:"quiz_type"`
	CurrentIndex int                                `gorm:"not null;default:0;column:current_index" json:"current_index"`
	Answers      datatypes.JSONSlice[SessionAnswer] `gorm:"column:answers" json:"answers"`
	IsComplete   bool                               `gorm:"not null;default:false;column:is_complete" json:"is_complete"`
	Score        int                                `gorm:"not null;default:0;column:score" json:"score"`
	CompletedAt  *time.Time                         `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt    time.Time                          `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time                          `gorm:"not null" json:"updated_at"`
}

func (QuizSession) TableName() string { return "quiz_session" }

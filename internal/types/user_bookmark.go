package types

import (
	"time"

	"github.com/google/uuid"
)

// UserBookmark existence means "bookmarked". Unbookmarking deletes the row.
type UserBookmark struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index:idx_bookmark_user_question,unique;index:idx_bookmark_user" json:"user_id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;index:idx_bookmark_user_question,unique" json:"question_id"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (UserBookmark) TableName() string { return "user_bookmark" }

package types

import (
	"time"

	"github.com/google/uuid"
)

// User is provisioned on first sight of a subject id issued by the external
// identity provider. The core treats ExternalID as an opaque string.
type User struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExternalID string    `gorm:"uniqueIndex;not null;column:external_id" json:"external_id"`
	Email      string    `gorm:"column:email" json:"email"`
	Name       string    `gorm:"column:name" json:"name"`
	IsAdmin    bool      `gorm:"not null;default:false;column:is_admin" json:"is_admin"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "app_user" }

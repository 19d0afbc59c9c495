package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionToken is one issued bearer credential, stored content-addressed by
// the SHA-256 of the signed token. A user may hold any number of live
// sessions at once; logout revokes only the presented one.
type SessionToken struct {
	Base
	UserID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	TokenHash string     `gorm:"uniqueIndex;not null" json:"-"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at,omitempty"`

	// Relationships
	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (SessionToken) TableName() string {
	return "session_tokens"
}

package models

import "github.com/google/uuid"

type User struct {
	Base
	Username       string    `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash   string    `gorm:"not null" json:"-"`
	Role           string    `gorm:"not null" json:"role"` // admin, manager, user
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null" json:"organization_id"`

	// Relationships
	Organization *Organization  `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Sessions     []SessionToken `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

package models

import "gorm.io/gorm"

// User represents a store account. DeletedAt from gorm.Model backs the
// soft-delete/restore lifecycle; a deleted account keeps its row and can be
// restored until it is purged.
type User struct {
	ID                string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username          string `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Email             string `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password          string `json:"-" gorm:"type:varchar(255)" validate:"required,min=6"`
	EmailVerified     bool   `json:"email_verified"`
	VerificationToken string `json:"-" gorm:"type:varchar(36);index"`
	gorm.Model               // CreatedAt, UpdatedAt, DeletedAt
}

// SessionContext is the authenticated (or guest) identity threaded through
// request handling instead of ambient globals.
type SessionContext struct {
	SessionID string
	UserID    string
	Username  string
}

// Authenticated reports whether the session belongs to a logged-in user.
func (s SessionContext) Authenticated() bool {
	return s.UserID != ""
}

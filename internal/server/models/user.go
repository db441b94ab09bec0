package models

import "time"

type User struct {
	ID           string
	UserName     string
	PasswordHash string
	IsApproved   bool
	IsAdmin      bool
	CreatedAt    time.Time
}

// UserUpdate carries the admin-editable flags. Nil fields are left unchanged.
type UserUpdate struct {
	IsApproved *bool
	IsAdmin    *bool
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.IsApproved == nil && u.IsAdmin == nil
}

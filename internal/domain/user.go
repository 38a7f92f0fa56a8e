package domain

import "time"

// User is a registered shop account.
type User struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	UserName       string     `json:"userName"`
	PasswordHash   string     `json:"-"`
	IsAdmin        bool       `json:"isAdmin"`
	FailedAttempts int        `json:"-"`
	LockoutEnd     *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// LockedOut reports whether the account is locked at the given instant.
func (u User) LockedOut(now time.Time) bool {
	return u.LockoutEnd != nil && now.Before(*u.LockoutEnd)
}

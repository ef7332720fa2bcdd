package models

import "time"

type Account struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email"`
	Password string `json:"password"`
	LoginMs  *int64 `json:"loginMs"`
}

// SessionValid reports whether the account was active within ttl of now.
func (a Account) SessionValid(now time.Time, ttl time.Duration) bool {
	if a.LoginMs == nil {
		return false
	}
	return now.UnixMilli()-*a.LoginMs < ttl.Milliseconds()
}

// Touch records activity at now.
func (a *Account) Touch(now time.Time) {
	ms := now.UnixMilli()
	a.LoginMs = &ms
}

package models

import "time"

// User is an account holder. A user always carries at least one credential:
// a bcrypt password hash, a linked Google subject id, or both.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	GoogleID     string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
